package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Client represents a customer that rents equipment.
type Client struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Partner represents an agency equipment can be subrented from or whose
// clients receive catalog share links.
type Partner struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrPartnerNotFound = errors.New("partner not found")
)

type ClientRepo struct{ db *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

func (r *ClientRepo) List(ctx context.Context) ([]*Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, address, notes, version, created_at, updated_at
		 FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		c := new(Client)
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes,
			&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*Client, error) {
	c := new(Client)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, address, notes, version, created_at, updated_at
		 FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes,
			&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ClientRepo) Create(ctx context.Context, c *Client) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (name, email, phone, address, notes) VALUES (?,?,?,?,?)`,
		c.Name, c.Email, c.Phone, c.Address, c.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *ClientRepo) Update(ctx context.Context, c *Client) error {
	const q = `UPDATE clients
	           SET name = ?, email = ?, phone = ?, address = ?, notes = ?,
	               version = version + 1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Email, c.Phone, c.Address, c.Notes, c.ID, c.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return versionOrMissing(ctx, r.db, "clients", c.ID, ErrClientNotFound)
	}
	return nil
}

// Delete refuses to remove clients that still have events or quotes.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	var inUse int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM events WHERE client_id = ?) +
		        (SELECT COUNT(*) FROM quotes WHERE client_id = ?)`, id, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClientNotFound
	}
	return nil
}

type PartnerRepo struct{ db *sql.DB }

func NewPartnerRepo(db *sql.DB) *PartnerRepo { return &PartnerRepo{db: db} }

func (r *PartnerRepo) List(ctx context.Context) ([]*Partner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, contact, email, phone, notes, version, created_at, updated_at
		 FROM partners ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Partner
	for rows.Next() {
		p := new(Partner)
		if err := rows.Scan(&p.ID, &p.Name, &p.Contact, &p.Email, &p.Phone, &p.Notes,
			&p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PartnerRepo) GetByID(ctx context.Context, id uint64) (*Partner, error) {
	p := new(Partner)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, contact, email, phone, notes, version, created_at, updated_at
		 FROM partners WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Contact, &p.Email, &p.Phone, &p.Notes,
			&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PartnerRepo) Create(ctx context.Context, p *Partner) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO partners (name, contact, email, phone, notes) VALUES (?,?,?,?,?)`,
		p.Name, p.Contact, p.Email, p.Phone, p.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PartnerRepo) Update(ctx context.Context, p *Partner) error {
	const q = `UPDATE partners
	           SET name = ?, contact = ?, email = ?, phone = ?, notes = ?,
	               version = version + 1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Contact, p.Email, p.Phone, p.Notes, p.ID, p.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return versionOrMissing(ctx, r.db, "partners", p.ID, ErrPartnerNotFound)
	}
	return nil
}

// Delete refuses to remove partners that still have subrentals or shares.
func (r *PartnerRepo) Delete(ctx context.Context, id uint64) error {
	var inUse int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM subrentals WHERE partner_id = ?) +
		        (SELECT COUNT(*) FROM catalog_shares WHERE partner_id = ?)`, id, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM partners WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPartnerNotFound
	}
	return nil
}
