package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Subrental is equipment hired in from a partner to cover a shortage,
// usually for a specific event.
type Subrental struct {
	ID          uint64     `json:"id"`
	PartnerID   uint64     `json:"partner_id"`
	EventID     *uint64    `json:"event_id,omitempty"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	CostCents   int64      `json:"cost_cents"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	Version     uint64     `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var ErrSubrentalNotFound = errors.New("subrental not found")

type SubrentalRepo struct{ db *sql.DB }

func NewSubrentalRepo(db *sql.DB) *SubrentalRepo { return &SubrentalRepo{db: db} }

const subrentalCols = `id, partner_id, event_id, description, quantity, cost_cents,
	starts_at, ends_at, returned_at, version, created_at, updated_at`

func scanSubrental(row interface{ Scan(...any) error }) (*Subrental, error) {
	s := new(Subrental)
	err := row.Scan(&s.ID, &s.PartnerID, &s.EventID, &s.Description, &s.Quantity, &s.CostCents,
		&s.StartsAt, &s.EndsAt, &s.ReturnedAt, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns subrentals, optionally filtered to one partner. Open
// (unreturned) ones sort first.
func (r *SubrentalRepo) List(ctx context.Context, partnerID uint64) ([]*Subrental, error) {
	q := `SELECT ` + subrentalCols + ` FROM subrentals`
	var args []any
	if partnerID != 0 {
		q += " WHERE partner_id = ?"
		args = append(args, partnerID)
	}
	q += " ORDER BY returned_at IS NOT NULL, starts_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Subrental
	for rows.Next() {
		s, err := scanSubrental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubrentalRepo) GetByID(ctx context.Context, id uint64) (*Subrental, error) {
	s, err := scanSubrental(r.db.QueryRowContext(ctx,
		`SELECT `+subrentalCols+` FROM subrentals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubrentalNotFound
	}
	return s, err
}

func (r *SubrentalRepo) Create(ctx context.Context, s *Subrental) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subrentals (partner_id, event_id, description, quantity, cost_cents, starts_at, ends_at)
		 VALUES (?,?,?,?,?,?,?)`,
		s.PartnerID, s.EventID, s.Description, s.Quantity, s.CostCents, s.StartsAt, s.EndsAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func (r *SubrentalRepo) Update(ctx context.Context, s *Subrental) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subrentals
		 SET partner_id = ?, event_id = ?, description = ?, quantity = ?, cost_cents = ?,
		     starts_at = ?, ends_at = ?, returned_at = ?, version = version + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		s.PartnerID, s.EventID, s.Description, s.Quantity, s.CostCents,
		s.StartsAt, s.EndsAt, s.ReturnedAt, s.ID, s.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return versionOrMissing(ctx, r.db, "subrentals", s.ID, ErrSubrentalNotFound)
	}
	return nil
}

// MarkReturned stamps the return time. Already-returned rows are left
// untouched so the first timestamp wins.
func (r *SubrentalRepo) MarkReturned(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subrentals SET returned_at = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND returned_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM subrentals WHERE id = ?`, id).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrSubrentalNotFound
		} else if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func (r *SubrentalRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subrentals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSubrentalNotFound
	}
	return nil
}
