package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Quote is a priced offer for a client, optionally tied to an event.
// TotalCents is derived from the items and stored denormalized so list
// views never join the item table.
type Quote struct {
	ID            uint64       `json:"id"`
	ClientID      uint64       `json:"client_id"`
	EventID       *uint64      `json:"event_id,omitempty"`
	Status        string       `json:"status"`
	DiscountCents int64        `json:"discount_cents"`
	TotalCents    int64        `json:"total_cents"`
	ValidUntil    *time.Time   `json:"valid_until,omitempty"`
	Notes         string       `json:"notes"`
	Version       uint64       `json:"version"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Items         []*QuoteItem `json:"items,omitempty"`
}

// QuoteItem is one priced line on a quote. Description is free text so
// quotes can carry lines not backed by inventory (labor, transport).
type QuoteItem struct {
	EquipmentID   *uint64 `json:"equipment_id,omitempty"`
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity"`
	Days          int     `json:"days"`
	UnitRateCents int64   `json:"unit_rate_cents"`
}

var ErrQuoteNotFound = errors.New("quote not found")

// Total computes the quote total from its lines minus the discount,
// floored at zero.
func (q *Quote) Total() int64 {
	var sum int64
	for _, it := range q.Items {
		sum += int64(it.Quantity) * int64(it.Days) * it.UnitRateCents
	}
	sum -= q.DiscountCents
	if sum < 0 {
		sum = 0
	}
	return sum
}

type QuoteRepo struct{ db *sql.DB }

func NewQuoteRepo(db *sql.DB) *QuoteRepo { return &QuoteRepo{db: db} }

func (r *QuoteRepo) List(ctx context.Context, clientID uint64) ([]*Quote, error) {
	q := `SELECT id, client_id, event_id, status, discount_cents, total_cents,
	             valid_until, notes, version, created_at, updated_at
	      FROM quotes`
	var args []any
	if clientID != 0 {
		q += " WHERE client_id = ?"
		args = append(args, clientID)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Quote
	for rows.Next() {
		qt := new(Quote)
		if err := rows.Scan(&qt.ID, &qt.ClientID, &qt.EventID, &qt.Status, &qt.DiscountCents,
			&qt.TotalCents, &qt.ValidUntil, &qt.Notes, &qt.Version, &qt.CreatedAt, &qt.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, qt)
	}
	return out, rows.Err()
}

func (r *QuoteRepo) GetByID(ctx context.Context, id uint64) (*Quote, error) {
	qt := new(Quote)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, event_id, status, discount_cents, total_cents,
		        valid_until, notes, version, created_at, updated_at
		 FROM quotes WHERE id = ?`, id).
		Scan(&qt.ID, &qt.ClientID, &qt.EventID, &qt.Status, &qt.DiscountCents,
			&qt.TotalCents, &qt.ValidUntil, &qt.Notes, &qt.Version, &qt.CreatedAt, &qt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT equipment_id, description, quantity, days, unit_rate_cents
		 FROM quote_items WHERE quote_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		it := new(QuoteItem)
		if err := rows.Scan(&it.EquipmentID, &it.Description, &it.Quantity, &it.Days, &it.UnitRateCents); err != nil {
			return nil, err
		}
		qt.Items = append(qt.Items, it)
	}
	return qt, rows.Err()
}

// Create stores the quote and its lines, recomputing the total server
// side before insert.
func (r *QuoteRepo) Create(ctx context.Context, qt *Quote) error {
	qt.TotalCents = qt.Total()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO quotes (client_id, event_id, status, discount_cents, total_cents, valid_until, notes)
		 VALUES (?,?,?,?,?,?,?)`,
		qt.ClientID, qt.EventID, qt.Status, qt.DiscountCents, qt.TotalCents, qt.ValidUntil, qt.Notes)
	if err != nil {
		return err
	}
	var id int64
	id, err = res.LastInsertId()
	if err != nil {
		return err
	}
	qt.ID = uint64(id)

	for _, it := range qt.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO quote_items (quote_id, equipment_id, description, quantity, days, unit_rate_cents)
			 VALUES (?,?,?,?,?,?)`,
			qt.ID, it.EquipmentID, it.Description, it.Quantity, it.Days, it.UnitRateCents); err != nil {
			return err
		}
	}
	return nil
}

// Update rewrites the quote and replaces its lines under the version
// check, recomputing the stored total.
func (r *QuoteRepo) Update(ctx context.Context, qt *Quote) error {
	qt.TotalCents = qt.Total()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE quotes
		 SET client_id = ?, event_id = ?, status = ?, discount_cents = ?, total_cents = ?,
		     valid_until = ?, notes = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		qt.ClientID, qt.EventID, qt.Status, qt.DiscountCents, qt.TotalCents,
		qt.ValidUntil, qt.Notes, qt.ID, qt.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = versionOrMissing(ctx, r.db, "quotes", qt.ID, ErrQuoteNotFound)
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = ?`, qt.ID); err != nil {
		return err
	}
	for _, it := range qt.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO quote_items (quote_id, equipment_id, description, quantity, days, unit_rate_cents)
			 VALUES (?,?,?,?,?,?)`,
			qt.ID, it.EquipmentID, it.Description, it.Quantity, it.Days, it.UnitRateCents); err != nil {
			return err
		}
	}
	return nil
}

func (r *QuoteRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrQuoteNotFound
		return err
	}
	return nil
}
