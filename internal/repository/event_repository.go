package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Event represents a rental booking: a client, a date range and the
// equipment lines reserved for it.
type Event struct {
	ID        uint64       `json:"id"`
	Name      string       `json:"name"`
	ClientID  uint64       `json:"client_id"`
	StartsAt  time.Time    `json:"starts_at"`
	EndsAt    time.Time    `json:"ends_at"`
	Location  string       `json:"location"`
	Status    string       `json:"status"`
	Notes     string       `json:"notes"`
	Version   uint64       `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Items     []*EventItem `json:"items,omitempty"`
}

// EventItem is one equipment line on an event.
type EventItem struct {
	EquipmentID uint64 `json:"equipment_id"`
	Quantity    int    `json:"quantity"`
}

var ErrEventNotFound = errors.New("event not found")

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// List returns events overlapping [from, to), newest first. Zero times
// disable the corresponding bound.
func (r *EventRepo) List(ctx context.Context, from, to time.Time) ([]*Event, error) {
	q := `SELECT id, name, client_id, starts_at, ends_at, location, status, notes,
	             version, created_at, updated_at
	      FROM events WHERE 1=1`
	var args []any
	if !from.IsZero() {
		q += " AND ends_at >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND starts_at < ?"
		args = append(args, to)
	}
	q += " ORDER BY starts_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e := new(Event)
		if err := rows.Scan(&e.ID, &e.Name, &e.ClientID, &e.StartsAt, &e.EndsAt, &e.Location,
			&e.Status, &e.Notes, &e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID fetches an event including its equipment lines.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	e := new(Event)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, client_id, starts_at, ends_at, location, status, notes,
		        version, created_at, updated_at
		 FROM events WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.ClientID, &e.StartsAt, &e.EndsAt, &e.Location,
			&e.Status, &e.Notes, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT equipment_id, quantity FROM event_items WHERE event_id = ? ORDER BY equipment_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		it := new(EventItem)
		if err := rows.Scan(&it.EquipmentID, &it.Quantity); err != nil {
			return nil, err
		}
		e.Items = append(e.Items, it)
	}
	return e, rows.Err()
}

// Create inserts the event and its lines in one transaction.
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
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
		`INSERT INTO events (name, client_id, starts_at, ends_at, location, status, notes)
		 VALUES (?,?,?,?,?,?,?)`,
		e.Name, e.ClientID, e.StartsAt, e.EndsAt, e.Location, e.Status, e.Notes)
	if err != nil {
		return err
	}
	var id int64
	id, err = res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)

	for _, it := range e.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO event_items (event_id, equipment_id, quantity) VALUES (?,?,?)`,
			e.ID, it.EquipmentID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Update rewrites the event row and replaces its lines, all behind one
// optimistic version check in one transaction.
func (r *EventRepo) Update(ctx context.Context, e *Event) error {
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
		`UPDATE events
		 SET name = ?, client_id = ?, starts_at = ?, ends_at = ?, location = ?,
		     status = ?, notes = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		e.Name, e.ClientID, e.StartsAt, e.EndsAt, e.Location, e.Status, e.Notes, e.ID, e.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = versionOrMissing(ctx, r.db, "events", e.ID, ErrEventNotFound)
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_items WHERE event_id = ?`, e.ID); err != nil {
		return err
	}
	for _, it := range e.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO event_items (event_id, equipment_id, quantity) VALUES (?,?,?)`,
			e.ID, it.EquipmentID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the event and its lines in one transaction.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_items WHERE event_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrEventNotFound
		return err
	}
	return nil
}
