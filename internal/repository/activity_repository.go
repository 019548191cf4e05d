package repository

import (
	"context"
	"database/sql"
	"time"
)

// Activity is one append-only audit log row. Rows are never updated or
// deleted through the API.
type Activity struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	Username   string    `json:"username"`
	EntityType string    `json:"entity_type"`
	EntityID   uint64    `json:"entity_id"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

type ActivityPage struct {
	Items   []*Activity `json:"items"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}

type ActivityRepo struct{ db *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Insert(ctx context.Context, a *Activity) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (user_id, username, entity_type, entity_id, action, created_at)
		 VALUES (?,?,?,?,?,?)`,
		a.UserID, a.Username, a.EntityType, a.EntityID, a.Action, a.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// List pages through the log newest first, optionally filtered by
// entity type.
func (r *ActivityRepo) List(ctx context.Context, entityType string, page, perPage int) (*ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	countQ := `SELECT COUNT(*) FROM activity_log`
	listQ := `SELECT id, user_id, username, entity_type, entity_id, action, created_at FROM activity_log`
	var args []any
	if entityType != "" {
		countQ += " WHERE entity_type = ?"
		listQ += " WHERE entity_type = ?"
		args = append(args, entityType)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQ += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p := &ActivityPage{Total: total, Page: page, PerPage: perPage}
	for rows.Next() {
		a := new(Activity)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.EntityType, &a.EntityID, &a.Action, &a.CreatedAt); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, a)
	}
	return p, rows.Err()
}
