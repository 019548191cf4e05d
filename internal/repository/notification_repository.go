package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Notification is a per-user inbox entry.
type Notification struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, title, body) VALUES (?,?,?,?)`,
		n.UserID, n.Kind, n.Title, n.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListForUser returns the user's notifications newest first, optionally
// only unread ones.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, unreadOnly bool) ([]*Notification, error) {
	q := `SELECT id, user_id, kind, title, body, is_read, created_at
	      FROM notifications WHERE user_id = ?`
	if unreadOnly {
		q += " AND is_read = 0"
	}
	q += " ORDER BY created_at DESC LIMIT 200"

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n := new(Notification)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n)
	return n, err
}

// MarkRead flips one notification, but only for its owner.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.notFoundOrForbidden(ctx, id, userID)
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.notFoundOrForbidden(ctx, id, userID)
	}
	return nil
}

// notFoundOrForbidden disambiguates a zero-row owner-scoped write: the
// row is missing, belongs to someone else, or the write was a no-op
// (marking an already-read row changes nothing under MySQL's affected
// row counting).
func (r *NotificationRepo) notFoundOrForbidden(ctx context.Context, id, userID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM notifications WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}
