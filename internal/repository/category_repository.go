// Package repository contains data access logic separated from HTTP
// handlers. Category writes invalidate the cached listing here, in one
// place, so handlers never need to remember the matching invalidation call.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stagedesk/stagedesk/internal/cache"
)

// Category represents an equipment category. A category with a non-nil
// ParentID is a subcategory of its parent.
type Category struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uint64    `json:"parent_id,omitempty"`
	Version   uint64     `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

var ErrCategoryNotFound = errors.New("category not found")

// CategoryRepo encapsulates category queries plus the cache discipline for
// the category listing.
type CategoryRepo struct {
	db  *sql.DB
	mem *cache.Manager
	ttl time.Duration
}

func NewCategoryRepo(db *sql.DB, mem *cache.Manager, ttl time.Duration) *CategoryRepo {
	return &CategoryRepo{db: db, mem: mem, ttl: ttl}
}

// List returns every category ordered by name, served from the cache when
// possible.
func (r *CategoryRepo) List(ctx context.Context) ([]*Category, error) {
	if v, ok := r.mem.Get(cache.KeyCategoryList()); ok {
		if cats, ok := v.([]*Category); ok {
			return cats, nil
		}
	}
	const q = `SELECT id, name, parent_id, version, created_at, updated_at
	           FROM categories ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c := new(Category)
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.mem.Set(cache.KeyCategoryList(), out, r.ttl)
	return out, nil
}

// GetByID fetches one category.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*Category, error) {
	const q = `SELECT id, name, parent_id, version, created_at, updated_at FROM categories WHERE id = ?`
	c := new(Category)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.ParentID, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a category and invalidates the cached listing.
func (r *CategoryRepo) Create(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, parent_id) VALUES (?,?)", c.Name, c.ParentID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	r.mem.Remove(cache.KeyCategoryList())
	return nil
}

// Update renames or reparents a category with an optimistic version check,
// then invalidates the cached listing.
func (r *CategoryRepo) Update(ctx context.Context, id uint64, name string, parentID *uint64, version uint64) error {
	const q = `UPDATE categories
	           SET name = ?, parent_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, name, parentID, id, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return versionOrMissing(ctx, r.db, "categories", id, ErrCategoryNotFound)
	}
	r.mem.Remove(cache.KeyCategoryList())
	return nil
}

// Delete removes an empty category. Categories still referenced by live
// equipment or child categories return ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	var inUse int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM equipment WHERE (category_id = ? OR subcategory_id = ?) AND deleted_at IS NULL`,
		id, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrConflict
	}
	var children int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE parent_id = ?`, id).Scan(&children); err != nil {
		return err
	}
	if children > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	r.mem.Remove(cache.KeyCategoryList())
	return nil
}
