package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/stagedesk/stagedesk/internal/cache"
)

// EquipmentItem mirrors the 'equipment' table. Rows are soft-deleted via
// deleted_at; every read in this repository filters deleted rows out.
// The good/damaged/maintenance subtotals must always add up to Quantity;
// writes that would break that are rejected with ErrQuantityMismatch.
type EquipmentItem struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	CategoryID    uint64     `json:"category_id"`
	SubcategoryID *uint64    `json:"subcategory_id,omitempty"`
	Quantity      int        `json:"quantity"`
	QtyGood       int        `json:"quantity_good"`
	QtyDamaged    int        `json:"quantity_damaged"`
	QtyMaint      int        `json:"quantity_maintenance"`
	Status        string     `json:"status"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	ImageURL      string     `json:"image_url,omitempty"`
	Version       uint64     `json:"version"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

var ErrEquipmentNotFound = errors.New("equipment not found")

// EquipmentPage is one cached page of the listing.
type EquipmentPage struct {
	Items   []*EquipmentItem `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

type EquipmentRepo struct {
	db  *sql.DB
	mem *cache.Manager
	ttl time.Duration
}

func NewEquipmentRepo(db *sql.DB, mem *cache.Manager, ttl time.Duration) *EquipmentRepo {
	return &EquipmentRepo{db: db, mem: mem, ttl: ttl}
}

const equipmentCols = `id, name, category_id, subcategory_id, quantity,
	quantity_good, quantity_damaged, quantity_maintenance, status,
	daily_rate_cents, image_url, version, deleted_at, created_at, updated_at`

func scanEquipment(row interface{ Scan(...any) error }) (*EquipmentItem, error) {
	e := new(EquipmentItem)
	err := row.Scan(&e.ID, &e.Name, &e.CategoryID, &e.SubcategoryID, &e.Quantity,
		&e.QtyGood, &e.QtyDamaged, &e.QtyMaint, &e.Status,
		&e.DailyRateCents, &e.ImageURL, &e.Version, &e.DeletedAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func subtotalsOK(e *EquipmentItem) bool {
	return e.QtyGood+e.QtyDamaged+e.QtyMaint == e.Quantity
}

// ListPage returns one page of live equipment ordered by name, served from
// the cache when possible.
func (r *EquipmentRepo) ListPage(ctx context.Context, page, perPage int) (*EquipmentPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	key := cache.KeyEquipmentPage(page, perPage)
	if v, ok := r.mem.Get(key); ok {
		if p, ok := v.(*EquipmentPage); ok {
			return p, nil
		}
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM equipment WHERE deleted_at IS NULL").Scan(&total); err != nil {
		return nil, err
	}
	q := `SELECT ` + equipmentCols + ` FROM equipment
	      WHERE deleted_at IS NULL ORDER BY name LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p := &EquipmentPage{Total: total, Page: page, PerPage: perPage}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.mem.Set(key, p, r.ttl)
	return p, nil
}

// GetByID fetches one live item.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (*EquipmentItem, error) {
	q := `SELECT ` + equipmentCols + ` FROM equipment WHERE id = ? AND deleted_at IS NULL`
	e, err := scanEquipment(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEquipmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByIDs fetches the live items among ids, in name order. Used by the
// public catalog: soft-deleted equipment silently drops out of shares.
func (r *EquipmentRepo) GetByIDs(ctx context.Context, ids []uint64) ([]*EquipmentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	q := `SELECT ` + equipmentCols + ` FROM equipment
	      WHERE deleted_at IS NULL AND id IN (` + strings.Join(ph, ",") + `) ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EquipmentItem
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts a new item after checking the subtotal invariant, then
// clears every cached listing page.
func (r *EquipmentRepo) Create(ctx context.Context, e *EquipmentItem) error {
	if !subtotalsOK(e) {
		return ErrQuantityMismatch
	}
	const q = `INSERT INTO equipment
	           (name, category_id, subcategory_id, quantity, quantity_good,
	            quantity_damaged, quantity_maintenance, status, daily_rate_cents, image_url)
	           VALUES (?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, e.Name, e.CategoryID, e.SubcategoryID, e.Quantity,
		e.QtyGood, e.QtyDamaged, e.QtyMaint, e.Status, e.DailyRateCents, e.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	r.mem.RemovePrefix(cache.KeyEquipmentPrefix())
	return nil
}

// Update rewrites a live item with an optimistic version check. When the
// subtotals changed, a status history row is appended in the same
// transaction so the maintenance view can show who moved stock between
// states and when.
func (r *EquipmentRepo) Update(ctx context.Context, e *EquipmentItem, actorID uint64) error {
	if !subtotalsOK(e) {
		return ErrQuantityMismatch
	}
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

	var prevGood, prevDamaged, prevMaint int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity_good, quantity_damaged, quantity_maintenance
		 FROM equipment WHERE id = ? AND deleted_at IS NULL`, e.ID).
		Scan(&prevGood, &prevDamaged, &prevMaint)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrEquipmentNotFound
		return err
	}
	if err != nil {
		return err
	}

	const q = `UPDATE equipment
	           SET name = ?, category_id = ?, subcategory_id = ?, quantity = ?,
	               quantity_good = ?, quantity_damaged = ?, quantity_maintenance = ?,
	               status = ?, daily_rate_cents = ?, image_url = ?,
	               version = version + 1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND version = ? AND deleted_at IS NULL`
	var res sql.Result
	res, err = tx.ExecContext(ctx, q, e.Name, e.CategoryID, e.SubcategoryID, e.Quantity,
		e.QtyGood, e.QtyDamaged, e.QtyMaint, e.Status, e.DailyRateCents, e.ImageURL,
		e.ID, e.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrVersionConflict
		return err
	}

	if prevGood != e.QtyGood || prevDamaged != e.QtyDamaged || prevMaint != e.QtyMaint {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO equipment_status_history
			 (equipment_id, changed_by, good_before, damaged_before, maintenance_before,
			  good_after, damaged_after, maintenance_after)
			 VALUES (?,?,?,?,?,?,?,?)`,
			e.ID, actorID, prevGood, prevDamaged, prevMaint, e.QtyGood, e.QtyDamaged, e.QtyMaint)
		if err != nil {
			return err
		}
	}
	r.mem.RemovePrefix(cache.KeyEquipmentPrefix())
	return nil
}

// SoftDelete stamps deleted_at. The row stays for audit and restore.
func (r *EquipmentRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE equipment SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEquipmentNotFound
	}
	r.mem.RemovePrefix(cache.KeyEquipmentPrefix())
	return nil
}

// Restore clears deleted_at on a soft-deleted row.
func (r *EquipmentRepo) Restore(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE equipment SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEquipmentNotFound
	}
	r.mem.RemovePrefix(cache.KeyEquipmentPrefix())
	return nil
}
