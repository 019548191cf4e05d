// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// error strings.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a category that still has
// equipment. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned when an optimistic-lock check fails: the
// row exists but its version column no longer matches the one the caller
// read. Handlers translate this into HTTP 409.
var ErrVersionConflict = errors.New("version conflict")

// ErrQuantityMismatch is returned when an equipment write would leave the
// good/damaged/maintenance subtotals out of sync with the total quantity.
// Handlers translate this into HTTP 422.
var ErrQuantityMismatch = errors.New("status subtotals do not add up to quantity")

// ErrQuotaExceeded is returned when an upload would push a user past their
// storage quota. Handlers translate this into HTTP 422.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// versionOrMissing distinguishes a stale version from a missing row after an
// optimistic update touched zero rows. Shared by every repository that does
// version checks.
func versionOrMissing(ctx context.Context, db *sql.DB, table string, id uint64, notFound error) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id=? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}
