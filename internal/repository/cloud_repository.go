package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CloudFolder groups files per user. Folders form a tree via ParentID.
type CloudFolder struct {
	ID        uint64    `json:"id"`
	OwnerID   uint64    `json:"owner_id"`
	ParentID  *uint64   `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CloudFile is the metadata row for a stored blob. ObjectKey is the
// opaque name the blob lives under on disk so user renames never touch
// storage.
type CloudFile struct {
	ID        uint64     `json:"id"`
	OwnerID   uint64     `json:"owner_id"`
	FolderID  *uint64    `json:"folder_id,omitempty"`
	Name      string     `json:"name"`
	ObjectKey string     `json:"-"`
	MimeType  string     `json:"mime_type"`
	SizeBytes int64      `json:"size_bytes"`
	IsStarred bool       `json:"is_starred"`
	TrashedAt *time.Time `json:"trashed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StorageQuota tracks per-user usage against a fixed limit.
type StorageQuota struct {
	UserID     uint64 `json:"user_id"`
	UsedBytes  int64  `json:"used_bytes"`
	LimitBytes int64  `json:"limit_bytes"`
}

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrFolderNotFound = errors.New("folder not found")
)

type CloudRepo struct {
	db           *sql.DB
	defaultQuota int64
}

func NewCloudRepo(db *sql.DB, defaultQuotaBytes int64) *CloudRepo {
	return &CloudRepo{db: db, defaultQuota: defaultQuotaBytes}
}

// Quota returns the user's quota row, creating it with the default
// limit on first touch.
func (r *CloudRepo) Quota(ctx context.Context, userID uint64) (*StorageQuota, error) {
	q := new(StorageQuota)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, used_bytes, limit_bytes FROM storage_quotas WHERE user_id = ?`, userID).
		Scan(&q.UserID, &q.UsedBytes, &q.LimitBytes)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.db.ExecContext(ctx,
			`INSERT IGNORE INTO storage_quotas (user_id, used_bytes, limit_bytes) VALUES (?, 0, ?)`,
			userID, r.defaultQuota); err != nil {
			return nil, err
		}
		return &StorageQuota{UserID: userID, UsedBytes: 0, LimitBytes: r.defaultQuota}, nil
	}
	return q, err
}

func (r *CloudRepo) CreateFolder(ctx context.Context, f *CloudFolder) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cloud_folders (owner_id, parent_id, name) VALUES (?,?,?)`,
		f.OwnerID, f.ParentID, f.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

func (r *CloudRepo) ListFolders(ctx context.Context, ownerID uint64, parentID *uint64) ([]*CloudFolder, error) {
	q := `SELECT id, owner_id, parent_id, name, created_at FROM cloud_folders WHERE owner_id = ?`
	args := []any{ownerID}
	if parentID == nil {
		q += " AND parent_id IS NULL"
	} else {
		q += " AND parent_id = ?"
		args = append(args, *parentID)
	}
	q += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CloudFolder
	for rows.Next() {
		f := new(CloudFolder)
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.ParentID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFolder removes an empty folder. Folders holding files or
// subfolders refuse with ErrConflict.
func (r *CloudRepo) DeleteFolder(ctx context.Context, id, ownerID uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM cloud_files WHERE folder_id = ?) +
		        (SELECT COUNT(*) FROM cloud_folders WHERE parent_id = ?)`, id, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cloud_folders WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

const cloudFileCols = `id, owner_id, folder_id, name, object_key, mime_type, size_bytes,
	is_starred, trashed_at, created_at, updated_at`

func scanCloudFile(row interface{ Scan(...any) error }) (*CloudFile, error) {
	f := new(CloudFile)
	err := row.Scan(&f.ID, &f.OwnerID, &f.FolderID, &f.Name, &f.ObjectKey, &f.MimeType,
		&f.SizeBytes, &f.IsStarred, &f.TrashedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFile reserves quota and inserts the metadata row in one
// transaction. The quota check and the usage bump happen behind a row
// lock so two concurrent uploads cannot both squeeze past the limit.
// The caller writes the blob under the returned ObjectKey only after
// this commits.
func (r *CloudRepo) CreateFile(ctx context.Context, f *CloudFile) error {
	f.ObjectKey = uuid.NewString()

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

	if _, err = tx.ExecContext(ctx,
		`INSERT IGNORE INTO storage_quotas (user_id, used_bytes, limit_bytes) VALUES (?, 0, ?)`,
		f.OwnerID, r.defaultQuota); err != nil {
		return err
	}

	var used, limit int64
	err = tx.QueryRowContext(ctx,
		`SELECT used_bytes, limit_bytes FROM storage_quotas WHERE user_id = ? FOR UPDATE`,
		f.OwnerID).Scan(&used, &limit)
	if err != nil {
		return err
	}
	if used+f.SizeBytes > limit {
		err = ErrQuotaExceeded
		return err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO cloud_files (owner_id, folder_id, name, object_key, mime_type, size_bytes)
		 VALUES (?,?,?,?,?,?)`,
		f.OwnerID, f.FolderID, f.Name, f.ObjectKey, f.MimeType, f.SizeBytes)
	if err != nil {
		return err
	}
	var id int64
	id, err = res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)

	_, err = tx.ExecContext(ctx,
		`UPDATE storage_quotas SET used_bytes = used_bytes + ? WHERE user_id = ?`,
		f.SizeBytes, f.OwnerID)
	return err
}

func (r *CloudRepo) GetFile(ctx context.Context, id, ownerID uint64) (*CloudFile, error) {
	f, err := scanCloudFile(r.db.QueryRowContext(ctx,
		`SELECT `+cloudFileCols+` FROM cloud_files WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	return f, err
}

// ListFiles returns the owner's live files in one folder. Trashed files
// live in their own view.
func (r *CloudRepo) ListFiles(ctx context.Context, ownerID uint64, folderID *uint64) ([]*CloudFile, error) {
	q := `SELECT ` + cloudFileCols + ` FROM cloud_files WHERE owner_id = ? AND trashed_at IS NULL`
	args := []any{ownerID}
	if folderID == nil {
		q += " AND folder_id IS NULL"
	} else {
		q += " AND folder_id = ?"
		args = append(args, *folderID)
	}
	q += " ORDER BY name"
	return r.queryFiles(ctx, q, args...)
}

func (r *CloudRepo) ListStarred(ctx context.Context, ownerID uint64) ([]*CloudFile, error) {
	return r.queryFiles(ctx,
		`SELECT `+cloudFileCols+` FROM cloud_files
		 WHERE owner_id = ? AND is_starred = 1 AND trashed_at IS NULL ORDER BY name`, ownerID)
}

func (r *CloudRepo) ListTrash(ctx context.Context, ownerID uint64) ([]*CloudFile, error) {
	return r.queryFiles(ctx,
		`SELECT `+cloudFileCols+` FROM cloud_files
		 WHERE owner_id = ? AND trashed_at IS NOT NULL ORDER BY trashed_at DESC`, ownerID)
}

func (r *CloudRepo) queryFiles(ctx context.Context, q string, args ...any) ([]*CloudFile, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CloudFile
	for rows.Next() {
		f, err := scanCloudFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *CloudRepo) Rename(ctx context.Context, id, ownerID uint64, name string) error {
	return r.ownerUpdate(ctx, id, ownerID,
		`UPDATE cloud_files SET name = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`, name, id, ownerID)
}

func (r *CloudRepo) Move(ctx context.Context, id, ownerID uint64, folderID *uint64) error {
	if folderID != nil {
		var exists int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM cloud_folders WHERE id = ? AND owner_id = ?`, *folderID, ownerID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFolderNotFound
		}
		if err != nil {
			return err
		}
	}
	return r.ownerUpdate(ctx, id, ownerID,
		`UPDATE cloud_files SET folder_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`, folderID, id, ownerID)
}

func (r *CloudRepo) SetStarred(ctx context.Context, id, ownerID uint64, starred bool) error {
	return r.ownerUpdate(ctx, id, ownerID,
		`UPDATE cloud_files SET is_starred = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`, starred, id, ownerID)
}

func (r *CloudRepo) Trash(ctx context.Context, id, ownerID uint64) error {
	return r.ownerUpdate(ctx, id, ownerID,
		`UPDATE cloud_files SET trashed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ? AND trashed_at IS NULL`, id, ownerID)
}

func (r *CloudRepo) Restore(ctx context.Context, id, ownerID uint64) error {
	return r.ownerUpdate(ctx, id, ownerID,
		`UPDATE cloud_files SET trashed_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ? AND trashed_at IS NOT NULL`, id, ownerID)
}

// DeleteFile permanently removes the row and releases its quota in one
// transaction, returning the object key so the caller can unlink the
// blob after commit.
func (r *CloudRepo) DeleteFile(ctx context.Context, id, ownerID uint64) (objectKey string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var size int64
	err = tx.QueryRowContext(ctx,
		`SELECT object_key, size_bytes FROM cloud_files WHERE id = ? AND owner_id = ? FOR UPDATE`,
		id, ownerID).Scan(&objectKey, &size)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrFileNotFound
		return "", err
	}
	if err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cloud_files WHERE id = ?`, id); err != nil {
		return "", err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE storage_quotas SET used_bytes = GREATEST(used_bytes - ?, 0) WHERE user_id = ?`,
		size, ownerID)
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

func (r *CloudRepo) ownerUpdate(ctx context.Context, id, ownerID uint64, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM cloud_files WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrFileNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}
