package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stagedesk/stagedesk/internal/cache"
	"github.com/stagedesk/stagedesk/internal/utils"
)

// CatalogShare is a public, tokenized view over a subset of the
// equipment catalog. The token is the only credential: anyone holding
// the link can read the listed items until the share expires or is
// revoked.
type CatalogShare struct {
	ID           uint64     `json:"id"`
	Token        string     `json:"token"`
	Title        string     `json:"title"`
	PartnerID    *uint64    `json:"partner_id,omitempty"`
	CreatedBy    uint64     `json:"created_by"`
	EquipmentIDs []uint64   `json:"equipment_ids"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

var (
	ErrShareNotFound = errors.New("catalog share not found")
	ErrShareExpired  = errors.New("catalog share expired")
)

type CatalogShareRepo struct {
	db  *sql.DB
	mem *cache.Manager
	ttl time.Duration
}

func NewCatalogShareRepo(db *sql.DB, mem *cache.Manager, ttl time.Duration) *CatalogShareRepo {
	return &CatalogShareRepo{db: db, mem: mem, ttl: ttl}
}

func (r *CatalogShareRepo) List(ctx context.Context) ([]*CatalogShare, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, token, title, partner_id, created_by, expires_at, revoked_at, created_at
		 FROM catalog_shares ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CatalogShare
	for rows.Next() {
		s := new(CatalogShare)
		if err := rows.Scan(&s.ID, &s.Token, &s.Title, &s.PartnerID, &s.CreatedBy, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create mints a fresh 64-hex token and stores the share with its
// equipment selection in one transaction.
func (r *CatalogShareRepo) Create(ctx context.Context, s *CatalogShare) error {
	token, err := utils.RandomHex(32)
	if err != nil {
		return err
	}
	s.Token = token

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
		`INSERT INTO catalog_shares (token, title, partner_id, created_by, expires_at) VALUES (?,?,?,?,?)`,
		s.Token, s.Title, s.PartnerID, s.CreatedBy, s.ExpiresAt)
	if err != nil {
		return err
	}
	var id int64
	id, err = res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	for _, eqID := range s.EquipmentIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO catalog_share_items (share_id, equipment_id) VALUES (?,?)`,
			s.ID, eqID); err != nil {
			return err
		}
	}
	return nil
}

// GetByToken resolves a share for the public catalog view. Expired and
// revoked shares come back as ErrShareExpired so the handler can show a
// distinct message from a plain bad token. Live shares are cached per
// token.
func (r *CatalogShareRepo) GetByToken(ctx context.Context, token string) (*CatalogShare, error) {
	key := cache.KeyCatalogShare(token)
	if v, ok := r.mem.Get(key); ok {
		s := v.(*CatalogShare)
		// The cached copy can outlive the share's own deadline: re-check
		// before serving and evict once it lapses.
		if s.RevokedAt != nil || (s.ExpiresAt != nil && s.ExpiresAt.Before(time.Now())) {
			r.mem.Remove(key)
			return nil, ErrShareExpired
		}
		return s, nil
	}

	s := new(CatalogShare)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, title, partner_id, created_by, expires_at, revoked_at, created_at
		 FROM catalog_shares WHERE token = ?`, token).
		Scan(&s.ID, &s.Token, &s.Title, &s.PartnerID, &s.CreatedBy, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.RevokedAt != nil || (s.ExpiresAt != nil && s.ExpiresAt.Before(time.Now())) {
		return nil, ErrShareExpired
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT equipment_id FROM catalog_share_items WHERE share_id = ? ORDER BY equipment_id`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eqID uint64
		if err := rows.Scan(&eqID); err != nil {
			return nil, err
		}
		s.EquipmentIDs = append(s.EquipmentIDs, eqID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.mem.Set(key, s, r.ttl)
	return s, nil
}

// Revoke stamps the share and drops it from the cache so the public
// link dies immediately rather than after the cache TTL.
func (r *CatalogShareRepo) Revoke(ctx context.Context, id uint64) error {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM catalog_shares WHERE id = ?`, id).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShareNotFound
	}
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE catalog_shares SET revoked_at = CURRENT_TIMESTAMP WHERE id = ? AND revoked_at IS NULL`, id); err != nil {
		return err
	}
	r.mem.Remove(cache.KeyCatalogShare(token))
	return nil
}
