package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagedesk/stagedesk/internal/cache"
)

// Shares are cached per token, so the deadline has to be enforced on the
// cached copy too, not only on the database read.
func TestGetByTokenRefusesExpiredCachedShare(t *testing.T) {
	mem := cache.New(true, time.Minute)
	repo := NewCatalogShareRepo(nil, mem, 10*time.Minute)

	token := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	expires := time.Now().Add(30 * time.Millisecond)
	mem.Set(cache.KeyCatalogShare(token), &CatalogShare{
		ID:           1,
		Token:        token,
		Title:        "trade show",
		EquipmentIDs: []uint64{4, 9},
		ExpiresAt:    &expires,
	}, 10*time.Minute)

	s, err := repo.GetByToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "trade show", s.Title)

	time.Sleep(60 * time.Millisecond)

	_, err = repo.GetByToken(context.Background(), token)
	require.ErrorIs(t, err, ErrShareExpired)

	// The lapsed entry is evicted as well.
	_, ok := mem.Get(cache.KeyCatalogShare(token))
	require.False(t, ok)
}

func TestGetByTokenRefusesRevokedCachedShare(t *testing.T) {
	mem := cache.New(true, time.Minute)
	repo := NewCatalogShareRepo(nil, mem, 10*time.Minute)

	token := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	revoked := time.Now()
	mem.Set(cache.KeyCatalogShare(token), &CatalogShare{
		ID:        2,
		Token:     token,
		RevokedAt: &revoked,
	}, 10*time.Minute)

	_, err := repo.GetByToken(context.Background(), token)
	require.ErrorIs(t, err, ErrShareExpired)
}
