package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserSerializationHidesPasswordHash(t *testing.T) {
	u := User{
		ID:           1,
		Username:     "admin",
		PasswordHash: "$2a$10$notforclients",
		Role:         "admin",
		IsActive:     true,
		Version:      3,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "notforclients")
	require.NotContains(t, string(raw), "PasswordHash")
	require.Contains(t, string(raw), `"username":"admin"`)
}
