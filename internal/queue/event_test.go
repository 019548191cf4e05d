package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestActivityEventCarriesNumericEntityID(t *testing.T) {
	ev := ActivityEvent{
		UserID:     7,
		Username:   "admin",
		EntityType: "equipment",
		EntityID:   42,
		Action:     "updated",
		CreatedAt:  time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, float64(42), decoded["entity_id"])
	require.Equal(t, "equipment", decoded["entity_type"])
}
