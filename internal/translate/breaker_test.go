package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := newBreaker(3, time.Minute)

	b.recordFailure()
	b.recordFailure()
	require.True(t, b.allow())
	require.False(t, b.open())

	b.recordFailure()
	require.False(t, b.allow())
	require.True(t, b.open())
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := newBreaker(3, time.Minute)

	b.recordFailure()
	b.recordFailure()
	b.recordSuccess()
	b.recordFailure()
	b.recordFailure()
	require.True(t, b.allow(), "non-consecutive failures must not trip")
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	now := time.Now()
	b := newBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	b.recordFailure()
	require.False(t, b.allow())

	now = now.Add(61 * time.Second)
	require.True(t, b.allow())
	require.False(t, b.open())
}
