package translate

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagedesk/stagedesk/internal/cache"
)

// fakeProvider upper-cases and prefixes texts so tests can tell translated
// output from pass-through. It records every batch it receives.
type fakeProvider struct {
	calls   int
	batches [][]string
	fail    bool
}

func (f *fakeProvider) TranslateBatch(_ context.Context, texts []string, _ string) ([]string, error) {
	f.calls++
	cp := make([]string, len(texts))
	copy(cp, texts)
	f.batches = append(f.batches, cp)
	if f.fail {
		return nil, errors.New("provider down")
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "pt:" + t
	}
	return out, nil
}

// fakeStore is an in-memory database tier keyed by (lang, source).
type fakeStore struct {
	rows      map[string]string
	getCalls  int
	upserts   int
	failReads bool
}

func newFakeStore() *fakeStore { return &fakeStore{rows: map[string]string{}} }

func (f *fakeStore) key(text, lang string) string { return lang + "\x00" + text }

func (f *fakeStore) GetBatch(_ context.Context, texts []string, lang string) (map[string]string, error) {
	f.getCalls++
	if f.failReads {
		return nil, errors.New("db down")
	}
	out := map[string]string{}
	for _, t := range texts {
		if v, ok := f.rows[f.key(t, lang)]; ok {
			out[t] = v
		}
	}
	return out, nil
}

func (f *fakeStore) Upsert(_ context.Context, text, lang, translated string) error {
	f.upserts++
	f.rows[f.key(text, lang)] = translated
	return nil
}

func (f *fakeStore) CountExisting(_ context.Context, texts []string, lang string) (int, error) {
	n := 0
	for _, t := range texts {
		if _, ok := f.rows[f.key(t, lang)]; ok {
			n++
		}
	}
	return n, nil
}

func newTestService(p Provider, st Store) (*Service, *cache.Manager) {
	mem := cache.New(true, time.Minute)
	svc := New(p, st, mem, slog.Default(), Options{
		MemoryTTL:        time.Minute,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	})
	return svc, mem
}

func TestTranslateEnglishPassThrough(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	require.Equal(t, "Save", svc.Translate(context.Background(), "Save", "en"))
	require.Equal(t, "Save", svc.Translate(context.Background(), "Save", "EN"))
	require.Zero(t, p.calls)
}

func TestTranslateBatchPreservesCardinalityAndOrder(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	in := []string{"Save", "", "Cancel", "Save"}
	out := svc.TranslateBatch(context.Background(), in, "pt")

	require.Len(t, out, len(in))
	require.Equal(t, []string{"pt:Save", "pt:", "pt:Cancel", "pt:Save"}, out)
}

func TestTranslateBatchDeduplicatesWithinBatch(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	out := svc.TranslateBatch(context.Background(), []string{"Save", "Cancel", "Save"}, "pt")

	require.Equal(t, []string{"pt:Save", "pt:Cancel", "pt:Save"}, out)
	require.Equal(t, 1, p.calls, "duplicates must not widen the provider batch")
	require.Equal(t, []string{"Save", "Cancel"}, p.batches[0])
}

func TestTranslateBatchSecondCallServedFromCache(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	first := svc.TranslateBatch(context.Background(), []string{"Save", "Cancel"}, "pt")
	second := svc.TranslateBatch(context.Background(), []string{"Save", "Cancel"}, "pt")

	require.Equal(t, first, second)
	require.Equal(t, 1, p.calls, "second call must be fully cache-sourced")
}

func TestClearCacheFallsBackToDatabaseTier(t *testing.T) {
	p := &fakeProvider{}
	st := newFakeStore()
	svc, _ := newTestService(p, st)

	out := svc.TranslateBatch(context.Background(), []string{"Save"}, "pt")
	require.Equal(t, []string{"pt:Save"}, out)
	require.Equal(t, 1, p.calls)

	svc.ClearCache()
	dbReadsBefore := st.getCalls

	out = svc.TranslateBatch(context.Background(), []string{"Save"}, "pt")
	require.Equal(t, []string{"pt:Save"}, out)
	require.Equal(t, 1, p.calls, "no new provider call after memory clear")
	require.Greater(t, st.getCalls, dbReadsBefore, "must re-hit the database tier")
}

func TestBreakerTripsAfterThresholdAndSkipsProvider(t *testing.T) {
	p := &fakeProvider{fail: true}
	svc, _ := newTestService(p, newFakeStore())

	// Three distinct texts, three failing provider calls: threshold reached.
	for _, txt := range []string{"a", "b", "c"} {
		out := svc.TranslateBatch(context.Background(), []string{txt}, "pt")
		require.Equal(t, []string{txt}, out, "failure degrades to pass-through")
	}
	require.Equal(t, 3, p.calls)
	require.True(t, svc.Metrics().BreakerOpen)

	out := svc.TranslateBatch(context.Background(), []string{"d"}, "pt")
	require.Equal(t, []string{"d"}, out)
	require.Equal(t, 3, p.calls, "open breaker must not reach the provider")
}

func TestLargeBatchIsChunked(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	in := make([]string, 120)
	for i := range in {
		in[i] = "text-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	out := svc.TranslateBatch(context.Background(), in, "pt")

	require.Len(t, out, 120)
	require.Equal(t, 3, p.calls, "120 distinct texts should take 3 calls of 50/50/20")
	require.Len(t, p.batches[0], 50)
	require.Len(t, p.batches[2], 20)
}

func TestNilProviderPassesThrough(t *testing.T) {
	svc, _ := newTestService(nil, newFakeStore())
	require.False(t, svc.Configured())

	out := svc.TranslateBatch(context.Background(), []string{"Save"}, "pt")
	require.Equal(t, []string{"Save"}, out)
}

func TestDatabaseTierFailureDegradesToProvider(t *testing.T) {
	p := &fakeProvider{}
	st := newFakeStore()
	st.failReads = true
	svc, _ := newTestService(p, st)

	out := svc.TranslateBatch(context.Background(), []string{"Save"}, "pt")
	require.Equal(t, []string{"pt:Save"}, out, "db tier errors are not fatal")
}

func TestSeedCountsExistingAndTranslated(t *testing.T) {
	p := &fakeProvider{}
	st := newFakeStore()
	svc, _ := newTestService(p, st)

	// Pre-cache two catalog entries in the db tier.
	require.NoError(t, st.Upsert(context.Background(), StaticTexts[0], "pt", "x"))
	require.NoError(t, st.Upsert(context.Background(), StaticTexts[1], "pt", "y"))
	st.upserts = 0

	res := svc.Seed(context.Background(), "pt", false)

	require.Equal(t, len(StaticTexts), res.Total)
	require.Equal(t, 2, res.Existing)
	require.Equal(t, len(StaticTexts)-2, res.Translated)
	require.Zero(t, res.Errors)
}

// identityProvider answers every text with itself, the way a real
// provider does for words that are spelled the same in both languages.
type identityProvider struct{}

func (identityProvider) TranslateBatch(_ context.Context, texts []string, _ string) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}

func TestSeedAcceptsTranslationsEqualToSource(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(identityProvider{}, st)

	res := svc.Seed(context.Background(), "pt", false)

	require.Equal(t, len(StaticTexts), res.Total)
	require.Equal(t, len(StaticTexts), res.Translated)
	require.Zero(t, res.Errors)
}

func TestSeedHonorsContextDeadline(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already expired: nothing should be translated

	res := svc.Seed(ctx, "pt", false)
	require.Equal(t, len(StaticTexts), res.Errors)
	require.Zero(t, res.Translated)
}

func TestMetricsCounters(t *testing.T) {
	p := &fakeProvider{}
	svc, _ := newTestService(p, newFakeStore())

	svc.TranslateBatch(context.Background(), []string{"Save"}, "pt")
	svc.TranslateBatch(context.Background(), []string{"Save"}, "pt")

	m := svc.Metrics()
	require.Equal(t, uint64(2), m.Requests)
	require.Equal(t, uint64(1), m.ProviderCalls)
	require.Equal(t, uint64(1), m.CacheHits)
	require.Zero(t, m.ProviderFailures)
	require.False(t, m.BreakerOpen)
	require.False(t, m.LastSuccess.IsZero())
}
