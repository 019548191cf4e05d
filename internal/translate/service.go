package translate

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stagedesk/stagedesk/internal/cache"
)

// sourceLang is the language the UI is authored in. Requests targeting it
// are pass-through and never touch the caches or the provider.
const sourceLang = "en"

// providerBatchSize bounds one provider call to keep payloads inside the
// provider's size and time limits.
const providerBatchSize = 50

// Store is the database tier of the translation cache. Satisfied by
// *repository.TranslationRepo; tests install fakes.
type Store interface {
	GetBatch(ctx context.Context, texts []string, targetLang string) (map[string]string, error)
	Upsert(ctx context.Context, sourceText, targetLang, translatedText string) error
	CountExisting(ctx context.Context, texts []string, targetLang string) (int, error)
}

// Metrics is a point-in-time snapshot of the service counters. It feeds the
// health endpoint and nothing else; no control logic reads it.
type Metrics struct {
	Requests         uint64    `json:"requests"`
	CacheHits        uint64    `json:"cache_hits"`
	ProviderCalls    uint64    `json:"provider_calls"`
	ProviderFailures uint64    `json:"provider_failures"`
	LastSuccess      time.Time `json:"last_success"`
	LastFailure      time.Time `json:"last_failure"`
	BreakerOpen      bool      `json:"breaker_open"`
}

// Service mediates between the memory tier, the database tier and the
// external provider. Construct with New and inject into handlers; the same
// instance is shared by the HTTP layer and the queue worker.
type Service struct {
	provider Provider // nil when no API key is configured
	store    Store
	mem      *cache.Manager
	memTTL   time.Duration
	breaker  *breaker
	log      *slog.Logger

	mu      sync.Mutex
	metrics Metrics
}

// Options carries the knobs New needs beyond its collaborators.
type Options struct {
	MemoryTTL        time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// New builds a Service. provider may be nil, which turns every uncached
// lookup into a pass-through; the health endpoint reports the missing
// configuration.
func New(provider Provider, store Store, mem *cache.Manager, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider: provider,
		store:    store,
		mem:      mem,
		memTTL:   opts.MemoryTTL,
		breaker:  newBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
		log:      log,
	}
}

// Configured reports whether a provider is wired in.
func (s *Service) Configured() bool { return s.provider != nil }

// Translate translates a single text. English targets pass through
// unchanged.
func (s *Service) Translate(ctx context.Context, text, targetLang string) string {
	out := s.TranslateBatch(ctx, []string{text}, targetLang)
	return out[0]
}

// TranslateBatch translates texts into targetLang, returning a slice of the
// same length and order as the input. Lookup order is memory tier, database
// tier, provider; anything that cannot be translated comes back as its
// source text. The method never returns an error: a degraded provider is
// observable only through Metrics and visibly untranslated output.
func (s *Service) TranslateBatch(ctx context.Context, texts []string, targetLang string) []string {
	result := make([]string, len(texts))
	copy(result, texts)
	if len(texts) == 0 {
		return result
	}

	s.mu.Lock()
	s.metrics.Requests++
	s.mu.Unlock()

	if normalizeLang(targetLang) == sourceLang {
		return result
	}

	// Resolve each distinct text once; duplicates fan out at the end.
	translated := make(map[string]string)
	var missing []string
	seen := make(map[string]bool, len(texts))
	for _, t := range texts {
		if seen[t] {
			continue
		}
		seen[t] = true
		if v, ok := s.mem.Get(cache.KeyTranslation(t, targetLang)); ok {
			if sv, ok := v.(string); ok {
				translated[t] = sv
				s.countHit()
				continue
			}
		}
		missing = append(missing, t)
	}

	if len(missing) > 0 {
		dbHits, err := s.store.GetBatch(ctx, missing, targetLang)
		if err != nil {
			s.log.Warn("translation db tier read failed", "err", err)
			dbHits = map[string]string{}
		}
		next := missing[:0]
		for _, t := range missing {
			if v, ok := dbHits[t]; ok {
				translated[t] = v
				s.mem.Set(cache.KeyTranslation(t, targetLang), v, s.memTTL)
				s.countHit()
				continue
			}
			next = append(next, t)
		}
		missing = next
	}

	if len(missing) > 0 && s.provider != nil && s.breaker.allow() {
		for start := 0; start < len(missing); start += providerBatchSize {
			end := start + providerBatchSize
			if end > len(missing) {
				end = len(missing)
			}
			chunk := missing[start:end]

			s.mu.Lock()
			s.metrics.ProviderCalls++
			s.mu.Unlock()

			out, err := s.provider.TranslateBatch(ctx, chunk, targetLang)
			if err != nil || len(out) != len(chunk) {
				// One failure per provider call, regardless of chunk size.
				s.breaker.recordFailure()
				s.mu.Lock()
				s.metrics.ProviderFailures++
				s.metrics.LastFailure = time.Now()
				s.mu.Unlock()
				s.log.Warn("provider call failed, falling back to source text",
					"err", err, "texts", len(chunk), "lang", targetLang)
				continue // chunk texts stay untranslated
			}
			s.breaker.recordSuccess()
			s.mu.Lock()
			s.metrics.LastSuccess = time.Now()
			s.mu.Unlock()
			for i, src := range chunk {
				translated[src] = out[i]
				s.mem.Set(cache.KeyTranslation(src, targetLang), out[i], s.memTTL)
				if err := s.store.Upsert(ctx, src, targetLang, out[i]); err != nil {
					s.log.Warn("translation cache write failed", "err", err)
				}
			}
		}
	}

	for i, t := range texts {
		if v, ok := translated[t]; ok {
			result[i] = v
		}
	}
	return result
}

// Seed pre-translates the static UI text catalog. force retranslates texts
// that already have a cached row. The loop honors ctx, so the handler bounds
// the total duration with a context deadline; texts not reached before the
// deadline are reported as errors.
func (s *Service) Seed(ctx context.Context, targetLang string, force bool) SeedResult {
	res := SeedResult{Total: len(StaticTexts)}

	pending := StaticTexts
	if !force {
		existing, err := s.store.GetBatch(ctx, StaticTexts, targetLang)
		if err == nil {
			res.Existing = len(existing)
			pending = make([]string, 0, len(StaticTexts)-len(existing))
			for _, t := range StaticTexts {
				if _, ok := existing[t]; !ok {
					pending = append(pending, t)
				}
			}
		}
	}

	for start := 0; start < len(pending); start += providerBatchSize {
		if ctx.Err() != nil {
			res.Errors += len(pending) - start
			break
		}
		end := start + providerBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]
		out := s.TranslateBatch(ctx, chunk, targetLang)

		// A translation can legitimately equal its source, so pass-through
		// output alone does not prove failure. Successful provider results
		// are persisted, so the cache row is the arbiter.
		cached, cacheErr := s.store.GetBatch(ctx, chunk, targetLang)
		for i, t := range chunk {
			switch {
			case out[i] != t:
				res.Translated++
			case cacheErr == nil && hasKey(cached, t):
				res.Translated++
			default:
				res.Errors++
			}
		}
	}
	return res
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

// SeedResult summarizes one seed run.
type SeedResult struct {
	Total      int `json:"total"`
	Existing   int `json:"existing"`
	Translated int `json:"translated"`
	Errors     int `json:"errors"`
}

// SeedProgress reports the share of the static catalog already cached for a
// language, as a percentage in [0,100].
func (s *Service) SeedProgress(ctx context.Context, targetLang string) (float64, error) {
	if len(StaticTexts) == 0 {
		return 100, nil
	}
	n, err := s.store.CountExisting(ctx, StaticTexts, targetLang)
	if err != nil {
		return 0, err
	}
	return float64(n) / float64(len(StaticTexts)) * 100, nil
}

// ClearCache invalidates the memory tier only. The database tier stays
// intact, so subsequent reads repopulate memory from it.
func (s *Service) ClearCache() {
	s.mem.RemovePrefix(cache.KeyTranslationPrefix())
}

// Metrics returns a snapshot of the counters plus the current breaker state.
func (s *Service) Metrics() Metrics {
	s.mu.Lock()
	m := s.metrics
	s.mu.Unlock()
	m.BreakerOpen = s.breaker.open()
	return m
}

func (s *Service) countHit() {
	s.mu.Lock()
	s.metrics.CacheHits++
	s.mu.Unlock()
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
