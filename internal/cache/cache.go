// Package cache provides the process-local TTL cache shared by the category,
// equipment and catalog-share read paths, plus the translation hot path.
// Every instance of the server owns its own cache: there is no cross-instance
// coordination, so two instances can serve different cached values at the
// same moment. Invalidation is explicit and happens inside repository write
// methods so a cacheable entity has exactly one place that clears its keys.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Manager is a thread-safe string-keyed cache with absolute expiry. It must
// be constructed with New and injected into whatever needs it; Start launches
// the background sweeper and Stop terminates it.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	sweep   time.Duration
	done    chan struct{}
	once    sync.Once
}

// New returns a Manager that sweeps expired entries every sweepInterval.
// A disabled manager accepts all calls but never stores anything.
func New(enabled bool, sweepInterval time.Duration) *Manager {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Manager{
		entries: make(map[string]entry),
		enabled: enabled,
		sweep:   sweepInterval,
		done:    make(chan struct{}),
	}
}

// Start launches the periodic sweeper. Calling Start on a disabled manager
// is a no-op.
func (m *Manager) Start() {
	if !m.enabled {
		return
	}
	go func() {
		t := time.NewTicker(m.sweep)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				m.evictExpired()
			case <-m.done:
				return
			}
		}
	}()
}

// Stop terminates the sweeper. Safe to call more than once.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.done) })
}

// Get returns the cached value for key. Expired entries are evicted lazily
// and reported as a miss.
func (m *Manager) Get(key string) (any, bool) {
	if !m.enabled {
		return nil, false
	}
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; another goroutine may have replaced it.
		if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with absolute expiry now+ttl.
func (m *Manager) Set(key string, value any, ttl time.Duration) {
	if !m.enabled || ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Remove deletes a single key.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// RemovePrefix deletes every key starting with prefix. Used for broad
// invalidation such as clearing all cached equipment pages after a write.
func (m *Manager) RemovePrefix(prefix string) {
	m.mu.Lock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

// Clear drops every entry.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Manager) evictExpired() {
	now := time.Now()
	m.mu.Lock()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

// Key helpers. Keeping key construction here means repositories and handlers
// cannot drift apart on the format.

const (
	prefixCategory  = "categories"
	prefixEquipment = "equipment:page"
	prefixShare     = "share"
	prefixTranslate = "tr"
)

// KeyCategoryList is the single key under which the full category listing is
// cached.
func KeyCategoryList() string { return prefixCategory }

// KeyEquipmentPage caches one page of the equipment listing.
func KeyEquipmentPage(page, perPage int) string {
	return prefixEquipment + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(perPage)
}

// KeyEquipmentPrefix is used to clear every cached equipment page at once.
func KeyEquipmentPrefix() string { return prefixEquipment }

// KeyCatalogShare caches a public catalog response by its share token.
func KeyCatalogShare(token string) string { return prefixShare + ":" + token }

// KeyTranslationPrefix clears the whole translation memory tier without
// touching entity caches.
func KeyTranslationPrefix() string { return prefixTranslate }

// KeyTranslation caches one translated string. The key is the exact
// (sourceText, targetLang) pair with no normalization; strings differing only
// in whitespace are distinct entries.
func KeyTranslation(sourceText, targetLang string) string {
	return prefixTranslate + ":" + targetLang + ":" + sourceText
}
