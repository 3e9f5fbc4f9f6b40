// Package cache holds the in-process read caches used by the HTTP API.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the read-through cache contract handlers depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans every registered cache.
type Manager struct {
	mu       sync.Mutex
	caches   map[string]Cleaner
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{caches: make(map[string]Cleaner)}
}

// Register adds a named cache. Registering a name again replaces it.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// StartCleanup begins cleaning every interval. It must be called at most once.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanNow()
		case <-m.stopCh:
			return
		}
	}
}

// CleanNow cleans all caches once and returns the number of entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		if n := c.CleanExpired(); n > 0 {
			slog.Debug("Cache cleanup completed", "cache", name, "entries_removed", n)
			total += n
		}
	}
	return total
}

// Stop ends the cleanup loop and waits for it. Safe to call more than once
// and without StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.stopCh == nil {
			return
		}
		close(m.stopCh)
		<-m.doneCh
	})
}
