package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache(3, time.Hour)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	_, _ = c.Get("key1") // key2 is now the least recently used
	c.Set("key4", "value4")

	_, found := c.Get("key2")
	assert.False(t, found, "key2 should have been evicted")
	for _, key := range []string{"key1", "key3", "key4"} {
		_, found := c.Get(key)
		assert.True(t, found, key)
	}
	assert.Equal(t, 3, c.Size())
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", "2")

	clock.t = clock.t.Add(45 * time.Second)
	_, found := c.Get("a")
	assert.False(t, found, "a expired")
	v, found := c.Get("b")
	assert.True(t, found)
	assert.Equal(t, "2", v)

	clock.t = clock.t.Add(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLRUCacheUpdateRefreshes(t *testing.T) {
	c, clock := newTestCache(2, time.Minute)
	c.Set("k", "old")
	clock.t = clock.t.Add(50 * time.Second)
	c.Set("k", "new")
	clock.t = clock.t.Add(50 * time.Second)

	v, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)
	c.Set("overview:2025-01", "a")
	c.Set("overview:2025-02", "b")
	c.Set("summary:2025-01", "c")

	assert.Equal(t, 2, c.DeletePrefix("overview:"))
	assert.Equal(t, 1, c.Size())

	c.Delete("summary:2025-01")
	c.Delete("missing")
	assert.Zero(t, c.Size())

	c.Set("x", "y")
	c.Purge()
	assert.Zero(t, c.Size())
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	a, clock := newTestCache(10, time.Minute)
	a.Set("k", "v")
	b := NewLRUCache[int](10, time.Hour)
	b.Set("k", 1)

	m := NewManager()
	m.Register("a", a)
	m.Register("b", b)

	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, 1, m.CleanNow())
	assert.Zero(t, a.Size())
	assert.Equal(t, 1, b.Size())
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()

	NewManager().Stop()
}
