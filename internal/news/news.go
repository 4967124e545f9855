// Package news holds the process-wide status-page state: a bounded ring of
// recent outcome renderings and a time-bounded summary cache. Both are
// explicitly constructed and injected rather than package-level singletons,
// so tests and multi-instance deployments stay isolated.
package news

import (
	"sync"
	"time"
)

// Buffer is a bounded most-recent-first list of HTML news entries.
type Buffer struct {
	mu    sync.Mutex
	max   int
	items []string
}

// NewBuffer creates a buffer holding at most max entries.
func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = 1
	}
	return &Buffer{max: max}
}

// Add prepends an entry, dropping the oldest when the buffer is full.
func (b *Buffer) Add(html string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append([]string{html}, b.items...)
	if len(b.items) > b.max {
		b.items = b.items[:b.max]
	}
}

// Items returns a copy of the entries, newest first.
func (b *Buffer) Items() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.items...)
}

// Len returns the current entry count.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Clear drops all entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

// SummaryCache memoizes the status summary for a bounded time. A dispatch
// that emitted a post invalidates it so the next recomputation reflects the
// new post.
type SummaryCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	value      string
	computedAt time.Time

	now func() time.Time // injectable clock for tests
}

// NewSummaryCache creates a cache with the given time bound.
func NewSummaryCache(ttl time.Duration) *SummaryCache {
	return &SummaryCache{ttl: ttl, now: time.Now}
}

// Get returns the cached summary, recomputing it when stale or invalidated.
func (c *SummaryCache) Get(compute func() string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.computedAt.IsZero() && c.now().Sub(c.computedAt) < c.ttl {
		return c.value
	}
	c.value = compute()
	c.computedAt = c.now()
	return c.value
}

// Invalidate drops the cached value.
func (c *SummaryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.computedAt = time.Time{}
	c.value = ""
}
