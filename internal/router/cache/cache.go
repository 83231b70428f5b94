// Package cache memoizes classification results keyed by normalized query
// text, with TTL expiry and conversation-state gating.
package cache

import (
	"sync"
	"time"

	"agent-router/internal/models"
)

// Entry holds one memoized classification with its creation context.
type Entry struct {
	Result    models.ClassificationResult
	CreatedAt time.Time
	State     models.ConversationState
}

// Cache is a per-session classification cache. Expiry is lazy: entries are
// checked on lookup, never swept in the background.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Entry
	now     func() time.Time
}

// New creates a cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached result for a normalized query. A hit requires an
// unexpired entry AND continuity on at least one side: either the state
// recorded at creation or the caller's current state is same_task.
func (c *Cache) Get(normalizedQuery string, currentState models.ConversationState) (models.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[normalizedQuery]
	if !ok {
		return models.ClassificationResult{}, false
	}

	if c.now().Sub(entry.CreatedAt) >= c.ttl {
		delete(c.entries, normalizedQuery)
		return models.ClassificationResult{}, false
	}

	if entry.State != models.StateSameTask && currentState != models.StateSameTask {
		return models.ClassificationResult{}, false
	}

	return entry.Result, true
}

// Put stores a result tagged with the conversation state in effect when it
// was produced.
func (c *Cache) Put(normalizedQuery string, result models.ClassificationResult, state models.ConversationState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[normalizedQuery] = Entry{
		Result:    result,
		CreatedAt: c.now(),
		State:     state,
	}
}

// Clear drops every entry. Invoked on topic pivots and on explicit cache
// clears; independent of the route-table cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
