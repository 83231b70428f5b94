// internal/router/cache/cache_test.go
package cache

import (
	"testing"
	"time"

	"agent-router/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	c := New(ttl)
	c.SetClock(func() time.Time { return now })
	return c, &now
}

func debugResult() models.ClassificationResult {
	return models.ClassificationResult{
		Intent:          "debug",
		Confidence:      0.9,
		SuggestedAction: models.ActionSkill,
	}
}

func TestCache_HitWithinTTL(t *testing.T) {
	c, now := newTestCache(5 * time.Minute)

	c.Put("fix the bug", debugResult(), models.StateSameTask)

	*now = now.Add(4 * time.Minute)
	got, ok := c.Get("fix the bug", models.StateNewConversation)
	assert.True(t, ok)
	assert.Equal(t, debugResult(), got)
}

func TestCache_ExpiryIsLazy(t *testing.T) {
	c, now := newTestCache(5 * time.Minute)

	c.Put("fix the bug", debugResult(), models.StateSameTask)
	assert.Equal(t, 1, c.Len())

	*now = now.Add(5 * time.Minute)
	_, ok := c.Get("fix the bug", models.StateSameTask)
	assert.False(t, ok, "entry at exactly TTL must be a miss, not a stale hit")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on lookup")
}

func TestCache_StateGate(t *testing.T) {
	tests := []struct {
		name      string
		stored    models.ConversationState
		lookup    models.ConversationState
		expectHit bool
	}{
		{"both continuous", models.StateSameTask, models.StateSameTask, true},
		{"stored continuous only", models.StateSameTask, models.StateNewConversation, true},
		{"lookup continuous only", models.StateNewConversation, models.StateSameTask, true},
		{"neither continuous", models.StateNewConversation, models.StateNewConversation, false},
		{"stored pivot, lookup fresh", models.StateContextSwitch, models.StateNewConversation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(5 * time.Minute)
			c.Put("q", debugResult(), tt.stored)

			_, ok := c.Get("q", tt.lookup)
			assert.Equal(t, tt.expectHit, ok)
		})
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c, _ := newTestCache(5 * time.Minute)
	_, ok := c.Get("never stored", models.StateSameTask)
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c, _ := newTestCache(5 * time.Minute)

	c.Put("a", debugResult(), models.StateSameTask)
	c.Put("b", debugResult(), models.StateSameTask)
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("a", models.StateSameTask)
	assert.False(t, ok)
}

func TestCache_PutOverwrites(t *testing.T) {
	c, _ := newTestCache(5 * time.Minute)

	c.Put("q", debugResult(), models.StateSameTask)

	updated := debugResult()
	updated.Confidence = 0.4
	c.Put("q", updated, models.StateSameTask)

	got, ok := c.Get("q", models.StateSameTask)
	assert.True(t, ok)
	assert.Equal(t, 0.4, got.Confidence)
	assert.Equal(t, 1, c.Len())
}
