// Package conversation tracks the short query history of a session and
// classifies how each new query relates to it.
package conversation

import (
	"strings"
	"time"

	"agent-router/internal/models"
)

// Explicit pivot language beats any lexical-overlap signal.
var pivotPhrases = []string{
	"new task",
	"different",
	"separate",
	"unrelated",
	"besides",
	"additionally",
	"also",
	"another topic",
	"move on",
}

// Tracker holds one session's rolling conversation context. Not safe for
// concurrent use; the owning session serializes access.
type Tracker struct {
	window      time.Duration
	historySize int
	now         func() time.Time

	lastQuery  string
	lastIntent string
	lastAt     time.Time
	history    []string
}

// NewTracker creates a tracker with the given recency window and history
// bound.
func NewTracker(window time.Duration, historySize int) *Tracker {
	if historySize < 1 {
		historySize = 10
	}
	return &Tracker{
		window:      window,
		historySize: historySize,
		now:         time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// State classifies the query against the recorded history. Evaluated in
// order, first match wins: explicit pivot phrase, then recency plus
// lexical overlap, then fresh start.
func (t *Tracker) State(query string) models.ConversationState {
	lowered := strings.ToLower(query)
	for _, phrase := range pivotPhrases {
		if strings.Contains(lowered, phrase) {
			return models.StateContextSwitch
		}
	}

	if t.lastQuery != "" && t.lastIntent != "" {
		recent := t.now().Sub(t.lastAt) < t.window
		if recent && similarity(lowered, strings.ToLower(t.lastQuery)) > 0.5 {
			return models.StateSameTask
		}
	}

	return models.StateNewConversation
}

// Update records the query and its resolved intent. Called after every
// successful classification, including cache hits.
func (t *Tracker) Update(query, intent string) {
	t.lastQuery = query
	t.lastIntent = intent
	t.lastAt = t.now()

	t.history = append(t.history, query)
	if len(t.history) > t.historySize {
		t.history = t.history[len(t.history)-t.historySize:]
	}
}

// LastIntent returns the most recently recorded intent, or empty.
func (t *Tracker) LastIntent() string {
	return t.lastIntent
}

// History returns a copy of the bounded query history, oldest first.
func (t *Tracker) History() []string {
	out := make([]string, len(t.history))
	copy(out, t.history)
	return out
}

// similarity is the Jaccard ratio of the two queries' word sets, with the
// larger set as denominator so short strings cannot inflate the score.
func similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}

	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(shared) / float64(denom)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
