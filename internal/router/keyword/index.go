// Package keyword scores free-text queries against the configured intent
// trigger phrases using precompiled whole-word matchers.
package keyword

import (
	"regexp"
	"sort"
)

// matcher pairs a trigger phrase with its compiled word-boundary pattern.
type matcher struct {
	phrase  string
	pattern *regexp.Regexp
}

// Index holds the compiled keyword matchers for every configured intent.
// Matchers are built once at load time, not per query.
type Index struct {
	intents  []string
	matchers map[string][]matcher
}

// IntentScore is one intent's raw match result against a query.
type IntentScore struct {
	Intent  string
	Score   int
	Matched []string
}

// NewIndex compiles the intent -> trigger-phrases mapping. Phrases that
// fail to compile are skipped; an empty mapping yields an index that
// scores every query to zero.
func NewIndex(keywords map[string][]string) *Index {
	idx := &Index{matchers: make(map[string][]matcher, len(keywords))}

	for intent, phrases := range keywords {
		compiled := make([]matcher, 0, len(phrases))
		for _, phrase := range phrases {
			if phrase == "" {
				continue
			}
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
			if err != nil {
				continue
			}
			compiled = append(compiled, matcher{phrase: phrase, pattern: re})
		}
		if len(compiled) == 0 {
			continue
		}
		idx.matchers[intent] = compiled
		idx.intents = append(idx.intents, intent)
	}

	// Fixed iteration order keeps scoring deterministic across runs.
	sort.Strings(idx.intents)
	return idx
}

// Empty reports whether the index has no usable matchers.
func (i *Index) Empty() bool {
	return len(i.intents) == 0
}

// Intents returns the configured intent names in sorted order.
func (i *Index) Intents() []string {
	out := make([]string, len(i.intents))
	copy(out, i.intents)
	return out
}

// Score counts whole-word trigger matches per intent. Intents with zero
// matches are excluded. Results are ordered by score descending, ties
// broken by intent name so ranking never depends on map order.
func (i *Index) Score(query string) []IntentScore {
	var scores []IntentScore
	for _, intent := range i.intents {
		var matched []string
		for _, m := range i.matchers[intent] {
			if m.pattern.MatchString(query) {
				matched = append(matched, m.phrase)
			}
		}
		if len(matched) == 0 {
			continue
		}
		scores = append(scores, IntentScore{
			Intent:  intent,
			Score:   len(matched),
			Matched: matched,
		})
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].Score != scores[b].Score {
			return scores[a].Score > scores[b].Score
		}
		return scores[a].Intent < scores[b].Intent
	})
	return scores
}
