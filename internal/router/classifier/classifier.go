// Package classifier turns free-text queries into ranked intents with
// confidence, complexity and auxiliary routing signals.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"agent-router/internal/common/logger"
	"agent-router/internal/common/metrics"
	"agent-router/internal/models"
	"agent-router/internal/router/cache"
	"agent-router/internal/router/conversation"
	"agent-router/internal/router/keyword"
)

// Multi-step connectives, each counted once regardless of repeats.
// Matched with word boundaries like the keyword index, so punctuation
// next to a connective does not hide it.
var connectives = compileConnectives("and", "then", "after", "before", "first", "next", "finally")

func compileConnectives(words ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return patterns
}

// High-stakes vocabulary bumps complexity; matched as substrings so
// "auth" also fires inside "authentication".
var highStakes = []string{"secure", "safe", "critical", "production", "auth", "payment"}

// Confidence at or above this routes straight to a skill; anything lower
// escalates.
const skillConfidenceThreshold = 0.7

// TableSource supplies the current routing configuration. Implemented by
// the registry, which memoizes by file modification time.
type TableSource interface {
	Table() *models.RouteTable
	Index() *keyword.Index
}

// Classifier scores queries against the keyword index, consulting the
// session's conversation tracker and classification cache.
type Classifier struct {
	source  TableSource
	tracker *conversation.Tracker
	cache   *cache.Cache
	log     logger.Logger
}

// New creates a classifier bound to one session's tracker and cache.
func New(source TableSource, tracker *conversation.Tracker, c *cache.Cache, log logger.Logger) *Classifier {
	return &Classifier{
		source:  source,
		tracker: tracker,
		cache:   c,
		log:     log,
	}
}

// Classify produces a ClassificationResult for the query. A detected topic
// pivot clears the cache and bypasses it for this call regardless of
// useCache; cache hits still feed the tracker so history stays current.
func (c *Classifier) Classify(query string, useCache bool) models.ClassificationResult {
	start := time.Now()
	normalized := strings.ToLower(strings.TrimSpace(query))
	state := c.tracker.State(query)

	if state == models.StateContextSwitch {
		c.cache.Clear()
		metrics.CacheEvents.WithLabelValues("pivot_clear").Inc()
	} else if useCache {
		if result, ok := c.cache.Get(normalized, state); ok {
			metrics.CacheEvents.WithLabelValues("hit").Inc()
			c.tracker.Update(query, result.Intent)
			return result
		}
		metrics.CacheEvents.WithLabelValues("miss").Inc()
	}

	result := c.score(normalized)

	c.cache.Put(normalized, result, state)
	c.tracker.Update(query, result.Intent)

	metrics.ClassificationsTotal.WithLabelValues(result.Intent, result.SuggestedAction).Inc()
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())

	c.log.Debug("Classified query", map[string]interface{}{
		"intent":     result.Intent,
		"confidence": result.Confidence,
		"complexity": result.Complexity,
		"action":     result.SuggestedAction,
		"state":      string(state),
	})
	return result
}

// score runs the full scoring pass over the normalized query.
func (c *Classifier) score(normalized string) models.ClassificationResult {
	table := c.source.Table()
	idx := c.source.Index()

	scores := idx.Score(normalized)
	complexity := complexityScore(normalized)

	// No keyword signal: the unclear fallback is returned as-is, never
	// modified by workflow or bulk overrides.
	if len(scores) == 0 {
		return models.ClassificationResult{
			Intent:          models.IntentUnclear,
			Confidence:      0.3,
			Reasoning:       "no keyword matches; escalating for disambiguation",
			Complexity:      complexity,
			SuggestedAction: models.ActionLLM,
		}
	}

	workflowName := detectWorkflow(normalized, table.Triggers)
	bulk := detectBulk(normalized, table.BulkKeywords)

	primary := scores[0]
	total := 0
	for _, s := range scores {
		total += s.Score
	}

	confidence := clamp01(float64(primary.Score) / float64(total))
	if len(scores) == 1 || primary.Score > 2*scores[1].Score {
		// Unambiguous signal: the primary dwarfs every runner-up.
		confidence = clamp01(confidence * 1.2)
	}

	var alternatives []models.AlternativeIntent
	for _, s := range scores[1:] {
		if len(alternatives) == 2 {
			break
		}
		alternatives = append(alternatives, models.AlternativeIntent{
			Intent: s.Intent,
			Score:  float64(s.Score) / float64(total),
		})
	}

	result := models.ClassificationResult{
		Intent:     primary.Intent,
		Confidence: confidence,
		Reasoning: fmt.Sprintf("matched %d keyword(s) for %q across %d candidate intent(s)",
			primary.Score, primary.Intent, len(scores)),
		MatchedKeywords: primary.Matched,
		Alternatives:    alternatives,
		Complexity:      complexity,
	}

	if confidence >= skillConfidenceThreshold {
		result.SuggestedAction = models.ActionSkill
	} else {
		result.SuggestedAction = models.ActionLLM
	}
	applyOverrides(&result, workflowName, bulk, table.BulkName)
	return result
}

// applyOverrides lets workflow and bulk detection trump the
// confidence-derived action. Workflow wins over bulk.
func applyOverrides(result *models.ClassificationResult, workflowName string, bulk bool, bulkName string) {
	if workflowName != "" {
		result.NeedsWorkflow = true
		result.WorkflowName = workflowName
		result.SuggestedAction = models.ActionWorkflow
		return
	}
	if bulk {
		result.NeedsBulk = true
		result.BulkName = bulkName
		result.SuggestedAction = models.ActionSkillsBulk
	}
}

// detectWorkflow walks the trigger table in order; first phrase match wins.
func detectWorkflow(normalized string, triggers []models.WorkflowTrigger) string {
	for _, trigger := range triggers {
		for _, phrase := range trigger.Phrases {
			if phrase != "" && strings.Contains(normalized, strings.ToLower(phrase)) {
				return trigger.Name
			}
		}
	}
	return ""
}

// detectBulk reports whether any bulk keyword appears in the query.
func detectBulk(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(normalized, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// complexityScore estimates task complexity independently of confidence.
func complexityScore(normalized string) float64 {
	words := strings.Fields(normalized)

	score := 0.0
	if len(words) > 10 {
		score += 0.2
	}
	if len(words) > 20 {
		score += 0.1
	}

	for _, conn := range connectives {
		if conn.MatchString(normalized) {
			score += 0.15
		}
	}

	for _, hs := range highStakes {
		if strings.Contains(normalized, hs) {
			score += 0.2
			break
		}
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
