// internal/router/classifier/classifier_test.go
package classifier

import (
	"testing"
	"time"

	"agent-router/internal/common/logger"
	"agent-router/internal/models"
	"agent-router/internal/router/cache"
	"agent-router/internal/router/conversation"
	"agent-router/internal/router/keyword"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Fixtures
// ==========================

type stubSource struct {
	table *models.RouteTable
	index *keyword.Index
}

func newStubSource(table *models.RouteTable) *stubSource {
	return &stubSource{table: table, index: keyword.NewIndex(table.Keywords)}
}

func (s *stubSource) Table() *models.RouteTable { return s.table }
func (s *stubSource) Index() *keyword.Index     { return s.index }

func testTable() *models.RouteTable {
	return &models.RouteTable{
		Keywords: map[string][]string{
			"debug":     {"fix", "bug", "error"},
			"implement": {"add", "create", "build"},
		},
		Triggers: []models.WorkflowTrigger{
			{Name: "ship-feature", Phrases: []string{"implement and test"}},
			{Name: "fix-and-verify", Phrases: []string{"fix and verify"}},
		},
		BulkKeywords: []string{"entire codebase", "all files"},
		BulkName:     "full-audit",
	}
}

func newTestClassifier(table *models.RouteTable) (*Classifier, *conversation.Tracker, *cache.Cache) {
	tracker := conversation.NewTracker(5*time.Minute, 10)
	classificationCache := cache.New(5 * time.Minute)
	c := New(newStubSource(table), tracker, classificationCache, logger.NewNoOpLogger())
	return c, tracker, classificationCache
}

// ==========================
// Scoring Tests
// ==========================

func TestClassify_AuthBugExample(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	result := c.Classify("fix the auth bug", false)

	assert.Equal(t, "debug", result.Intent)
	assert.Equal(t, 1.0, result.Confidence)
	assert.InDelta(t, 0.2, result.Complexity, 1e-9)
	assert.Equal(t, models.ActionSkill, result.SuggestedAction)
	assert.Equal(t, []string{"fix", "bug"}, result.MatchedKeywords)
	assert.Empty(t, result.Alternatives)
}

func TestClassify_FallbackTotality(t *testing.T) {
	queries := []string{
		"hello there",
		"what is the meaning of this",
		"",
		"completely unrelated words",
	}

	c, _, _ := newTestClassifier(testTable())
	for _, q := range queries {
		result := c.Classify(q, false)
		assert.Equal(t, models.IntentUnclear, result.Intent, q)
		assert.Equal(t, 0.3, result.Confidence, q)
		assert.Equal(t, models.ActionLLM, result.SuggestedAction, q)
	}
}

func TestClassify_EmptyIndexFallsBack(t *testing.T) {
	c, _, _ := newTestClassifier(models.EmptyRouteTable())

	result := c.Classify("fix the bug", false)
	assert.Equal(t, models.IntentUnclear, result.Intent)
	assert.Equal(t, 0.3, result.Confidence)
	assert.Equal(t, models.ActionLLM, result.SuggestedAction)
}

func TestClassify_Deterministic(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	first := c.Classify("fix the bug and add a feature", false)
	for i := 0; i < 20; i++ {
		fresh, _, _ := newTestClassifier(testTable())
		assert.Equal(t, first, fresh.Classify("fix the bug and add a feature", false))
	}
}

func TestClassify_ConfidenceAndComplexityBounds(t *testing.T) {
	queries := []string{
		"fix the bug",
		"fix bug error add create build",
		"first fix the bug and then add a secure payment feature before production after review finally done",
		"nothing matching here",
	}

	c, _, _ := newTestClassifier(testTable())
	for _, q := range queries {
		result := c.Classify(q, false)
		assert.GreaterOrEqual(t, result.Confidence, 0.0, q)
		assert.LessOrEqual(t, result.Confidence, 1.0, q)
		assert.GreaterOrEqual(t, result.Complexity, 0.0, q)
		assert.LessOrEqual(t, result.Complexity, 1.0, q)
	}
}

func TestClassify_UnambiguousBoost(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	// debug scores 3, implement scores 1: 3 > 2x1, so 0.75 boosts to 0.9.
	result := c.Classify("fix the bug error then add", false)
	assert.Equal(t, "debug", result.Intent)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestClassify_NoBoostWhenContested(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	// debug 2 vs implement 1: 2 is not more than 2x1, no boost.
	result := c.Classify("fix the bug and add", false)
	assert.Equal(t, "debug", result.Intent)
	assert.InDelta(t, 2.0/3.0, result.Confidence, 1e-9)
	assert.Equal(t, models.ActionLLM, result.SuggestedAction)
	assert.Equal(t, []models.AlternativeIntent{
		{Intent: "implement", Score: 1.0 / 3.0},
	}, result.Alternatives)
}

// ==========================
// Complexity Tests
// ==========================

func TestComplexityScore(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected float64
	}{
		{"short plain query", "fix the bug", 0.0},
		{"connectives counted once each", "first do this and then that", 0.45},
		{"connectives next to punctuation", "first, do this and then that", 0.45},
		{"connective inside a word ignored", "update the standard sandbox", 0.0},
		{"over ten words", "one two three four five six seven eight nine ten eleven", 0.2},
		{"over twenty words", "w w w w w w w w w w w w w w w w w w w w w", 0.3},
		{"high stakes substring", "harden the authentication flow", 0.2},
		{"clamped at one", "first and then after before next finally secure production payment one two three four five six seven eight nine ten eleven", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, complexityScore(tt.query), 1e-9)
		})
	}
}

// ==========================
// Workflow and Bulk Detection
// ==========================

func TestClassify_WorkflowOverride(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	result := c.Classify("implement and test the bug fix", false)
	assert.True(t, result.NeedsWorkflow)
	assert.Equal(t, "ship-feature", result.WorkflowName)
	assert.Equal(t, models.ActionWorkflow, result.SuggestedAction)
}

func TestClassify_FirstTriggerWins(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	result := c.Classify("implement and test, fix and verify everything", false)
	assert.Equal(t, "ship-feature", result.WorkflowName)
}

func TestClassify_BulkOverride(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	result := c.Classify("fix every error across the entire codebase", false)
	assert.False(t, result.NeedsWorkflow)
	assert.True(t, result.NeedsBulk)
	assert.Equal(t, "full-audit", result.BulkName)
	assert.Equal(t, models.ActionSkillsBulk, result.SuggestedAction)
}

func TestClassify_WorkflowBeatsBulk(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	result := c.Classify("implement and test the bug fix across the entire codebase", false)
	assert.True(t, result.NeedsWorkflow)
	assert.False(t, result.NeedsBulk)
	assert.Equal(t, models.ActionWorkflow, result.SuggestedAction)
}

// ==========================
// Cache Interaction Tests
// ==========================

func TestClassify_CacheEquivalence(t *testing.T) {
	c, _, _ := newTestClassifier(testTable())

	first := c.Classify("fix the payment bug", true)
	// Second identical query within the window: tracker sees same_task,
	// result is served from cache bit-identically.
	second := c.Classify("fix the payment bug", true)

	assert.Equal(t, first, second)
}

func TestClassify_CacheDisabledStillClassifies(t *testing.T) {
	c, _, classificationCache := newTestClassifier(testTable())

	// Plant a decoy: a hit would surface the wrong intent.
	decoy := models.ClassificationResult{Intent: "planted"}
	classificationCache.Put("fix the payment bug", decoy, models.StateSameTask)

	result := c.Classify("fix the payment bug", false)
	assert.Equal(t, "debug", result.Intent)
}

func TestClassify_PivotBypassesCache(t *testing.T) {
	c, tracker, classificationCache := newTestClassifier(testTable())
	tracker.Update("refactor the payment module", "refactor")

	query := "also, fix the payment bug"
	decoy := models.ClassificationResult{Intent: "planted"}
	classificationCache.Put("also, fix the payment bug", decoy, models.StateSameTask)

	result := c.Classify(query, true)
	assert.NotEqual(t, "planted", result.Intent)
	assert.Equal(t, "debug", result.Intent)
}

func TestClassify_PivotClearsCache(t *testing.T) {
	c, _, classificationCache := newTestClassifier(testTable())

	c.Classify("fix the payment bug", true)
	assert.Equal(t, 1, classificationCache.Len())

	c.Classify("also, check the logging config", true)
	// The pivot wiped the old entries; only the pivot query itself remains.
	_, ok := classificationCache.Get("fix the payment bug", models.StateSameTask)
	assert.False(t, ok)
}

func TestClassify_CacheHitUpdatesTracker(t *testing.T) {
	c, tracker, _ := newTestClassifier(testTable())

	c.Classify("fix the payment bug", true)
	c.Classify("fix the payment bug", true)

	history := tracker.History()
	assert.Len(t, history, 2)
	assert.Equal(t, "debug", tracker.LastIntent())
}
