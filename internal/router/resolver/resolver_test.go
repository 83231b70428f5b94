// internal/router/resolver/resolver_test.go
package resolver

import (
	"testing"

	"agent-router/internal/common/errors"
	"agent-router/internal/common/logger"
	"agent-router/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Fixtures
// ==========================

type stubSource struct{ table *models.RouteTable }

func (s *stubSource) Table() *models.RouteTable { return s.table }

// stubChecker treats every resource as present unless listed as missing.
// Every present resource reports a fixed size.
type stubChecker struct{ missing map[string]bool }

func (c *stubChecker) Exists(name string) bool { return !c.missing[name] }

func (c *stubChecker) Size(name string) int64 {
	if c.missing[name] {
		return 0
	}
	return 100
}

func testTable() *models.RouteTable {
	return &models.RouteTable{
		Routes: map[string]models.Route{
			"debug": {
				Handler:       "debugging-specialist",
				MinConfidence: 0.6,
				Context:       []string{"error-guide", "logging-guide", "error-guide", "test-harness"},
				Tools:         []string{"editor"},
			},
			"implement": {
				Handler:       "feature-builder",
				MinConfidence: 0.7,
				Context:       []string{"architecture", "standards"},
			},
			"full-audit": {
				Handler: "audit-coordinator",
				Context: []string{"security-checklist"},
			},
		},
		Workflows: map[string][]string{
			"ship-feature": {"feature-builder", "test-author", "code-reviewer"},
			"empty-chain":  {},
		},
		Skips: []models.SkipRule{
			{Intent: "debug", Resource: "test-harness"},
		},
	}
}

func newTestResolver(table *models.RouteTable, missing ...string) *Resolver {
	checker := &stubChecker{missing: map[string]bool{}}
	for _, m := range missing {
		checker.missing[m] = true
	}
	return New(&stubSource{table: table}, checker, logger.NewNoOpLogger())
}

// ==========================
// Resolution Tests
// ==========================

func TestResolve_IntentRoute(t *testing.T) {
	r := newTestResolver(testTable())

	route, err := r.Resolve(models.ClassificationResult{Intent: "implement", Confidence: 0.8})
	require.NoError(t, err)

	assert.Equal(t, "implement", route.Name)
	assert.Equal(t, models.RouteKindSkill, route.Kind)
	assert.Equal(t, []string{"feature-builder"}, route.Handlers)
	assert.Equal(t, 0.7, route.MinConfidence)
	assert.Equal(t, []string{"architecture", "standards"}, route.ContextPlan)
}

func TestResolve_UnknownRoute(t *testing.T) {
	r := newTestResolver(testTable())

	_, err := r.Resolve(models.ClassificationResult{Intent: "unclear"})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNoRouteForIntent, stdErr.Code)
	assert.Equal(t, "unclear", stdErr.Metadata["intent"])
	assert.ElementsMatch(t, []string{"debug", "implement", "full-audit"}, stdErr.Metadata["validIntents"])
}

func TestResolve_WorkflowChain(t *testing.T) {
	r := newTestResolver(testTable())

	route, err := r.Resolve(models.ClassificationResult{
		Intent:        "implement",
		NeedsWorkflow: true,
		WorkflowName:  "ship-feature",
	})
	require.NoError(t, err)

	assert.Equal(t, "ship-feature", route.Name)
	assert.Equal(t, models.RouteKindWorkflow, route.Kind)
	assert.Equal(t, []string{"feature-builder", "test-author", "code-reviewer"}, route.Handlers)
}

func TestResolve_EmptyWorkflowChainFallsBackToIntent(t *testing.T) {
	r := newTestResolver(testTable())

	route, err := r.Resolve(models.ClassificationResult{
		Intent:        "debug",
		NeedsWorkflow: true,
		WorkflowName:  "empty-chain",
	})
	require.NoError(t, err)
	assert.Equal(t, "debug", route.Name)
	assert.Equal(t, models.RouteKindSkill, route.Kind)
}

func TestResolve_UnknownWorkflowFallsBackToIntent(t *testing.T) {
	r := newTestResolver(testTable())

	route, err := r.Resolve(models.ClassificationResult{
		Intent:        "debug",
		NeedsWorkflow: true,
		WorkflowName:  "never-configured",
	})
	require.NoError(t, err)
	assert.Equal(t, "debug", route.Name)
}

func TestResolve_BulkRoute(t *testing.T) {
	r := newTestResolver(testTable())

	route, err := r.Resolve(models.ClassificationResult{
		Intent:    "debug",
		NeedsBulk: true,
		BulkName:  "full-audit",
	})
	require.NoError(t, err)

	assert.Equal(t, "full-audit", route.Name)
	assert.Equal(t, models.RouteKindBulk, route.Kind)
	assert.Equal(t, []string{"audit-coordinator"}, route.Handlers)
}

// ==========================
// Context Plan Tests
// ==========================

func TestResolve_ContextPlanDedupAndSkips(t *testing.T) {
	r := newTestResolver(testTable())

	route, err := r.Resolve(models.ClassificationResult{Intent: "debug"})
	require.NoError(t, err)

	// error-guide deduplicated, test-harness removed by the skip rule,
	// configured order preserved.
	assert.Equal(t, []string{"error-guide", "logging-guide"}, route.ContextPlan)
}

func TestResolve_MissingResourceExcludedNotFatal(t *testing.T) {
	r := newTestResolver(testTable(), "logging-guide")

	route, err := r.Resolve(models.ClassificationResult{Intent: "debug"})
	require.NoError(t, err)

	assert.Equal(t, []string{"error-guide"}, route.ContextPlan)
	assert.Equal(t, []string{"logging-guide"}, route.MissingResources)
}

func TestResolve_ContextBytesCoverIncludedResourcesOnly(t *testing.T) {
	r := newTestResolver(testTable(), "logging-guide")

	route, err := r.Resolve(models.ClassificationResult{Intent: "debug"})
	require.NoError(t, err)

	// One included resource at the stub's fixed size; the missing one and
	// the skipped one contribute nothing.
	assert.Equal(t, int64(100), route.ContextBytes)
}

func TestResolve_NilCheckerSkipsExistenceCheck(t *testing.T) {
	r := New(&stubSource{table: testTable()}, nil, logger.NewNoOpLogger())

	route, err := r.Resolve(models.ClassificationResult{Intent: "implement"})
	require.NoError(t, err)
	assert.Equal(t, []string{"architecture", "standards"}, route.ContextPlan)
	assert.Zero(t, route.ContextBytes)
}
