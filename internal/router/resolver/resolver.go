// Package resolver maps classified intents to concrete execution targets
// and ordered context plans.
package resolver

import (
	"agent-router/internal/common/errors"
	"agent-router/internal/common/logger"
	"agent-router/internal/common/metrics"
	"agent-router/internal/models"
)

// TableSource supplies the current route table.
type TableSource interface {
	Table() *models.RouteTable
}

// ResourceChecker reports whether a context resource exists and how large
// it is.
type ResourceChecker interface {
	Exists(name string) bool
	Size(name string) int64
}

// Resolver turns a ClassificationResult into a ResolvedRoute.
type Resolver struct {
	source  TableSource
	checker ResourceChecker
	log     logger.Logger
}

// New creates a resolver over the given table source and resource checker.
func New(source TableSource, checker ResourceChecker, log logger.Logger) *Resolver {
	return &Resolver{source: source, checker: checker, log: log}
}

// Resolve picks the execution target for a classification. A detected
// workflow with a configured handler chain wins over the raw intent; an
// intent with no route is an explicit failure carrying the valid intent
// list, never a guessed default.
func (r *Resolver) Resolve(classification models.ClassificationResult) (*models.ResolvedRoute, error) {
	table := r.source.Table()

	if classification.NeedsWorkflow {
		if chain, ok := table.Workflows[classification.WorkflowName]; ok && len(chain) > 0 {
			return r.resolveWorkflow(table, classification.WorkflowName, chain), nil
		}
	}

	name := classification.Intent
	kind := models.RouteKindSkill
	if classification.NeedsBulk && classification.BulkName != "" {
		if _, ok := table.Routes[classification.BulkName]; ok {
			name = classification.BulkName
			kind = models.RouteKindBulk
		}
	}

	route, ok := table.Routes[name]
	if !ok {
		metrics.RouteFailures.WithLabelValues("unknown_route").Inc()
		return nil, errors.NewNoRouteError(name, validIntents(table))
	}

	resolved := &models.ResolvedRoute{
		Name:          name,
		Kind:          kind,
		Handlers:      []string{route.Handler},
		MinConfidence: route.MinConfidence,
		Tools:         route.Tools,
	}
	r.buildContextPlan(resolved, route.Context, table.Skips)

	metrics.RouteResolutions.WithLabelValues(string(kind)).Inc()
	return resolved, nil
}

// resolveWorkflow resolves a named workflow chain. The workflow name
// replaces the raw intent for every subsequent lookup, including skip
// rules and logging.
func (r *Resolver) resolveWorkflow(table *models.RouteTable, name string, chain []string) *models.ResolvedRoute {
	resolved := &models.ResolvedRoute{
		Name:     name,
		Kind:     models.RouteKindWorkflow,
		Handlers: append([]string(nil), chain...),
	}

	// A workflow may additionally carry its own route entry for context
	// and thresholds; the chain itself is the execution target either way.
	if route, ok := table.Routes[name]; ok {
		resolved.MinConfidence = route.MinConfidence
		resolved.Tools = route.Tools
		r.buildContextPlan(resolved, route.Context, table.Skips)
	}

	metrics.RouteResolutions.WithLabelValues(string(models.RouteKindWorkflow)).Inc()
	return resolved
}

// buildContextPlan produces the ordered, deduplicated context list with
// skip rules applied and missing resources reported but excluded.
// Configured order is preserved: earlier entries carry more weight
// downstream.
func (r *Resolver) buildContextPlan(resolved *models.ResolvedRoute, configured []string, skips []models.SkipRule) {
	seen := make(map[string]struct{}, len(configured))

	for _, resource := range configured {
		if resource == "" {
			continue
		}
		if _, dup := seen[resource]; dup {
			continue
		}
		seen[resource] = struct{}{}

		if skipped(resolved.Name, resource, skips) {
			continue
		}

		if r.checker != nil && !r.checker.Exists(resource) {
			missing := errors.NewMissingResourceError(resolved.Name, resource)
			r.log.WithError(missing).Warn("Context resource missing, excluding from plan", map[string]interface{}{
				"intent":   resolved.Name,
				"resource": resource,
			})
			metrics.RouteFailures.WithLabelValues("missing_resource").Inc()
			resolved.MissingResources = append(resolved.MissingResources, resource)
			continue
		}

		resolved.ContextPlan = append(resolved.ContextPlan, resource)
		if r.checker != nil {
			resolved.ContextBytes += r.checker.Size(resource)
		}
	}
}

func skipped(intent, resource string, skips []models.SkipRule) bool {
	for _, rule := range skips {
		if rule.Intent == intent && rule.Resource == resource {
			return true
		}
	}
	return false
}

func validIntents(table *models.RouteTable) []string {
	out := make([]string, 0, len(table.Routes))
	for intent := range table.Routes {
		out = append(out, intent)
	}
	return out
}
