package models

// Route is one entry of the intent route table. Read-only during a request.
type Route struct {
	Handler       string   `json:"handler" yaml:"handler"`
	MinConfidence float64  `json:"minConfidence" yaml:"min_confidence"`
	Context       []string `json:"context,omitempty" yaml:"context"`
	Tools         []string `json:"tools,omitempty" yaml:"tools"`
}

// WorkflowTrigger maps a set of trigger phrases to a named multi-step
// workflow. Triggers are evaluated in table order; the first phrase match
// wins.
type WorkflowTrigger struct {
	Name    string   `json:"name" yaml:"name"`
	Phrases []string `json:"phrases" yaml:"phrases"`
}

// SkipRule suppresses one context resource for one triggering intent.
type SkipRule struct {
	Intent   string `json:"intent" yaml:"intent"`
	Resource string `json:"resource" yaml:"resource"`
}

// RouteTable is the parsed routing configuration: keyword index, single-step
// routes, multi-step workflow chains, workflow trigger phrases, bulk
// detection keywords and per-intent resource skip rules.
type RouteTable struct {
	Keywords     map[string][]string `json:"keywords" yaml:"keywords"`
	Routes       map[string]Route    `json:"routes" yaml:"routes"`
	Workflows    map[string][]string `json:"workflows" yaml:"workflows"`
	Triggers     []WorkflowTrigger   `json:"triggers" yaml:"triggers"`
	BulkKeywords []string            `json:"bulkKeywords" yaml:"bulk_keywords"`
	BulkName     string              `json:"bulkName" yaml:"bulk_name"`
	Skips        []SkipRule          `json:"skips" yaml:"skips"`
}

// EmptyRouteTable is the degraded table used when the routing configuration
// cannot be loaded: every query falls through to the unclear fallback.
func EmptyRouteTable() *RouteTable {
	return &RouteTable{
		Keywords:  map[string][]string{},
		Routes:    map[string]Route{},
		Workflows: map[string][]string{},
	}
}

// RouteKind tags what a resolved route points at.
type RouteKind string

const (
	RouteKindSkill    RouteKind = "skill"
	RouteKindWorkflow RouteKind = "workflow"
	RouteKindBulk     RouteKind = "bulk"
)

// ResolvedRoute is the resolver's output: the concrete execution target plus
// the ordered context plan. ContextPlan order is meaningful: earlier
// resources are meant to receive more attention downstream.
type ResolvedRoute struct {
	Name             string    `json:"name"`
	Kind             RouteKind `json:"kind"`
	Handlers         []string  `json:"handlers"`
	ContextPlan      []string  `json:"contextPlan"`
	ContextBytes     int64     `json:"contextBytes"`
	MinConfidence    float64   `json:"minConfidence"`
	Tools            []string  `json:"tools,omitempty"`
	MissingResources []string  `json:"missingResources,omitempty"`
}
