package models

import "time"

// WorkflowState is one phase of the session state machine.
type WorkflowState string

const (
	WorkflowInit     WorkflowState = "INIT"
	WorkflowClassify WorkflowState = "CLASSIFY"
	WorkflowPlan     WorkflowState = "PLAN"
	WorkflowExecute  WorkflowState = "EXECUTE"
	WorkflowPaused   WorkflowState = "PAUSED"
	WorkflowDone     WorkflowState = "DONE"
)

// CheckpointKind labels why a checkpoint was recorded.
type CheckpointKind string

const (
	CheckpointInitial       CheckpointKind = "initial"
	CheckpointMilestone     CheckpointKind = "milestone"
	CheckpointContextSwitch CheckpointKind = "context_switch"
	CheckpointFinal         CheckpointKind = "final"
)

// Checkpoint is one append-only audit record inside a Workflow. Checkpoints
// are never edited or removed.
type Checkpoint struct {
	ID         int            `json:"id"`
	Kind       CheckpointKind `json:"kind"`
	At         time.Time      `json:"at"`
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Decision   string         `json:"decision"`
}

// IntentEntry records one step of a workflow's intent history.
type IntentEntry struct {
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// Workflow tracks the classification lifecycle of one user task across
// turns. A workflow is created once per top-level task and lives until it
// reaches DONE or is abandoned; topic pivots may spawn linked children.
type Workflow struct {
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	State         WorkflowState `json:"state"`
	Intent        string        `json:"intent"`
	Confidence    float64       `json:"confidence"`
	Priority      float64       `json:"priority"`
	Checkpoints   []Checkpoint  `json:"checkpoints"`
	IntentHistory []IntentEntry `json:"intentHistory"`
	ParentID      string        `json:"parentId,omitempty"`
	ChildIDs      []string      `json:"childIds,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsClosed reports whether the workflow reached its terminal state.
func (w *Workflow) IsClosed() bool {
	return w.State == WorkflowDone
}

// WorkflowSnapshot is the plain data structure exposed for downstream
// progress tooling. The persisted format belongs to that tooling, not to
// the core.
type WorkflowSnapshot struct {
	SessionID       string        `json:"sessionId"`
	WorkflowID      string        `json:"workflowId"`
	State           WorkflowState `json:"state"`
	Intent          string        `json:"intent"`
	Confidence      float64       `json:"confidence"`
	CheckpointCount int           `json:"checkpointCount"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
