// Package workflow implements the per-session state machine tracking the
// lifecycle of each user task, its checkpoint audit trail and the
// parent/child links created by topic pivots.
package workflow

import (
	"time"

	"agent-router/internal/common/errors"
	"agent-router/internal/common/logger"
	"agent-router/internal/common/metrics"
	"agent-router/internal/models"

	"github.com/google/uuid"
)

// transitions is the closed set of legal state changes. Anything not
// listed is an InvalidTransition error, never a silent no-op.
var transitions = map[models.WorkflowState][]models.WorkflowState{
	models.WorkflowInit:     {models.WorkflowClassify},
	models.WorkflowClassify: {models.WorkflowPlan},
	models.WorkflowPlan:     {models.WorkflowExecute, models.WorkflowPaused},
	models.WorkflowExecute:  {models.WorkflowDone, models.WorkflowPaused, models.WorkflowPlan},
	models.WorkflowPaused:   {models.WorkflowClassify, models.WorkflowPlan, models.WorkflowExecute},
	models.WorkflowDone:     {models.WorkflowInit},
}

// SwitchAction is the outcome of a context-switch decision.
type SwitchAction string

const (
	SwitchNone   SwitchAction = "none"
	SwitchPivot  SwitchAction = "pivot"
	SwitchBranch SwitchAction = "branch"
)

// Magnitude thresholds: above the first a milestone checkpoint recommends
// re-classification; above the second a context switch branches into a
// child workflow instead of redirecting in place.
const (
	reclassifyThreshold = 0.3
	branchThreshold     = 0.5
)

// Manager owns one session's workflows. Not safe for concurrent use; the
// owning session serializes access.
type Manager struct {
	log logger.Logger
	now func() time.Time

	workflows map[string]*models.Workflow
	activeID  string
}

// NewManager creates an empty workflow manager.
func NewManager(log logger.Logger) *Manager {
	return &Manager{
		log:       log,
		now:       time.Now,
		workflows: make(map[string]*models.Workflow),
	}
}

// SetClock overrides the time source. Tests only.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Create starts a new workflow for a top-level task and makes it the
// session's active workflow. The initial priority mirrors the
// classification confidence.
func (m *Manager) Create(query, intent string, confidence float64) *models.Workflow {
	now := m.now()
	w := &models.Workflow{
		ID:         uuid.New().String(),
		Query:      query,
		State:      models.WorkflowInit,
		Intent:     intent,
		Confidence: confidence,
		Priority:   confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.workflows[w.ID] = w
	m.activeID = w.ID

	m.log.Info("Workflow created", map[string]interface{}{
		"workflowId": w.ID,
		"intent":     intent,
		"confidence": confidence,
	})
	return w
}

// Get returns a workflow by id.
func (m *Manager) Get(id string) (*models.Workflow, error) {
	w, ok := m.workflows[id]
	if !ok {
		return nil, errors.NewWorkflowNotFoundError(id)
	}
	return w, nil
}

// Active returns the session's active workflow, or nil before the first
// Create call.
func (m *Manager) Active() *models.Workflow {
	if m.activeID == "" {
		return nil
	}
	return m.workflows[m.activeID]
}

// Transition moves a workflow to a new state. Illegal targets leave the
// workflow untouched and return InvalidTransition.
func (m *Manager) Transition(id string, to models.WorkflowState) error {
	w, err := m.Get(id)
	if err != nil {
		return err
	}

	if !allowed(w.State, to) {
		return errors.NewInvalidTransitionError(id, string(w.State), string(to))
	}

	from := w.State
	w.State = to
	w.UpdatedAt = m.now()

	metrics.WorkflowTransitions.WithLabelValues(string(from), string(to)).Inc()
	m.log.Debug("Workflow transitioned", map[string]interface{}{
		"workflowId": id,
		"from":       string(from),
		"to":         string(to),
	})
	return nil
}

// Checkpoint records an audit entry and updates the workflow's current
// intent and confidence in one step: checkpoint, intent history and
// current-classification update all happen or none do. Returns the new
// checkpoint id (sequential from 1).
func (m *Manager) Checkpoint(id string, kind models.CheckpointKind, intent string, confidence float64) (int, error) {
	w, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	if w.IsClosed() && kind != models.CheckpointFinal {
		return 0, errors.NewWorkflowClosedError(id)
	}

	decision := m.decisionLabel(w, kind, intent, confidence)
	return m.checkpoint(w, kind, intent, confidence, decision), nil
}

// decisionLabel picks the audit label by checkpoint kind and intent-change
// magnitude.
func (m *Manager) decisionLabel(w *models.Workflow, kind models.CheckpointKind, intent string, confidence float64) string {
	switch kind {
	case models.CheckpointInitial:
		return "Start"
	case models.CheckpointFinal:
		return "Complete"
	case models.CheckpointContextSwitch:
		if ChangeMagnitude(w, intent, confidence) > branchThreshold {
			return "Save and branch"
		}
		return "Pivot to new intent"
	default:
		if ChangeMagnitude(w, intent, confidence) > reclassifyThreshold {
			return "Intent changed, re-classify"
		}
		return "Continue"
	}
}

// checkpoint performs the three-part update as one step. Callers validate
// first so nothing here can fail partway.
func (m *Manager) checkpoint(w *models.Workflow, kind models.CheckpointKind, intent string, confidence float64, decision string) int {
	now := m.now()

	cp := models.Checkpoint{
		ID:         len(w.Checkpoints) + 1,
		Kind:       kind,
		At:         now,
		Intent:     intent,
		Confidence: confidence,
		Decision:   decision,
	}
	w.Checkpoints = append(w.Checkpoints, cp)
	w.IntentHistory = append(w.IntentHistory, models.IntentEntry{
		Intent:     intent,
		Confidence: confidence,
		At:         now,
	})
	w.Intent = intent
	w.Confidence = confidence
	w.Priority = confidence
	w.UpdatedAt = now

	return cp.ID
}

// ChangeMagnitude scores how far a new classification departs from the
// workflow's current one: half weight for a different intent name plus
// half the absolute confidence delta.
func ChangeMagnitude(w *models.Workflow, intent string, confidence float64) float64 {
	change := 0.0
	if intent != w.Intent {
		change = 0.5
	}
	change += abs(confidence - w.Confidence)
	return change / 2
}

// HandleContextSwitch reacts to a tracker-flagged topic pivot on the given
// workflow. Small pivots redirect the workflow in place; large ones park
// it and branch a child that becomes the session's active workflow. A call
// without an actual pivot is a no-op.
func (m *Manager) HandleContextSwitch(id, message string, state models.ConversationState, intent string, confidence float64) (SwitchAction, string, error) {
	w, err := m.Get(id)
	if err != nil {
		return SwitchNone, "", err
	}

	if state != models.StateContextSwitch {
		return SwitchNone, w.ID, nil
	}

	magnitude := ChangeMagnitude(w, intent, confidence)

	if err := m.Transition(w.ID, models.WorkflowPaused); err != nil {
		return SwitchNone, w.ID, err
	}

	if magnitude > branchThreshold {
		// Parent keeps its own classification; the new intent belongs to
		// the child.
		m.checkpoint(w, models.CheckpointContextSwitch, w.Intent, w.Confidence, "Save and branch")

		child := m.Create(message, intent, confidence)
		child.ParentID = w.ID
		child.Priority = w.Priority
		w.ChildIDs = append(w.ChildIDs, child.ID)

		m.log.Info("Workflow branched", map[string]interface{}{
			"parentId":  w.ID,
			"childId":   child.ID,
			"intent":    intent,
			"magnitude": magnitude,
		})
		return SwitchBranch, child.ID, nil
	}

	m.checkpoint(w, models.CheckpointContextSwitch, intent, confidence, "Pivot to new intent")
	if err := m.Transition(w.ID, models.WorkflowExecute); err != nil {
		return SwitchNone, w.ID, err
	}

	m.log.Info("Workflow pivoted in place", map[string]interface{}{
		"workflowId": w.ID,
		"intent":     intent,
		"magnitude":  magnitude,
	})
	return SwitchPivot, w.ID, nil
}

// Snapshot exposes the plain progress view of one workflow.
func (m *Manager) Snapshot(id string) (models.WorkflowSnapshot, error) {
	w, err := m.Get(id)
	if err != nil {
		return models.WorkflowSnapshot{}, err
	}
	return models.WorkflowSnapshot{
		WorkflowID:      w.ID,
		State:           w.State,
		Intent:          w.Intent,
		Confidence:      w.Confidence,
		CheckpointCount: len(w.Checkpoints),
		UpdatedAt:       w.UpdatedAt,
	}, nil
}

func allowed(from, to models.WorkflowState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
