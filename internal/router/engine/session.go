// Package engine hosts one routing session: classifier, tracker, cache,
// resolver and workflow manager behind a single facade. Each session owns
// its own mutable state; nothing is shared across sessions.
package engine

import (
	"context"
	"sync"
	"time"

	"agent-router/internal/common/config"
	"agent-router/internal/common/logger"
	"agent-router/internal/models"
	"agent-router/internal/router/cache"
	"agent-router/internal/router/classifier"
	"agent-router/internal/router/conversation"
	"agent-router/internal/router/resolver"
	"agent-router/internal/router/workflow"
	"agent-router/internal/snapshot"
	"agent-router/pkg/registry"
)

// Session is the per-session routing core. One mutex covers the whole
// lookup -> classify -> update sequence so the tracker state a decision
// was based on cannot drift before the matching history write.
type Session struct {
	mu sync.Mutex

	id  string
	log logger.Logger

	registry   *registry.Registry
	tracker    *conversation.Tracker
	cache      *cache.Cache
	classifier *classifier.Classifier
	resolver   *resolver.Resolver
	workflows  *workflow.Manager
	snapshots  *snapshot.Store
}

// NewSession builds a session over shared read-only configuration. The
// snapshot store may be nil, which disables persistence.
func NewSession(id string, reg *registry.Registry, checker resolver.ResourceChecker, snapshots *snapshot.Store, routing config.RoutingConfig, log logger.Logger) *Session {
	log = log.WithFields(map[string]interface{}{"sessionId": id})

	tracker := conversation.NewTracker(config.GetDuration(routing.TrackerWindow), routing.HistorySize)
	classificationCache := cache.New(config.GetDuration(routing.CacheTTL))

	return &Session{
		id:         id,
		log:        log,
		registry:   reg,
		tracker:    tracker,
		cache:      classificationCache,
		classifier: classifier.New(reg, tracker, classificationCache, log),
		resolver:   resolver.New(reg, checker, log),
		workflows:  workflow.NewManager(log),
		snapshots:  snapshots,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Classify scores a query, consulting the cache unless the conversation
// tracker vetoes it.
func (s *Session) Classify(query string, useCache bool) models.ClassificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classifier.Classify(query, useCache)
}

// ResolveRoute maps a classification to its execution target.
func (s *Session) ResolveRoute(classification models.ClassificationResult) (*models.ResolvedRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Resolve(classification)
}

// CreateWorkflow starts a workflow for a new top-level task and returns
// its id.
func (s *Session) CreateWorkflow(query, intent string, confidence float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.workflows.Create(query, intent, confidence)
	s.publish(w.ID)
	return w.ID
}

// Checkpoint records an audit entry on a workflow and refreshes its
// persisted snapshot.
func (s *Session) Checkpoint(workflowID string, kind models.CheckpointKind, intent string, confidence float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpointID, err := s.workflows.Checkpoint(workflowID, kind, intent, confidence)
	if err != nil {
		return 0, err
	}
	s.publish(workflowID)
	return checkpointID, nil
}

// Transition moves a workflow to a new lifecycle state.
func (s *Session) Transition(workflowID string, to models.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.workflows.Transition(workflowID, to); err != nil {
		return err
	}
	s.publish(workflowID)
	return nil
}

// HandleContextSwitch classifies the pivot message and either redirects
// the workflow in place or branches a child, per the magnitude test. When
// the tracker does not actually see a pivot the call is a no-op.
func (s *Session) HandleContextSwitch(workflowID, message string) (workflow.SwitchAction, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// State must be read before Classify updates the tracker's history.
	state := s.tracker.State(message)
	classification := s.classifier.Classify(message, true)

	action, activeID, err := s.workflows.HandleContextSwitch(workflowID, message, state, classification.Intent, classification.Confidence)
	if err != nil {
		return action, activeID, err
	}

	if action != workflow.SwitchNone {
		s.publish(workflowID)
		if activeID != workflowID {
			s.publish(activeID)
		}
	}
	return action, activeID, nil
}

// Workflow returns a workflow by id.
func (s *Session) Workflow(workflowID string) (*models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflows.Get(workflowID)
}

// ActiveWorkflow returns the session's active workflow, or nil.
func (s *Session) ActiveWorkflow() *models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflows.Active()
}

// Snapshot exposes the progress view of one workflow, tagged with the
// session id.
func (s *Session) Snapshot(workflowID string) (models.WorkflowSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(workflowID)
}

// ClearCaches clears the classification cache and the route-table cache.
// The two are independent; this call is a convenience over both.
func (s *Session) ClearCaches() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Clear()
	s.registry.Clear()
	s.log.Info("Session caches cleared", nil)
}

func (s *Session) snapshotLocked(workflowID string) (models.WorkflowSnapshot, error) {
	snap, err := s.workflows.Snapshot(workflowID)
	if err != nil {
		return models.WorkflowSnapshot{}, err
	}
	snap.SessionID = s.id
	return snap, nil
}

// publish refreshes the persisted snapshot. Failures are logged and
// swallowed; routing continues without persistence.
func (s *Session) publish(workflowID string) {
	if s.snapshots == nil {
		return
	}

	snap, err := s.snapshotLocked(workflowID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.snapshots.Publish(ctx, snap); err != nil {
		s.log.WithError(err).Warn("Snapshot publish failed", map[string]interface{}{
			"workflowId": workflowID,
		})
	}
}
