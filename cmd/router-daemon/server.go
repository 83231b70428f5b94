// cmd/router-daemon/server.go
package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"agent-router/internal/common/config"
	"agent-router/internal/common/errors"
	"agent-router/internal/common/logger"
	"agent-router/internal/common/observability"
	"agent-router/internal/common/resources"
	"agent-router/internal/models"
	"agent-router/internal/router/engine"
	"agent-router/internal/snapshot"
	"agent-router/pkg/registry"
)

const sessionHeader = "X-Session-ID"

// server hosts the per-session routing engines behind the HTTP API.
// Sessions are created lazily on first use and keyed by the session
// header; each owns its own cache and tracker.
type server struct {
	cfg       *config.Config
	log       logger.Logger
	registry  *registry.Registry
	checker   *resources.Checker
	snapshots *snapshot.Store
	obs       *observability.Observability

	mu       sync.Mutex
	sessions map[string]*engine.Session
}

func newServer(cfg *config.Config, reg *registry.Registry, checker *resources.Checker, snapshots *snapshot.Store, obs *observability.Observability, log logger.Logger) *server {
	return &server{
		cfg:       cfg,
		log:       log,
		registry:  reg,
		checker:   checker,
		snapshots: snapshots,
		obs:       obs,
		sessions:  make(map[string]*engine.Session),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/classify", s.handleClassify)
	mux.HandleFunc("POST /v1/resolve", s.handleResolve)
	mux.HandleFunc("POST /v1/workflows", s.handleCreateWorkflow)
	mux.HandleFunc("GET /v1/workflows/{id}", s.handleGetWorkflow)
	mux.HandleFunc("POST /v1/workflows/{id}/checkpoint", s.handleCheckpoint)
	mux.HandleFunc("POST /v1/workflows/{id}/transition", s.handleTransition)
	mux.HandleFunc("POST /v1/workflows/{id}/context-switch", s.handleContextSwitch)
	mux.HandleFunc("GET /v1/workflows/{id}/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /v1/caches/clear", s.handleClearCaches)
	return mux
}

// session returns the engine for the request's session header, creating it
// on first use.
func (s *server) session(r *http.Request) *engine.Session {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		id = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := engine.NewSession(id, s.registry, s.checker, s.snapshots, s.cfg.Routing, s.log)
	s.sessions[id] = sess
	return sess
}

func (s *server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query    string `json:"query"`
		UseCache *bool  `json:"useCache"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		s.writeBadRequest(w, "query is required")
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	start := time.Now()
	result := s.session(r).Classify(req.Query, useCache)
	s.obs.RecordClassification(r.Context(), result.Intent, result.SuggestedAction)
	s.obs.RecordClassifyDuration(r.Context(), time.Since(start), result.Intent)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var classification models.ClassificationResult
	if !s.decode(w, r, &classification) {
		return
	}
	if classification.Intent == "" {
		s.writeBadRequest(w, "intent is required")
		return
	}

	route, err := s.session(r).ResolveRoute(classification)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, route)
}

func (s *server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string  `json:"query"`
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Query == "" || req.Intent == "" {
		s.writeBadRequest(w, "query and intent are required")
		return
	}

	id := s.session(r).CreateWorkflow(req.Query, req.Intent, req.Confidence)
	s.writeJSON(w, http.StatusCreated, map[string]string{"workflowId": id})
}

func (s *server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflow, err := s.session(r).Workflow(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, workflow)
}

func (s *server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind       string  `json:"kind"`
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	kind := models.CheckpointKind(req.Kind)
	switch kind {
	case models.CheckpointInitial, models.CheckpointMilestone, models.CheckpointContextSwitch, models.CheckpointFinal:
	default:
		s.writeBadRequest(w, "unknown checkpoint kind")
		return
	}

	checkpointID, err := s.session(r).Checkpoint(r.PathValue("id"), kind, req.Intent, req.Confidence)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"checkpointId": checkpointID})
}

func (s *server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.session(r).Transition(r.PathValue("id"), models.WorkflowState(req.To)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleContextSwitch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		s.writeBadRequest(w, "message is required")
		return
	}

	action, activeID, err := s.session(r).HandleContextSwitch(r.PathValue("id"), req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"action":     string(action),
		"workflowId": activeID,
	})
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session(r).Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	s.session(r).ClearCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("Failed to encode response", nil)
	}
}

func (s *server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps the error taxonomy to HTTP statuses. Structured errors
// are returned whole so callers see the metadata (valid intents, attempted
// transition) they need to act.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeWorkflowNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeNoRouteForIntent:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidTransition, errors.ErrCodeWorkflowClosed:
		status = http.StatusConflict
	}

	if stdErr, ok := err.(*errors.StandardError); ok {
		s.writeJSON(w, status, stdErr)
		return
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
