// Package errors provides standardized error handling for the routing core.
package errors

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Recoverable: degrade in place and continue.
	ErrCodeNoSignal               ErrorCode = "NO_SIGNAL"
	ErrCodeMissingContextResource ErrorCode = "MISSING_CONTEXT_RESOURCE"
	ErrCodeConfigLoadFailed       ErrorCode = "CONFIG_LOAD_FAILED"

	// Caller-facing: returned as explicit failures, never defaulted around.
	ErrCodeNoRouteForIntent  ErrorCode = "NO_ROUTE_FOR_INTENT"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeWorkflowNotFound  ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrCodeWorkflowClosed    ErrorCode = "WORKFLOW_CLOSED"

	ErrCodeSnapshotPublishFailed ErrorCode = "SNAPSHOT_PUBLISH_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is allows errors.Is matching against another *StandardError by code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

// CodeOf extracts the error code, or empty for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ""
}

// NewNoRouteError reports an intent with no route-table entry. The valid
// intent list travels with the error so the caller can ask instead of guess.
func NewNoRouteError(intent string, validIntents []string) *StandardError {
	sorted := append([]string(nil), validIntents...)
	sort.Strings(sorted)
	return &StandardError{
		Code:      ErrCodeNoRouteForIntent,
		Message:   fmt.Sprintf("no route configured for intent %q", intent),
		Details:   fmt.Sprintf("valid intents: [%s]", strings.Join(sorted, ", ")),
		Retryable: false,
		Metadata: map[string]interface{}{
			"intent":       intent,
			"validIntents": sorted,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports a workflow state change that is not in
// the transition table. The workflow is left unchanged by the caller.
func NewInvalidTransitionError(workflowID, from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   fmt.Sprintf("invalid workflow transition %s -> %s", from, to),
		Details:   fmt.Sprintf("workflowId: %s", workflowID),
		Retryable: false,
		Metadata: map[string]interface{}{
			"workflowId": workflowID,
			"from":       from,
			"to":         to,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowNotFoundError reports an unknown workflow identifier.
func NewWorkflowNotFoundError(workflowID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowNotFound,
		Message:   "workflow not found",
		Details:   fmt.Sprintf("workflowId: %s", workflowID),
		Retryable: false,
		Metadata:  map[string]interface{}{"workflowId": workflowID},
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowClosedError reports an operation against a DONE workflow.
// Reopening means creating a new workflow, not reusing the identifier.
func NewWorkflowClosedError(workflowID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowClosed,
		Message:   "workflow already reached its terminal state",
		Details:   fmt.Sprintf("workflowId: %s", workflowID),
		Retryable: false,
		Metadata:  map[string]interface{}{"workflowId": workflowID},
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingResourceError reports a context resource that does not exist.
// Non-fatal: resolution continues with the remaining resources.
func NewMissingResourceError(intent, resource string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingContextResource,
		Message:   "configured context resource does not exist",
		Details:   fmt.Sprintf("intent: %s, resource: %s", intent, resource),
		Retryable: false,
		Metadata: map[string]interface{}{
			"intent":   intent,
			"resource": resource,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigLoadError reports a routing configuration that could not be
// parsed. Callers degrade to an empty table rather than crashing.
func NewConfigLoadError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigLoadFailed,
		Message:   "routing configuration could not be loaded",
		Details:   fmt.Sprintf("path: %s, error: %v", path, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"path": path},
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotPublishError reports a failed snapshot write. Non-fatal for
// the request path.
func NewSnapshotPublishError(workflowID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotPublishFailed,
		Message:   "workflow snapshot publish failed",
		Details:   fmt.Sprintf("workflowId: %s, error: %v", workflowID, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"workflowId": workflowID},
		Timestamp: time.Now().UTC(),
	}
}
