// Package snapshot persists the last known workflow state to Redis so
// downstream progress tooling can render it. The core owns the snapshot
// shape, not the persisted surface's consumers.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agent-router/internal/common/database"
	"agent-router/internal/common/errors"
	"agent-router/internal/common/logger"
	"agent-router/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store writes workflow snapshots to Redis with a TTL.
type Store struct {
	client *database.RedisClient
	ttl    time.Duration
	log    logger.Logger
}

// NewStore creates a snapshot store over an existing Redis client.
func NewStore(client *database.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	return &Store{client: client, ttl: ttl, log: log}
}

func key(sessionID, workflowID string) string {
	return fmt.Sprintf("router:session:%s:workflow:%s", sessionID, workflowID)
}

// Publish writes one snapshot. Failures are returned for logging but must
// never fail the request that produced the snapshot.
func (s *Store) Publish(ctx context.Context, snap models.WorkflowSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.NewSnapshotPublishError(snap.WorkflowID, err)
	}

	if err := s.client.Set(ctx, key(snap.SessionID, snap.WorkflowID), data, s.ttl); err != nil {
		return errors.NewSnapshotPublishError(snap.WorkflowID, err)
	}
	return nil
}

// Fetch reads one workflow's snapshot. A missing key is reported as
// WorkflowNotFound.
func (s *Store) Fetch(ctx context.Context, sessionID, workflowID string) (models.WorkflowSnapshot, error) {
	raw, err := s.client.Get(ctx, key(sessionID, workflowID))
	if err == redis.Nil {
		return models.WorkflowSnapshot{}, errors.NewWorkflowNotFoundError(workflowID)
	}
	if err != nil {
		return models.WorkflowSnapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}

	var snap models.WorkflowSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return models.WorkflowSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// List returns every stored snapshot for a session. Not on the request
// hot path.
func (s *Store) List(ctx context.Context, sessionID string) ([]models.WorkflowSnapshot, error) {
	keys, err := s.client.Keys(ctx, key(sessionID, "*"))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	snaps := make([]models.WorkflowSnapshot, 0, len(keys))
	for _, k := range keys {
		raw, err := s.client.Get(ctx, k)
		if err == redis.Nil {
			continue // expired between KEYS and GET
		}
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		var snap models.WorkflowSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			s.log.WithError(err).Warn("Skipping undecodable snapshot", map[string]interface{}{"key": k})
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
