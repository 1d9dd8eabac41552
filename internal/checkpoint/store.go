// Package checkpoint persists workflow state between pipeline stages so an
// interrupted run can resume from its last completed stage.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jonathan/profile-engine/internal/types"
)

// ErrNotFound is returned when no checkpoint exists for a workflow ID.
var ErrNotFound = errors.New("checkpoint not found")

// Store persists and retrieves workflow checkpoints keyed by workflow ID.
// Saving overwrites any prior checkpoint for the same workflow.
type Store interface {
	Save(ctx context.Context, cp *types.WorkflowCheckpoint) error
	Load(ctx context.Context, workflowID string) (*types.WorkflowCheckpoint, error)
	Delete(ctx context.Context, workflowID string) error
	Close() error
}

// MemoryStore keeps checkpoints in process memory. Used by tests and by runs
// that configure no persistence backend.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checkpoints: make(map[string][]byte)}
}

// Save stores a snapshot of the checkpoint. The snapshot is serialized so
// later mutation of the caller's profile cannot change persisted state.
func (s *MemoryStore) Save(_ context.Context, cp *types.WorkflowCheckpoint) error {
	if cp == nil || cp.WorkflowID == "" {
		return fmt.Errorf("checkpoint requires a workflow ID")
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	s.mu.Lock()
	s.checkpoints[cp.WorkflowID] = raw
	s.mu.Unlock()
	return nil
}

// Load returns the checkpoint for a workflow, or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, workflowID string) (*types.WorkflowCheckpoint, error) {
	s.mu.RLock()
	raw, ok := s.checkpoints[workflowID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, workflowID)
	}
	var cp types.WorkflowCheckpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint for a workflow. Deleting a missing workflow
// is not an error.
func (s *MemoryStore) Delete(_ context.Context, workflowID string) error {
	s.mu.Lock()
	delete(s.checkpoints, workflowID)
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
