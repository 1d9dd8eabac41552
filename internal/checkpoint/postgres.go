package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/profile-engine/internal/types"
)

// PostgresStore persists checkpoints in a workflow_checkpoints table, one row
// per workflow, upserted on every save.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and ensures the checkpoint
// table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS workflow_checkpoints (
		     workflow_id          TEXT PRIMARY KEY,
		     last_completed_stage TEXT NOT NULL DEFAULT '',
		     profile              JSONB,
		     timings              JSONB NOT NULL DEFAULT '[]',
		     errors               JSONB NOT NULL DEFAULT '[]',
		     updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return nil
}

// Save upserts the checkpoint row for the workflow.
func (s *PostgresStore) Save(ctx context.Context, cp *types.WorkflowCheckpoint) error {
	if cp == nil || cp.WorkflowID == "" {
		return fmt.Errorf("checkpoint requires a workflow ID")
	}

	profileJSON, err := json.Marshal(cp.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile snapshot: %w", err)
	}
	timingsJSON, err := json.Marshal(cp.Timings)
	if err != nil {
		return fmt.Errorf("failed to marshal stage timings: %w", err)
	}
	errorsJSON, err := json.Marshal(cp.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal stage errors: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO workflow_checkpoints (workflow_id, last_completed_stage, profile, timings, errors, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (workflow_id) DO UPDATE
		 SET last_completed_stage = EXCLUDED.last_completed_stage,
		     profile = EXCLUDED.profile, timings = EXCLUDED.timings,
		     errors = EXCLUDED.errors, updated_at = NOW()`,
		cp.WorkflowID, cp.LastCompletedStage, profileJSON, timingsJSON, errorsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for a workflow, or ErrNotFound.
func (s *PostgresStore) Load(ctx context.Context, workflowID string) (*types.WorkflowCheckpoint, error) {
	cp := &types.WorkflowCheckpoint{WorkflowID: workflowID}
	var profileJSON, timingsJSON, errorsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT last_completed_stage, profile, timings, errors, updated_at
		 FROM workflow_checkpoints
		 WHERE workflow_id = $1`,
		workflowID,
	).Scan(&cp.LastCompletedStage, &profileJSON, &timingsJSON, &errorsJSON, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, workflowID)
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &cp.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile snapshot: %w", err)
		}
	}
	if len(timingsJSON) > 0 {
		_ = json.Unmarshal(timingsJSON, &cp.Timings)
	}
	if len(errorsJSON) > 0 {
		_ = json.Unmarshal(errorsJSON, &cp.Errors)
	}
	return cp, nil
}

// Delete removes the checkpoint row for a workflow.
func (s *PostgresStore) Delete(ctx context.Context, workflowID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM workflow_checkpoints WHERE workflow_id = $1`, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
