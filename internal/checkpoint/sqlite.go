package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/profile-engine/internal/types"
)

// SQLiteStore persists checkpoints in a local SQLite file. Suited to
// single-machine CLI use where running Postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite checkpoint database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS workflow_checkpoints (
		   workflow_id          TEXT PRIMARY KEY,
		   last_completed_stage TEXT NOT NULL DEFAULT '',
		   profile              TEXT,
		   timings              TEXT NOT NULL DEFAULT '[]',
		   errors               TEXT NOT NULL DEFAULT '[]',
		   updated_at           TEXT NOT NULL
		 )`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoint table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save upserts the checkpoint row for the workflow.
func (s *SQLiteStore) Save(ctx context.Context, cp *types.WorkflowCheckpoint) error {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO workflow_checkpoints
		   (workflow_id, last_completed_stage, profile, timings, errors, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cp.WorkflowID, cp.LastCompletedStage, string(profileJSON),
		string(timingsJSON), string(errorsJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for a workflow, or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, workflowID string) (*types.WorkflowCheckpoint, error) {
	cp := &types.WorkflowCheckpoint{WorkflowID: workflowID}
	var profileJSON, timingsJSON, errorsJSON, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT last_completed_stage, profile, timings, errors, updated_at
		 FROM workflow_checkpoints
		 WHERE workflow_id = ?`,
		workflowID,
	).Scan(&cp.LastCompletedStage, &profileJSON, &timingsJSON, &errorsJSON, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, workflowID)
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if profileJSON != "" && profileJSON != "null" {
		if err := json.Unmarshal([]byte(profileJSON), &cp.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile snapshot: %w", err)
		}
	}
	if timingsJSON != "" {
		_ = json.Unmarshal([]byte(timingsJSON), &cp.Timings)
	}
	if errorsJSON != "" {
		_ = json.Unmarshal([]byte(errorsJSON), &cp.Errors)
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		cp.UpdatedAt = t
	}
	return cp, nil
}

// Delete removes the checkpoint row for a workflow.
func (s *SQLiteStore) Delete(ctx context.Context, workflowID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM workflow_checkpoints WHERE workflow_id = ?`, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
