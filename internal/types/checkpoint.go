// Package types provides type definitions for structured data used throughout the profile-engine system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Stage outcome tags recorded in checkpoint timings.
const (
	StageStatusSuccess = "success"
	StageStatusError   = "error"
)

// StageTiming records the wall-clock duration and outcome of one stage.
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMs int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

// WorkflowCheckpoint is a persisted snapshot of pipeline progress. It is
// written after every stage, success or failure, so a run can continue from
// the first non-completed stage.
type WorkflowCheckpoint struct {
	WorkflowID         string        `json:"workflow_id"`
	LastCompletedStage string        `json:"last_completed_stage"`
	Profile            *Profile      `json:"profile"`
	Timings            []StageTiming `json:"timings"`
	Errors             []string      `json:"errors"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// CompletedCount returns how many leading stages of the given ordered list
// are already completed according to this checkpoint.
func (c *WorkflowCheckpoint) CompletedCount(stageNames []string) int {
	if c == nil || c.LastCompletedStage == "" {
		return 0
	}
	for i, name := range stageNames {
		if name == c.LastCompletedStage {
			return i + 1
		}
	}
	return 0
}
