package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-engine/internal/checkpoint"
	"github.com/jonathan/profile-engine/internal/logger"
	"github.com/jonathan/profile-engine/internal/types"
)

// recordingStage appends its name to executed and tags the profile so
// persistence can be asserted.
func recordingStage(name string, executed *[]string) StageFunc {
	return func(_ context.Context, state *State) error {
		*executed = append(*executed, name)
		state.Profile.Skills = append(state.Profile.Skills, name)
		return nil
	}
}

func failingStage(name string, executed *[]string, err error) StageFunc {
	return func(_ context.Context, _ *State) error {
		*executed = append(*executed, name)
		return err
	}
}

func newTestOrchestrator(t *testing.T, registry *Registry, store checkpoint.Store, stageNames []string, timeout time.Duration) *Orchestrator {
	t.Helper()
	orch, err := New(registry, store, Options{
		Stages:       stageNames,
		StageTimeout: timeout,
		Log:          logger.Nop(),
	})
	require.NoError(t, err)
	return orch
}

func TestRunExecutesAllStagesInOrder(t *testing.T) {
	var executed []string
	registry := NewRegistry()
	registry.Register("one", recordingStage("one", &executed))
	registry.Register("two", recordingStage("two", &executed))
	registry.Register("three", recordingStage("three", &executed))

	store := checkpoint.NewMemoryStore()
	orch := newTestOrchestrator(t, registry, store, []string{"one", "two", "three"}, 0)

	cp, err := orch.Run(context.Background(), &State{})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, executed)
	assert.Equal(t, "three", cp.LastCompletedStage)
	assert.NotEmpty(t, cp.WorkflowID, "workflow id is generated when missing")
	require.Len(t, cp.Timings, 3)
	for _, timing := range cp.Timings {
		assert.Equal(t, types.StageStatusSuccess, timing.Status)
	}

	persisted, err := store.Load(context.Background(), cp.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "three", persisted.LastCompletedStage)
	assert.Equal(t, []string{"one", "two", "three"}, persisted.Profile.Skills)
}

func TestStageFailureStopsRunAndPreservesProgress(t *testing.T) {
	var executed []string
	boom := errors.New("boom")

	registry := NewRegistry()
	registry.Register("one", recordingStage("one", &executed))
	registry.Register("two", failingStage("two", &executed, boom))
	registry.Register("three", recordingStage("three", &executed))

	store := checkpoint.NewMemoryStore()
	orch := newTestOrchestrator(t, registry, store, []string{"one", "two", "three"}, 0)

	cp, err := orch.Run(context.Background(), &State{WorkflowID: "wf-1"})
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "two", stageErr.Stage)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"one", "two"}, executed, "stage three never runs")
	assert.Equal(t, "one", cp.LastCompletedStage)
	require.Len(t, cp.Errors, 1)
	assert.Contains(t, cp.Errors[0], "two")

	// The failure checkpoint is persisted, keeping stage one's profile.
	persisted, err := store.Load(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "one", persisted.LastCompletedStage)
	assert.Equal(t, []string{"one"}, persisted.Profile.Skills)
}

func TestResumeRetriesFailedStage(t *testing.T) {
	var executed []string
	shouldFail := true

	registry := NewRegistry()
	registry.Register("one", recordingStage("one", &executed))
	registry.Register("two", func(_ context.Context, state *State) error {
		executed = append(executed, "two")
		if shouldFail {
			return fmt.Errorf("transient")
		}
		state.Profile.Skills = append(state.Profile.Skills, "two")
		return nil
	})
	registry.Register("three", recordingStage("three", &executed))

	store := checkpoint.NewMemoryStore()
	orch := newTestOrchestrator(t, registry, store, []string{"one", "two", "three"}, 0)

	_, err := orch.Run(context.Background(), &State{WorkflowID: "wf-retry"})
	require.Error(t, err)

	shouldFail = false
	cp, err := orch.Resume(context.Background(), "wf-retry")
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "two", "three"}, executed, "stage one runs once, stage two is retried")
	assert.Equal(t, "three", cp.LastCompletedStage)
	assert.Empty(t, cp.Errors, "resume clears prior stage errors")
	assert.Equal(t, []string{"one", "two", "three"}, cp.Profile.Skills)
}

func TestResumeUnknownWorkflow(t *testing.T) {
	registry := NewRegistry()
	registry.Register("one", func(_ context.Context, _ *State) error { return nil })
	orch := newTestOrchestrator(t, registry, checkpoint.NewMemoryStore(), []string{"one"}, 0)

	_, err := orch.Resume(context.Background(), "no-such-workflow")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestResumeRejectsCheckpointFromChangedStageList(t *testing.T) {
	var executed []string
	registry := NewRegistry()
	registry.Register("one", recordingStage("one", &executed))
	registry.Register("two", recordingStage("two", &executed))

	store := checkpoint.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), &types.WorkflowCheckpoint{
		WorkflowID:         "wf-renamed",
		LastCompletedStage: "old-stage-name",
	}))

	orch := newTestOrchestrator(t, registry, store, []string{"one", "two"}, 0)

	_, err := orch.Resume(context.Background(), "wf-renamed")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageNotConfigured)
	assert.Contains(t, err.Error(), "old-stage-name")
	assert.Empty(t, executed, "no stage reruns from the beginning")
}

func TestResumeCompletedWorkflowIsNoOp(t *testing.T) {
	var executed []string
	registry := NewRegistry()
	registry.Register("one", recordingStage("one", &executed))

	store := checkpoint.NewMemoryStore()
	orch := newTestOrchestrator(t, registry, store, []string{"one"}, 0)

	first, err := orch.Run(context.Background(), &State{WorkflowID: "wf-done"})
	require.NoError(t, err)

	cp, err := orch.Resume(context.Background(), "wf-done")
	require.NoError(t, err)
	assert.Equal(t, first.LastCompletedStage, cp.LastCompletedStage)
	assert.Equal(t, []string{"one"}, executed, "no stage reruns")
}

func TestStageTimeoutIsStageError(t *testing.T) {
	registry := NewRegistry()
	registry.Register("slow", func(ctx context.Context, _ *State) error {
		<-ctx.Done()
		return ctx.Err()
	})

	orch := newTestOrchestrator(t, registry, checkpoint.NewMemoryStore(), []string{"slow"}, 20*time.Millisecond)

	cp, err := orch.Run(context.Background(), &State{WorkflowID: "wf-slow"})
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "slow", stageErr.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Len(t, cp.Timings, 1)
	assert.Equal(t, types.StageStatusError, cp.Timings[0].Status)
}

func TestCancellationStopsAtStageBoundary(t *testing.T) {
	var executed []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := NewRegistry()
	registry.Register("one", func(_ context.Context, state *State) error {
		executed = append(executed, "one")
		state.Profile.Skills = append(state.Profile.Skills, "one")
		cancel()
		return nil
	})
	registry.Register("two", recordingStage("two", &executed))

	store := checkpoint.NewMemoryStore()
	orch := newTestOrchestrator(t, registry, store, []string{"one", "two"}, 0)

	cp, err := orch.Run(ctx, &State{WorkflowID: "wf-cancel"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"one"}, executed, "stage two never starts")

	// Progress through stage one is still persisted.
	assert.Equal(t, "one", cp.LastCompletedStage)
	persisted, loadErr := store.Load(context.Background(), "wf-cancel")
	require.NoError(t, loadErr)
	assert.Equal(t, []string{"one"}, persisted.Profile.Skills)
}

func TestRunManyIsolatesWorkflows(t *testing.T) {
	registry := NewRegistry()
	registry.Register("work", func(_ context.Context, state *State) error {
		if state.RawInput == "fail" {
			return errors.New("bad workflow")
		}
		state.Profile.Skills = append(state.Profile.Skills, state.WorkflowID)
		return nil
	})

	store := checkpoint.NewMemoryStore()
	orch := newTestOrchestrator(t, registry, store, []string{"work"}, 0)

	states := []*State{
		{WorkflowID: "wf-a"},
		{WorkflowID: "wf-b", RawInput: "fail"},
		{WorkflowID: "wf-c"},
	}
	results := orch.RunMany(context.Background(), states, 2)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, []string{"wf-a"}, results[0].Checkpoint.Profile.Skills)
	assert.Equal(t, []string{"wf-c"}, results[2].Checkpoint.Profile.Skills)
}

func TestNewRejectsUnknownStage(t *testing.T) {
	registry := NewRegistry()
	registry.Register("known", func(_ context.Context, _ *State) error { return nil })

	_, err := New(registry, checkpoint.NewMemoryStore(), Options{
		Stages: []string{"known", "typo"},
		Log:    logger.Nop(),
	})
	require.Error(t, err)

	var unknown *UnknownStageError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "typo", unknown.Stage)
}

func TestNewRequiresStages(t *testing.T) {
	_, err := New(NewRegistry(), checkpoint.NewMemoryStore(), Options{Log: logger.Nop()})
	assert.Error(t, err)
}
