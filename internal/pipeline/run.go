package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/profile-engine/internal/checkpoint"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

// DefaultStageTimeout bounds a single stage. A stage exceeding its timeout
// is treated exactly like a stage that returned an error.
const DefaultStageTimeout = 120 * time.Second

// ErrWorkflowNotFound is returned by Resume when no checkpoint exists for
// the requested workflow ID.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrStageNotConfigured is returned by Resume when a checkpoint names a
// completed stage missing from the configured stage list. Restarting from
// the beginning would re-run stages the checkpoint already completed.
var ErrStageNotConfigured = errors.New("checkpointed stage not configured")

// StageError wraps a failure inside a single stage. The workflow state up
// to the previous stage is already checkpointed, so the run can be resumed
// and the failed stage retried.
type StageError struct {
	WorkflowID string
	Stage      string
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed in workflow %s: %v", e.Stage, e.WorkflowID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures an Orchestrator.
type Options struct {
	// Stages is the ordered stage-name list for this workflow kind.
	Stages []string

	// StageTimeout bounds each stage; zero means DefaultStageTimeout.
	StageTimeout time.Duration

	Log zerolog.Logger
}

// Orchestrator runs workflows as a linear sequence of checkpointed stages.
// It is safe for concurrent use; each Run gets an independent state.
type Orchestrator struct {
	stages  []Stage
	store   checkpoint.Store
	timeout time.Duration
	log     zerolog.Logger
}

// New resolves the configured stage list against the registry and builds an
// orchestrator over the given checkpoint store.
func New(registry *Registry, store checkpoint.Store, opts Options) (*Orchestrator, error) {
	if len(opts.Stages) == 0 {
		return nil, fmt.Errorf("workflow requires at least one stage")
	}
	stages, err := registry.Resolve(opts.Stages)
	if err != nil {
		return nil, err
	}
	timeout := opts.StageTimeout
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}
	return &Orchestrator{
		stages:  stages,
		store:   store,
		timeout: timeout,
		log:     opts.Log,
	}, nil
}

// StageNames returns the ordered stage names this orchestrator runs.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes the full stage sequence for a new workflow. A missing
// workflow ID is generated; a nil profile starts empty. The returned
// checkpoint reflects the final persisted state whether or not an error
// occurred.
func (o *Orchestrator) Run(ctx context.Context, state *State) (*types.WorkflowCheckpoint, error) {
	if state == nil {
		state = &State{}
	}
	if state.WorkflowID == "" {
		state.WorkflowID = uuid.NewString()
	}
	if state.Profile == nil {
		state.Profile = profile.Empty()
	}
	if state.Artifacts == nil {
		state.Artifacts = make(map[string]string)
	}

	cp := &types.WorkflowCheckpoint{WorkflowID: state.WorkflowID}
	return o.runFrom(ctx, state, cp, 0)
}

// Resume continues a checkpointed workflow from the first stage after its
// last completed one. The failed stage, if any, is retried.
func (o *Orchestrator) Resume(ctx context.Context, workflowID string) (*types.WorkflowCheckpoint, error) {
	cp, err := o.store.Load(ctx, workflowID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
		}
		return nil, err
	}

	state := &State{
		WorkflowID: workflowID,
		Profile:    cp.Profile,
		Artifacts:  make(map[string]string),
	}
	if state.Profile == nil {
		state.Profile = profile.Empty()
	}

	start := 0
	if cp.LastCompletedStage != "" {
		found := false
		for i, s := range o.stages {
			if s.Name == cp.LastCompletedStage {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q in workflow %s", ErrStageNotConfigured, cp.LastCompletedStage, workflowID)
		}
	}
	if start >= len(o.stages) {
		o.log.Info().Str("workflow_id", workflowID).Msg("workflow already complete")
		return cp, nil
	}

	o.log.Info().
		Str("workflow_id", workflowID).
		Str("stage", o.stages[start].Name).
		Msg("resuming workflow")

	// Prior failures are retried now; keep only historical timings.
	cp.Errors = nil
	return o.runFrom(ctx, state, cp, start)
}

// RunResult pairs a workflow with its outcome in a batch run.
type RunResult struct {
	WorkflowID string
	Checkpoint *types.WorkflowCheckpoint
	Err        error
}

// RunMany executes independent workflows concurrently with a worker limit.
// Workflows are isolated: one failure neither cancels nor fails the others.
func (o *Orchestrator) RunMany(ctx context.Context, states []*State, concurrency int) []RunResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]RunResult, len(states))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, state := range states {
		g.Go(func() error {
			cp, err := o.Run(ctx, state)
			id := ""
			if state != nil {
				id = state.WorkflowID
			}
			if cp != nil {
				id = cp.WorkflowID
			}
			results[i] = RunResult{WorkflowID: id, Checkpoint: cp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runFrom executes stages[start:] against state, checkpointing after every
// stage. Cancellation is honored at stage boundaries; a running stage is
// interrupted through its stage context.
func (o *Orchestrator) runFrom(ctx context.Context, state *State, cp *types.WorkflowCheckpoint, start int) (*types.WorkflowCheckpoint, error) {
	for i := start; i < len(o.stages); i++ {
		stage := o.stages[i]

		if err := ctx.Err(); err != nil {
			cp.Errors = append(cp.Errors, fmt.Sprintf("%s: not started: %v", stage.Name, err))
			o.persist(ctx, state, cp)
			return cp, &StageError{WorkflowID: state.WorkflowID, Stage: stage.Name, Err: err}
		}

		o.log.Debug().
			Str("workflow_id", state.WorkflowID).
			Str("stage", stage.Name).
			Int("position", i+1).
			Int("total", len(o.stages)).
			Msg("running stage")

		stageCtx, cancel := context.WithTimeout(ctx, o.timeout)
		started := time.Now()
		err := stage.Run(stageCtx, state)
		cancel()
		elapsed := time.Since(started)

		if err != nil {
			cp.Timings = append(cp.Timings, types.StageTiming{
				Stage:      stage.Name,
				DurationMs: elapsed.Milliseconds(),
				Status:     types.StageStatusError,
			})
			cp.Errors = append(cp.Errors, fmt.Sprintf("%s: %v", stage.Name, err))
			o.persist(ctx, state, cp)
			o.log.Error().Err(err).
				Str("workflow_id", state.WorkflowID).
				Str("stage", stage.Name).
				Dur("elapsed", elapsed).
				Msg("stage failed")
			return cp, &StageError{WorkflowID: state.WorkflowID, Stage: stage.Name, Err: err}
		}

		cp.LastCompletedStage = stage.Name
		cp.Timings = append(cp.Timings, types.StageTiming{
			Stage:      stage.Name,
			DurationMs: elapsed.Milliseconds(),
			Status:     types.StageStatusSuccess,
		})
		if err := o.persist(ctx, state, cp); err != nil {
			return cp, fmt.Errorf("failed to checkpoint after stage %s: %w", stage.Name, err)
		}

		o.log.Debug().
			Str("workflow_id", state.WorkflowID).
			Str("stage", stage.Name).
			Dur("elapsed", elapsed).
			Msg("stage complete")
	}
	return cp, nil
}

// persist writes the checkpoint, using a background-derived context so a
// canceled run still records how far it got.
func (o *Orchestrator) persist(ctx context.Context, state *State, cp *types.WorkflowCheckpoint) error {
	cp.Profile = state.Profile
	cp.UpdatedAt = time.Now().UTC()

	saveCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := o.store.Save(saveCtx, cp); err != nil {
		o.log.Warn().Err(err).
			Str("workflow_id", cp.WorkflowID).
			Msg("failed to persist checkpoint")
		return err
	}
	return nil
}
