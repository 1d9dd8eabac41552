// Package pipeline provides the high-level orchestration for profile
// authoring workflows: an ordered list of named stages executed with
// per-stage timeouts, checkpointing after every stage, and resume from the
// first non-completed stage.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/profile-engine/internal/types"
)

// State is the mutable working set a workflow threads through its stages.
// Stages read and update the profile in place; inputs and artifacts carry
// stage-to-stage data that does not belong on the profile itself.
type State struct {
	WorkflowID string
	Profile    *types.Profile

	// RawInput is the unstructured source text the extract stage turns into
	// fragments.
	RawInput string

	// Fragments feed the merge stage, either provided directly or produced
	// by extraction.
	Fragments []types.Fragment

	// Artifacts holds named stage outputs, such as the rendered document
	// path.
	Artifacts map[string]string
}

// StageFunc executes one pipeline stage against the workflow state.
type StageFunc func(ctx context.Context, state *State) error

// Stage pairs a registered name with its implementation.
type Stage struct {
	Name string
	Run  StageFunc
}

// UnknownStageError reports a configured stage name with no registered
// implementation.
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage: %s", e.Stage)
}

// Registry maps stage names to implementations. Workflows are configured as
// ordered name lists resolved against the registry at construction, so a
// typo fails fast instead of mid-run.
type Registry struct {
	stages map[string]StageFunc
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]StageFunc)}
}

// Register adds or replaces a stage implementation.
func (r *Registry) Register(name string, fn StageFunc) {
	r.stages[name] = fn
}

// Names returns the registered stage names, sorted for stable output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps an ordered list of stage names to executable stages.
func (r *Registry) Resolve(names []string) ([]Stage, error) {
	stages := make([]Stage, 0, len(names))
	for _, name := range names {
		fn, ok := r.stages[name]
		if !ok {
			return nil, &UnknownStageError{Stage: name}
		}
		stages = append(stages, Stage{Name: name, Run: fn})
	}
	return stages, nil
}
