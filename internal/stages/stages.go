// Package stages binds the default workflow stage set to the pipeline
// registry. Stages wrap narrow collaborator interfaces so the engine can run
// end-to-end with any of them absent.
package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/profile-engine/internal/merge"
	"github.com/jonathan/profile-engine/internal/pipeline"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

// Default stage names, in their default execution order.
const (
	StageExtract        = "extract"
	StageMerge          = "merge"
	StageEnhance        = "enhance"
	StageOrderSections  = "order_sections"
	StageSelectTemplate = "select_template"
	StageRender         = "render"
	StageOptimize       = "optimize"
	StagePersist        = "persist"
)

// DefaultOrder is the stage sequence used when the configuration names none.
func DefaultOrder() []string {
	return []string{
		StageExtract, StageMerge, StageEnhance, StageOrderSections,
		StageSelectTemplate, StageRender, StageOptimize, StagePersist,
	}
}

// ArtifactSectionOrder is the state artifact key holding the comma-joined
// section order for the renderer.
const ArtifactSectionOrder = "section_order"

// ArtifactOutput is the state artifact key holding the rendered output
// location.
const ArtifactOutput = "output"

// DefaultTemplate is applied by select_template when neither the profile nor
// the configuration names one.
const DefaultTemplate = "modern"

// Extractor turns unstructured source text into profile fragments.
type Extractor interface {
	Extract(ctx context.Context, raw string) ([]types.Fragment, error)
}

// Enhancer rewrites a profile in place, returning the improved copy. Used by
// both the enhance and optimize stages.
type Enhancer interface {
	Enhance(ctx context.Context, p *types.Profile) (*types.Profile, error)
}

// Renderer produces the output document for a profile and returns its
// location.
type Renderer interface {
	Render(ctx context.Context, p *types.Profile, sectionOrder []string, template string) (string, error)
}

// ProfileStore persists the final profile snapshot keyed by workflow ID.
type ProfileStore interface {
	SaveProfile(ctx context.Context, workflowID string, p *types.Profile) error
}

// Deps carries the collaborators the default stages bind to. Nil
// collaborators turn their stage into a recorded no-op rather than an error,
// so partial deployments still run.
type Deps struct {
	Merger    *merge.Manager
	Extractor Extractor
	Enhancer  Enhancer
	Optimizer Enhancer
	Renderer  Renderer
	Store     ProfileStore

	// Template overrides DefaultTemplate for select_template.
	Template string

	Log zerolog.Logger
}

// Register installs the default stage set into a pipeline registry.
func Register(r *pipeline.Registry, d Deps) {
	r.Register(StageExtract, d.extract)
	r.Register(StageMerge, d.merge)
	r.Register(StageEnhance, d.enhancerStage(d.Enhancer, StageEnhance))
	r.Register(StageOrderSections, d.orderSections)
	r.Register(StageSelectTemplate, d.selectTemplate)
	r.Register(StageRender, d.render)
	r.Register(StageOptimize, d.enhancerStage(d.Optimizer, StageOptimize))
	r.Register(StagePersist, d.persist)
}

func (d Deps) extract(ctx context.Context, state *pipeline.State) error {
	if d.Extractor == nil || strings.TrimSpace(state.RawInput) == "" {
		d.Log.Debug().Str("stage", StageExtract).Msg("no extractor or input, skipping")
		return nil
	}
	fragments, err := d.Extractor.Extract(ctx, state.RawInput)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	state.Fragments = append(state.Fragments, fragments...)
	return nil
}

func (d Deps) merge(ctx context.Context, state *pipeline.State) error {
	if d.Merger == nil {
		return fmt.Errorf("merge stage requires a merge manager")
	}
	if len(state.Fragments) == 0 {
		return nil
	}
	merged, warnings := d.Merger.Merge(ctx, state.Profile, state.Fragments)
	for _, w := range warnings {
		d.Log.Warn().
			Int("fragment", w.Fragment).
			Str("kind", string(w.Kind)).
			Str("reason", w.Message).
			Msg("fragment skipped during merge")
	}
	state.Profile = merged
	state.Fragments = nil
	return nil
}

func (d Deps) enhancerStage(enhancer Enhancer, name string) pipeline.StageFunc {
	return func(ctx context.Context, state *pipeline.State) error {
		if enhancer == nil {
			d.Log.Debug().Str("stage", name).Msg("no collaborator configured, skipping")
			return nil
		}
		improved, err := enhancer.Enhance(ctx, state.Profile)
		if err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		if improved != nil {
			state.Profile = improved
			profile.RecomputeCompletion(state.Profile)
		}
		return nil
	}
}

func (d Deps) orderSections(_ context.Context, state *pipeline.State) error {
	order := SectionOrder(state.Profile)
	if state.Artifacts == nil {
		state.Artifacts = make(map[string]string)
	}
	state.Artifacts[ArtifactSectionOrder] = strings.Join(order, ",")
	return nil
}

func (d Deps) selectTemplate(_ context.Context, state *pipeline.State) error {
	if state.Profile.SelectedTemplate != "" {
		return nil
	}
	template := d.Template
	if template == "" {
		template = DefaultTemplate
	}
	state.Profile.SelectedTemplate = template
	profile.RecomputeCompletion(state.Profile)
	return nil
}

func (d Deps) render(ctx context.Context, state *pipeline.State) error {
	if d.Renderer == nil {
		d.Log.Debug().Str("stage", StageRender).Msg("no renderer configured, skipping")
		return nil
	}
	template := state.Profile.SelectedTemplate
	if template == "" {
		template = DefaultTemplate
	}
	var order []string
	if joined := state.Artifacts[ArtifactSectionOrder]; joined != "" {
		order = strings.Split(joined, ",")
	} else {
		order = SectionOrder(state.Profile)
	}

	location, err := d.Renderer.Render(ctx, state.Profile, order, template)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}
	state.Profile.GeneratedOutputURL = location
	state.Artifacts[ArtifactOutput] = location
	profile.RecomputeCompletion(state.Profile)
	return nil
}

func (d Deps) persist(ctx context.Context, state *pipeline.State) error {
	if d.Store == nil {
		d.Log.Debug().Str("stage", StagePersist).Msg("no profile store configured, skipping")
		return nil
	}
	if err := d.Store.SaveProfile(ctx, state.WorkflowID, state.Profile); err != nil {
		return fmt.Errorf("persisting profile failed: %w", err)
	}
	return nil
}
