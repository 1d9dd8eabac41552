package stages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-engine/internal/embedding"
	"github.com/jonathan/profile-engine/internal/logger"
	"github.com/jonathan/profile-engine/internal/merge"
	"github.com/jonathan/profile-engine/internal/pipeline"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

type stubExtractor struct {
	fragments []types.Fragment
	err       error
}

func (s stubExtractor) Extract(_ context.Context, _ string) ([]types.Fragment, error) {
	return s.fragments, s.err
}

type stubEnhancer struct {
	apply func(p *types.Profile) *types.Profile
}

func (s stubEnhancer) Enhance(_ context.Context, p *types.Profile) (*types.Profile, error) {
	return s.apply(p), nil
}

type stubRenderer struct {
	order    []string
	template string
	location string
	err      error
}

func (s *stubRenderer) Render(_ context.Context, _ *types.Profile, sectionOrder []string, template string) (string, error) {
	s.order = sectionOrder
	s.template = template
	return s.location, s.err
}

type stubProfileStore struct {
	saved map[string]*types.Profile
}

func (s *stubProfileStore) SaveProfile(_ context.Context, workflowID string, p *types.Profile) error {
	if s.saved == nil {
		s.saved = map[string]*types.Profile{}
	}
	s.saved[workflowID] = p
	return nil
}

func newState() *pipeline.State {
	return &pipeline.State{
		WorkflowID: "wf-test",
		Profile:    profile.Empty(),
		Artifacts:  map[string]string{},
	}
}

func TestRegisterInstallsDefaultStages(t *testing.T) {
	r := pipeline.NewRegistry()
	Register(r, Deps{Log: logger.Nop()})

	names := r.Names()
	for _, stage := range DefaultOrder() {
		assert.Contains(t, names, stage)
	}
}

func TestExtractStageAppendsFragments(t *testing.T) {
	d := Deps{
		Extractor: stubExtractor{fragments: []types.Fragment{
			{Kind: types.FragmentSkills, Skills: []string{"Go"}},
		}},
		Log: logger.Nop(),
	}
	state := newState()
	state.RawInput = "ten years writing Go services"

	require.NoError(t, d.extract(context.Background(), state))
	require.Len(t, state.Fragments, 1)
	assert.Equal(t, types.FragmentSkills, state.Fragments[0].Kind)
}

func TestExtractStageSkipsWithoutExtractorOrInput(t *testing.T) {
	state := newState()
	state.RawInput = "some input"
	require.NoError(t, Deps{Log: logger.Nop()}.extract(context.Background(), state))
	assert.Empty(t, state.Fragments)

	d := Deps{Extractor: stubExtractor{err: errors.New("never called")}, Log: logger.Nop()}
	require.NoError(t, d.extract(context.Background(), newState()))
}

func TestMergeStageAppliesFragments(t *testing.T) {
	manager := merge.NewManager(embedding.OfflineEmbedder{}, merge.DefaultThresholds(), logger.Nop())
	d := Deps{Merger: manager, Log: logger.Nop()}

	state := newState()
	state.Fragments = []types.Fragment{
		{Kind: types.FragmentSkills, Skills: []string{"Go", "SQL", "go"}},
	}

	require.NoError(t, d.merge(context.Background(), state))
	assert.Equal(t, []string{"Go", "SQL"}, state.Profile.Skills)
	assert.Nil(t, state.Fragments, "applied fragments are cleared")
}

func TestMergeStageRequiresManager(t *testing.T) {
	state := newState()
	state.Fragments = []types.Fragment{{Kind: types.FragmentSkills, Skills: []string{"Go"}}}
	assert.Error(t, Deps{Log: logger.Nop()}.merge(context.Background(), state))
}

func TestMergeStageNoFragmentsIsNoOp(t *testing.T) {
	manager := merge.NewManager(embedding.OfflineEmbedder{}, merge.DefaultThresholds(), logger.Nop())
	state := newState()
	before := state.Profile

	require.NoError(t, Deps{Merger: manager, Log: logger.Nop()}.merge(context.Background(), state))
	assert.Same(t, before, state.Profile)
}

func TestEnhanceStageSkipsWithoutCollaborator(t *testing.T) {
	d := Deps{Log: logger.Nop()}
	state := newState()
	before := state.Profile

	require.NoError(t, d.enhancerStage(nil, StageEnhance)(context.Background(), state))
	assert.Same(t, before, state.Profile)
}

func TestEnhanceStageAppliesResultAndRecomputesCompletion(t *testing.T) {
	enhancer := stubEnhancer{apply: func(p *types.Profile) *types.Profile {
		improved := profile.Clone(p)
		improved.Skills = append(improved.Skills, "Kubernetes")
		return improved
	}}
	d := Deps{Enhancer: enhancer, Log: logger.Nop()}
	state := newState()

	require.NoError(t, d.enhancerStage(d.Enhancer, StageEnhance)(context.Background(), state))
	assert.Equal(t, []string{"Kubernetes"}, state.Profile.Skills)
	assert.True(t, state.Profile.CompletionStatus[types.SectionSkills])
}

func TestOrderSectionsWritesArtifact(t *testing.T) {
	state := newState()
	state.Profile.Summary = "Engineer."
	state.Profile.Skills = []string{"Go"}
	state.Artifacts = nil

	require.NoError(t, Deps{Log: logger.Nop()}.orderSections(context.Background(), state))
	assert.Equal(t,
		"summary,skills,experience,education,projects,certifications,languages",
		state.Artifacts[ArtifactSectionOrder])
}

func TestSelectTemplateNeverOverwrites(t *testing.T) {
	state := newState()
	state.Profile.SelectedTemplate = "classic"

	require.NoError(t, Deps{Template: "compact", Log: logger.Nop()}.selectTemplate(context.Background(), state))
	assert.Equal(t, "classic", state.Profile.SelectedTemplate)
}

func TestSelectTemplateFallsBack(t *testing.T) {
	state := newState()
	require.NoError(t, Deps{Template: "compact", Log: logger.Nop()}.selectTemplate(context.Background(), state))
	assert.Equal(t, "compact", state.Profile.SelectedTemplate)
	assert.True(t, state.Profile.CompletionStatus[types.SectionTemplateChosen])

	state = newState()
	require.NoError(t, Deps{Log: logger.Nop()}.selectTemplate(context.Background(), state))
	assert.Equal(t, DefaultTemplate, state.Profile.SelectedTemplate)
}

func TestRenderStageUsesArtifactOrder(t *testing.T) {
	renderer := &stubRenderer{location: "output/profile.pdf"}
	d := Deps{Renderer: renderer, Log: logger.Nop()}

	state := newState()
	state.Profile.SelectedTemplate = "classic"
	state.Artifacts[ArtifactSectionOrder] = "skills,summary"

	require.NoError(t, d.render(context.Background(), state))
	assert.Equal(t, []string{"skills", "summary"}, renderer.order)
	assert.Equal(t, "classic", renderer.template)
	assert.Equal(t, "output/profile.pdf", state.Profile.GeneratedOutputURL)
	assert.Equal(t, "output/profile.pdf", state.Artifacts[ArtifactOutput])
	assert.True(t, state.Profile.CompletionStatus[types.SectionOutputGenerated])
}

func TestRenderStageRecomputesOrderWhenArtifactMissing(t *testing.T) {
	renderer := &stubRenderer{location: "out.pdf"}
	state := newState()
	state.Profile.Skills = []string{"Go"}

	require.NoError(t, Deps{Renderer: renderer, Log: logger.Nop()}.render(context.Background(), state))
	assert.Equal(t, "skills", renderer.order[0])
	assert.Equal(t, DefaultTemplate, renderer.template)
}

func TestRenderStageSkipsWithoutRenderer(t *testing.T) {
	state := newState()
	require.NoError(t, Deps{Log: logger.Nop()}.render(context.Background(), state))
	assert.Empty(t, state.Profile.GeneratedOutputURL)
}

func TestPersistStage(t *testing.T) {
	store := &stubProfileStore{}
	state := newState()
	state.Profile.Skills = []string{"Go"}

	require.NoError(t, Deps{Store: store, Log: logger.Nop()}.persist(context.Background(), state))
	require.Contains(t, store.saved, "wf-test")
	assert.Equal(t, []string{"Go"}, store.saved["wf-test"].Skills)

	require.NoError(t, Deps{Log: logger.Nop()}.persist(context.Background(), newState()))
}

func TestSectionOrderMovesEmptySectionsLast(t *testing.T) {
	p := profile.Empty()
	p.Experience = []types.ExperienceEntry{{Title: "Engineer"}}
	p.Languages = []types.Language{{Name: "Spanish"}}

	order := SectionOrder(p)
	assert.Equal(t, []string{
		types.SectionExperience, types.SectionLanguages,
		types.SectionSummary, types.SectionEducation, types.SectionSkills,
		types.SectionProjects, types.SectionCertifications,
	}, order)
}

func TestSectionOrderNilProfile(t *testing.T) {
	order := SectionOrder(nil)
	require.Len(t, order, len(baseSectionOrder))
	assert.Equal(t, strings.Join(baseSectionOrder, ","), strings.Join(order, ","))
}
