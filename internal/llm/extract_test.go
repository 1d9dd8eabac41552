package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-engine/internal/logger"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

// stubClient returns a canned response and records how it was called.
type stubClient struct {
	response string
	err      error
	calls    int
	lastTier ModelTier
}

func (s *stubClient) GenerateContent(_ context.Context, _ string, tier ModelTier) (string, error) {
	s.calls++
	s.lastTier = tier
	return s.response, s.err
}

func (s *stubClient) GenerateJSON(_ context.Context, _ string, tier ModelTier) (string, error) {
	s.calls++
	s.lastTier = tier
	return s.response, s.err
}

func (s *stubClient) GetModel(ModelTier) string { return "stub-model" }
func (s *stubClient) Close() error              { return nil }

func TestExtractParsesFragments(t *testing.T) {
	client := &stubClient{response: `[
		{"kind": "experience", "experience": {"title": "Engineer", "company": "Acme"}},
		{"kind": "skills", "skills": ["Go", "SQL"]},
		{"kind": "hobbies", "summary": "unknown kind, dropped"}
	]`}
	extractor := NewFragmentExtractor(client, logger.Nop())

	fragments, err := extractor.Extract(context.Background(), "worked at Acme as an engineer, knows Go and SQL")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, types.FragmentExperience, fragments[0].Kind)
	assert.Equal(t, "Engineer", fragments[0].Experience.Title)
	assert.Equal(t, []string{"Go", "SQL"}, fragments[1].Skills)
	assert.Equal(t, TierLite, client.lastTier)
}

func TestExtractEmptyInputSkipsModel(t *testing.T) {
	client := &stubClient{}
	extractor := NewFragmentExtractor(client, logger.Nop())

	fragments, err := extractor.Extract(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, fragments)
	assert.Zero(t, client.calls)
}

func TestExtractSurfacesModelError(t *testing.T) {
	client := &stubClient{err: errors.New("quota exceeded")}
	extractor := NewFragmentExtractor(client, logger.Nop())

	_, err := extractor.Extract(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fragment extraction failed")
}

func TestExtractMalformedResponse(t *testing.T) {
	client := &stubClient{response: "not json at all"}
	extractor := NewFragmentExtractor(client, logger.Nop())

	_, err := extractor.Extract(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse extracted fragments")
}

func TestEnhanceAppliesSummaryAndDescriptions(t *testing.T) {
	client := &stubClient{response: `{
		"summary": "Seasoned backend engineer.",
		"descriptions": ["Built payment APIs serving 2M requests/day."]
	}`}
	enhancer := NewProfileEnhancer(client, logger.Nop())

	p := profile.Empty()
	p.Summary = "backend dev"
	p.Experience = []types.ExperienceEntry{{Title: "Engineer", Description: "did apis"}}

	improved, err := enhancer.Enhance(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Seasoned backend engineer.", improved.Summary)
	assert.Equal(t, "Built payment APIs serving 2M requests/day.", improved.Experience[0].Description)
	assert.Equal(t, TierAdvanced, client.lastTier)

	// Input profile is untouched.
	assert.Equal(t, "backend dev", p.Summary)
	assert.Equal(t, "did apis", p.Experience[0].Description)
}

func TestEnhanceCountMismatchKeepsOriginals(t *testing.T) {
	client := &stubClient{response: `{
		"summary": "",
		"descriptions": ["one", "two", "three"]
	}`}
	enhancer := NewProfileEnhancer(client, logger.Nop())

	p := profile.Empty()
	p.Experience = []types.ExperienceEntry{{Title: "Engineer", Description: "original"}}

	improved, err := enhancer.Enhance(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "original", improved.Experience[0].Description)
}

func TestEnhanceEmptyProfileSkipsModel(t *testing.T) {
	client := &stubClient{}
	enhancer := NewProfileEnhancer(client, logger.Nop())

	p := profile.Empty()
	improved, err := enhancer.Enhance(context.Background(), p)
	require.NoError(t, err)
	assert.Same(t, p, improved)
	assert.Zero(t, client.calls)
}

func TestOptimizerUsesStandardTier(t *testing.T) {
	client := &stubClient{response: `{"summary": "Tight.", "descriptions": []}`}
	optimizer := NewProfileOptimizer(client, logger.Nop())

	p := profile.Empty()
	p.Summary = "a rather long and wordy summary"

	improved, err := optimizer.Enhance(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Tight.", improved.Summary)
	assert.Equal(t, TierStandard, client.lastTier)
}
