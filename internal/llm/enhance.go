// Package llm - enhance.go rewrites profile prose through the model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/prompts"
	"github.com/jonathan/profile-engine/internal/types"
)

// ProfileEnhancer rewrites the summary and experience descriptions of a
// profile. Structure is never changed: entries are neither added, removed,
// nor reordered, so merge identity stays intact.
type ProfileEnhancer struct {
	client    Client
	tier      ModelTier
	promptKey string
	log       zerolog.Logger
}

// NewProfileEnhancer creates the enhancer used by the enhance stage: a
// heavier model that expands terse entries into stronger prose.
func NewProfileEnhancer(client Client, log zerolog.Logger) *ProfileEnhancer {
	return &ProfileEnhancer{client: client, tier: TierAdvanced, promptKey: "improve-profile", log: log}
}

// NewProfileOptimizer creates the enhancer used by the optimize stage: a
// lighter pass that tightens wording without adding content.
func NewProfileOptimizer(client Client, log zerolog.Logger) *ProfileEnhancer {
	return &ProfileEnhancer{client: client, tier: TierStandard, promptKey: "tighten-profile", log: log}
}

// enhancerInput is the snapshot sent to the model.
type enhancerInput struct {
	Summary    string            `json:"summary"`
	Experience []experienceProse `json:"experience"`
}

type experienceProse struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
}

// enhancement is the expected model output: a rewritten summary and one
// description per experience entry, in the same order.
type enhancement struct {
	Summary      string   `json:"summary"`
	Descriptions []string `json:"descriptions"`
}

// Enhance returns an improved copy of the profile. On a malformed model
// response the original prose is kept for the affected fields.
func (e *ProfileEnhancer) Enhance(ctx context.Context, p *types.Profile) (*types.Profile, error) {
	if p == nil {
		return nil, nil
	}
	if p.Summary == "" && len(p.Experience) == 0 {
		return p, nil
	}

	input := enhancerInput{Summary: p.Summary}
	for _, entry := range p.Experience {
		input.Experience = append(input.Experience, experienceProse{
			Title:       entry.Title,
			Company:     entry.Company,
			Description: entry.Description,
		})
	}
	snapshot, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize profile snapshot: %w", err)
	}

	prompt := prompts.Format(
		prompts.MustGet("enhancement.json", e.promptKey),
		map[string]string{"Profile": string(snapshot)},
	)
	out, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, fmt.Errorf("profile enhancement failed: %w", err)
	}

	var enh enhancement
	if err := json.Unmarshal([]byte(CleanJSONBlock(out)), &enh); err != nil {
		return nil, fmt.Errorf("failed to parse enhancement response: %w", err)
	}

	improved := profile.Clone(p)
	if s := strings.TrimSpace(enh.Summary); s != "" {
		improved.Summary = s
	}
	switch {
	case len(enh.Descriptions) == 0:
	case len(enh.Descriptions) != len(improved.Experience):
		e.log.Warn().
			Int("got", len(enh.Descriptions)).
			Int("want", len(improved.Experience)).
			Msg("description count mismatch, keeping originals")
	default:
		for i, d := range enh.Descriptions {
			if d = strings.TrimSpace(d); d != "" {
				improved.Experience[i].Description = d
			}
		}
	}
	return improved, nil
}
