// Package llm - extract.go turns free-form profile text into merge fragments.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/profile-engine/internal/prompts"
	"github.com/jonathan/profile-engine/internal/types"
)

// FragmentExtractor asks the model to decompose raw text (a pasted CV, a chat
// message, an old bio) into structured fragments for the merge manager.
type FragmentExtractor struct {
	client Client
	log    zerolog.Logger
}

// NewFragmentExtractor creates an extractor over an LLM client.
func NewFragmentExtractor(client Client, log zerolog.Logger) *FragmentExtractor {
	return &FragmentExtractor{client: client, log: log}
}

var validKinds = map[types.FragmentKind]bool{
	types.FragmentPersonalInfo: true,
	types.FragmentExperience:   true,
	types.FragmentEducation:    true,
	types.FragmentSkills:       true,
	types.FragmentLanguages:    true,
	types.FragmentSummary:      true,
}

// Extract produces fragments from raw input text. Fragments with an unknown
// kind are dropped with a warning rather than failing the batch.
func (e *FragmentExtractor) Extract(ctx context.Context, raw string) ([]types.Fragment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	prompt := prompts.Format(
		prompts.MustGet("extraction.json", "profile-fragments"),
		map[string]string{"Input": raw},
	)
	out, err := e.client.GenerateJSON(ctx, prompt, TierLite)
	if err != nil {
		return nil, fmt.Errorf("fragment extraction failed: %w", err)
	}

	var fragments []types.Fragment
	if err := json.Unmarshal([]byte(CleanJSONBlock(out)), &fragments); err != nil {
		return nil, fmt.Errorf("failed to parse extracted fragments: %w", err)
	}

	kept := fragments[:0]
	for _, frag := range fragments {
		if !validKinds[frag.Kind] {
			e.log.Warn().Str("kind", string(frag.Kind)).Msg("dropping fragment with unknown kind")
			continue
		}
		kept = append(kept, frag)
	}
	return kept, nil
}
