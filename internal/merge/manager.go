// Package merge implements the incremental profile merge and deduplication
// engine. Incoming fragments are classified as new, duplicate-to-merge, or
// duplicate-to-discard using semantic similarity over comparison surfaces,
// and folded into the canonical profile without breaking its invariants.
package merge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jonathan/profile-engine/internal/embedding"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

// Default similarity thresholds. Experience entries tolerate paraphrase;
// skill tokens need near-exact similarity so distinct tools are not
// conflated.
const (
	DefaultExperienceThreshold = 0.85
	DefaultSkillThreshold      = 0.90
)

// Thresholds holds the per-kind similarity cutoffs.
type Thresholds struct {
	Experience float64
	Skill      float64
}

// DefaultThresholds returns the empirically chosen defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Experience: DefaultExperienceThreshold, Skill: DefaultSkillThreshold}
}

// Warning records a fragment that was skipped or degraded. Fragment-level
// problems never abort the rest of the batch.
type Warning struct {
	Fragment int                `json:"fragment"`
	Kind     types.FragmentKind `json:"kind"`
	Message  string             `json:"message"`
}

// Manager applies fragment batches to profiles. It is stateless per call and
// safe for concurrent use across distinct profiles.
type Manager struct {
	index      *embedding.Index
	thresholds Thresholds
	validate   *validator.Validate
	log        zerolog.Logger
}

// NewManager creates a merge manager over the given embedding backend.
func NewManager(embedder embedding.Embedder, thresholds Thresholds, log zerolog.Logger) *Manager {
	if thresholds.Experience <= 0 {
		thresholds.Experience = DefaultExperienceThreshold
	}
	if thresholds.Skill <= 0 {
		thresholds.Skill = DefaultSkillThreshold
	}
	return &Manager{
		index:      embedding.NewIndex(embedder),
		thresholds: thresholds,
		validate:   validator.New(),
		log:        log,
	}
}

// Merge applies a batch of fragments and returns the updated profile. The
// input profile is never mutated. A single malformed fragment is skipped
// with a warning; the batch is observably atomic: completion is recomputed
// and last_updated bumped exactly once after all fragments apply.
func (m *Manager) Merge(ctx context.Context, p *types.Profile, fragments []types.Fragment) (*types.Profile, []Warning) {
	out := profile.Clone(p)
	if out == nil {
		out = profile.Empty()
	}

	var warnings []Warning
	for i, frag := range fragments {
		if err := m.validateFragment(frag); err != nil {
			m.log.Warn().Err(err).Int("fragment", i).Str("kind", string(frag.Kind)).Msg("skipping malformed fragment")
			warnings = append(warnings, Warning{Fragment: i, Kind: frag.Kind, Message: err.Error()})
			continue
		}

		switch frag.Kind {
		case types.FragmentPersonalInfo:
			applyPersonalInfo(out, frag.PersonalInfo)
		case types.FragmentExperience:
			m.mergeExperienceFragment(ctx, out, frag)
		case types.FragmentEducation:
			m.mergeEducationFragment(ctx, out, frag)
		case types.FragmentSkills:
			m.mergeSkills(ctx, out, frag.Skills)
		case types.FragmentLanguages:
			applyLanguages(out, frag.Languages)
		case types.FragmentSummary:
			out.Summary = strings.TrimSpace(stripHTML(frag.Summary))
		}
	}

	profile.RecomputeCompletion(out)
	out.LastUpdated = time.Now().UTC()
	return out, warnings
}

// validateFragment checks the shape a fragment must have for its kind.
func (m *Manager) validateFragment(frag types.Fragment) error {
	if err := m.validate.Struct(frag); err != nil {
		return fmt.Errorf("invalid fragment: %w", err)
	}
	switch frag.Kind {
	case types.FragmentPersonalInfo:
		if len(frag.PersonalInfo) == 0 {
			return fmt.Errorf("personal_info fragment has no fields")
		}
	case types.FragmentExperience:
		if frag.Experience == nil {
			return fmt.Errorf("experience fragment has no payload")
		}
		if err := m.validate.Struct(frag.Experience); err != nil {
			return fmt.Errorf("invalid experience entry: %w", err)
		}
	case types.FragmentEducation:
		if frag.Education == nil {
			return fmt.Errorf("education fragment has no payload")
		}
		if err := m.validate.Struct(frag.Education); err != nil {
			return fmt.Errorf("invalid education entry: %w", err)
		}
	case types.FragmentSkills:
		if len(frag.Skills) == 0 {
			return fmt.Errorf("skill fragment has no tokens")
		}
	case types.FragmentLanguages:
		if len(frag.Languages) == 0 {
			return fmt.Errorf("language fragment has no entries")
		}
	case types.FragmentSummary:
		if strings.TrimSpace(frag.Summary) == "" {
			return fmt.Errorf("summary fragment is empty")
		}
	}
	return nil
}

// nearestIndex finds the best existing candidate for a query surface. An
// exact normalized match short-circuits the embedding call; when the
// embedding backend is unavailable the exact comparison is also the
// fallback, so deduplication never silently disappears.
func (m *Manager) nearestIndex(ctx context.Context, query string, candidates []string, threshold float64) (int, bool) {
	query = stripHTML(query)
	if embedding.NormalizeText(query) == "" {
		return -1, false
	}
	if i, ok := exactMatchIndex(query, candidates); ok {
		return i, true
	}
	if len(candidates) == 0 {
		return -1, false
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, candidates...)
	texts = append(texts, query)
	vectors, err := m.index.Embed(ctx, texts)
	if err != nil {
		m.log.Warn().Err(err).Msg("similarity degraded to exact-match comparison")
		return -1, false
	}

	match, ok := m.index.Nearest(vectors[len(vectors)-1], vectors[:len(vectors)-1])
	if !ok || match.Score < threshold {
		return -1, false
	}
	return match.Index, true
}

func exactMatchIndex(query string, candidates []string) (int, bool) {
	q := embedding.NormalizeText(query)
	if q == "" {
		return -1, false
	}
	for i, c := range candidates {
		if embedding.NormalizeText(c) == q {
			return i, true
		}
	}
	return -1, false
}

func (m *Manager) mergeExperienceFragment(ctx context.Context, p *types.Profile, frag types.Fragment) {
	entry := normalizeExperience(*frag.Experience)
	surface := frag.Surface
	if surface == "" {
		surface = experienceSurface(entry)
	}
	if i, ok := m.nearestIndex(ctx, surface, experienceSurfaces(p.Experience), m.thresholds.Experience); ok {
		p.Experience[i] = mergeExperienceEntries(p.Experience[i], entry)
		return
	}
	p.Experience = append(p.Experience, entry)
}

func (m *Manager) mergeEducationFragment(ctx context.Context, p *types.Profile, frag types.Fragment) {
	entry := normalizeEducation(*frag.Education)
	surface := frag.Surface
	if surface == "" {
		surface = educationSurface(entry)
	}
	if i, ok := m.nearestIndex(ctx, surface, educationSurfaces(p.Education), m.thresholds.Experience); ok {
		p.Education[i] = mergeEducationEntries(p.Education[i], entry)
		return
	}
	p.Education = append(p.Education, entry)
}

// mergeSkills appends skill tokens that match no existing skill. Comparison
// is case-insensitive; the display form keeps the casing of the first-seen
// occurrence. One embedding call covers the whole batch; newly appended
// tokens join the candidate set so in-batch duplicates collapse too.
func (m *Manager) mergeSkills(ctx context.Context, p *types.Profile, tokens []string) {
	incoming := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(stripHTML(t))
		if t != "" {
			incoming = append(incoming, t)
		}
	}
	if len(incoming) == 0 {
		return
	}

	candidates := append([]string{}, p.Skills...)

	var candVecs, tokenVecs [][]float32
	degraded := false
	texts := make([]string, 0, len(candidates)+len(incoming))
	texts = append(texts, candidates...)
	texts = append(texts, incoming...)
	vectors, err := m.index.Embed(ctx, texts)
	if err != nil {
		degraded = true
		m.log.Warn().Err(err).Msg("skill dedup degraded to exact-match comparison")
	} else {
		candVecs = vectors[:len(candidates)]
		tokenVecs = vectors[len(candidates):]
	}

	for ti, token := range incoming {
		if _, ok := exactMatchIndex(token, candidates); ok {
			continue
		}
		if !degraded {
			if match, ok := m.index.Nearest(tokenVecs[ti], candVecs); ok && match.Score >= m.thresholds.Skill {
				continue
			}
		}
		p.Skills = append(p.Skills, token)
		candidates = append(candidates, token)
		if !degraded {
			candVecs = append(candVecs, tokenVecs[ti])
		}
	}
}

// applyPersonalInfo shallow-merges scalar fields, last-write-wins. A key a
// fragment does not set is never cleared.
func applyPersonalInfo(p *types.Profile, info map[string]string) {
	for k, v := range info {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		p.PersonalInfo[k] = v
	}
}

// applyLanguages upserts languages by normalized name. Language names are a
// small closed-ish vocabulary; fuzzy matching causes more harm than good
// here, so identity is exact.
func applyLanguages(p *types.Profile, langs []types.Language) {
	for _, l := range langs {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		prof := strings.TrimSpace(l.Proficiency)

		found := false
		for i := range p.Languages {
			if strings.ToLower(strings.TrimSpace(p.Languages[i].Name)) == key {
				if prof != "" {
					p.Languages[i].Proficiency = prof
				}
				found = true
				break
			}
		}
		if !found {
			p.Languages = append(p.Languages, types.Language{Name: name, Proficiency: prof})
		}
	}
}
