package profile

import "github.com/jonathan/profile-engine/internal/types"

// Section weights for the completion percentage. Experience carries the
// largest weight because it is the most decision-relevant section for
// downstream consumers. Weights sum to 100.
const (
	weightPersonalInfo = 25
	weightExperience   = 30
	weightEducation    = 20
	weightSkills       = 15
	weightTemplate     = 10
)

// RecomputeCompletion rebuilds CompletionStatus from current content.
// It is a pure function of the profile and runs after every mutation.
func RecomputeCompletion(p *types.Profile) {
	p.CompletionStatus = map[string]bool{
		types.SectionPersonalInfo:    p.PersonalInfo[KeyFullName] != "" && p.PersonalInfo[KeyEmail] != "",
		types.SectionExperience:      len(p.Experience) > 0,
		types.SectionEducation:       len(p.Education) > 0,
		types.SectionSkills:          len(p.Skills) > 0,
		types.SectionLanguages:       len(p.Languages) > 0,
		types.SectionTemplateChosen:  p.SelectedTemplate != "",
		types.SectionOutputGenerated: p.GeneratedOutputURL != "",
	}
}

// CompletionPercentage returns the weighted completion of a profile in the
// range [0,100].
func CompletionPercentage(p *types.Profile) int {
	status := p.CompletionStatus
	if status == nil {
		RecomputeCompletion(p)
		status = p.CompletionStatus
	}

	total := 0
	if status[types.SectionPersonalInfo] {
		total += weightPersonalInfo
	}
	if status[types.SectionExperience] {
		total += weightExperience
	}
	if status[types.SectionEducation] {
		total += weightEducation
	}
	if status[types.SectionSkills] {
		total += weightSkills
	}
	if status[types.SectionTemplateChosen] {
		total += weightTemplate
	}
	return total
}
