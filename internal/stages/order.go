package stages

import (
	"github.com/jonathan/profile-engine/internal/types"
)

// baseSectionOrder is the preferred section sequence for rendered output.
var baseSectionOrder = []string{
	types.SectionSummary,
	types.SectionExperience,
	types.SectionEducation,
	types.SectionSkills,
	types.SectionProjects,
	types.SectionCertifications,
	types.SectionLanguages,
}

// SectionOrder returns the render order for a profile's sections: the
// preferred sequence with empty sections moved to the end, relative order
// preserved. Deterministic for a given profile.
func SectionOrder(p *types.Profile) []string {
	if p == nil {
		return append([]string{}, baseSectionOrder...)
	}

	filled := make([]string, 0, len(baseSectionOrder))
	empty := make([]string, 0, len(baseSectionOrder))
	for _, section := range baseSectionOrder {
		if sectionHasContent(p, section) {
			filled = append(filled, section)
		} else {
			empty = append(empty, section)
		}
	}
	return append(filled, empty...)
}

func sectionHasContent(p *types.Profile, section string) bool {
	switch section {
	case types.SectionSummary:
		return p.Summary != ""
	case types.SectionExperience:
		return len(p.Experience) > 0
	case types.SectionEducation:
		return len(p.Education) > 0
	case types.SectionSkills:
		return len(p.Skills) > 0
	case types.SectionProjects:
		return len(p.Projects) > 0
	case types.SectionCertifications:
		return len(p.Certifications) > 0
	case types.SectionLanguages:
		return len(p.Languages) > 0
	}
	return false
}
