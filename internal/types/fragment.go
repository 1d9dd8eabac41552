// Package types provides type definitions for structured data used throughout the profile-engine system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// FragmentKind tags which section of the profile a fragment targets.
type FragmentKind string

// Fragment kinds produced by the external extractor.
const (
	FragmentPersonalInfo FragmentKind = "personal_info"
	FragmentExperience   FragmentKind = "experience"
	FragmentEducation    FragmentKind = "education"
	FragmentSkills       FragmentKind = "skills"
	FragmentLanguages    FragmentKind = "languages"
	FragmentSummary      FragmentKind = "summary"
)

// Fragment is one unit of newly extracted, already-structured profile
// information awaiting merge. Exactly one payload field is populated,
// selected by Kind. Surface optionally overrides the text used for
// similarity matching; when empty the merge manager derives it from the
// payload.
type Fragment struct {
	Kind         FragmentKind      `json:"kind" validate:"required,oneof=personal_info experience education skills languages summary"`
	Surface      string            `json:"surface,omitempty"`
	PersonalInfo map[string]string `json:"personal_info,omitempty"`
	Experience   *ExperienceEntry  `json:"experience,omitempty"`
	Education    *EducationEntry   `json:"education,omitempty"`
	Skills       []string          `json:"skills,omitempty"`
	Languages    []Language        `json:"languages,omitempty"`
	Summary      string            `json:"summary,omitempty"`
}
