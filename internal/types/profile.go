// Package types provides type definitions for structured data used throughout the profile-engine system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// CurrentProfileVersion is the schema version written by this build.
// Migrate bumps older documents up to this version.
const CurrentProfileVersion = 3

// Profile is the canonical per-session accumulation target. It is created
// empty at session start and mutated only through the merge manager.
type Profile struct {
	PersonalInfo       map[string]string  `json:"personal_info"`
	Summary            string             `json:"summary"`
	Experience         []ExperienceEntry  `json:"experience"`
	Education          []EducationEntry   `json:"education"`
	Certifications     []Certification    `json:"certifications"`
	Projects           []Project          `json:"projects"`
	Skills             []string           `json:"skills"`
	Languages          []Language         `json:"languages"`
	SelectedTemplate   string             `json:"selected_template"`
	GeneratedOutputURL string             `json:"generated_output_url"`
	CompletionStatus   map[string]bool    `json:"completion_status"`
	Version            int                `json:"version"`
	LastUpdated        time.Time          `json:"last_updated"`
}

// ExperienceEntry represents one job entry. Display order is insertion order;
// identity during merges is by content similarity, not by position.
type ExperienceEntry struct {
	Title        string   `json:"title" validate:"required"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements"`
	Technologies []string `json:"technologies"`
}

// EducationEntry represents one education entry.
type EducationEntry struct {
	Degree          string   `json:"degree"`
	Institution     string   `json:"institution" validate:"required"`
	Location        string   `json:"location,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	FieldOfStudy    string   `json:"field_of_study,omitempty"`
	GPA             string   `json:"gpa,omitempty"`
	RelevantCourses []string `json:"relevant_courses"`
}

// Certification represents a professional certification.
type Certification struct {
	Name   string `json:"name" validate:"required"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Project represents a personal or professional project.
type Project struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	Technologies []string `json:"technologies"`
}

// Language is a {name, proficiency} pair. Duplicate identity is by
// normalized language name only.
type Language struct {
	Name        string `json:"name" validate:"required"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Section names, used as keys in Profile.CompletionStatus and as render
// order identifiers.
const (
	SectionPersonalInfo    = "personal_info"
	SectionSummary         = "summary"
	SectionExperience      = "experience"
	SectionEducation       = "education"
	SectionSkills          = "skills"
	SectionProjects        = "projects"
	SectionCertifications  = "certifications"
	SectionLanguages       = "languages"
	SectionTemplateChosen  = "template_selected"
	SectionOutputGenerated = "output_generated"
)
