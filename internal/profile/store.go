// Package profile provides the canonical profile store: construction,
// validation, migration, and completion bookkeeping.
package profile

import (
	"encoding/json"
	"time"

	"github.com/jonathan/profile-engine/internal/schemas"
	"github.com/jonathan/profile-engine/internal/types"
)

// Personal-info keys recognized across the system.
const (
	KeyFullName = "full_name"
	KeyEmail    = "email"
	KeyPhone    = "phone"
	KeyLocation = "location"
	KeyLinks    = "links"
)

// Empty returns a well-formed empty profile at the current version.
// Every list-valued field is initialized so callers never see nil.
func Empty() *types.Profile {
	p := &types.Profile{
		PersonalInfo:   map[string]string{},
		Experience:     []types.ExperienceEntry{},
		Education:      []types.EducationEntry{},
		Certifications: []types.Certification{},
		Projects:       []types.Project{},
		Skills:         []string{},
		Languages:      []types.Language{},
		Version:        types.CurrentProfileVersion,
		LastUpdated:    time.Now().UTC(),
	}
	RecomputeCompletion(p)
	return p
}

// Validate checks presence and primitive type of every required top-level
// key of a raw profile document. Nested entry shapes are deliberately not
// checked here; the merge manager validates entries at merge time.
func Validate(raw []byte) error {
	return schemas.ValidateProfileDocument(raw)
}

// Clone returns a deep copy of a profile. Stages receive and return profile
// values by copy so no two stages alias the same backing arrays.
func Clone(p *types.Profile) *types.Profile {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		// Profile is a closed tree of marshalable types; this cannot fail
		// for values produced by this package.
		out := *p
		return &out
	}
	var out types.Profile
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *p
		return &cp
	}
	ensureLists(&out)
	return &out
}

func ensureLists(p *types.Profile) {
	if p.PersonalInfo == nil {
		p.PersonalInfo = map[string]string{}
	}
	if p.Experience == nil {
		p.Experience = []types.ExperienceEntry{}
	}
	if p.Education == nil {
		p.Education = []types.EducationEntry{}
	}
	if p.Certifications == nil {
		p.Certifications = []types.Certification{}
	}
	if p.Projects == nil {
		p.Projects = []types.Project{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Languages == nil {
		p.Languages = []types.Language{}
	}
	if p.CompletionStatus == nil {
		RecomputeCompletion(p)
	}
}
