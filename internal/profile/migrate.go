package profile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/profile-engine/internal/types"
)

// Historical top-level field names mapped to their current equivalents.
// Older builds wrote "experiences" for the experience list and a bare
// "name"/"full_name" at the top level instead of inside personal_info.
var fieldAliases = map[string]string{
	"experiences":     "experience",
	"work_history":    "experience",
	"certs":           "certifications",
	"language_list":   "languages",
	"skill_list":      "skills",
	"template":        "selected_template",
	"output_url":      "generated_output_url",
	"profile_summary": "summary",
}

// Migrate converts any JSON object into a well-formed profile at the current
// version. It is total: missing fields are filled from Empty(), known
// historical aliases are renamed, malformed entries and unrecognized fields
// are dropped, never fatal. A document already at the current shape and
// version passes through untouched (version and content unchanged).
func Migrate(raw []byte) (*types.Profile, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &MigrationError{Message: "document is not a JSON object", Cause: err}
	}

	changed := false

	// Apply aliases before decoding. An alias never overwrites a value
	// already present under the current name.
	for old, current := range fieldAliases {
		val, ok := doc[old]
		if !ok {
			continue
		}
		if _, exists := doc[current]; !exists {
			doc[current] = val
			changed = true
		}
		delete(doc, old)
	}

	p := Empty()
	migratedAt := p.LastUpdated

	if !decodeField(doc, "personal_info", &p.PersonalInfo) {
		p.PersonalInfo = map[string]string{}
	}
	decodeField(doc, "summary", &p.Summary)
	decodeField(doc, "selected_template", &p.SelectedTemplate)
	decodeField(doc, "generated_output_url", &p.GeneratedOutputURL)
	decodeEntries(doc, "experience", &p.Experience)
	decodeEntries(doc, "education", &p.Education)
	decodeEntries(doc, "certifications", &p.Certifications)
	decodeEntries(doc, "projects", &p.Projects)
	decodeEntries(doc, "skills", &p.Skills)
	decodeEntries(doc, "languages", &p.Languages)

	deduped := dedupeSkills(p.Skills)
	if len(deduped) != len(p.Skills) {
		changed = true
	}
	p.Skills = deduped

	// Top-level name variants fold into personal_info.full_name.
	for _, key := range []string{"full_name", "name"} {
		var name string
		if decodeField(doc, key, &name) && name != "" {
			if p.PersonalInfo[KeyFullName] == "" {
				p.PersonalInfo[KeyFullName] = name
			}
			changed = true
		}
	}

	// Required top-level keys absent from the input mean an older shape.
	for _, key := range requiredKeys {
		if _, ok := doc[key]; !ok {
			changed = true
		}
	}

	var version int
	if decodeField(doc, "version", &version) && version >= types.CurrentProfileVersion {
		p.Version = version
	} else if version < types.CurrentProfileVersion {
		changed = true
	}

	var lastUpdated time.Time
	decodeField(doc, "last_updated", &lastUpdated)

	ensureLists(p)
	RecomputeCompletion(p)

	if changed {
		p.LastUpdated = migratedAt
	} else if !lastUpdated.IsZero() {
		p.LastUpdated = lastUpdated
	}

	return p, nil
}

// dedupeSkills drops skills that repeat under case/whitespace normalization,
// keeping the first occurrence's casing.
func dedupeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(strings.Join(strings.Fields(s), " "))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

var requiredKeys = []string{
	"personal_info", "experience", "education", "certifications",
	"projects", "skills", "languages", "completion_status", "version",
}

// decodeField decodes one top-level key into dst, reporting whether the key
// was present and well-typed. Type mismatches are dropped, not fatal.
func decodeField(doc map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := doc[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	return true
}

// decodeEntries decodes a list-valued key element by element so that one
// malformed entry does not discard its siblings.
func decodeEntries[T any](doc map[string]json.RawMessage, key string, dst *[]T) {
	raw, ok := doc[key]
	if !ok {
		return
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return
	}
	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		var entry T
		if err := json.Unmarshal(elem, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	*dst = out
}

// MigrationError reports a document that cannot be interpreted as a profile
// at all (not a JSON object).
type MigrationError struct {
	Message string
	Cause   error
}

func (e *MigrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("profile migration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("profile migration error: %s", e.Message)
}

func (e *MigrationError) Unwrap() error {
	return e.Cause
}
