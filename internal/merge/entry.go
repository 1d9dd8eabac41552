package merge

import (
	"strings"
	"time"

	"github.com/jonathan/profile-engine/internal/types"
)

// Open-ended end-date markers. An open end always wins over a fixed end
// when two entries merge.
var openEndMarkers = map[string]bool{
	"present": true,
	"current": true,
	"now":     true,
	"ongoing": true,
}

func isOpenEnd(s string) bool {
	return openEndMarkers[strings.ToLower(strings.TrimSpace(s))]
}

// preferScalar applies the single merge precedence rule used everywhere:
// prefer the non-empty value; when both are non-empty and differ, prefer the
// longer string as the likelier carrier of detail. Ties keep the existing
// value.
func preferScalar(existing, incoming string) string {
	existing = strings.TrimSpace(existing)
	incoming = strings.TrimSpace(incoming)
	if existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	if len(incoming) > len(existing) {
		return incoming
	}
	return existing
}

// unionStrings unions two lists, de-duplicated by case-insensitive exact
// match, original order preserved, existing entries first.
func unionStrings(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, lst := range [][]string{existing, incoming} {
		for _, s := range lst {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			key := strings.ToLower(s)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// dateLayouts are tried in order when comparing date strings.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006", "Jan 2006", "January 2006", "01/2006"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// earliestDate returns the earlier of two date strings when both parse;
// otherwise it falls back to the scalar precedence rule.
func earliestDate(existing, incoming string) string {
	a, okA := parseDate(existing)
	b, okB := parseDate(incoming)
	if okA && okB {
		if b.Before(a) {
			return strings.TrimSpace(incoming)
		}
		return strings.TrimSpace(existing)
	}
	return preferScalar(existing, incoming)
}

// latestEnd returns the merged end date: an open-ended marker wins over any
// fixed date, then the later of two parsed dates, then scalar precedence.
func latestEnd(existing, incoming string) string {
	if isOpenEnd(existing) {
		return strings.TrimSpace(existing)
	}
	if isOpenEnd(incoming) {
		return strings.TrimSpace(incoming)
	}
	a, okA := parseDate(existing)
	b, okB := parseDate(incoming)
	if okA && okB {
		if b.After(a) {
			return strings.TrimSpace(incoming)
		}
		return strings.TrimSpace(existing)
	}
	return preferScalar(existing, incoming)
}

// mergeExperienceEntries merges a duplicate incoming job entry into the
// existing one: merge, don't replace.
func mergeExperienceEntries(existing, incoming types.ExperienceEntry) types.ExperienceEntry {
	return types.ExperienceEntry{
		Title:        preferScalar(existing.Title, incoming.Title),
		Company:      preferScalar(existing.Company, incoming.Company),
		Location:     preferScalar(existing.Location, incoming.Location),
		StartDate:    earliestDate(existing.StartDate, incoming.StartDate),
		EndDate:      latestEnd(existing.EndDate, incoming.EndDate),
		Description:  preferScalar(existing.Description, incoming.Description),
		Achievements: unionStrings(existing.Achievements, incoming.Achievements),
		Technologies: unionStrings(existing.Technologies, incoming.Technologies),
	}
}

// mergeEducationEntries merges a duplicate incoming education entry into the
// existing one.
func mergeEducationEntries(existing, incoming types.EducationEntry) types.EducationEntry {
	return types.EducationEntry{
		Degree:          preferScalar(existing.Degree, incoming.Degree),
		Institution:     preferScalar(existing.Institution, incoming.Institution),
		Location:        preferScalar(existing.Location, incoming.Location),
		StartDate:       earliestDate(existing.StartDate, incoming.StartDate),
		EndDate:         latestEnd(existing.EndDate, incoming.EndDate),
		FieldOfStudy:    preferScalar(existing.FieldOfStudy, incoming.FieldOfStudy),
		GPA:             preferScalar(existing.GPA, incoming.GPA),
		RelevantCourses: unionStrings(existing.RelevantCourses, incoming.RelevantCourses),
	}
}

// normalizeExperience trims scalar fields and fills nil list sub-fields on
// an incoming entry before it enters the profile.
func normalizeExperience(e types.ExperienceEntry) types.ExperienceEntry {
	e.Title = strings.TrimSpace(e.Title)
	e.Company = strings.TrimSpace(e.Company)
	e.Location = strings.TrimSpace(e.Location)
	e.StartDate = strings.TrimSpace(e.StartDate)
	e.EndDate = strings.TrimSpace(e.EndDate)
	e.Description = strings.TrimSpace(stripHTML(e.Description))
	e.Achievements = unionStrings(e.Achievements, nil)
	e.Technologies = unionStrings(e.Technologies, nil)
	return e
}

// normalizeEducation trims scalar fields and fills nil list sub-fields.
func normalizeEducation(e types.EducationEntry) types.EducationEntry {
	e.Degree = strings.TrimSpace(e.Degree)
	e.Institution = strings.TrimSpace(e.Institution)
	e.Location = strings.TrimSpace(e.Location)
	e.StartDate = strings.TrimSpace(e.StartDate)
	e.EndDate = strings.TrimSpace(e.EndDate)
	e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
	e.GPA = strings.TrimSpace(e.GPA)
	e.RelevantCourses = unionStrings(e.RelevantCourses, nil)
	return e
}
