package merge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/profile-engine/internal/types"
)

// maxDescriptionSurface bounds how much of a description participates in the
// comparison surface. Long descriptions dominate the embedding otherwise.
const maxDescriptionSurface = 160

// experienceSurface builds the similarity comparison text for a job entry:
// title + company + truncated description.
func experienceSurface(e types.ExperienceEntry) string {
	desc := e.Description
	if len(desc) > maxDescriptionSurface {
		desc = desc[:maxDescriptionSurface]
	}
	return strings.TrimSpace(strings.Join([]string{e.Title, e.Company, desc}, " "))
}

// educationSurface builds the similarity comparison text for an education
// entry: degree + institution.
func educationSurface(e types.EducationEntry) string {
	return strings.TrimSpace(e.Degree + " " + e.Institution)
}

func experienceSurfaces(entries []types.ExperienceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = experienceSurface(e)
	}
	return out
}

func educationSurfaces(entries []types.EducationEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = educationSurface(e)
	}
	return out
}

// stripHTML removes markup from fragment text. Fragments arriving from chat
// or web ingestion occasionally carry HTML; markup inflates similarity
// between unrelated entries.
func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
