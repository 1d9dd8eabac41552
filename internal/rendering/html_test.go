package rendering

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

func sampleProfile() *types.Profile {
	p := profile.Empty()
	p.PersonalInfo[profile.KeyFullName] = "Ada Example"
	p.PersonalInfo[profile.KeyEmail] = "ada@example.com"
	p.PersonalInfo[profile.KeyLocation] = "Berlin"
	p.Summary = "Backend engineer."
	p.Experience = []types.ExperienceEntry{{
		Title: "Engineer", Company: "Acme", StartDate: "2019-05",
		Achievements: []string{"Cut latency by 40%"},
	}}
	p.Education = []types.EducationEntry{{Degree: "BSc", Institution: "TU Berlin", StartDate: "2012", EndDate: "2015"}}
	p.Skills = []string{"Go", "SQL"}
	p.Languages = []types.Language{{Name: "Spanish", Proficiency: "fluent"}}
	return p
}

func TestBuildHTMLIncludesSections(t *testing.T) {
	html, err := BuildHTML(sampleProfile(), nil, "modern")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Ada Example</h1>")
	assert.Contains(t, html, "ada@example.com · Berlin")
	assert.Contains(t, html, "<h2>Summary</h2>")
	assert.Contains(t, html, "Engineer — Acme")
	assert.Contains(t, html, "2019-05 - Present")
	assert.Contains(t, html, "<li>Cut latency by 40%</li>")
	assert.Contains(t, html, "BSc — TU Berlin")
	assert.Contains(t, html, "Go, SQL")
	assert.Contains(t, html, "Spanish (fluent)")
	assert.Contains(t, html, `<body class="modern">`)
}

func TestBuildHTMLRespectsSectionOrder(t *testing.T) {
	html, err := BuildHTML(sampleProfile(), []string{types.SectionSkills, types.SectionSummary}, "modern")
	require.NoError(t, err)

	skillsAt := strings.Index(html, "<h2>Skills</h2>")
	summaryAt := strings.Index(html, "<h2>Summary</h2>")
	require.GreaterOrEqual(t, skillsAt, 0)
	require.GreaterOrEqual(t, summaryAt, 0)
	assert.Less(t, skillsAt, summaryAt)
	assert.NotContains(t, html, "<h2>Experience</h2>", "unlisted sections are omitted")
}

func TestBuildHTMLEscapesContent(t *testing.T) {
	p := profile.Empty()
	p.Summary = `<script>alert("x")</script>`
	p.Skills = []string{"C++ & Go"}

	html, err := BuildHTML(p, nil, "modern")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "C++ &amp; Go")
}

func TestBuildHTMLUnknownTemplateFallsBack(t *testing.T) {
	html, err := BuildHTML(sampleProfile(), nil, "typo")
	require.NoError(t, err)
	assert.Contains(t, html, `<body class="modern">`)
}

func TestBuildHTMLEmptySectionsOmitted(t *testing.T) {
	p := profile.Empty()
	p.Skills = []string{"Go"}

	html, err := BuildHTML(p, nil, "compact")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Profile</h1>", "missing name falls back")
	assert.Contains(t, html, "<h2>Skills</h2>")
	assert.NotContains(t, html, "<h2>Experience</h2>")
	assert.NotContains(t, html, "<h2>Languages</h2>")
}

func TestBuildHTMLNilProfile(t *testing.T) {
	_, err := BuildHTML(nil, nil, "modern")
	assert.Error(t, err)
}

func TestDateSpan(t *testing.T) {
	assert.Equal(t, "", dateSpan("", ""))
	assert.Equal(t, "2020", dateSpan("", "2020"))
	assert.Equal(t, "2018 - Present", dateSpan("2018", ""))
	assert.Equal(t, "2018 - 2020", dateSpan("2018", "2020"))
}
