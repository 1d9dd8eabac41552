// Package rendering builds the output document for a profile: a standalone
// HTML page printed to PDF through headless Chrome.
package rendering

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/jonathan/profile-engine/internal/types"
)

// Known template ids. Unknown ids fall back to "modern".
var knownTemplates = map[string]bool{
	"modern":  true,
	"classic": true,
	"compact": true,
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
  body { margin: 2em auto; max-width: 48em; color: #1a1a1a; }
  body.modern { font-family: "Helvetica Neue", Arial, sans-serif; }
  body.classic { font-family: Georgia, "Times New Roman", serif; }
  body.compact { font-family: Arial, sans-serif; font-size: 0.85em; margin: 1em auto; }
  h1 { margin-bottom: 0; }
  h2 { border-bottom: 1px solid #999; padding-bottom: 2px; margin-top: 1.2em; }
  .contact { color: #555; margin-top: 0.2em; }
  .entry { margin-bottom: 0.8em; }
  .entry-head { font-weight: bold; }
  .dates { color: #555; font-style: italic; }
  ul { margin: 0.3em 0 0 1.2em; padding: 0; }
</style>
</head>
<body class="{{.Template}}">
<h1>{{.Name}}</h1>
<div class="contact">{{.Contact}}</div>
{{range .Sections}}{{.}}{{end}}
</body>
</html>
`

var docTmpl = template.Must(template.New("document").Parse(documentTemplate))

type documentData struct {
	Name     string
	Contact  string
	Template string
	Sections []template.HTML
}

// BuildHTML renders a profile into a standalone HTML document with sections
// in the given order. Entry text is escaped; only our own markup is emitted
// raw.
func BuildHTML(p *types.Profile, sectionOrder []string, templateID string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("profile is required")
	}
	if !knownTemplates[templateID] {
		templateID = "modern"
	}
	if len(sectionOrder) == 0 {
		sectionOrder = []string{
			types.SectionSummary, types.SectionExperience, types.SectionEducation,
			types.SectionSkills, types.SectionProjects, types.SectionCertifications,
			types.SectionLanguages,
		}
	}

	data := documentData{
		Name:     p.PersonalInfo["full_name"],
		Contact:  contactLine(p),
		Template: templateID,
	}
	if data.Name == "" {
		data.Name = "Profile"
	}
	for _, section := range sectionOrder {
		if html := renderSection(p, section); html != "" {
			data.Sections = append(data.Sections, template.HTML(html))
		}
	}

	var sb strings.Builder
	if err := docTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return sb.String(), nil
}

func contactLine(p *types.Profile) string {
	var parts []string
	for _, key := range []string{"email", "phone", "location", "links"} {
		if v := p.PersonalInfo[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}

func renderSection(p *types.Profile, section string) string {
	switch section {
	case types.SectionSummary:
		if p.Summary == "" {
			return ""
		}
		return "<h2>Summary</h2><p>" + esc(p.Summary) + "</p>"
	case types.SectionExperience:
		return renderExperience(p.Experience)
	case types.SectionEducation:
		return renderEducation(p.Education)
	case types.SectionSkills:
		if len(p.Skills) == 0 {
			return ""
		}
		return "<h2>Skills</h2><p>" + esc(strings.Join(p.Skills, ", ")) + "</p>"
	case types.SectionProjects:
		return renderProjects(p.Projects)
	case types.SectionCertifications:
		return renderCertifications(p.Certifications)
	case types.SectionLanguages:
		return renderLanguages(p.Languages)
	}
	return ""
}

func renderExperience(entries []types.ExperienceEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<h2>Experience</h2>")
	for _, e := range entries {
		sb.WriteString(`<div class="entry"><div class="entry-head">`)
		sb.WriteString(esc(e.Title))
		if e.Company != "" {
			sb.WriteString(" — " + esc(e.Company))
		}
		sb.WriteString("</div>")
		if span := dateSpan(e.StartDate, e.EndDate); span != "" {
			sb.WriteString(`<div class="dates">` + esc(span) + "</div>")
		}
		if e.Description != "" {
			sb.WriteString("<p>" + esc(e.Description) + "</p>")
		}
		if len(e.Achievements) > 0 {
			sb.WriteString("<ul>")
			for _, a := range e.Achievements {
				sb.WriteString("<li>" + esc(a) + "</li>")
			}
			sb.WriteString("</ul>")
		}
		sb.WriteString("</div>")
	}
	return sb.String()
}

func renderEducation(entries []types.EducationEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<h2>Education</h2>")
	for _, e := range entries {
		sb.WriteString(`<div class="entry"><div class="entry-head">`)
		sb.WriteString(esc(e.Degree))
		if e.Institution != "" {
			sb.WriteString(" — " + esc(e.Institution))
		}
		sb.WriteString("</div>")
		if span := dateSpan(e.StartDate, e.EndDate); span != "" {
			sb.WriteString(`<div class="dates">` + esc(span) + "</div>")
		}
		sb.WriteString("</div>")
	}
	return sb.String()
}

func renderProjects(projects []types.Project) string {
	if len(projects) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<h2>Projects</h2>")
	for _, pr := range projects {
		sb.WriteString(`<div class="entry"><div class="entry-head">` + esc(pr.Name) + "</div>")
		if pr.Description != "" {
			sb.WriteString("<p>" + esc(pr.Description) + "</p>")
		}
		sb.WriteString("</div>")
	}
	return sb.String()
}

func renderCertifications(certs []types.Certification) string {
	if len(certs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<h2>Certifications</h2><ul>")
	for _, c := range certs {
		line := c.Name
		if c.Issuer != "" {
			line += ", " + c.Issuer
		}
		sb.WriteString("<li>" + esc(line) + "</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

func renderLanguages(langs []types.Language) string {
	if len(langs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		if l.Proficiency != "" {
			parts = append(parts, l.Name+" ("+l.Proficiency+")")
		} else {
			parts = append(parts, l.Name)
		}
	}
	return "<h2>Languages</h2><p>" + esc(strings.Join(parts, ", ")) + "</p>"
}

func dateSpan(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		return end
	case end == "":
		return start + " - Present"
	default:
		return start + " - " + end
	}
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}
