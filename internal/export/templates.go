package export

import (
	"bytes"
	"fmt"
	"html/template"

	"folio/api/internal/content"
)

// resumeData is the flattened view the resume template renders.
type resumeData struct {
	Name       string
	Title      string
	Email      string
	Phone      string
	Location   string
	Summary    string
	Skills     []content.Skill
	Education  []content.EducationItem
	Experience []resumeSection
	Projects   []content.ProjectItem
	Awards     []content.AwardItem
}

type resumeSection struct {
	Heading   string
	Positions []content.Position
}

func buildResumeData(tree *content.Tree) resumeData {
	data := resumeData{}
	if tree.Home != nil {
		data.Name = tree.Home.Name
		data.Title = tree.Home.Title
		data.Email = tree.Home.Email
		data.Phone = tree.Home.Phone
		data.Location = tree.Home.Location
	}
	if tree.About != nil {
		data.Summary = tree.About.Description
		data.Skills = tree.About.Skills
	}
	if tree.Education != nil {
		data.Education = tree.Education.Items
	}
	if tree.Experience != nil {
		if len(tree.Experience.ProfessionalPositions) > 0 {
			data.Experience = append(data.Experience, resumeSection{
				Heading:   "Professional Experience",
				Positions: tree.Experience.ProfessionalPositions,
			})
		}
		if len(tree.Experience.LeadershipPositions) > 0 {
			data.Experience = append(data.Experience, resumeSection{
				Heading:   "Leadership",
				Positions: tree.Experience.LeadershipPositions,
			})
		}
	}
	if tree.Projects != nil {
		data.Projects = tree.Projects.Items
	}
	if tree.Awards != nil {
		data.Awards = tree.Awards.Items
	}
	return data
}

// renderResumeHTML renders the printable resume document.
func renderResumeHTML(tree *content.Tree) (string, error) {
	tmpl, err := template.New("resume").Parse(resumeTemplate)
	if err != nil {
		return "", fmt.Errorf("parse resume template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildResumeData(tree)); err != nil {
		return "", fmt.Errorf("execute resume template: %w", err)
	}
	return buf.String(), nil
}

const resumeTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Name}} Resume</title>
<style>
  body { font-family: Georgia, 'Times New Roman', serif; color: #1a1a1a; max-width: 7in; margin: 0 auto; font-size: 11pt; line-height: 1.4; }
  h1 { font-size: 20pt; margin: 0; }
  h2 { font-size: 12pt; border-bottom: 1px solid #999; text-transform: uppercase; letter-spacing: 1px; margin: 18px 0 8px; padding-bottom: 2px; }
  h3 { font-size: 11pt; margin: 10px 0 2px; }
  .contact { color: #444; font-size: 10pt; margin-bottom: 4px; }
  .meta { color: #666; font-size: 10pt; font-style: italic; }
  ul { margin: 4px 0; padding-left: 18px; }
  li { margin-bottom: 2px; }
  .skills span { display: inline-block; margin-right: 10px; }
  @page { size: letter; }
</style>
</head>
<body>
  <h1>{{.Name}}</h1>
  {{if .Title}}<div class="meta">{{.Title}}</div>{{end}}
  <div class="contact">
    {{.Email}}{{if .Phone}} | {{.Phone}}{{end}}{{if .Location}} | {{.Location}}{{end}}
  </div>

  {{if .Summary}}
  <h2>Summary</h2>
  <p>{{.Summary}}</p>
  {{end}}

  {{range .Experience}}
  <h2>{{.Heading}}</h2>
  {{range .Positions}}
  <h3>{{.Title}}{{if .Company}}, {{.Company}}{{end}}</h3>
  <div class="meta">{{.StartDate}}{{if .EndDate}} to {{.EndDate}}{{end}}{{if .Location}} | {{.Location}}{{end}}</div>
  {{if .Responsibilities}}
  <ul>
    {{range .Responsibilities}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
  {{end}}
  {{end}}

  {{if .Education}}
  <h2>Education</h2>
  {{range .Education}}
  <h3>{{.Name}}</h3>
  <div class="meta">{{.Degree}}{{if .FieldOfStudy}}, {{.FieldOfStudy}}{{end}}{{if .CompletionDate}} | {{.CompletionDate}}{{end}}</div>
  {{end}}
  {{end}}

  {{if .Projects}}
  <h2>Projects</h2>
  {{range .Projects}}
  <h3>{{.Title}}</h3>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  {{if .Technologies}}<div class="meta">{{range $i, $t := .Technologies}}{{if $i}}, {{end}}{{$t}}{{end}}</div>{{end}}
  {{end}}
  {{end}}

  {{if .Skills}}
  <h2>Skills</h2>
  <p class="skills">{{range $i, $s := .Skills}}{{if $i}}<span> | </span>{{end}}<span>{{$s.Name}}</span>{{end}}</p>
  {{end}}

  {{if .Awards}}
  <h2>Awards</h2>
  <ul>
    {{range .Awards}}<li>{{.Title}}{{if .Organization}}, {{.Organization}}{{end}}{{if .AwardedOn}} ({{.AwardedOn}}){{end}}</li>{{end}}
  </ul>
  {{end}}
</body>
</html>`
