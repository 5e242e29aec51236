package pipeline

import (
	"fmt"
	"strings"

	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/mode"
)

// fallbackTitles names the sections the fallback document uses for a mode,
// so that merging it lines up with the mode's starter canvas.
type fallbackTitles struct {
	header       string
	summary      string
	skills       string
	projects     string
	achievements string
}

func titlesFor(m mode.Mode) fallbackTitles {
	switch m {
	case mode.ProjectSummaries:
		return fallbackTitles{"Project Work", "Overview", "Technologies Used", "Key Features", "Results & Impact"}
	case mode.LearningReflections:
		return fallbackTitles{"Learning Journey", "What I Learned", "Skills Development", "Application", "Results"}
	}
	return fallbackTitles{"Professional Profile", "About Me", "Skills", "Projects", "Achievements"}
}

// maxGroupedTechs is how many technologies are listed before the rest move
// to an "Additional Tools" section.
const maxGroupedTechs = 8

// Fallback builds a markdown document from the profile alone. It never
// calls out and always returns a document that starts with a "# " header.
// Sections appear only when the profile has data for them.
func Fallback(p extract.Profile, m mode.Mode, input string) string {
	t := titlesFor(m)
	var b docBuilder

	header := t.header
	if p.Name != "" {
		header = p.Name
	}
	b.line("# " + header)
	if p.Title != "" {
		b.line("")
		b.line("**" + p.Title + "**")
	}

	if len(p.Contact) > 0 {
		var items []string
		for _, k := range []string{"email", "phone", "location"} {
			if v := p.Contact[k]; v != "" {
				items = append(items, fmt.Sprintf("- %s: %s", strings.ToUpper(k[:1])+k[1:], v))
			}
		}
		b.section("Contact Information", items...)
	}

	if s := summaryText(p, input); s != "" {
		b.section(t.summary, s)
	}

	if len(p.Technologies) > 0 {
		techs := p.Technologies
		if len(techs) > maxGroupedTechs {
			half := len(techs) / 2
			b.section(t.skills, bullets(techs[:half])...)
			b.section("Additional Tools", bullets(techs[half:])...)
		} else {
			b.section(t.skills, bullets(techs)...)
		}
	}

	if p.Experience.Years != "" || len(p.Experience.Companies) > 0 {
		var items []string
		if p.Experience.Years != "" {
			items = append(items, fmt.Sprintf("- %s years of professional experience", p.Experience.Years))
		}
		for _, c := range p.Experience.Companies {
			items = append(items, "- "+c)
		}
		b.section("Experience", items...)
	}

	if len(p.Education) > 0 {
		b.section("Education", bullets(p.Education)...)
	}
	if len(p.Projects) > 0 {
		b.section(t.projects, bullets(p.Projects)...)
	}
	if len(p.Achievements) > 0 {
		b.section(t.achievements, bullets(p.Achievements)...)
	}
	if len(p.Certifications) > 0 {
		b.section("Certifications", bullets(p.Certifications)...)
	}

	if b.sections == 0 && p.Title == "" {
		b.line("")
		b.line("_Tell me about your work, skills and projects to fill in this document._")
	}
	return b.String()
}

// summaryText describes the role from whatever is known. Without any role
// data the user's own words are used.
func summaryText(p extract.Profile, input string) string {
	var parts []string
	role := p.Title
	if role == "" && (p.Experience.Years != "" || len(p.Technologies) > 0) {
		role = "Developer"
	}
	if role != "" {
		parts = append(parts, role)
	}
	if p.Experience.Years != "" {
		parts = append(parts, fmt.Sprintf("with %s years of experience", p.Experience.Years))
	}
	if len(p.Technologies) > 0 {
		techs := p.Technologies
		if len(techs) > 3 {
			techs = techs[:3]
		}
		parts = append(parts, "working with "+joinAnd(techs))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ") + "."
	}
	return strings.TrimSpace(input)
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func bullets(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "- " + it
	}
	return out
}

type docBuilder struct {
	sb       strings.Builder
	sections int
}

func (b *docBuilder) line(s string) {
	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
}

func (b *docBuilder) section(title string, body ...string) {
	b.sections++
	b.line("")
	b.line("## " + title)
	for _, l := range body {
		b.line(l)
	}
}

func (b *docBuilder) String() string {
	return b.sb.String()
}
