package extract

import (
	"fmt"
	"strings"
)

// Category groups technology keywords.
type Category string

const (
	Frontend Category = "frontend"
	Backend  Category = "backend"
	Database Category = "database"
	Cloud    Category = "cloud"
	Tools    Category = "tools"
)

// Categories lists skill categories in table order.
var Categories = []Category{Frontend, Backend, Database, Cloud, Tools}

// Caps on list fields.
const (
	MaxCompanies      = 5
	MaxEducation      = 3
	MaxProjects       = 5
	MaxAchievements   = 5
	MaxCertifications = 3
)

// Experience is the work-history part of a Profile.
type Experience struct {
	Years     string   `json:"years,omitempty"`
	Companies []string `json:"companies"`
}

// Profile is the structured view of what the user has said about
// themselves. Every list is deduplicated in first-seen order and capped.
type Profile struct {
	Name           string                `json:"name,omitempty"`
	Title          string                `json:"title,omitempty"`
	Contact        map[string]string     `json:"contact"`
	Technologies   []string              `json:"technologies"`
	Skills         map[Category][]string `json:"skills"`
	Experience     Experience            `json:"experience"`
	Education      []string              `json:"education"`
	Projects       []string              `json:"projects"`
	Achievements   []string              `json:"achievements"`
	Certifications []string              `json:"certifications"`
}

// IsEmpty reports whether no rule produced anything.
func (p Profile) IsEmpty() bool {
	return p.Name == "" && p.Title == "" && len(p.Contact) == 0 &&
		len(p.Technologies) == 0 && p.Experience.Years == "" &&
		len(p.Experience.Companies) == 0 && len(p.Education) == 0 &&
		len(p.Projects) == 0 && len(p.Achievements) == 0 && len(p.Certifications) == 0
}

// Digest returns one line per populated field, used as the data summary in
// generation prompts.
func (p Profile) Digest() []string {
	var lines []string
	if p.Name != "" || p.Title != "" {
		who := p.Name
		if p.Title != "" {
			if who != "" {
				who += " - "
			}
			who += p.Title
		}
		lines = append(lines, "Name/Title: "+who)
	}
	if len(p.Contact) > 0 {
		lines = append(lines, "Contact info present")
	}
	if len(p.Technologies) > 0 {
		techs := p.Technologies
		if len(techs) > 20 {
			techs = techs[:20]
		}
		lines = append(lines, "Technologies: "+strings.Join(techs, ", "))
	}
	if p.Experience.Years != "" {
		lines = append(lines, fmt.Sprintf("Experience: %s years", p.Experience.Years))
	}
	if len(p.Experience.Companies) > 0 {
		lines = append(lines, "Companies: "+strings.Join(p.Experience.Companies, ", "))
	}
	if len(p.Education) > 0 {
		lines = append(lines, "Education data present")
	}
	if len(p.Projects) > 0 {
		lines = append(lines, "Projects data present")
	}
	if len(p.Achievements) > 0 {
		lines = append(lines, "Achievements data present")
	}
	if len(p.Certifications) > 0 {
		lines = append(lines, "Certifications data present")
	}
	return lines
}

// Summary is a short human-readable description for display next to the
// canvas.
func (p Profile) Summary() string {
	if p.IsEmpty() {
		return "No information extracted yet."
	}
	var sb strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", p.Name)
	}
	if p.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", p.Title)
	}
	for _, k := range []string{"email", "phone", "location"} {
		if v := p.Contact[k]; v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", strings.ToUpper(k[:1])+k[1:], v)
		}
	}
	if len(p.Technologies) > 0 {
		fmt.Fprintf(&sb, "Technologies: %s\n", strings.Join(p.Technologies, ", "))
	}
	if p.Experience.Years != "" {
		fmt.Fprintf(&sb, "Experience: %s years\n", p.Experience.Years)
	}
	if len(p.Experience.Companies) > 0 {
		fmt.Fprintf(&sb, "Companies: %s\n", strings.Join(p.Experience.Companies, ", "))
	}
	counts := []struct {
		label string
		n     int
	}{
		{"Education", len(p.Education)},
		{"Projects", len(p.Projects)},
		{"Achievements", len(p.Achievements)},
		{"Certifications", len(p.Certifications)},
	}
	for _, c := range counts {
		if c.n > 0 {
			fmt.Fprintf(&sb, "%s: %d noted\n", c.label, c.n)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
