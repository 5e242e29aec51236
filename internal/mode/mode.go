// Package mode defines the closed set of content modes and the per-mode
// tables (default canvas, checklist schema, section keywords) attached to
// each of them.
package mode

import (
	"fmt"
	"strings"
)

// Mode selects prompt templates, checklist schema and default canvas.
type Mode int

const (
	PersonalBio Mode = iota
	ProjectSummaries
	LearningReflections
)

// All lists every mode in display order.
var All = []Mode{PersonalBio, ProjectSummaries, LearningReflections}

func (m Mode) String() string {
	switch m {
	case PersonalBio:
		return "Personal Bio"
	case ProjectSummaries:
		return "Project Summaries"
	case LearningReflections:
		return "Learning Reflections"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Key is the stable identifier used in storage, config and the API.
func (m Mode) Key() string {
	switch m {
	case PersonalBio:
		return "personal_bio"
	case ProjectSummaries:
		return "project_summaries"
	case LearningReflections:
		return "learning_reflections"
	}
	return ""
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= PersonalBio && m <= LearningReflections
}

// Parse accepts either the Key form ("personal_bio") or the display name
// ("Personal Bio"), case-insensitively.
func Parse(s string) (Mode, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, m := range All {
		if norm == m.Key() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.Key()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ContentType is the lower-case noun used in generation prompts.
func (m Mode) ContentType() string {
	return strings.ToLower(m.String())
}

// DefaultCanvas returns the starter document shown when a session enters m.
func (m Mode) DefaultCanvas() string {
	switch m {
	case PersonalBio:
		return `# Professional Profile

## About Me
Brief introduction about your professional background and passions.

## Skills
- Primary skills
- Technologies you work with
- Domain expertise

## Experience
Key career highlights and experience overview.
`
	case ProjectSummaries:
		return `# Project Name

## Overview
Brief description of the project and its purpose.

## Technologies Used
- Main technologies and tools

## Key Features
- Main functionality
- Technical challenges solved
`
	case LearningReflections:
		return `# Learning Journey: [Topic]

## What I Learned
Key takeaways and new skills acquired.

## Application
How this learning applies to my work and projects.
`
	}
	return ""
}

// SlotKind tells whether a checklist slot holds one value or a list.
type SlotKind int

const (
	Scalar SlotKind = iota
	List
)

// Slot is one entry of a mode's checklist schema.
type Slot struct {
	Name  string
	Kind  SlotKind
	Label string
}

// Schema returns the checklist slots for m in display order.
func (m Mode) Schema() []Slot {
	switch m {
	case PersonalBio:
		return []Slot{
			{"role_title", Scalar, "Role"},
			{"years_experience", Scalar, "Experience"},
			{"top_skills", List, "Skills"},
			{"achievements", List, "Achievements"},
			{"industries", List, "Industries"},
			{"tone", Scalar, "Tone"},
		}
	case ProjectSummaries:
		return []Slot{
			{"project_name", Scalar, "Project"},
			{"objective", Scalar, "Objective"},
			{"role_responsibilities", Scalar, "Role"},
			{"tech_stack", List, "Tech Stack"},
			{"features_challenges", List, "Features"},
			{"outcomes_metrics", List, "Outcomes"},
		}
	case LearningReflections:
		return []Slot{
			{"topic", Scalar, "Topic"},
			{"motivation", Scalar, "Motivation"},
			{"learned_points", List, "Key Points"},
			{"application_examples", List, "Applications"},
			{"next_steps", List, "Next Steps"},
		}
	}
	return nil
}

// PrimaryList is the list slot that comma-separated user input lands in.
func (m Mode) PrimaryList() string {
	switch m {
	case ProjectSummaries:
		return "tech_stack"
	case LearningReflections:
		return "learned_points"
	}
	return "top_skills"
}

// SectionKeywords maps canonical section titles to the words that point at
// them. The slice order is the tie-break order when scoring a message.
type SectionKeywords struct {
	Title    string
	Keywords []string
}

// Sections returns the targetable sections for m.
func (m Mode) Sections() []SectionKeywords {
	switch m {
	case PersonalBio:
		return []SectionKeywords{
			{"About Me", []string{"about", "introduction", "intro", "overview", "summary", "bio"}},
			{"Skills", []string{"skill", "technology", "tech", "programming", "coding", "framework", "language"}},
			{"Experience", []string{"experience", "work", "career", "background", "history", "professional"}},
			{"Education", []string{"education", "degree", "school", "university", "college"}},
			{"Contact Information", []string{"contact", "email", "phone", "linkedin", "github", "portfolio"}},
		}
	case ProjectSummaries:
		return []SectionKeywords{
			{"Overview", []string{"overview", "description", "summary", "about", "what is"}},
			{"Technologies Used", []string{"technology", "tech", "stack", "tools", "framework", "language"}},
			{"Key Features", []string{"feature", "functionality", "what it does", "capabilities"}},
			{"Challenges & Solutions", []string{"challenge", "problem", "difficulty", "issue", "solution"}},
			{"Results & Impact", []string{"result", "impact", "outcome", "achievement", "success"}},
		}
	case LearningReflections:
		return []SectionKeywords{
			{"Learning Objectives", []string{"objective", "goal", "purpose", "aim", "why"}},
			{"What I Learned", []string{"skill", "learned", "acquired", "knowledge", "understanding"}},
			{"Application", []string{"apply", "use", "practice", "implement", "real world"}},
			{"Challenges", []string{"challenge", "difficulty", "struggle", "problem"}},
			{"Next Steps", []string{"future", "next", "continue", "improve", "develop"}},
		}
	}
	return nil
}

// DefaultSection is the section assumed when nothing in a message scores.
func (m Mode) DefaultSection() string {
	switch m {
	case ProjectSummaries:
		return "Overview"
	case LearningReflections:
		return "What I Learned"
	}
	return "About Me"
}
