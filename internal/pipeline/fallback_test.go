package pipeline

import (
	"strings"
	"testing"

	"github.com/kalambet/devfolio/internal/canvas"
	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/mode"
)

func TestFallback_EmptyProfile(t *testing.T) {
	for _, m := range mode.All {
		out := Fallback(extract.Profile{}, m, "")
		if !strings.HasPrefix(out, "# ") {
			t.Errorf("%v: fallback should start with an H1: %q", m, out)
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("%v: empty fallback", m)
		}
		sections, _ := canvas.Parse(out)
		if len(sections) != 1 {
			t.Errorf("%v: sections = %d, want only the header", m, len(sections))
		}
	}
}

func TestFallback_UsesProfile(t *testing.T) {
	p := extract.Profile{
		Name:         "Jane Doe",
		Title:        "Senior Backend Engineer",
		Contact:      map[string]string{"email": "jane@example.com"},
		Technologies: []string{"Python", "AWS", "Docker", "Redis"},
		Experience:   extract.Experience{Years: "7", Companies: []string{"Acme"}},
		Achievements: []string{"Reduced latency by 40% across the platform"},
	}
	out := Fallback(p, mode.PersonalBio, "ignored")

	for _, want := range []string{
		"# Jane Doe",
		"**Senior Backend Engineer**",
		"## Contact Information",
		"- Email: jane@example.com",
		"## About Me",
		"Senior Backend Engineer with 7 years of experience working with Python, AWS and Docker.",
		"## Skills",
		"- Redis",
		"## Experience",
		"- 7 years of professional experience",
		"- Acme",
		"## Achievements",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("fallback missing %q:\n%s", want, out)
		}
	}
	for _, absent := range []string{"## Education", "## Projects", "## Certifications", "ignored"} {
		if strings.Contains(out, absent) {
			t.Errorf("fallback should not contain %q:\n%s", absent, out)
		}
	}
}

func TestFallback_ModeTitles(t *testing.T) {
	p := extract.Profile{Technologies: []string{"Rust"}, Projects: []string{"Built a distributed cache in Rust"}}

	out := Fallback(p, mode.ProjectSummaries, "")
	for _, want := range []string{"# Project Work", "## Overview", "## Technologies Used", "## Key Features"} {
		if !strings.Contains(out, want) {
			t.Errorf("project fallback missing %q:\n%s", want, out)
		}
	}

	out = Fallback(p, mode.LearningReflections, "")
	for _, want := range []string{"# Learning Journey", "## What I Learned", "## Skills Development", "## Application"} {
		if !strings.Contains(out, want) {
			t.Errorf("learning fallback missing %q:\n%s", want, out)
		}
	}
}

func TestFallback_SplitsLongSkillLists(t *testing.T) {
	techs := []string{"Python", "Java", "Rust", "Ruby", "PHP", "Kotlin", "Django", "Flask", "Redis", "AWS"}
	out := Fallback(extract.Profile{Technologies: techs}, mode.PersonalBio, "")

	if !strings.Contains(out, "## Additional Tools") {
		t.Fatalf("expected Additional Tools section:\n%s", out)
	}
	skills := out[strings.Index(out, "## Skills"):strings.Index(out, "## Additional Tools")]
	if strings.Count(skills, "\n- ") != 5 {
		t.Errorf("Skills section should hold half the list:\n%s", skills)
	}
}

func TestFallback_InputAsSummary(t *testing.T) {
	out := Fallback(extract.Profile{}, mode.PersonalBio, "  I love building tools  ")
	if !strings.Contains(out, "## About Me\nI love building tools\n") {
		t.Errorf("input should become the summary:\n%s", out)
	}
}

func TestFallback_MergesIntoDefaultCanvas(t *testing.T) {
	p := extract.Profile{Title: "Engineer", Technologies: []string{"Python"}}
	merged := canvas.Merge(mode.PersonalBio.DefaultCanvas(), Fallback(p, mode.PersonalBio, ""))

	if !strings.HasPrefix(merged, "# Professional Profile") {
		t.Errorf("merge should keep the canvas H1:\n%s", merged)
	}
	if !strings.Contains(merged, "## Skills\n- Python") {
		t.Errorf("Skills section not replaced:\n%s", merged)
	}
}
