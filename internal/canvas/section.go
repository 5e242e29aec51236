// Package canvas parses markdown documents into heading-delimited sections
// and merges generated content into an existing document section by section.
package canvas

import "strings"

// Section is a heading line plus the body lines up to the next heading.
// Start is the heading's line index; End is exclusive.
type Section struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Parse splits markdown into lines and returns the sections found in them.
// Any heading closes the section before it, regardless of level. A document
// without headings has no sections.
func Parse(markdown string) ([]Section, []string) {
	lines := splitLines(markdown)
	var sections []Section
	open := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		if open >= 0 {
			sections[open].End = i
		}
		sections = append(sections, Section{
			Level: len(trimmed) - len(strings.TrimLeft(trimmed, "#")),
			Title: headingTitle(trimmed),
			Start: i,
			End:   len(lines),
		})
		open = len(sections) - 1
	}
	return sections, lines
}

func headingTitle(line string) string {
	return strings.TrimSpace(strings.Trim(line, "# "))
}

// FindSection returns the index of the first section whose title equals
// title, ignoring case and surrounding whitespace, or -1.
func FindSection(sections []Section, title string) int {
	want := canonicalTitle(title)
	for i, s := range sections {
		if canonicalTitle(s.Title) == want {
			return i
		}
	}
	return -1
}

func canonicalTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Body returns the lines of s after its heading, joined and trimmed.
func (s Section) Body(lines []string) string {
	if s.Start+1 >= s.End {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[s.Start+1:s.End], "\n"))
}

// splitLines breaks text on \n, \r\n or \r. A trailing line break does not
// produce an empty final line, and empty input yields no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
