package canvas

import "strings"

// Merge folds generated into current section by section.
//
// Every H2-or-deeper section of generated replaces the first section of the
// working document with the same title; sections with no counterpart are
// appended in the order they appear. Each replacement is applied before the
// next lookup. H1 headings are document titles and never merged. When no
// section matched at all, a non-blank generated document replaces current
// wholesale, and when current has no sections generated is returned as is.
func Merge(current, generated string) string {
	curSections, curLines := Parse(current)
	if len(curSections) == 0 {
		return generated
	}
	genSections, genLines := Parse(generated)

	doc := curLines
	matched := 0
	for _, gs := range genSections {
		if gs.Level < 2 {
			continue
		}
		block := genLines[gs.Start:gs.End]

		sections, _ := Parse(strings.Join(doc, "\n"))
		idx := FindSection(sections, gs.Title)
		if idx < 0 {
			doc = appendBlock(doc, block)
			continue
		}

		cs := sections[idx]
		next := make([]string, 0, len(doc)-(cs.End-cs.Start)+len(block))
		next = append(next, doc[:cs.Start]...)
		next = append(next, block...)
		next = append(next, doc[cs.End:]...)
		doc = next
		matched++
	}

	if matched == 0 && strings.TrimSpace(generated) != "" {
		return generated
	}

	out := strings.Join(doc, "\n")
	if strings.HasSuffix(current, "\n") && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// appendBlock adds block after doc, separated by one blank line unless doc
// already ends blank.
func appendBlock(doc, block []string) []string {
	out := make([]string, 0, len(doc)+len(block)+1)
	out = append(out, doc...)
	if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
		out = append(out, "")
	}
	return append(out, block...)
}

// AddSection appends "## title" with body at the end of md. If a section
// with that title already exists md is returned unchanged.
func AddSection(md, title, body string) string {
	sections, lines := Parse(md)
	if FindSection(sections, title) >= 0 {
		return md
	}
	block := []string{"## " + strings.TrimSpace(title), ""}
	if strings.TrimSpace(body) != "" {
		block = append(block, splitLines(body)...)
		if block[len(block)-1] != "" {
			block = append(block, "")
		}
	}
	return strings.Join(appendBlock(lines, block), "\n")
}

// RemoveSection deletes the first section titled title, collapsing the runs
// of blank lines left behind. Unknown titles leave md unchanged.
func RemoveSection(md, title string) string {
	sections, lines := Parse(md)
	idx := FindSection(sections, title)
	if idx < 0 {
		return md
	}
	s := sections[idx]
	remaining := append(append([]string{}, lines[:s.Start]...), lines[s.End:]...)

	var cleaned []string
	prevBlank := false
	for _, ln := range remaining {
		blank := strings.TrimSpace(ln) == ""
		if blank && prevBlank {
			continue
		}
		cleaned = append(cleaned, ln)
		prevBlank = blank
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n")) + "\n"
}

// EmptySections lists the titles of sections whose body is blank.
func EmptySections(md string) []string {
	sections, lines := Parse(md)
	var out []string
	for _, s := range sections {
		if s.Body(lines) == "" {
			out = append(out, s.Title)
		}
	}
	return out
}

// SummarizeChanges describes which H2+ sections were updated, added or
// removed between two versions of a document.
func SummarizeChanges(oldMD, newMD string) string {
	oldSections, oldLines := Parse(oldMD)
	newSections, newLines := Parse(newMD)

	oldByTitle := make(map[string]Section)
	for _, s := range oldSections {
		if s.Level >= 2 {
			if _, dup := oldByTitle[canonicalTitle(s.Title)]; !dup {
				oldByTitle[canonicalTitle(s.Title)] = s
			}
		}
	}
	newByTitle := make(map[string]bool)

	var updated, added, removed []string
	for _, s := range newSections {
		key := canonicalTitle(s.Title)
		if s.Level < 2 || newByTitle[key] {
			continue
		}
		newByTitle[key] = true
		prev, ok := oldByTitle[key]
		switch {
		case !ok:
			added = append(added, s.Title)
		case prev.Body(oldLines) != s.Body(newLines):
			updated = append(updated, s.Title)
		}
	}
	for _, s := range oldSections {
		key := canonicalTitle(s.Title)
		if s.Level >= 2 && !newByTitle[key] && oldByTitle[key] == s {
			removed = append(removed, s.Title)
		}
	}

	var parts []string
	if len(updated) > 0 {
		parts = append(parts, "Updated: "+strings.Join(updated, ", "))
	}
	if len(added) > 0 {
		parts = append(parts, "Added: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "Removed: "+strings.Join(removed, ", "))
	}
	if len(parts) == 0 {
		return "No material changes detected."
	}
	return strings.Join(parts, "; ")
}

// ChangedSections returns the titles SummarizeChanges reports as updated or
// added, in document order.
func ChangedSections(oldMD, newMD string) []string {
	oldSections, oldLines := Parse(oldMD)
	newSections, newLines := Parse(newMD)
	var out []string
	seen := make(map[string]bool)
	for _, s := range newSections {
		key := canonicalTitle(s.Title)
		if s.Level < 2 || seen[key] {
			continue
		}
		seen[key] = true
		idx := FindSection(oldSections, s.Title)
		if idx < 0 || oldSections[idx].Body(oldLines) != s.Body(newLines) {
			out = append(out, s.Title)
		}
	}
	return out
}
