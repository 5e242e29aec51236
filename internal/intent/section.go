package intent

import (
	"strings"
	"unicode"

	"github.com/kalambet/devfolio/internal/mode"
)

// SectionTarget returns the title of the section of m that message talks
// about most, or "" when no section keyword appears. Ties go to the section
// listed first for the mode.
func SectionTarget(message string, m mode.Mode) string {
	l := strings.ToLower(message)
	best, bestScore := "", 0
	for _, s := range m.Sections() {
		score := 0
		for _, kw := range s.Keywords {
			if strings.Contains(l, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = s.Title, score
		}
	}
	return best
}

// Action is a structural canvas command.
type Action int

const (
	NoAction Action = iota
	AddSection
	RemoveSection
)

func (a Action) String() string {
	switch a {
	case AddSection:
		return "add"
	case RemoveSection:
		return "remove"
	}
	return "none"
}

var fillerWords = map[string]bool{"a": true, "an": true, "the": true, "new": true}

// ParseSectionCommand recognises "add section X", "add X section",
// "remove section X" and "remove X section" ("create" and "delete" work
// too). The command word must open the message. A title typed entirely in
// lower case is title-cased.
func ParseSectionCommand(message string) (Action, string) {
	words := strings.Fields(strings.ReplaceAll(strings.TrimSpace(message), ":", ""))
	if len(words) < 2 {
		return NoAction, ""
	}

	var action Action
	switch strings.ToLower(words[0]) {
	case "add", "create":
		action = AddSection
	case "remove", "delete":
		action = RemoveSection
	default:
		return NoAction, ""
	}

	rest := words[1:]
	idx := -1
	for i, w := range rest {
		if isSectionWord(w) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return NoAction, ""
	}

	title := joinTitle(rest[idx+1:])
	if title == "" && isSectionWord(rest[len(rest)-1]) && isBareTitle(rest[:len(rest)-1]) {
		title = joinTitle(rest[:len(rest)-1])
	}
	if title == "" {
		return NoAction, ""
	}
	return action, title
}

// maxTrailingTitleWords bounds the "add <title> section" form.
const maxTrailingTitleWords = 4

// titleBreakers mark a sentence that edits content inside a section
// ("add Python to my skills section") rather than naming a new one.
var titleBreakers = map[string]bool{
	"to": true, "from": true, "in": true, "into": true, "with": true,
	"onto": true, "on": true, "under": true, "within": true,
}

func isBareTitle(words []string) bool {
	if len(words) == 0 || len(words) > maxTrailingTitleWords+1 {
		return false
	}
	for _, w := range words {
		if titleBreakers[strings.ToLower(strings.Trim(w, ".!?\"'"))] {
			return false
		}
	}
	return true
}

func isSectionWord(w string) bool {
	return strings.EqualFold(strings.TrimRight(w, ".!?"), "section")
}

func joinTitle(words []string) string {
	var kept []string
	for _, w := range words {
		w = strings.Trim(w, ".!?\"'")
		if w == "" || (len(kept) == 0 && fillerWords[strings.ToLower(w)]) {
			continue
		}
		kept = append(kept, w)
	}
	title := strings.Join(kept, " ")
	if title != strings.ToLower(title) {
		return title
	}
	for i, w := range kept {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		kept[i] = string(r)
	}
	return strings.Join(kept, " ")
}
