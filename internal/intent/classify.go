// Package intent decides what a chat message asks for: new information for
// the canvas, a change to a section of it, or neither.
package intent

import (
	"fmt"
	"strings"

	"github.com/kalambet/devfolio/internal/mode"
)

// Intent is the label assigned to a single chat message.
type Intent int

const (
	Discuss Intent = iota
	ProvideInfo
	RequestChange
)

func (i Intent) String() string {
	switch i {
	case ProvideInfo:
		return "provide-info"
	case RequestChange:
		return "request-change"
	}
	return "discuss"
}

// MarshalText encodes the intent as its hyphenated name.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Intent) UnmarshalText(b []byte) error {
	for _, v := range []Intent{Discuss, ProvideInfo, RequestChange} {
		if string(b) == v.String() {
			*i = v
			return nil
		}
	}
	return fmt.Errorf("unknown intent %q", b)
}

// UpdatesCanvas reports whether the intent should trigger generation.
func (i Intent) UpdatesCanvas() bool {
	return i == ProvideInfo || i == RequestChange
}

var (
	actionKeywords = []string{"add", "update", "modify", "include", "remove", "change", "insert", "replace"}

	// Matched as word prefixes so plurals count.
	sectionKeywords = []string{"skill", "project", "learning", "bio", "experience", "about"}

	techIndicators = []string{
		"python", "javascript", "java", "react", "node", "sql", "aws", "docker", "kubernetes",
		"typescript", "angular", "vue", "mongodb", "postgresql", "mysql", "git", "github",
		"azure", "gcp", "linux", "html", "css", "sass", "tailwind", "bootstrap",
	}
)

// Classify labels message. The rules do not currently depend on the mode.
//
// Rules in priority order: an action keyword together with a section
// keyword is a change request; a comma, a bare number or a known technology
// is information; anything else is discussion.
func Classify(message string, _ mode.Mode) Intent {
	words := tokenize(message)

	if anyWord(words, actionKeywords) && anyPrefix(words, sectionKeywords) {
		return RequestChange
	}
	if strings.Contains(message, ",") || hasBareNumber(message) || anyWord(words, techIndicators) {
		return ProvideInfo
	}
	return Discuss
}

// tokenize lower-cases message and splits it on anything that is not a
// letter, digit, "+" or "#".
func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '+', r == '#':
			return false
		}
		return true
	})
}

func anyWord(words, keywords []string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

func anyPrefix(words, prefixes []string) bool {
	for _, w := range words {
		for _, p := range prefixes {
			if strings.HasPrefix(w, p) {
				return true
			}
		}
	}
	return false
}

// hasBareNumber reports whether a whitespace-separated token consists of
// digits only.
func hasBareNumber(message string) bool {
	for _, tok := range strings.Fields(message) {
		digits := tok != ""
		for _, r := range tok {
			if r < '0' || r > '9' {
				digits = false
				break
			}
		}
		if digits {
			return true
		}
	}
	return false
}
