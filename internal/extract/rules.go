package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	anchoredNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\bmy name is)\s+([A-Z][a-zA-Z'-]+)\s+([A-Z][a-zA-Z'-]+)`),
		regexp.MustCompile(`(?i:\bi am)\s+([A-Z][a-zA-Z'-]+)\s+([A-Z][a-zA-Z'-]+)`),
		regexp.MustCompile(`(?i:\bi(?:'|’)m)\s+([A-Z][a-zA-Z'-]+)\s+([A-Z][a-zA-Z'-]+)`),
	}
	capitalizedWord = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	yearsPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\+?\s*(?:years?|yrs?)\b`)

	companyPattern = regexp.MustCompile(`(?i:\b(?:worked at|currently at|employed at|at|with))\s+([A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*){0,3})`)

	sentenceBreak = regexp.MustCompile(`[.!?\n]+`)
)

// extractName tries "my name is", "I am" and "I'm" followed by two
// capitalized words, in that order, then falls back to the first pair of
// adjacent capitalized words that does not look like a role or technology.
func extractName(text string) string {
	for _, re := range anchoredNamePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if isNameWord(m[1]) && isNameWord(m[2]) {
				return m[1] + " " + m[2]
			}
		}
	}

	words := capitalizedWord.FindAllStringIndex(text, -1)
	for i := 0; i+1 < len(words); i++ {
		a, b := words[i], words[i+1]
		gap := text[a[1]:b[0]]
		if gap == "" || strings.TrimLeft(gap, " \t") != "" {
			continue
		}
		first, second := text[a[0]:a[1]], text[b[0]:b[1]]
		if isNameWord(first) && isNameWord(second) {
			return first + " " + second
		}
	}
	return ""
}

func isNameWord(w string) bool {
	l := lower(w)
	return !reservedWords[l] && !nameStopWords[l]
}

// extractTitle assembles seniority, domain and role noun, each found
// independently, from whichever of them are present.
func extractTitle(text string) string {
	l := lower(text)
	var parts []string
	if s := firstWord(l, seniorityWords); s != "" {
		parts = append(parts, s)
	}
	if d := firstWord(l, domainWords); d != "" {
		if c, ok := canonicalDomain[d]; ok {
			d = c
		}
		parts = append(parts, d)
	}
	if n := firstWord(l, roleNouns); n != "" {
		parts = append(parts, n)
	}

	var words []string
	seen := make(map[string]bool)
	for _, p := range parts {
		for _, w := range strings.Fields(p) {
			if seen[w] {
				continue
			}
			seen[w] = true
			words = append(words, titleCase(w))
		}
	}
	return strings.Join(words, " ")
}

// extractContact collects email, phone and location.
func extractContact(text string) map[string]string {
	contact := make(map[string]string)
	if v := extractEmail(text); v != "" {
		contact["email"] = v
	}
	if v := extractPhone(text); v != "" {
		contact["phone"] = v
	}
	if v := extractLocation(text); v != "" {
		contact["location"] = v
	}
	return contact
}

func extractEmail(text string) string {
	return emailPattern.FindString(text)
}

func extractPhone(text string) string {
	return strings.TrimSpace(phonePattern.FindString(text))
}

// extractLocation looks for the text after an introducer phrase, cut at
// the first period or comma, and accepts it when it is at most five words.
func extractLocation(text string) string {
	l := lower(text)
	for _, intro := range locationIntroducers {
		for from := 0; from < len(l); {
			idx := indexWord(l[from:], intro)
			if idx < 0 {
				break
			}
			start := from + idx + len(intro)
			from = start
			rest := text[start:]
			if len(rest) == 0 || !unicode.IsSpace(rune(rest[0])) {
				continue
			}
			rest = strings.TrimLeft(rest, " \t")
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
				rest = rest[:nl]
			}
			if len(rest) > 50 {
				n := 50
				for n > 0 && !utf8.RuneStart(rest[n]) {
					n--
				}
				rest = rest[:n]
			}
			if cut := strings.IndexAny(rest, ".,"); cut >= 0 {
				rest = rest[:cut]
			}
			rest = strings.TrimSpace(rest)
			if n := len(strings.Fields(rest)); n > 0 && n <= 5 {
				return rest
			}
		}
	}
	return ""
}

// extractSkills matches every technology alias as a whole word and returns
// the flattened technology list alongside the per-category view.
func extractSkills(text string) ([]string, map[Category][]string) {
	l := lower(text)
	var techs []string
	byCategory := make(map[Category][]string)
	for _, cat := range skillTable {
		for _, tech := range cat.Techs {
			for _, alias := range tech.Aliases {
				if containsWord(l, alias) {
					byCategory[cat.Category] = append(byCategory[cat.Category], tech.Name)
					techs = append(techs, tech.Name)
					break
				}
			}
		}
	}
	return dedupe(techs, 0), byCategory
}

// extractYears returns the number from the first "<n> years"/"<n> yrs".
func extractYears(text string) string {
	m := yearsPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// extractCompanies collects capitalized names following "worked at",
// "currently at", "employed at", "at" or "with".
func extractCompanies(text string) []string {
	var out []string
	for _, m := range companyPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimRight(m[1], "'-")
		if name == "" || strings.ContainsAny(name, "0123456789") {
			continue
		}
		if reservedWords[lower(name)] || !isNameWord(strings.Fields(name)[0]) {
			continue
		}
		out = append(out, name)
	}
	return dedupe(out, MaxCompanies)
}

// extractSentences keeps sentences longer than minLen that mention one of
// keywords.
func extractSentences(text string, keywords []string, minLen, max int) []string {
	var out []string
	for _, s := range sentenceBreak.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) <= minLen {
			continue
		}
		l := lower(s)
		for _, kw := range keywords {
			if containsWord(l, kw) {
				out = append(out, s)
				break
			}
		}
	}
	return dedupe(out, max)
}

func firstWord(text string, words []string) string {
	for _, w := range words {
		if containsWord(text, w) {
			return w
		}
	}
	return ""
}

// containsWord reports whether word occurs in text with no word character
// on either side. A dot directly joined to a preceding word (as in
// "node.js") does not count as a boundary. Edges of word that are not word
// characters themselves (".net", "%") need no boundary.
func containsWord(text, word string) bool {
	return indexWord(text, word) >= 0
}

func indexWord(text, word string) int {
	if word == "" {
		return -1
	}
	for from := 0; from < len(text); {
		j := strings.Index(text[from:], word)
		if j < 0 {
			return -1
		}
		start := from + j
		end := start + len(word)
		before := !isWordByte(word[0]) || boundaryBefore(text, start)
		after := !isWordByte(word[len(word)-1]) || boundaryAfter(text, end)
		if before && after {
			return start
		}
		from = start + 1
	}
	return -1
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	prev := text[i-1]
	if isWordByte(prev) {
		return false
	}
	if prev == '.' && i >= 2 && isWordByte(text[i-2]) {
		return false
	}
	return true
}

func boundaryAfter(text string, i int) bool {
	return i >= len(text) || !isWordByte(text[i])
}

func isWordByte(b byte) bool {
	return b == '_' || b == '+' || b == '#' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// lower folds ASCII letters only and works byte by byte, so offsets in the
// result line up with the input even when it is not valid UTF-8.
func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// titleCase upper-cases the first letter of each hyphen-separated part.
func titleCase(w string) string {
	parts := strings.Split(w, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "-")
}

// dedupe drops repeated entries, keeping first occurrences, and truncates
// to max when max > 0.
func dedupe(in []string, max int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		key := lower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
