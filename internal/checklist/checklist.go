// Package checklist tracks which pieces of information a mode needs and
// which of them the conversation has already supplied.
package checklist

import (
	"fmt"
	"strings"

	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/mode"
)

// Value is a slot value. Scalar slots use Text, list slots use Items.
type Value struct {
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Empty reports whether the slot has not been filled.
func (v Value) Empty() bool {
	return strings.TrimSpace(v.Text) == "" && len(v.Items) == 0
}

// State is the per-session checklist for one mode.
type State struct {
	Mode  mode.Mode        `json:"mode"`
	Slots map[string]Value `json:"slots"`
}

// New returns an all-empty checklist for m.
func New(m mode.Mode) State {
	st := State{Mode: m, Slots: make(map[string]Value)}
	for _, s := range m.Schema() {
		st.Slots[s.Name] = Value{}
	}
	return st
}

// Clone returns a deep copy of st.
func (st State) Clone() State {
	out := State{Mode: st.Mode, Slots: make(map[string]Value, len(st.Slots))}
	for k, v := range st.Slots {
		out.Slots[k] = Value{Text: v.Text, Items: append([]string(nil), v.Items...)}
	}
	return out
}

func (st State) kind(slot string) (mode.SlotKind, bool) {
	for _, s := range st.Mode.Schema() {
		if s.Name == slot {
			return s.Kind, true
		}
	}
	return 0, false
}

// fill sets a scalar slot only when it is still empty.
func (st State) fill(slot, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if k, ok := st.kind(slot); !ok || k != mode.Scalar {
		return
	}
	if st.Slots[slot].Empty() {
		st.Slots[slot] = Value{Text: v}
	}
}

// set overwrites a scalar slot.
func (st State) set(slot, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if k, ok := st.kind(slot); ok && k == mode.Scalar {
		st.Slots[slot] = Value{Text: v}
	}
}

// union appends values not already present (case-insensitive). Existing
// items keep their position.
func (st State) union(slot string, values []string) {
	if k, ok := st.kind(slot); !ok || k != mode.List {
		return
	}
	cur := st.Slots[slot]
	seen := make(map[string]bool, len(cur.Items)+len(values))
	for _, it := range cur.Items {
		seen[strings.ToLower(it)] = true
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		cur.Items = append(cur.Items, v)
	}
	st.Slots[slot] = cur
}

// Merge folds an extraction into st. Scalar slots are filled only while
// empty; list slots only ever grow. st itself is not modified.
func Merge(st State, p extract.Profile) State {
	out := st.Clone()
	switch out.Mode {
	case mode.PersonalBio:
		out.fill("role_title", p.Title)
		out.fill("years_experience", p.Experience.Years)
		out.union("top_skills", p.Technologies)
		out.union("achievements", p.Achievements)
	case mode.ProjectSummaries:
		out.union("tech_stack", p.Technologies)
		if len(p.Projects) > 0 {
			out.fill("project_name", p.Projects[0])
		}
		out.union("outcomes_metrics", p.Achievements)
	case mode.LearningReflections:
		out.union("learned_points", p.Technologies)
		out.union("learned_points", p.Education)
	}
	return out
}

// maxTokenWords bounds how long a comma-separated fragment may be before it
// is treated as prose rather than a list item.
const maxTokenWords = 4

// ApplyMessage records values the user stated outright. Unlike Merge these
// overwrite: an explicit statement wins over anything inferred.
func ApplyMessage(st State, msg string) State {
	out := st.Clone()
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return out
	}
	l := strings.ToLower(msg)

	switch out.Mode {
	case mode.PersonalBio:
		if hasWord(l, "role") || hasWord(l, "title") {
			out.set("role_title", afterColon(msg))
		}
		if y := bareNumber(l); y != "" {
			out.set("years_experience", y)
		}
	case mode.ProjectSummaries:
		if strings.Contains(l, "project") && strings.Contains(msg, ":") {
			out.set("project_name", afterColon(msg))
		}
	case mode.LearningReflections:
		if strings.Contains(l, "topic") && strings.Contains(msg, ":") {
			out.set("topic", afterColon(msg))
		}
	}

	if items := listItems(msg); len(items) > 0 {
		out.union(out.Mode.PrimaryList(), items)
	}
	return out
}

func afterColon(msg string) string {
	if _, rest, ok := strings.Cut(msg, ":"); ok && strings.TrimSpace(rest) != "" {
		return strings.TrimSpace(rest)
	}
	return msg
}

// bareNumber returns the first whitespace-separated token made only of
// digits, after dropping the word "years".
func bareNumber(l string) string {
	for _, tok := range strings.Fields(strings.ReplaceAll(l, "years", "")) {
		if isDigits(tok) {
			return tok
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// listItems splits a comma-separated message into short items. A message
// without a comma is not a list.
func listItems(msg string) []string {
	if !strings.Contains(msg, ",") {
		return nil
	}
	var out []string
	for _, part := range strings.Split(msg, ",") {
		part = strings.Trim(strings.TrimSpace(part), ".!?;:")
		for _, conj := range []string{"and ", "or "} {
			if len(part) > len(conj) && strings.EqualFold(part[:len(conj)], conj) {
				part = strings.TrimSpace(part[len(conj):])
			}
		}
		if part == "" || len(strings.Fields(part)) > maxTokenWords {
			continue
		}
		out = append(out, part)
	}
	return out
}

func hasWord(l, w string) bool {
	for _, f := range strings.FieldsFunc(l, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	}) {
		if f == w {
			return true
		}
	}
	return false
}

// Filled returns the labels and values of every non-empty slot, in schema
// order.
func (st State) Filled() []string {
	var lines []string
	for _, s := range st.Mode.Schema() {
		v := st.Slots[s.Name]
		if v.Empty() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", s.Label, display(s.Name, v, 5)))
	}
	return lines
}

// Missing returns the labels of slots that are still empty.
func (st State) Missing() []string {
	var out []string
	for _, s := range st.Mode.Schema() {
		if st.Slots[s.Name].Empty() {
			out = append(out, s.Label)
		}
	}
	return out
}

// Status renders the checklist as a short markdown block for chat replies.
func (st State) Status() string {
	filled := st.Filled()
	if len(filled) == 0 {
		return "_No information gathered yet._"
	}
	var sb strings.Builder
	sb.WriteString("**Information Gathered:**")
	for _, line := range filled {
		sb.WriteString("\n- ")
		sb.WriteString(line)
	}
	return sb.String()
}

func display(slot string, v Value, maxItems int) string {
	if len(v.Items) == 0 {
		if slot == "years_experience" {
			return v.Text + " years"
		}
		return v.Text
	}
	items := v.Items
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return strings.Join(items, ", ")
}
