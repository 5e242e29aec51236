package composer

import (
	"fmt"
	"strings"

	"github.com/kalambet/devfolio/internal/chat"
	"github.com/kalambet/devfolio/internal/checklist"
	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/llm"
	"github.com/kalambet/devfolio/internal/mode"
	"github.com/kalambet/devfolio/internal/prompts"
)

const (
	defaultHistoryLimit     = 15
	defaultMaxHistoryTokens = 4000
)

const readmeGuidance = `Format all content as clean, professional README-style markdown. Use:
- Clear headings with ## and ###
- Bullet points for lists
- Bold text for emphasis where appropriate
- Code blocks for technical content if needed
Avoid forced templates; let the content follow the conversation.`

// Composer turns a turn's inputs into the prompts and history window sent
// to the LLM collaborator.
type Composer struct {
	Prompts          *prompts.Store
	HistoryLimit     int
	MaxHistoryTokens int
}

// New creates a Composer. Non-positive limits select the defaults (15
// messages, 4000 estimated tokens).
func New(store *prompts.Store, historyLimit, maxHistoryTokens int) *Composer {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	if maxHistoryTokens <= 0 {
		maxHistoryTokens = defaultMaxHistoryTokens
	}
	return &Composer{Prompts: store, HistoryLimit: historyLimit, MaxHistoryTokens: maxHistoryTokens}
}

// Input is everything a prompt is built from.
type Input struct {
	Mode      mode.Mode
	Profile   extract.Profile
	Checklist checklist.State
	// Target is the section the user asked about, if any.
	Target  string
	History []chat.Message
	Text    string
}

// Prompt is a composed LLM call.
type Prompt struct {
	System  string
	User    string
	History []llm.Message
}

// Compose renders the mode's generation template. Template errors are
// returned as is so callers can tell configuration problems apart from
// generation failures.
func (c *Composer) Compose(in Input) (Prompt, error) {
	global, err := c.Prompts.Get(prompts.GlobalKey)
	if err != nil {
		return Prompt{}, err
	}

	summary := Summary(in.Profile)
	params := map[string]string{
		"content_type": in.Mode.ContentType(),
		"summary":      summary,
		"guidance":     guidance(in),
		"user_input":   in.Text,
	}
	system, user, err := c.Prompts.Render(c.Prompts.GenerationKey(in.Mode), params)
	if err != nil {
		return Prompt{}, fmt.Errorf("rendering %s prompt: %w", in.Mode.Key(), err)
	}

	var sb strings.Builder
	if global.SystemPrompt != "" {
		sb.WriteString(global.SystemPrompt)
		sb.WriteString("\n\n")
	}
	sb.WriteString(system)
	sb.WriteString("\n\n")
	sb.WriteString(readmeGuidance)
	sb.WriteString("\n\n[Available Data]\n")
	sb.WriteString(summary)

	return Prompt{
		System:  sb.String(),
		User:    user,
		History: c.window(in.History, in.Text),
	}, nil
}

// Summary renders the profile digest as a bulleted list.
func Summary(p extract.Profile) string {
	lines := p.Digest()
	if len(lines) == 0 {
		return "- General professional information from chat"
	}
	return "- " + strings.Join(lines, "\n- ")
}

func guidance(in Input) string {
	var notes []string
	if in.Target != "" {
		notes = append(notes, fmt.Sprintf("Focus on the %q section and return it under a ## %s heading.", in.Target, in.Target))
	}
	if filled := in.Checklist.Filled(); len(filled) > 0 {
		notes = append(notes, "Already confirmed: "+strings.Join(filled, "; ")+".")
	}
	if in.Checklist.Slots != nil {
		if missing := in.Checklist.Missing(); len(missing) > 0 {
			notes = append(notes, "Not yet provided (leave out rather than invent): "+strings.Join(missing, ", ")+".")
		}
	}
	return strings.Join(notes, "\n")
}

// window picks the most recent user and assistant messages, at most
// HistoryLimit of them, dropping the oldest until the estimated size fits
// MaxHistoryTokens. A trailing user message equal to text is left out since
// it is sent as the user prompt.
func (c *Composer) window(history []chat.Message, text string) []llm.Message {
	if n := len(history); n > 0 && history[n-1].Role == chat.RoleUser && history[n-1].Content == text {
		history = history[:n-1]
	}

	var convo []chat.Message
	for _, m := range history {
		if m.Role == chat.RoleUser || m.Role == chat.RoleAssistant {
			convo = append(convo, m)
		}
	}
	convo = chat.Recent(convo, c.HistoryLimit)

	total := 0
	start := len(convo)
	for i := len(convo) - 1; i >= 0; i-- {
		tokens := EstimateTokens(convo[i].Content)
		if total+tokens > c.MaxHistoryTokens {
			break
		}
		total += tokens
		start = i
	}

	out := make([]llm.Message, 0, len(convo)-start)
	for _, m := range convo[start:] {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// EstimateTokens provides a rough token count using 4 chars per token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
