package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/devfolio/internal/canvas"
	"github.com/kalambet/devfolio/internal/chat"
	"github.com/kalambet/devfolio/internal/checklist"
	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/intent"
	"github.com/kalambet/devfolio/internal/mode"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
)

var (
	// ErrEmptyMessage is returned for a turn with no text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNothingToUndo is returned by Undo when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
)

const (
	discussReply  = "Got it! Let me know if you'd like me to update your canvas with any specific information."
	undoReply     = "Reverted to previous canvas state."
	refreshReply  = "**Canvas refreshed** with latest information from our conversation!"
	refreshPrompt = "Refresh canvas with current information"
	fallbackNote  = "_The AI service is unavailable right now, so this draft was built from the information gathered so far._"
)

// TurnResult is the outcome of one user action on a session.
type TurnResult struct {
	SessionID    string          `json:"session_id"`
	Mode         mode.Mode       `json:"mode"`
	Intent       intent.Intent   `json:"intent"`
	Reply        string          `json:"reply"`
	Canvas       string          `json:"canvas"`
	Changed      []string        `json:"changed,omitempty"`
	UsedFallback bool            `json:"used_fallback"`
	Checklist    checklist.State `json:"checklist"`
	Profile      extract.Profile `json:"profile"`
}

// Assistant runs conversation turns: it records the message, extracts the
// profile, updates the checklist and, when the intent calls for it,
// generates content and merges it into the session canvas.
type Assistant struct {
	history  storage.HistoryStore
	sessions *session.Manager
	gen      *Generator
}

func NewAssistant(history storage.HistoryStore, sessions *session.Manager, gen *Generator) *Assistant {
	return &Assistant{history: history, sessions: sessions, gen: gen}
}

// NewSession starts a session in m.
func (a *Assistant) NewSession(ctx context.Context, m mode.Mode) (session.State, error) {
	return a.sessions.Create(ctx, m)
}

// State returns the session's current state and profile.
func (a *Assistant) State(ctx context.Context, id string) (TurnResult, error) {
	st, err := a.sessions.Get(ctx, id)
	if err != nil {
		return TurnResult{}, err
	}
	p, err := a.Profile(ctx, id)
	if err != nil {
		return TurnResult{}, err
	}
	return result(&st, p), nil
}

// Profile extracts the profile from the session's stored history.
func (a *Assistant) Profile(ctx context.Context, id string) (extract.Profile, error) {
	h, err := a.history.GetHistory(ctx, id)
	if err != nil {
		return extract.Profile{}, fmt.Errorf("loading history: %w", err)
	}
	return extract.Extract(h), nil
}

// HandleTurn processes one user message. The message and the reply are
// appended to the history only when the whole turn succeeds.
func (a *Assistant) HandleTurn(ctx context.Context, id, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	var res TurnResult
	err := a.sessions.With(ctx, id, func(st *session.State) error {
		stored, err := a.history.GetHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		hist := append(stored, chat.Message{Role: chat.RoleUser, Content: text})

		p := extract.Extract(hist)
		st.Checklist = checklist.ApplyMessage(checklist.Merge(st.Checklist, p), text)

		res = TurnResult{Profile: p}
		if action, title := intent.ParseSectionCommand(text); action != intent.NoAction {
			res.Intent = intent.RequestChange
			res.Reply = applySectionCommand(st, action, title)
		} else {
			res.Intent = intent.Classify(text, st.Mode)
			if res.Intent.UpdatesCanvas() {
				var target string
				if res.Intent == intent.RequestChange {
					target = intent.SectionTarget(text, st.Mode)
				}
				changed, fallback, err := a.generate(ctx, st, p, hist, text, target)
				if err != nil {
					return err
				}
				res.Changed, res.UsedFallback = changed, fallback
				res.Reply = turnReply(p, changed, fallback, st.Checklist)
			} else {
				res.Reply = discussReply
			}
		}

		if err := a.history.AppendMessage(ctx, id, chat.RoleUser, text); err != nil {
			return fmt.Errorf("recording message: %w", err)
		}
		if err := a.history.AppendMessage(ctx, id, chat.RoleAssistant, res.Reply); err != nil {
			return fmt.Errorf("recording reply: %w", err)
		}
		fill(&res, st)
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}
	return res, nil
}

// Refresh regenerates the canvas from the whole conversation.
func (a *Assistant) Refresh(ctx context.Context, id string) (TurnResult, error) {
	var res TurnResult
	err := a.sessions.With(ctx, id, func(st *session.State) error {
		hist, err := a.history.GetHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		p := extract.Extract(hist)
		st.Checklist = checklist.Merge(st.Checklist, p)

		changed, fallback, err := a.generate(ctx, st, p, hist, refreshPrompt, "")
		if err != nil {
			return err
		}
		res = TurnResult{Profile: p, Changed: changed, UsedFallback: fallback, Reply: refreshReply}
		if err := a.history.AppendMessage(ctx, id, chat.RoleAssistant, res.Reply); err != nil {
			return fmt.Errorf("recording reply: %w", err)
		}
		fill(&res, st)
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}
	return res, nil
}

// Undo restores the previous canvas.
func (a *Assistant) Undo(ctx context.Context, id string) (TurnResult, error) {
	return a.mutate(ctx, id, func(st *session.State) (string, error) {
		prev, ok := st.Undo.Pop()
		if !ok {
			return "", ErrNothingToUndo
		}
		st.Canvas = prev
		return undoReply, nil
	})
}

// Clear resets the canvas to the mode's starter document. The cleared
// canvas can be brought back with Undo.
func (a *Assistant) Clear(ctx context.Context, id string) (TurnResult, error) {
	return a.mutate(ctx, id, func(st *session.State) (string, error) {
		st.Replace(st.Mode.DefaultCanvas())
		return "", nil
	})
}

// Edit replaces the canvas with text the user wrote directly.
func (a *Assistant) Edit(ctx context.Context, id, markdown string) (TurnResult, error) {
	return a.mutate(ctx, id, func(st *session.State) (string, error) {
		st.Replace(markdown)
		return "", nil
	})
}

// SetMode switches the session's mode. The canvas and checklist are reset
// for the new mode; chat history is kept.
func (a *Assistant) SetMode(ctx context.Context, id string, m mode.Mode) (TurnResult, error) {
	if !m.Valid() {
		return TurnResult{}, fmt.Errorf("invalid mode %d", int(m))
	}
	return a.mutate(ctx, id, func(st *session.State) (string, error) {
		if !st.SwitchMode(m) {
			return "", nil
		}
		return fmt.Sprintf("Switched to **%s** mode.", m), nil
	})
}

func (a *Assistant) AddSection(ctx context.Context, id, title string) (TurnResult, error) {
	return a.mutate(ctx, id, func(st *session.State) (string, error) {
		return applySectionCommand(st, intent.AddSection, title), nil
	})
}

func (a *Assistant) RemoveSection(ctx context.Context, id, title string) (TurnResult, error) {
	return a.mutate(ctx, id, func(st *session.State) (string, error) {
		return applySectionCommand(st, intent.RemoveSection, title), nil
	})
}

// Reset drops the session's history and stored state.
func (a *Assistant) Reset(ctx context.Context, id string) error {
	if err := a.history.ResetSession(ctx, id); err != nil {
		return fmt.Errorf("resetting history: %w", err)
	}
	if err := a.sessions.Delete(ctx, id); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}

// mutate applies a canvas command. A non-empty reply is recorded in the
// history as an assistant message.
func (a *Assistant) mutate(ctx context.Context, id string, fn func(*session.State) (string, error)) (TurnResult, error) {
	var res TurnResult
	err := a.sessions.With(ctx, id, func(st *session.State) error {
		reply, err := fn(st)
		if err != nil {
			return err
		}
		if reply != "" {
			if err := a.history.AppendMessage(ctx, id, chat.RoleAssistant, reply); err != nil {
				return fmt.Errorf("recording reply: %w", err)
			}
		}
		res.Reply = reply
		fill(&res, st)
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}
	return res, nil
}

func (a *Assistant) generate(ctx context.Context, st *session.State, p extract.Profile, hist []chat.Message, text, target string) ([]string, bool, error) {
	out, err := a.gen.Generate(ctx, Request{
		Input:     text,
		Profile:   p,
		Mode:      st.Mode,
		History:   hist,
		Checklist: st.Checklist,
		Target:    target,
	})
	if err != nil {
		return nil, false, err
	}
	next := canvas.Merge(st.Canvas, out.Markdown)
	changed := canvas.ChangedSections(st.Canvas, next)
	st.Replace(next)
	return changed, out.UsedFallback, nil
}

func applySectionCommand(st *session.State, action intent.Action, title string) string {
	title = strings.TrimSpace(title)
	sections, _ := canvas.Parse(st.Canvas)
	exists := canvas.FindSection(sections, title) >= 0

	switch action {
	case intent.AddSection:
		if exists {
			return fmt.Sprintf("You already have a **%s** section.", title)
		}
		st.Replace(canvas.AddSection(st.Canvas, title, ""))
		return fmt.Sprintf("Added a **%s** section. Tell me what should go in it.", title)
	case intent.RemoveSection:
		if !exists {
			return fmt.Sprintf("There is no **%s** section to remove.", title)
		}
		st.Replace(canvas.RemoveSection(st.Canvas, title))
		return fmt.Sprintf("Removed the **%s** section.", title)
	}
	return ""
}

// turnReply summarises what the turn learned and changed.
func turnReply(p extract.Profile, changed []string, fallback bool, cl checklist.State) string {
	var parts []string
	if p.Title != "" {
		parts = append(parts, "Great! I see you're a "+p.Title)
		if p.Experience.Years != "" {
			parts = append(parts, fmt.Sprintf("with %s years of experience", p.Experience.Years))
		}
	}

	var b strings.Builder
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, " ") + ".")
	} else {
		b.WriteString("Got it!")
	}

	if len(changed) > 0 {
		plural := ""
		if len(changed) > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "\n\nI've updated your **%s** section%s with this information.", strings.Join(changed, ", "), plural)
	} else {
		b.WriteString("\n\nYour canvas already reflects this.")
	}

	if techs := p.Technologies; len(techs) > 0 {
		shown := techs
		if len(shown) > 3 {
			shown = shown[:3]
		}
		more := ""
		if len(techs) > 3 {
			more = fmt.Sprintf(" and %d more", len(techs)-3)
		}
		fmt.Fprintf(&b, " Your tech stack now includes %s%s.", strings.Join(shown, ", "), more)
	}

	if fallback {
		b.WriteString("\n\n" + fallbackNote)
	}
	b.WriteString("\n\n" + cl.Status())
	return b.String()
}

func fill(res *TurnResult, st *session.State) {
	res.SessionID = st.ID
	res.Mode = st.Mode
	res.Canvas = st.Canvas
	res.Checklist = st.Checklist.Clone()
}

func result(st *session.State, p extract.Profile) TurnResult {
	res := TurnResult{Profile: p}
	fill(&res, st)
	return res
}
