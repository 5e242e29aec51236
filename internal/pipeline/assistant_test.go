package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/devfolio/internal/chat"
	"github.com/kalambet/devfolio/internal/intent"
	"github.com/kalambet/devfolio/internal/mode"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
)

func newTestAssistant(t *testing.T, collab *fakeLLM) (*Assistant, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	var gen *Generator
	if collab == nil {
		gen = NewGenerator(nil, testComposer(t), 0, 0)
	} else {
		gen = NewGenerator(collab, testComposer(t), 0, 0)
	}
	return NewAssistant(store, session.NewManager(store, 0), gen), store
}

func TestHandleTurn_ProvideInfo(t *testing.T) {
	fake := &fakeLLM{reply: "## Skills\n- Python\n- AWS\n- Docker\n"}
	a, store := newTestAssistant(t, fake)
	ctx := context.Background()

	res, err := a.HandleTurn(ctx, "s1", "I'm a senior backend engineer and I use Python, Docker and AWS")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if res.Intent != intent.ProvideInfo {
		t.Errorf("Intent = %v, want provide-info", res.Intent)
	}
	if res.UsedFallback {
		t.Error("unexpected fallback")
	}
	if !strings.Contains(res.Canvas, "## Skills\n- Python\n- AWS\n- Docker") {
		t.Errorf("canvas not merged:\n%s", res.Canvas)
	}
	if !strings.HasPrefix(res.Canvas, "# Professional Profile") {
		t.Errorf("canvas lost its header:\n%s", res.Canvas)
	}
	if len(res.Changed) != 1 || res.Changed[0] != "Skills" {
		t.Errorf("Changed = %v, want [Skills]", res.Changed)
	}
	for _, want := range []string{
		"Great! I see you're a Senior Backend Engineer.",
		"I've updated your **Skills** section with this information.",
		"Your tech stack now includes Python, AWS, Docker.",
		"**Information Gathered:**",
		"Role: Senior Backend Engineer",
	} {
		if !strings.Contains(res.Reply, want) {
			t.Errorf("reply missing %q:\n%s", want, res.Reply)
		}
	}

	h, _ := store.GetHistory(ctx, "s1")
	if len(h) != 2 || h[0].Role != chat.RoleUser || h[1].Role != chat.RoleAssistant {
		t.Fatalf("history = %+v", h)
	}
	if h[1].Content != res.Reply {
		t.Error("stored reply differs from returned reply")
	}
}

func TestHandleTurn_Discuss(t *testing.T) {
	fake := &fakeLLM{reply: "## Skills\n- should not be used\n"}
	a, _ := newTestAssistant(t, fake)

	res, err := a.HandleTurn(context.Background(), "s1", "hello there")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Intent != intent.Discuss {
		t.Errorf("Intent = %v, want discuss", res.Intent)
	}
	if res.Reply != discussReply {
		t.Errorf("Reply = %q", res.Reply)
	}
	if res.Canvas != mode.PersonalBio.DefaultCanvas() {
		t.Error("discuss turn changed the canvas")
	}
	if fake.calls != 0 {
		t.Errorf("LLM calls = %d, want 0", fake.calls)
	}
}

func TestHandleTurn_FallbackWhenLLMFails(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeLLM{err: errors.New("down")})

	res, err := a.HandleTurn(context.Background(), "s1", "I use Python, Docker and AWS")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !res.UsedFallback {
		t.Fatal("expected fallback")
	}
	if !strings.Contains(res.Reply, fallbackNote) {
		t.Errorf("reply should mention the fallback:\n%s", res.Reply)
	}
	if !strings.Contains(res.Canvas, "- Python") {
		t.Errorf("fallback content not merged:\n%s", res.Canvas)
	}
}

func TestHandleTurn_EmptyMessage(t *testing.T) {
	a, store := newTestAssistant(t, nil)

	if _, err := a.HandleTurn(context.Background(), "s1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
	if h, _ := store.GetHistory(context.Background(), "s1"); len(h) != 0 {
		t.Errorf("history = %v, want empty", h)
	}
}

func TestHandleTurn_SectionCommands(t *testing.T) {
	fake := &fakeLLM{reply: strings.Repeat("x", 40)}
	a, _ := newTestAssistant(t, fake)
	ctx := context.Background()

	res, err := a.HandleTurn(ctx, "s1", "add section Open Source")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Intent != intent.RequestChange {
		t.Errorf("Intent = %v", res.Intent)
	}
	if !strings.Contains(res.Canvas, "## Open Source") {
		t.Errorf("section not added:\n%s", res.Canvas)
	}

	res, err = a.HandleTurn(ctx, "s1", "remove the skills section")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if strings.Contains(res.Canvas, "## Skills") {
		t.Errorf("Skills section not removed:\n%s", res.Canvas)
	}
	if res.Reply != "Removed the **Skills** section." {
		t.Errorf("Reply = %q", res.Reply)
	}

	res, err = a.HandleTurn(ctx, "s1", "remove the skills section")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Reply != "There is no **Skills** section to remove." {
		t.Errorf("Reply = %q", res.Reply)
	}
	if fake.calls != 0 {
		t.Errorf("section commands should bypass generation, got %d calls", fake.calls)
	}
}

func TestHandleTurn_EditInsideSectionRegenerates(t *testing.T) {
	for _, msg := range []string{
		"Add Python to my skills section",
		"Remove Java from the skills section",
	} {
		t.Run(msg, func(t *testing.T) {
			fake := &fakeLLM{reply: "## Skills\n- Python\n- Go\n"}
			a, _ := newTestAssistant(t, fake)

			res, err := a.HandleTurn(context.Background(), "s1", msg)
			if err != nil {
				t.Fatalf("HandleTurn: %v", err)
			}
			if res.Intent != intent.RequestChange {
				t.Errorf("Intent = %v, want request-change", res.Intent)
			}
			if fake.calls != 1 {
				t.Errorf("generation calls = %d, want 1", fake.calls)
			}
			if !strings.Contains(res.Canvas, "- Python\n- Go") {
				t.Errorf("generated skills not merged:\n%s", res.Canvas)
			}
			for _, junk := range []string{"## Python to my skills", "## Java from the skills"} {
				if strings.Contains(res.Canvas, junk) {
					t.Errorf("canvas gained section %q:\n%s", junk, res.Canvas)
				}
			}
		})
	}
}

func TestUndoAndClear(t *testing.T) {
	a, store := newTestAssistant(t, &fakeLLM{reply: "## Skills\n- Rust\n- Kubernetes\n"})
	ctx := context.Background()

	if _, err := a.Undo(ctx, "s1"); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo on fresh session err = %v, want ErrNothingToUndo", err)
	}

	before := mode.PersonalBio.DefaultCanvas()
	if _, err := a.HandleTurn(ctx, "s1", "I use Rust, Kubernetes"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	cleared, err := a.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared.Canvas != before {
		t.Errorf("Clear canvas = %q", cleared.Canvas)
	}

	undone, err := a.Undo(ctx, "s1")
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !strings.Contains(undone.Canvas, "- Rust") {
		t.Errorf("Undo did not restore the generated canvas:\n%s", undone.Canvas)
	}
	undone, err = a.Undo(ctx, "s1")
	if err != nil {
		t.Fatalf("second Undo: %v", err)
	}
	if undone.Canvas != before {
		t.Errorf("second Undo canvas = %q, want default", undone.Canvas)
	}

	h, _ := store.GetHistory(ctx, "s1")
	if last := h[len(h)-1]; last.Role != chat.RoleAssistant || last.Content != undoReply {
		t.Errorf("last message = %+v", last)
	}
}

func TestEditAndRefresh(t *testing.T) {
	fake := &fakeLLM{reply: "## About Me\nI build reliable backend systems.\n"}
	a, _ := newTestAssistant(t, fake)
	ctx := context.Background()

	res, err := a.Edit(ctx, "s1", "# Me\n\n## About Me\ndraft\n")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.Canvas != "# Me\n\n## About Me\ndraft\n" {
		t.Errorf("Edit canvas = %q", res.Canvas)
	}

	res, err = a.Refresh(ctx, "s1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !strings.Contains(res.Canvas, "I build reliable backend systems.") {
		t.Errorf("Refresh did not merge:\n%s", res.Canvas)
	}
	if res.Reply != refreshReply {
		t.Errorf("Reply = %q", res.Reply)
	}
	if fake.user == "" || !strings.Contains(fake.user, refreshPrompt) {
		t.Errorf("refresh prompt not sent: %q", fake.user)
	}
}

func TestSetMode(t *testing.T) {
	a, store := newTestAssistant(t, nil)
	ctx := context.Background()

	if _, err := a.HandleTurn(ctx, "s1", "I'm a senior backend engineer, I use Python, Docker"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	res, err := a.SetMode(ctx, "s1", mode.ProjectSummaries)
	if err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if res.Mode != mode.ProjectSummaries {
		t.Errorf("Mode = %v", res.Mode)
	}
	if res.Canvas != mode.ProjectSummaries.DefaultCanvas() {
		t.Error("canvas not reset to the new mode's default")
	}
	if len(res.Checklist.Filled()) != 0 {
		t.Errorf("checklist not reset: %v", res.Checklist.Filled())
	}

	h, _ := store.GetHistory(ctx, "s1")
	if len(h) != 3 {
		t.Errorf("history len = %d, want 3 (chat kept, switch noted)", len(h))
	}

	if _, err := a.SetMode(ctx, "s1", mode.Mode(9)); err == nil {
		t.Error("expected error for invalid mode")
	}
}

func TestReset(t *testing.T) {
	a, store := newTestAssistant(t, nil)
	ctx := context.Background()

	st, err := a.NewSession(ctx, mode.LearningReflections)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, err := a.HandleTurn(ctx, st.ID, "I learned Rust, Kotlin"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if err := a.Reset(ctx, st.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if h, _ := store.GetHistory(ctx, st.ID); len(h) != 0 {
		t.Errorf("history after reset = %v", h)
	}
	if _, err := a.State(ctx, st.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("State after reset err = %v, want ErrNotFound", err)
	}
	if err := a.Reset(ctx, "never-existed"); err != nil {
		t.Errorf("Reset of unknown session: %v", err)
	}
}

func TestStateAndProfile(t *testing.T) {
	a, _ := newTestAssistant(t, nil)
	ctx := context.Background()

	if _, err := a.HandleTurn(ctx, "s1", "I use Python, AWS"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	res, err := a.State(ctx, "s1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if res.SessionID != "s1" || res.Mode != mode.PersonalBio {
		t.Errorf("State = %+v", res)
	}
	if got := res.Profile.Technologies; len(got) != 2 || got[0] != "Python" || got[1] != "AWS" {
		t.Errorf("Technologies = %v", got)
	}
}
