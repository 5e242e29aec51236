package llm

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	reply    string
	err      error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestGemini_Invoke(t *testing.T) {
	fake := &fakeModels{reply: "```markdown\n## Skills\n- Go\n```"}
	g := newGemini(fake, "", 0.7)

	out, err := g.Invoke(context.Background(), "system text", []Message{
		{Role: "user", Content: "I use Go"},
		{Role: "assistant", Content: "noted"},
		{Role: "system", Content: "extra rule"},
	}, "update skills")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "## Skills\n- Go" {
		t.Errorf("output = %q", out)
	}
	if fake.model != defaultGeminiModel {
		t.Errorf("model = %q, want %q", fake.model, defaultGeminiModel)
	}

	wantRoles := []string{"user", "model", "user"}
	if len(fake.contents) != len(wantRoles) {
		t.Fatalf("contents = %d, want %d", len(fake.contents), len(wantRoles))
	}
	for i, c := range fake.contents {
		if c.Role != wantRoles[i] {
			t.Errorf("contents[%d].Role = %q, want %q", i, c.Role, wantRoles[i])
		}
	}
	if got := fake.contents[2].Parts[0].Text; got != "update skills" {
		t.Errorf("last content = %q", got)
	}

	si := fake.config.SystemInstruction
	if si == nil || len(si.Parts) != 2 || si.Parts[0].Text != "system text" || si.Parts[1].Text != "extra rule" {
		t.Errorf("system instruction = %+v", si)
	}
	if fake.config.Temperature == nil || *fake.config.Temperature != float32(0.7) {
		t.Errorf("temperature = %v", fake.config.Temperature)
	}
}

func TestGemini_Error(t *testing.T) {
	fake := &fakeModels{err: errors.New("quota")}
	g := newGemini(fake, "gemini-test", 0)

	_, err := g.Invoke(context.Background(), "", nil, "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.config.SystemInstruction != nil {
		t.Error("empty system prompt should not set a system instruction")
	}
	if fake.model != "gemini-test" {
		t.Errorf("model = %q", fake.model)
	}
}
