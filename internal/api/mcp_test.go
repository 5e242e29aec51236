package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/mode"
)

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want mcp.TextContent", result.Content[0])
	}
	return tc.Text
}

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	a, _ := newTestAssistant(t, &stubLLM{reply: "## Skills\n- Go\n- Kubernetes\n- PostgreSQL\n"})
	return MCPDeps{Assistant: a}
}

func TestNewMCPServer(t *testing.T) {
	if s := NewMCPServer(newTestMCPDeps(t)); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPChat(t *testing.T) {
	deps := newTestMCPDeps(t)
	ctx := context.Background()

	result, err := mcpChat(deps)(ctx, makeCallToolRequest("chat", map[string]any{
		"session_id": "mcp-1",
		"message":    "I'm a senior backend engineer and I use Python, Docker and AWS",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	text := toolText(t, result)
	if !strings.Contains(text, "- Kubernetes") {
		t.Errorf("result missing canvas content:\n%s", text)
	}

	canvasResult, err := mcpGetCanvas(deps)(ctx, makeCallToolRequest("get_canvas", map[string]any{"session_id": "mcp-1"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := toolText(t, canvasResult); !strings.Contains(got, "## Skills") || !strings.Contains(got, "- Go") {
		t.Errorf("canvas = %q", got)
	}
}

func TestMCPChat_MissingArguments(t *testing.T) {
	deps := newTestMCPDeps(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no session", map[string]any{"message": "hi"}},
		{"no message", map[string]any{"session_id": "s"}},
		{"blank message", map[string]any{"session_id": "s", "message": "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := mcpChat(deps)(context.Background(), makeCallToolRequest("chat", tt.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected tool error, got %q", toolText(t, result))
			}
		})
	}
}

func TestMCPGetCanvas_UnknownSession(t *testing.T) {
	deps := newTestMCPDeps(t)

	result, err := mcpGetCanvas(deps)(context.Background(), makeCallToolRequest("get_canvas", map[string]any{"session_id": "nope"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for unknown session")
	}
}

func TestMCPSetModeAndUndo(t *testing.T) {
	deps := newTestMCPDeps(t)
	ctx := context.Background()

	result, _ := mcpUndo(deps)(ctx, makeCallToolRequest("undo", map[string]any{"session_id": "m"}))
	if result.IsError || toolText(t, result) != "Nothing to undo." {
		t.Errorf("undo on new session = %q", toolText(t, result))
	}

	result, _ = mcpSetMode(deps)(ctx, makeCallToolRequest("set_mode", map[string]any{"session_id": "m", "mode": "project_summaries"}))
	if result.IsError {
		t.Fatalf("set_mode error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != "Switched to **Project Summaries** mode." {
		t.Errorf("reply = %q", got)
	}

	result, _ = mcpUndo(deps)(ctx, makeCallToolRequest("undo", map[string]any{"session_id": "m"}))
	if got := toolText(t, result); got != mode.PersonalBio.DefaultCanvas() {
		t.Errorf("canvas after undo = %q", got)
	}

	result, _ = mcpSetMode(deps)(ctx, makeCallToolRequest("set_mode", map[string]any{"session_id": "m", "mode": "sonnets"}))
	if !result.IsError {
		t.Error("expected error for unknown mode")
	}
}

func TestMCPMergeMarkdown(t *testing.T) {
	result, err := mcpMergeMarkdown()(context.Background(), makeCallToolRequest("merge_markdown", map[string]any{
		"current":   "# Me\n\n## Skills\n- Old\n\n## Contact\nme@example.com\n",
		"generated": "## Skills\n- New\n",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	got := toolText(t, result)
	if !strings.Contains(got, "- New") || strings.Contains(got, "- Old") {
		t.Errorf("skills not replaced:\n%s", got)
	}
	if !strings.Contains(got, "## Contact") {
		t.Errorf("untouched section lost:\n%s", got)
	}

	result, _ = mcpMergeMarkdown()(context.Background(), makeCallToolRequest("merge_markdown", map[string]any{}))
	if !result.IsError {
		t.Error("expected error without generated")
	}
}

func TestMCPExtractProfile(t *testing.T) {
	result, err := mcpExtractProfile()(context.Background(), makeCallToolRequest("extract_profile", map[string]any{
		"text": "I have 6 years of experience with Python and Docker. Reach me at dev@example.com",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var p extract.Profile
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if p.Experience.Years != "6" {
		t.Errorf("years = %q, want 6", p.Experience.Years)
	}
	if p.Contact["email"] != "dev@example.com" {
		t.Errorf("email = %q", p.Contact["email"])
	}
}

func TestMCPResourceModes(t *testing.T) {
	var req mcp.ReadResourceRequest
	req.Params.URI = "devfolio://modes"

	contents, err := mcpResourceModes()(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T", contents[0])
	}
	var modes []map[string]string
	if err := json.Unmarshal([]byte(tc.Text), &modes); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(modes) != 3 || modes[0]["key"] != "personal_bio" {
		t.Errorf("modes = %v", modes)
	}
}
