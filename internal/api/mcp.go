package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/devfolio/internal/canvas"
	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/mode"
	"github.com/kalambet/devfolio/internal/pipeline"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Assistant *pipeline.Assistant
	Version   string
}

// NewMCPServer creates an MCP server exposing the assistant as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"devfolio",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("devfolio drafts portfolio content (bios, project summaries, learning reflections) from a conversation. Start a session with chat and read the result with get_canvas."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Send a message to a devfolio session. Creates the session if it does not exist and returns the assistant reply and updated canvas."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
			mcp.WithString("message", mcp.Description("What the user says"), mcp.Required()),
		),
		mcpChat(deps),
	)

	s.AddTool(
		mcp.NewTool("get_canvas",
			mcp.WithDescription("Return the current markdown canvas of a session."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
		),
		mcpGetCanvas(deps),
	)

	s.AddTool(
		mcp.NewTool("set_mode",
			mcp.WithDescription("Switch a session to another content mode. The canvas is reset to the mode's template."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
			mcp.WithString("mode", mcp.Description("Content mode"), mcp.Required(),
				mcp.Enum(mode.PersonalBio.Key(), mode.ProjectSummaries.Key(), mode.LearningReflections.Key())),
		),
		mcpSetMode(deps),
	)

	s.AddTool(
		mcp.NewTool("undo",
			mcp.WithDescription("Revert a session's canvas to its previous state."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
		),
		mcpUndo(deps),
	)

	s.AddTool(
		mcp.NewTool("merge_markdown",
			mcp.WithDescription("Merge generated markdown into an existing document section by section."),
			mcp.WithString("current", mcp.Description("Existing markdown document")),
			mcp.WithString("generated", mcp.Description("Markdown to merge in"), mcp.Required()),
		),
		mcpMergeMarkdown(),
	)

	s.AddTool(
		mcp.NewTool("extract_profile",
			mcp.WithDescription("Extract name, title, contact details, technologies, experience and highlights from free text. Returns JSON."),
			mcp.WithString("text", mcp.Description("Text to analyze"), mcp.Required()),
		),
		mcpExtractProfile(),
	)

	s.AddResource(
		mcp.NewResource(
			"devfolio://modes",
			"Content Modes",
			mcp.WithResourceDescription("Available content modes with their starter canvases"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceModes(),
	)

	return s
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		res, err := deps.Assistant.HandleTurn(ctx, id, message)
		if err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		return mcpText(res.Reply + "\n\n---\n\n" + res.Canvas), nil
	}
}

func mcpGetCanvas(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		res, err := deps.Assistant.State(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("get canvas failed: %v", err)), nil
		}
		return mcpText(res.Canvas), nil
	}
}

func mcpSetMode(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		raw, err := req.RequireString("mode")
		if err != nil {
			return mcpError("mode is required"), nil
		}
		m, err := mode.Parse(raw)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		res, err := deps.Assistant.SetMode(ctx, id, m)
		if err != nil {
			return mcpError(fmt.Sprintf("set mode failed: %v", err)), nil
		}
		return mcpText(res.Reply), nil
	}
}

func mcpUndo(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		res, err := deps.Assistant.Undo(ctx, id)
		if errors.Is(err, pipeline.ErrNothingToUndo) {
			return mcpText("Nothing to undo."), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("undo failed: %v", err)), nil
		}
		return mcpText(res.Canvas), nil
	}
}

func mcpMergeMarkdown() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		generated, err := req.RequireString("generated")
		if err != nil {
			return mcpError("generated is required"), nil
		}
		return mcpText(canvas.Merge(req.GetString("current", ""), generated)), nil
	}
}

func mcpExtractProfile() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		b, err := json.Marshal(extract.FromText(text))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceModes() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type modeInfo struct {
			Key    string `json:"key"`
			Name   string `json:"name"`
			Canvas string `json:"canvas"`
		}
		modes := make([]modeInfo, 0, len(mode.All))
		for _, m := range mode.All {
			modes = append(modes, modeInfo{Key: m.Key(), Name: m.String(), Canvas: m.DefaultCanvas()})
		}
		b, err := json.Marshal(modes)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal modes: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
