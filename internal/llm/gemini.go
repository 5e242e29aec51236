package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	models      contentGenerator
	model       string
	temperature float32
}

// NewGemini creates a Gemini collaborator. An empty model selects
// gemini-2.0-flash.
func NewGemini(ctx context.Context, apiKey, model string, temperature float64) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGemini(client.Models, model, temperature), nil
}

func newGemini(models contentGenerator, model string, temperature float64) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{models: models, model: model, temperature: float32(temperature)}
}

// Invoke sends history followed by userInput. System-role history entries
// are folded into the system instruction since Gemini has no such role.
func (g *Gemini) Invoke(ctx context.Context, systemPrompt string, history []Message, userInput string) (string, error) {
	var parts []*genai.Part
	if systemPrompt != "" {
		parts = append(parts, genai.NewPartFromText(systemPrompt))
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		switch m.Role {
		case "system":
			parts = append(parts, genai.NewPartFromText(m.Content))
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	contents = append(contents, genai.NewContentFromText(userInput, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if len(parts) > 0 {
		cfg.SystemInstruction = genai.NewContentFromParts(parts, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return cleanMarkdownOutput(resp.Text()), nil
}
