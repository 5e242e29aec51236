// Package llm wraps the language models that write canvas content: hosted
// Gemini and OpenRouter, or a local Ollama server.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Message is one turn of prior conversation sent along with a request.
// Role is "user", "assistant" or "system".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Collaborator produces text from a system prompt, recent history and the
// current user prompt. Callers treat every error as opaque.
type Collaborator interface {
	Invoke(ctx context.Context, systemPrompt string, history []Message, userInput string) (string, error)
}

// ErrNoAPIKey is returned by New when a hosted provider has no key.
var ErrNoAPIKey = errors.New("no API key configured")

// Options selects and configures a provider.
type Options struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	BaseURL     string
}

// New returns the collaborator for opts.Provider ("gemini" by default).
func New(ctx context.Context, opts Options) (Collaborator, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}
	if opts.APIKey == "" && provider != "ollama" {
		return nil, fmt.Errorf("%s: %w", provider, ErrNoAPIKey)
	}

	switch provider {
	case "ollama":
		return NewOllama(opts.BaseURL, opts.Model, opts.Temperature), nil
	case "gemini":
		return NewGemini(ctx, opts.APIKey, opts.Model, opts.Temperature)
	case "openrouter":
		c := NewOpenRouter(opts.APIKey, opts.Model, opts.Temperature)
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", opts.Provider)
	}
}

// cleanMarkdownOutput strips a code fence wrapped around the whole reply.
func cleanMarkdownOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```markdown") {
		text = strings.TrimPrefix(text, "```markdown")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```md") {
		text = strings.TrimPrefix(text, "```md")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
