package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/devfolio/internal/chat"
	"github.com/kalambet/devfolio/internal/checklist"
	"github.com/kalambet/devfolio/internal/composer"
	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/llm"
	"github.com/kalambet/devfolio/internal/mode"
)

const (
	// DefaultMinLength is the shortest trimmed reply accepted from the LLM.
	DefaultMinLength = 20
	// DefaultTimeout bounds a single LLM call.
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrNoCollaborator means no LLM is configured and only the fallback
	// generator is available.
	ErrNoCollaborator = errors.New("no llm collaborator configured")
	// ErrShortOutput means the LLM replied with less than the minimum length.
	ErrShortOutput = errors.New("llm output too short")
)

// Request is one generation call.
type Request struct {
	Input     string
	Profile   extract.Profile
	Mode      mode.Mode
	History   []chat.Message
	Checklist checklist.State
	// Target is the section a change request points at, if known.
	Target string
}

// Result is the generated markdown. When UsedFallback is set, Err holds the
// reason the LLM output was not used.
type Result struct {
	Markdown     string
	UsedFallback bool
	Err          error
}

// Generator asks the LLM for canvas content and falls back to a
// deterministic document when the call fails or returns too little.
type Generator struct {
	llm       llm.Collaborator
	composer  *composer.Composer
	minLength int
	timeout   time.Duration
}

// NewGenerator creates a Generator. collab may be nil, in which case every
// call uses the fallback. Non-positive minLength and timeout select the
// defaults.
func NewGenerator(collab llm.Collaborator, comp *composer.Composer, minLength int, timeout time.Duration) *Generator {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{llm: collab, composer: comp, minLength: minLength, timeout: timeout}
}

// Generate returns markdown for req. The only returned error is a prompt
// template failure; problems with the LLM itself are absorbed by the
// fallback and reported through Result.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	prompt, err := g.composer.Compose(composer.Input{
		Mode:      req.Mode,
		Profile:   req.Profile,
		Checklist: req.Checklist,
		Target:    req.Target,
		History:   req.History,
		Text:      req.Input,
	})
	if err != nil {
		return Result{}, fmt.Errorf("composing prompt: %w", err)
	}

	if g.llm == nil {
		return g.fallback(req, ErrNoCollaborator), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.llm.Invoke(callCtx, prompt.System, prompt.History, prompt.User)
	if err != nil {
		slog.Warn("generation failed, using fallback", "mode", req.Mode.Key(), "error", err)
		return g.fallback(req, err), nil
	}
	if len(strings.TrimSpace(text)) < g.minLength {
		slog.Warn("generation too short, using fallback", "mode", req.Mode.Key(), "length", len(strings.TrimSpace(text)))
		return g.fallback(req, ErrShortOutput), nil
	}

	slog.Debug("generation complete",
		"mode", req.Mode.Key(),
		"history", len(prompt.History),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{Markdown: text}, nil
}

func (g *Generator) fallback(req Request, cause error) Result {
	return Result{
		Markdown:     Fallback(req.Profile, req.Mode, req.Input),
		UsedFallback: true,
		Err:          cause,
	}
}
