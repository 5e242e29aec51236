// Package prompts loads the prompt templates used for canvas generation.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/kalambet/devfolio/internal/mode"
)

//go:embed templates.toml
var embedded []byte

var (
	// ErrUnknownTemplate is returned for a key with no template.
	ErrUnknownTemplate = errors.New("unknown prompt template")
	// ErrMissingParameter is returned when Render is not given a declared
	// parameter.
	ErrMissingParameter = errors.New("missing prompt parameter")
)

// GlobalKey names the template whose system prompt prefixes every call.
const GlobalKey = "global"

// DefaultGenerationKey is used when a mode has no template of its own.
const DefaultGenerationKey = "default_generation"

// Template is one entry of the template file.
type Template struct {
	SystemPrompt       string            `toml:"system_prompt"`
	UserPromptTemplate string            `toml:"user_prompt_template"`
	Parameters         map[string]string `toml:"parameters"`
}

// Store is an immutable set of templates keyed by name.
type Store struct {
	templates map[string]Template
}

// Parse decodes a TOML template file.
func Parse(data []byte) (*Store, error) {
	var raw map[string]Template
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("decoding prompt templates: %w", err)
	}
	s := &Store{templates: make(map[string]Template, len(raw))}
	for key, t := range raw {
		t.SystemPrompt = strings.TrimSpace(t.SystemPrompt)
		t.UserPromptTemplate = strings.TrimSpace(t.UserPromptTemplate)
		s.templates[key] = t
	}
	return s, nil
}

var loadDefault = sync.OnceValues(func() (*Store, error) {
	return Parse(embedded)
})

// Default returns the built-in templates. They are parsed on first use and
// cached for the life of the process.
func Default() (*Store, error) {
	return loadDefault()
}

// Keys lists template names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.templates))
	for k := range s.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the template stored under key.
func (s *Store) Get(key string) (Template, error) {
	t, ok := s.templates[key]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	return t, nil
}

// Render fills the template's placeholders. Both prompts are rendered with
// the same parameters. Parameters not declared by the template are ignored.
func (s *Store) Render(key string, params map[string]string) (system, user string, err error) {
	t, err := s.Get(key)
	if err != nil {
		return "", "", err
	}

	names := make([]string, 0, len(t.Parameters))
	for name := range t.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		v, ok := params[name]
		if !ok {
			return "", "", fmt.Errorf("%w: %q for template %q", ErrMissingParameter, name, key)
		}
		pairs = append(pairs, "{"+name+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(t.SystemPrompt), r.Replace(t.UserPromptTemplate), nil
}

// GenerationKey returns the template key for m, falling back to the
// default generation template when the store has none for the mode.
func (s *Store) GenerationKey(m mode.Mode) string {
	key := m.Key() + "_generation"
	if _, ok := s.templates[key]; ok {
		return key
	}
	return DefaultGenerationKey
}
