package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Log        LogConfig
	LLM        LLMConfig
	Chat       ChatConfig
	Generation GenerationConfig
	Canvas     CanvasConfig
	Ingest     IngestConfig
}

type ServerConfig struct {
	Port int `validate:"min=1,max=65535"`
	// Token is the optional bearer token required by the HTTP API.
	Token string
}

type StorageConfig struct {
	DataDir string `validate:"required"`
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

type LLMConfig struct {
	Provider         string  `validate:"oneof=gemini openrouter ollama"`
	Model            string  // empty selects the provider default
	BaseURL          string  `validate:"omitempty,url"`
	Temperature      float64 `validate:"min=0,max=2"`
	Timeout          string
	GeminiAPIKey     string
	OpenRouterAPIKey string
}

type ChatConfig struct {
	HistoryLimit     int `validate:"min=1"`
	MaxHistoryTokens int `validate:"min=100"`
}

type GenerationConfig struct {
	MinLength int `validate:"min=1"`
	// PromptsFile optionally replaces the built-in prompt templates.
	PromptsFile string
}

type CanvasConfig struct {
	UndoDepth int `validate:"min=1,max=100"`
}

type IngestConfig struct {
	PollInterval string
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 4100},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
		LLM: LLMConfig{
			Provider:    "gemini",
			Temperature: 0.7,
			Timeout:     "60s",
		},
		Chat:       ChatConfig{HistoryLimit: 15, MaxHistoryTokens: 4000},
		Generation: GenerationConfig{MinLength: 20},
		Canvas:     CanvasConfig{UndoDepth: 10},
		Ingest:     IngestConfig{PollInterval: "500ms"},
	}
}

// Load reads configuration from the TOML file at FilePath, then applies
// DEVFOLIO_* environment overrides. API keys come from the environment
// only. A missing key is not an error: the assistant then runs with the
// offline fallback generator.
func Load() (Config, error) {
	return loadWith(newFileBackend(FilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and that durations parse.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for key, v := range map[string]string{"llm.timeout": c.LLM.Timeout, "ingest.poll_interval": c.Ingest.PollInterval} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid config: %s: %w", key, err)
		}
	}
	return nil
}

// APIKey returns the key for the configured provider. Ollama has none.
func (c LLMConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openrouter":
		return c.OpenRouterAPIKey
	case "ollama":
		return ""
	}
	return c.GeminiAPIKey
}

// TimeoutDuration returns the LLM call timeout. Validate guarantees it parses.
func (c LLMConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c IngestConfig) PollDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// FilePath is the config file location: $DEVFOLIO_CONFIG if set, otherwise
// $XDG_CONFIG_HOME/devfolio/config.toml.
func FilePath() string {
	if p := os.Getenv("DEVFOLIO_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "devfolio", "config.toml")
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "devfolio-data"
		}
	}
	return filepath.Join(dir, "devfolio")
}
