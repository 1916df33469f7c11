// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"slices"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Text generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`
	// MaxUploadBytes bounds resume uploads.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	ScorecardAPIKey    string `koanf:"scorecard_api_key"`
	ScorecardBaseURL   string `koanf:"scorecard_base_url"`
	ScorecardTimeoutMS int    `koanf:"scorecard_timeout_ms"`

	SupabaseURL   string `koanf:"supabase_url"`
	SupabaseKey   string `koanf:"supabase_key"`
	AuthTimeoutMS int    `koanf:"auth_timeout_ms"`

	// LLMProvider picks the text generator: openai or gemini.
	LLMProvider   string `koanf:"llm_provider"`
	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIModel   string `koanf:"openai_model"`
	OpenAIBaseURL string `koanf:"openai_base_url"`
	GeminiAPIKey  string `koanf:"gemini_api_key"`
	GeminiModel   string `koanf:"gemini_model"`
	LLMTimeoutMS  int    `koanf:"llm_timeout_ms"`

	// StoreDriver picks the saved-college store: memory or postgres.
	StoreDriver string `koanf:"store_driver"`
	DatabaseURL string `koanf:"database_url"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":5000",
		CORSOrigins:        []string{"*"},
		MaxUploadBytes:     10 << 20,
		ScorecardTimeoutMS: 15_000,
		AuthTimeoutMS:      10_000,
		LLMProvider:        ProviderOpenAI,
		OpenAIModel:        "gpt-4o-mini",
		LLMTimeoutMS:       60_000,
		StoreDriver:        StoreMemory,
	}
}

// Validate checks structural settings. Missing upstream credentials are not
// an error here; the operations that need them report it per request.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{StoreMemory, StorePostgres}, c.StoreDriver):
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case !slices.Contains([]string{ProviderOpenAI, ProviderGemini}, c.LLMProvider):
		return fmt.Errorf("%w: unknown llm_provider %q", ErrInvalidConfig, c.LLMProvider)
	case c.StoreDriver == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: store_driver postgres requires database_url", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}

// ScorecardTimeout bounds each statistics provider call.
func (c *Config) ScorecardTimeout() time.Duration { return ms(c.ScorecardTimeoutMS) }

// AuthTimeout bounds each token verification call.
func (c *Config) AuthTimeout() time.Duration { return ms(c.AuthTimeoutMS) }

// LLMTimeout bounds each text generation call.
func (c *Config) LLMTimeout() time.Duration { return ms(c.LLMTimeoutMS) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
