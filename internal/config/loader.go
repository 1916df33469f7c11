package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "COLLEGEAPI_"
	envConfigPath = "COLLEGEAPI_CONFIG"
)

// legacyEnv lists the variable names used by earlier deployments, in lookup
// order. They only fill settings the file and prefixed env left unset.
var legacyEnv = []struct {
	key   string
	names []string
	field func(*Config) *string
}{
	{"scorecard_api_key", []string{"COLLEGE_SCORECARD_API_KEY"}, func(c *Config) *string { return &c.ScorecardAPIKey }},
	{"scorecard_base_url", []string{"COLLEGE_SCORECARD_BASE_URL"}, func(c *Config) *string { return &c.ScorecardBaseURL }},
	{"supabase_url", []string{"SUPABASE_URL", "EXPO_PUBLIC_SUPABASE_URL"}, func(c *Config) *string { return &c.SupabaseURL }},
	{"supabase_key", []string{"SUPABASE_KEY", "EXPO_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"}, func(c *Config) *string { return &c.SupabaseKey }},
	{"openai_api_key", []string{"OPENAI_API_KEY"}, func(c *Config) *string { return &c.OpenAIAPIKey }},
	{"openai_model", []string{"OPENAI_MODEL"}, func(c *Config) *string { return &c.OpenAIModel }},
	{"gemini_api_key", []string{"GEMINI_API_KEY"}, func(c *Config) *string { return &c.GeminiAPIKey }},
	{"database_url", []string{"DATABASE_URL"}, func(c *Config) *string { return &c.DatabaseURL }},
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COLLEGEAPI_CONFIG is set
//  3. env (prefix COLLEGEAPI_)
//  4. legacy env names, only for settings not set by 2 or 3
func Load(_ context.Context) (*Config, error) {
	cfg := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// COLLEGEAPI_OPENAI_MODEL -> openai_model. Underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	k.Delete("config")

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	applyLegacyEnv(k, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyLegacyEnv(k *koanf.Koanf, cfg *Config) {
	for _, l := range legacyEnv {
		if k.String(l.key) != "" {
			continue
		}
		dst := l.field(cfg)
		for _, name := range l.names {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				*dst = v
				break
			}
		}
	}
}
