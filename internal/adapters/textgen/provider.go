// Package textgen selects the configured text-generation backend.
package textgen

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/collegeapi/internal/adapters/textgen/gemini"
	"github.com/okian/collegeapi/internal/adapters/textgen/openai"
	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/pkg/logger"
)

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Settings carries the provider choice and its credentials.
type Settings struct {
	Provider      string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	Timeout       time.Duration
}

// New builds the generator named by s.Provider.
func New(ctx context.Context, s Settings, log logger.Logger) (essay.Generator, error) {
	switch s.Provider {
	case "", ProviderOpenAI:
		return openai.New(s.OpenAIKey,
			openai.WithModel(s.OpenAIModel),
			openai.WithBaseURL(s.OpenAIBaseURL),
			openai.WithTimeout(s.Timeout),
			openai.WithLogger(log),
		), nil
	case ProviderGemini:
		g, err := gemini.New(ctx, s.GeminiKey,
			gemini.WithModel(s.GeminiModel),
			gemini.WithTimeout(s.Timeout),
			gemini.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown text generation provider: %s", s.Provider)
	}
}
