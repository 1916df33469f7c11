// Package gemini generates text with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
	"github.com/okian/collegeapi/pkg/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const serviceName = "gemini"

// Generator implements essay.Generator. A Generator without an API key
// reports a configuration failure on every call.
type Generator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	baseURL string
	log     logger.Logger
}

var _ essay.Generator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the model name.
func WithModel(m string) Option {
	return func(g *Generator) {
		if m != "" {
			g.model = m
		}
	}
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(g *Generator) {
		g.baseURL = u
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// New builds a Generator for apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	g := &Generator{model: DefaultModel, timeout: 60 * time.Second, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	if apiKey == "" {
		return g, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: g.timeout},
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.client = client
	return g, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Generate runs one GenerateContent call and returns the response text.
func (g *Generator) Generate(ctx context.Context, p essay.Prompt) (string, error) {
	const op = "gemini.generate"
	if g.client == nil {
		return "", failure.New(op, failure.ErrConfiguration, "Missing GEMINI_API_KEY in backend env.")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.Temperature),
	}
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	latency := float64(time.Since(start).Milliseconds())
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		metrics.RecordUpstreamCall(serviceName, metrics.OutcomeError, latency)
		g.log.Warn(ctx, "gemini generation failed", logger.String("model", g.model), logger.Error(err))
		return "", failure.Wrap(op, failure.ErrUpstream, fmt.Errorf("GenAI generate failed: %w", err))
	}
	metrics.RecordUpstreamCall(serviceName, metrics.OutcomeSuccess, latency)
	return resp.Text(), nil
}
