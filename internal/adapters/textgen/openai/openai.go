// Package openai generates text through an OpenAI-compatible chat completions
// endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
	"github.com/okian/collegeapi/pkg/metrics"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	serviceName = "openai"
	maxBody     = 4 << 20
)

// Generator implements essay.Generator.
type Generator struct {
	httpc   *http.Client
	baseURL string
	apiKey  string
	model   string
	log     logger.Logger
}

var _ essay.Generator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithBaseURL points the client at another compatible endpoint.
func WithBaseURL(u string) Option {
	return func(g *Generator) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel sets the chat model.
func WithModel(m string) Option {
	return func(g *Generator) {
		if m != "" {
			g.model = m
		}
	}
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.httpc.Timeout = d
		}
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

// New builds a Generator. An empty apiKey is reported by Generate.
func New(apiKey string, opts ...Option) *Generator {
	g := &Generator{
		httpc:   &http.Client{Timeout: 60 * time.Second},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends one chat completion and returns the first choice's content.
func (g *Generator) Generate(ctx context.Context, p essay.Prompt) (string, error) {
	const op = "openai.generate"
	if g.apiKey == "" {
		return "", failure.New(op, failure.ErrConfiguration, "Missing OPENAI_API_KEY in backend env.")
	}

	body := chatRequest{
		Model:       g.model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
	if p.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: p.System})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: p.User})
	if p.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	start := time.Now()
	out, err := g.complete(ctx, body)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamCall(serviceName, metrics.OutcomeError, latency)
		g.log.Warn(ctx, "chat completion failed", logger.String("model", g.model), logger.Error(err))
		return "", failure.Wrap(op, failure.ErrUpstream, err)
	}
	metrics.RecordUpstreamCall(serviceName, metrics.OutcomeSuccess, latency)
	return out, nil
}

func (g *Generator) complete(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai chat %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("openai chat: bad JSON: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}
	if c := cr.Choices[0].Message.Content; c != nil {
		return *c, nil
	}
	return "", nil
}
