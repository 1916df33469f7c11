// Package identity resolves bearer tokens to user ids through the Supabase
// auth endpoint.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
	"github.com/okian/collegeapi/pkg/metrics"
)

const (
	bearerPrefix = "Bearer "
	maxBody      = 64 << 10
	serviceName  = "supabase_auth"
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", failure.New("identity.bearer", failure.ErrAuthentication, "No token provided")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", failure.New("identity.bearer", failure.ErrAuthentication, "No token provided")
	}
	return token, nil
}

// Supabase verifies tokens against {url}/auth/v1/user.
type Supabase struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        logger.Logger
}

// Option configures a Supabase verifier.
type Option func(*Supabase)

// WithTimeout bounds each verification call.
func WithTimeout(d time.Duration) Option {
	return func(s *Supabase) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Supabase) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithLogger sets the verifier logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Supabase) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSupabase builds a verifier. Missing url or key is reported per call.
func NewSupabase(baseURL, apiKey string, opts ...Option) *Supabase {
	s := &Supabase{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether both url and key are set.
func (s *Supabase) Configured() bool {
	return s.baseURL != "" && s.apiKey != ""
}

// Verify returns the user id the token belongs to.
func (s *Supabase) Verify(ctx context.Context, token string) (string, error) {
	const op = "identity.verify"
	if !s.Configured() {
		return "", failure.New(op, failure.ErrConfiguration,
			"Backend missing Supabase env. Set SUPABASE_URL and SUPABASE_KEY.")
	}

	start := time.Now()
	id, err := s.lookup(ctx, token)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamCall(serviceName, metrics.OutcomeError, latency)
		s.log.Debug(ctx, "token rejected", logger.Error(err))
		return "", failure.Wrap(op, failure.ErrAuthentication, err)
	}
	metrics.RecordUpstreamCall(serviceName, metrics.OutcomeSuccess, latency)
	return id, nil
}

func (s *Supabase) lookup(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("Unable to reach Supabase auth endpoint: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", bearerPrefix+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Unable to reach Supabase auth endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("Unable to reach Supabase auth endpoint: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("Supabase auth check failed (%d): %s", resp.StatusCode, errorMessage(resp.Header.Get("Content-Type"), body))
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return "", errors.New("Supabase auth payload missing user id.")
	}
	return user.ID, nil
}

// errorMessage prefers the msg or message field of a JSON error body.
func errorMessage(contentType string, body []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		var payload struct {
			Msg     string `json:"msg"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if payload.Msg != "" {
				return payload.Msg
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
	}
	return strings.TrimSpace(string(body))
}
