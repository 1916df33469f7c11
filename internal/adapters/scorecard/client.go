// Package scorecard queries the College Scorecard statistics provider.
package scorecard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
	"github.com/okian/collegeapi/pkg/metrics"
)

const (
	// DefaultBaseURL is the public schools endpoint.
	DefaultBaseURL = "https://api.data.gov/ed/collegescorecard/v1/schools"

	defaultPerPage = 100
	maxErrorBody   = 2048
	serviceName    = "scorecard"
)

// sortFields maps client sort keys to provider fields.
var sortFields = map[string]string{
	"name":             college.FieldSchoolName,
	"acceptance":       college.FieldAdmissionRate,
	"tuition_in_state": college.FieldTuitionInState,
	"student_size":     college.FieldStudentSize,
}

// SearchParams are the raw client query parameters.
type SearchParams struct {
	Name       string
	State      string
	OnlineOnly string
	SortBy     string
	SortOrder  string
	Page       string
	PerPage    string
}

// RawPage is one provider response before normalization.
type RawPage struct {
	Metadata map[string]any
	Results  []college.ExternalRecord
}

// Client calls the provider over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a Client. An empty apiKey is accepted; Search reports it.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildQuery translates client parameters into provider query values.
func BuildQuery(p SearchParams, apiKey string) url.Values {
	q := url.Values{}
	q.Set("api_key", apiKey)
	q.Set("per_page", strconv.Itoa(clampPerPage(p.PerPage)))

	page := p.Page
	if page == "" {
		page = "0"
	}
	q.Set("page", page)
	q.Set("fields", strings.Join(college.ProviderFields, ","))

	if name := strings.TrimSpace(p.Name); name != "" {
		q.Set(college.FieldSchoolName, name)
	}
	if state := strings.ToUpper(strings.TrimSpace(p.State)); state != "" {
		q.Set(college.FieldSchoolState, state)
	}
	if strings.ToLower(strings.TrimSpace(p.OnlineOnly)) == "true" {
		q.Set(college.FieldOnlineOnly, "1")
	}

	field, ok := sortFields[strings.TrimSpace(p.SortBy)]
	if !ok {
		field = college.FieldSchoolName
	}
	if strings.ToLower(strings.TrimSpace(p.SortOrder)) == "desc" {
		field = "-" + field
	}
	q.Set("_sort", field)
	return q
}

func clampPerPage(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPerPage
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultPerPage
	}
	return max(1, min(n, defaultPerPage))
}

// Search fetches one page of raw provider records.
func (c *Client) Search(ctx context.Context, p SearchParams) (RawPage, error) {
	const op = "scorecard.search"
	if c.apiKey == "" {
		return RawPage{}, failure.New(op, failure.ErrConfiguration, "Missing COLLEGE_SCORECARD_API_KEY in backend env.")
	}

	start := time.Now()
	page, err := c.fetch(ctx, p)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamCall(serviceName, metrics.OutcomeError, latency)
		c.log.Warn(ctx, "statistics provider call failed", logger.Error(err), logger.Float64("latency_ms", latency))
		return RawPage{}, failure.Newf(op, failure.ErrUpstream, "Failed to fetch College Scorecard data: %v", err)
	}
	metrics.RecordUpstreamCall(serviceName, metrics.OutcomeSuccess, latency)
	c.log.Debug(ctx, "statistics provider page fetched", logger.Int("results", len(page.Results)), logger.Float64("latency_ms", latency))
	return page, nil
}

func (c *Client) fetch(ctx context.Context, p SearchParams) (RawPage, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return RawPage{}, fmt.Errorf("invalid base url: %w", err)
	}
	u.RawQuery = BuildQuery(p, c.apiKey).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RawPage{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawPage{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return RawPage{}, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Metadata map[string]any `json:"metadata"`
		Results  []any          `json:"results"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return RawPage{}, fmt.Errorf("decode response: %w", err)
	}

	page := RawPage{Metadata: payload.Metadata, Results: make([]college.ExternalRecord, 0, len(payload.Results))}
	if page.Metadata == nil {
		page.Metadata = map[string]any{}
	}
	for _, r := range payload.Results {
		if obj, ok := r.(map[string]any); ok {
			page.Results = append(page.Results, college.ExternalRecord(obj))
		}
	}
	return page, nil
}
