// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/collegeapi/internal/adapters/scorecard"
	service "github.com/okian/collegeapi/internal/app"
	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
)

const (
	defaultMaxBody   = 1 << 20
	defaultMaxUpload = 10 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Authenticate(ctx context.Context, authHeader string) (string, error)

	SearchColleges(ctx context.Context, p scorecard.SearchParams) (SearchResult, error)

	SaveCollege(ctx context.Context, userID string, payload map[string]any) (college.SavedCollege, bool, error)
	ListColleges(ctx context.Context, userID string) ([]college.SavedCollege, error)
	DeleteCollege(ctx context.Context, userID, id string) error

	GenerateOutline(ctx context.Context, in essay.OutlineInput) (essay.Outline, error)
	GradeEssay(ctx context.Context, in essay.GradeInput) (essay.GradingResult, error)
	AnalyzeResume(ctx context.Context, text string) (string, error)
	AnalyzeResumeFile(ctx context.Context, filename string, data []byte) (string, error)
}

// SearchResult mirrors the normalized search page.
type SearchResult = service.SearchResult

// Server wires HTTP routes for the business API.
type Server struct {
	deps        Dependencies
	log         logger.Logger
	origins     []string
	maxUpload   int64
	health      *HealthHandler
	colleges    *CollegeHandler
	saved       *SavedHandler
	coach       *CoachHandler
	corsEnabled bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCORSOrigins sets the allowed origins. "*" allows any origin; an empty
// list disables CORS headers.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
		s.corsEnabled = len(origins) > 0
	}
}

// WithMaxUploadBytes bounds resume uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:        deps,
		origins:     []string{"*"},
		maxUpload:   defaultMaxUpload,
		corsEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("api")
	}
	s.health = NewHealthHandler()
	s.colleges = NewCollegeHandler(deps, s.log)
	s.saved = NewSavedHandler(deps, s.log)
	s.coach = NewCoachHandler(deps, s.log, s.maxUpload)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.health.HandleMetrics, "metrics"))

	mux.HandleFunc("/api/college/search", s.route(s.colleges.HandleSearch, "college_search"))

	mux.HandleFunc("/api/database/insert", s.route(s.saved.HandleInsert, "database_insert"))
	mux.HandleFunc("/api/database/list", s.route(s.saved.HandleList, "database_list"))
	mux.HandleFunc("/api/database/delete/", s.route(s.saved.HandleDelete, "database_delete"))

	mux.HandleFunc("/api/openai/generate-outline", s.route(s.coach.HandleOutline, "generate_outline"))
	mux.HandleFunc("/api/openai/grade-essay", s.route(s.coach.HandleGrade, "grade_essay"))
	mux.HandleFunc("/api/openai/analyze-resume", s.route(s.coach.HandleAnalyzeResume, "analyze_resume"))
	mux.HandleFunc("/api/openai/upload-resume", s.route(s.coach.HandleUploadResume, "upload_resume"))
}

func (s *Server) route(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	if s.corsEnabled {
		h = CORSMiddleware(h, s.origins)
	}
	return MetricsMiddleware(h, endpoint)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeFailure maps an error kind to its status. upstreamStatus differs
// between the statistics provider (502) and text generation (500).
func writeFailure(w http.ResponseWriter, err error, upstreamStatus int) {
	status := http.StatusInternalServerError
	switch failure.KindOf(err) {
	case failure.ErrValidation:
		status = http.StatusBadRequest
	case failure.ErrAuthentication:
		status = http.StatusUnauthorized
	case failure.ErrNotFound:
		status = http.StatusNotFound
	case failure.ErrUpstream:
		status = upstreamStatus
	}
	writeError(w, status, failure.Code(err), err)
}

// requireMethod answers 405 and reports false when r uses another method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}

// decodeObject reads a JSON object body. Missing, invalid or non-object bodies
// decode to an empty object so field-level validation reports the problem.
func decodeObject(r *http.Request) map[string]any {
	out := map[string]any{}
	if r.Body == nil {
		return out
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, defaultMaxBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return out
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return out
	}
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return out
}

// stringField returns payload[key] when it is a string.
func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
