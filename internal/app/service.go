// Package service wires the college search, saved-college and essay coaching
// operations that the HTTP API exposes.
package service

import (
	"context"
	"strings"

	"github.com/okian/collegeapi/internal/adapters/extract"
	"github.com/okian/collegeapi/internal/adapters/identity"
	"github.com/okian/collegeapi/internal/adapters/repository"
	"github.com/okian/collegeapi/internal/adapters/scorecard"
	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
	"github.com/okian/collegeapi/pkg/metrics"
)

// Searcher fetches one page of raw provider records.
type Searcher interface {
	Search(ctx context.Context, p scorecard.SearchParams) (scorecard.RawPage, error)
}

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Coach produces essay outlines, grades and resume feedback.
type Coach interface {
	Outline(ctx context.Context, in essay.OutlineInput) (essay.Outline, error)
	Grade(ctx context.Context, in essay.GradeInput) (essay.GradingResult, error)
	ReviewResume(ctx context.Context, text string) (string, error)
}

// SearchResult is a normalized provider page.
type SearchResult struct {
	Metadata map[string]any              `json:"metadata"`
	Results  []college.NormalizedCollege `json:"results"`
}

// Service implements the API dependencies.
type Service struct {
	store    repository.Store
	search   Searcher
	verifier Verifier
	coach    Coach
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the saved-college store.
func WithStore(st repository.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithScorecard sets the statistics provider client.
func WithScorecard(sr Searcher) Option {
	return func(s *Service) { s.search = sr }
}

// WithVerifier sets the identity verifier.
func WithVerifier(v Verifier) Option {
	return func(s *Service) { s.verifier = v }
}

// WithCoach sets the essay coach.
func WithCoach(c Coach) Option {
	return func(s *Service) { s.coach = c }
}

// New constructs a Service. Dependencies left unset make the operations that
// need them fail with failure.ErrConfiguration.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Close releases the store if it holds resources.
func (s *Service) Close() error {
	if closer, ok := s.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Authenticate extracts the bearer token from authHeader and verifies it.
func (s *Service) Authenticate(ctx context.Context, authHeader string) (string, error) {
	token, err := identity.BearerToken(authHeader)
	if err != nil {
		return "", err
	}
	if s.verifier == nil {
		return "", failure.New("service.authenticate", failure.ErrConfiguration, "identity verifier is not configured")
	}
	return s.verifier.Verify(ctx, token)
}

// SearchColleges fetches one provider page and normalizes it. Records without
// a school name are dropped and counted.
func (s *Service) SearchColleges(ctx context.Context, p scorecard.SearchParams) (SearchResult, error) {
	if s.search == nil {
		return SearchResult{}, failure.New("service.search", failure.ErrConfiguration, "statistics provider is not configured")
	}
	page, err := s.search.Search(ctx, p)
	if err != nil {
		return SearchResult{}, err
	}

	results, dropped := college.NormalizeAll(page.Results)
	metrics.RecordNormalization(len(results), dropped)
	if dropped > 0 {
		s.logger.Debug(ctx, "dropped unnamed provider records", logger.Int("dropped", dropped))
	}

	meta := page.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return SearchResult{Metadata: meta, Results: results}, nil
}

// SaveCollege normalizes payload and stores it for userID. created is false
// when the user already saved the same college; the existing record is
// returned in that case.
func (s *Service) SaveCollege(ctx context.Context, userID string, payload map[string]any) (college.SavedCollege, bool, error) {
	if s.store == nil {
		return college.SavedCollege{}, false, failure.New("service.save", failure.ErrConfiguration, "store is not configured")
	}
	rec := college.NormalizeInput(payload)
	if err := college.Validate(rec); err != nil {
		return college.SavedCollege{}, false, err
	}

	stored, created, err := s.store.Insert(ctx, userID, rec)
	if err != nil {
		return college.SavedCollege{}, false, err
	}
	if created {
		metrics.RecordSavedInsert(metrics.OutcomeCreated)
	} else {
		metrics.RecordSavedInsert(metrics.OutcomeDuplicate)
	}
	s.logger.Debug(ctx, "save college",
		logger.String("user", userID),
		logger.String("id", stored.ID),
		logger.Bool("created", created),
	)
	return stored, created, nil
}

// ListColleges returns the user's saved colleges in insertion order.
func (s *Service) ListColleges(ctx context.Context, userID string) ([]college.SavedCollege, error) {
	if s.store == nil {
		return nil, failure.New("service.list", failure.ErrConfiguration, "store is not configured")
	}
	return s.store.List(ctx, userID)
}

// DeleteCollege removes one saved college of the user.
func (s *Service) DeleteCollege(ctx context.Context, userID, id string) error {
	if s.store == nil {
		return failure.New("service.delete", failure.ErrConfiguration, "store is not configured")
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if failure.KindOf(err) == failure.ErrNotFound {
			metrics.RecordSavedDelete(metrics.OutcomeNotFound)
		}
		return err
	}
	metrics.RecordSavedDelete(metrics.OutcomeDeleted)
	return nil
}

// GenerateOutline drafts an essay outline from the brainstorming answers.
func (s *Service) GenerateOutline(ctx context.Context, in essay.OutlineInput) (essay.Outline, error) {
	if s.coach == nil {
		return essay.Outline{}, errNoCoach("service.outline")
	}
	return s.coach.Outline(ctx, in)
}

// GradeEssay grades an essay against the rubric.
func (s *Service) GradeEssay(ctx context.Context, in essay.GradeInput) (essay.GradingResult, error) {
	if s.coach == nil {
		return essay.GradingResult{}, errNoCoach("service.grade")
	}
	return s.coach.Grade(ctx, in)
}

// AnalyzeResume reviews pasted resume text.
func (s *Service) AnalyzeResume(ctx context.Context, text string) (string, error) {
	if s.coach == nil {
		return "", errNoCoach("service.resume")
	}
	return s.coach.ReviewResume(ctx, text)
}

// AnalyzeResumeFile extracts text from an uploaded document and reviews it.
func (s *Service) AnalyzeResumeFile(ctx context.Context, filename string, data []byte) (string, error) {
	const op = "service.resume_file"
	if strings.TrimSpace(filename) == "" {
		return "", failure.New(op, failure.ErrValidation, "Missing uploaded filename")
	}
	text := extract.Text(filename, data)
	if text == "" {
		s.logger.Warn(ctx, "unreadable resume upload",
			logger.String("format", extract.FormatOf(filename)),
			logger.Int("bytes", len(data)),
		)
		return "", failure.New(op, failure.ErrValidation, "Could not extract readable text from this file.")
	}
	return s.AnalyzeResume(ctx, text)
}

func errNoCoach(op string) error {
	return failure.New(op, failure.ErrConfiguration, "text generation is not configured")
}
