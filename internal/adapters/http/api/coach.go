package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/pkg/logger"
)

const resumeField = "resume"

// CoachDependencies defines the essay and resume coaching operations.
type CoachDependencies interface {
	GenerateOutline(ctx context.Context, in essay.OutlineInput) (essay.Outline, error)
	GradeEssay(ctx context.Context, in essay.GradeInput) (essay.GradingResult, error)
	AnalyzeResume(ctx context.Context, text string) (string, error)
	AnalyzeResumeFile(ctx context.Context, filename string, data []byte) (string, error)
}

// CoachHandler handles the text generation routes.
type CoachHandler struct {
	deps      CoachDependencies
	log       logger.Logger
	maxUpload int64
}

// NewCoachHandler creates a new coach handler.
func NewCoachHandler(deps CoachDependencies, log logger.Logger, maxUpload int64) *CoachHandler {
	return &CoachHandler{deps: deps, log: log, maxUpload: maxUpload}
}

type outlineResponse struct {
	Outline essay.Outline `json:"outline"`
}

type feedbackResponse struct {
	Feedback string `json:"feedback"`
}

// HandleOutline handles POST /api/openai/generate-outline requests.
func (h *CoachHandler) HandleOutline(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	payload := decodeObject(r)
	out, err := h.deps.GenerateOutline(r.Context(), essay.OutlineInput{
		AboutYourself:      stringField(payload, "aboutYourself"),
		UniqueQuality:      stringField(payload, "uniqueQuality"),
		StoryAboutLovedOne: stringField(payload, "storyAboutLovedOne"),
		CollegeInfo:        stringField(payload, "collegeInfo"),
	})
	if err != nil {
		h.fail(w, r, "generate outline", err)
		return
	}
	writeJSON(w, http.StatusOK, outlineResponse{Outline: out})
}

// HandleGrade handles POST /api/openai/grade-essay requests.
func (h *CoachHandler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	payload := decodeObject(r)
	res, err := h.deps.GradeEssay(r.Context(), essay.GradeInput{
		Essay:   stringField(payload, "essay"),
		Context: stringField(payload, "context"),
	})
	if err != nil {
		h.fail(w, r, "grade essay", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAnalyzeResume handles POST /api/openai/analyze-resume requests.
func (h *CoachHandler) HandleAnalyzeResume(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	payload := decodeObject(r)
	fb, err := h.deps.AnalyzeResume(r.Context(), stringField(payload, "resume_text"))
	if err != nil {
		h.fail(w, r, "analyze resume", err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Feedback: fb})
}

// HandleUploadResume handles multipart POST /api/openai/upload-resume
// requests carrying the file in the "resume" field.
func (h *CoachHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile(resumeField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "validation_failed", ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", ErrMissingFilename)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err)
		return
	}

	fb, err := h.deps.AnalyzeResumeFile(r.Context(), header.Filename, data)
	if err != nil {
		h.fail(w, r, "upload resume", err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Feedback: fb})
}

func (h *CoachHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.log.Warn(r.Context(), action+" failed", logger.Error(err))
	writeFailure(w, err, http.StatusInternalServerError)
}
