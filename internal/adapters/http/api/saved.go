package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/pkg/logger"
)

const deletePrefix = "/api/database/delete/"

// SavedDependencies defines the authenticated saved-college operations.
type SavedDependencies interface {
	Authenticate(ctx context.Context, authHeader string) (string, error)
	SaveCollege(ctx context.Context, userID string, payload map[string]any) (college.SavedCollege, bool, error)
	ListColleges(ctx context.Context, userID string) ([]college.SavedCollege, error)
	DeleteCollege(ctx context.Context, userID, id string) error
}

// SavedHandler handles the per-user saved college routes.
type SavedHandler struct {
	deps SavedDependencies
	log  logger.Logger
}

// NewSavedHandler creates a new saved college handler.
func NewSavedHandler(deps SavedDependencies, log logger.Logger) *SavedHandler {
	return &SavedHandler{deps: deps, log: log}
}

type listResponse struct {
	Colleges []college.SavedCollege `json:"colleges"`
}

// authenticate resolves the caller or writes the failure. It runs before the
// request body is read.
func (h *SavedHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := h.deps.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.log.Debug(r.Context(), "authentication rejected", logger.Error(err))
		writeFailure(w, err, http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// HandleInsert handles POST /api/database/insert requests.
func (h *SavedHandler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	rec, created, err := h.deps.SaveCollege(r.Context(), userID, decodeObject(r))
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, messageResponse{Message: "College already saved", Data: rec})
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "College saved successfully", Data: rec})
}

// HandleList handles GET /api/database/list requests.
func (h *SavedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	recs, err := h.deps.ListColleges(r.Context(), userID)
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []college.SavedCollege{}
	}
	writeJSON(w, http.StatusOK, listResponse{Colleges: recs})
}

// HandleDelete handles DELETE /api/database/delete/{id} requests.
func (h *SavedHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, deletePrefix)
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.deps.DeleteCollege(r.Context(), userID, id); err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "College removed successfully"})
}
