package api

import (
	"context"
	"net/http"

	"github.com/okian/collegeapi/internal/adapters/scorecard"
	"github.com/okian/collegeapi/pkg/logger"
)

// CollegeDependencies defines the search operation.
type CollegeDependencies interface {
	SearchColleges(ctx context.Context, p scorecard.SearchParams) (SearchResult, error)
}

// CollegeHandler handles college search requests.
type CollegeHandler struct {
	deps CollegeDependencies
	log  logger.Logger
}

// NewCollegeHandler creates a new college handler.
func NewCollegeHandler(deps CollegeDependencies, log logger.Logger) *CollegeHandler {
	return &CollegeHandler{deps: deps, log: log}
}

// HandleSearch handles GET /api/college/search requests.
func (h *CollegeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	params := scorecard.SearchParams{
		Name:       q.Get("name"),
		State:      q.Get("state"),
		OnlineOnly: q.Get("online_only"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Page:       q.Get("page"),
		PerPage:    q.Get("per_page"),
	}

	res, err := h.deps.SearchColleges(r.Context(), params)
	if err != nil {
		h.log.Warn(r.Context(), "college search failed", logger.Error(err))
		writeFailure(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
