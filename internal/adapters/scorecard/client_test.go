package scorecard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/internal/domain/failure"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		params SearchParams
		want   map[string]string
		absent []string
	}{
		{
			name:   "defaults",
			params: SearchParams{},
			want: map[string]string{
				"api_key":  "k",
				"per_page": "100",
				"page":     "0",
				"_sort":    "school.name",
			},
			absent: []string{"school.name", "school.state", "school.online_only"},
		},
		{
			name: "filters and descending sort",
			params: SearchParams{
				Name:       "  Reed ",
				State:      " or ",
				OnlineOnly: "TRUE",
				SortBy:     "acceptance",
				SortOrder:  "DESC",
				Page:       "3",
				PerPage:    "25",
			},
			want: map[string]string{
				"school.name":        "Reed",
				"school.state":       "OR",
				"school.online_only": "1",
				"_sort":              "-latest.admissions.admission_rate.overall",
				"page":               "3",
				"per_page":           "25",
			},
		},
		{
			name:   "unknown sort falls back to name",
			params: SearchParams{SortBy: "ranking", OnlineOnly: "yes"},
			want:   map[string]string{"_sort": "school.name"},
			absent: []string{"school.online_only"},
		},
		{
			name:   "per_page clamped high",
			params: SearchParams{PerPage: "500"},
			want:   map[string]string{"per_page": "100"},
		},
		{
			name:   "per_page clamped low",
			params: SearchParams{PerPage: "-4"},
			want:   map[string]string{"per_page": "1"},
		},
		{
			name:   "per_page not numeric",
			params: SearchParams{PerPage: "ten"},
			want:   map[string]string{"per_page": "100"},
		},
		{
			name:   "sort by tuition and size",
			params: SearchParams{SortBy: "student_size", SortOrder: "asc"},
			want:   map[string]string{"_sort": "latest.student.size"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildQuery(tt.params, "k")
			for k, v := range tt.want {
				assert.Equal(t, v, q.Get(k), "param %s", k)
			}
			for _, k := range tt.absent {
				assert.False(t, q.Has(k), "param %s should be absent", k)
			}
			assert.Equal(t, strings.Join(college.ProviderFields, ","), q.Get("fields"))
		})
	}
}

func TestSearch_MissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New("", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), SearchParams{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrConfiguration))
	assert.Equal(t, int32(0), calls.Load(), "no request should be sent without a key")
}

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "CA", r.URL.Query().Get("school.state"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"total": 2, "page": 0, "per_page": 100},
			"results": []any{
				map[string]any{"id": 1, "school.name": "A", "latest.student.size": "1200"},
				map[string]any{"id": 2, "school.name": ""},
				"garbage",
			},
		})
	}))
	defer srv.Close()

	c := New("secret", WithBaseURL(srv.URL), WithTimeout(time.Second))
	page, err := c.Search(context.Background(), SearchParams{State: "ca"})
	require.NoError(t, err)

	assert.Equal(t, json.Number("2"), page.Metadata["total"])
	require.Len(t, page.Results, 2)

	normalized, dropped := college.NormalizeAll(page.Results)
	assert.Equal(t, 1, dropped)
	require.Len(t, normalized, 1)
	assert.Equal(t, "A", normalized[0].Latest.School.Name)
	assert.Equal(t, int64(1200), *normalized[0].Latest.Student.Size)
}

func TestSearch_MissingMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	page, err := New("k", WithBaseURL(srv.URL)).Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.NotNil(t, page.Metadata)
	assert.Empty(t, page.Results)
}

func TestSearch_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		contains string
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "API_KEY_INVALID", http.StatusForbidden)
			},
			contains: "API_KEY_INVALID",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			contains: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New("k", WithBaseURL(srv.URL)).Search(context.Background(), SearchParams{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, failure.ErrUpstream))
			assert.Contains(t, err.Error(), "Failed to fetch College Scorecard data")
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSearch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New("k", WithBaseURL(url)).Search(context.Background(), SearchParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrUpstream))
}
