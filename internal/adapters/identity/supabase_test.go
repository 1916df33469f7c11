package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/collegeapi/internal/domain/failure"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "Bearer   padded  ", want: "padded"},
		{header: "", wantErr: true},
		{header: "Basic abc", wantErr: true},
		{header: "bearer abc", wantErr: true},
		{header: "Bearer ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.wantErr {
			require.Error(t, err, "header %q", tt.header)
			assert.True(t, errors.Is(err, failure.ErrAuthentication))
			assert.Equal(t, "No token provided", err.Error())
			continue
		}
		require.NoError(t, err, "header %q", tt.header)
		assert.Equal(t, tt.want, got)
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	for _, s := range []*Supabase{NewSupabase("", "key"), NewSupabase("http://x", "")} {
		_, err := s.Verify(context.Background(), "tok")
		require.Error(t, err)
		assert.True(t, errors.Is(err, failure.ErrConfiguration))
		assert.False(t, s.Configured())
	}
}

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-123","email":"a@b.c"}`))
	}))
	defer srv.Close()

	s := NewSupabase(srv.URL+"/", "anon-key", WithTimeout(time.Second))
	id, err := s.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
}

func TestVerify_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		contains string
	}{
		{
			name: "json msg",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			},
			contains: "Supabase auth check failed (401): invalid JWT",
		},
		{
			name: "json message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"message":"expired"}`))
			},
			contains: "Supabase auth check failed (403): expired",
		},
		{
			name: "plain text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			contains: "Supabase auth check failed (502): bad gateway",
		},
		{
			name: "missing id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"email":"a@b.c"}`))
			},
			contains: "missing user id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewSupabase(srv.URL, "k").Verify(context.Background(), "tok")
			require.Error(t, err)
			assert.True(t, errors.Is(err, failure.ErrAuthentication))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestVerify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewSupabase(url, "k").Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrAuthentication))
	assert.Contains(t, err.Error(), "Unable to reach Supabase auth endpoint")
}
