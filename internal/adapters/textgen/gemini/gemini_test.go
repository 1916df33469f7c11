package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/internal/domain/failure"
)

func TestGenerate_MissingKey(t *testing.T) {
	g, err := New(context.Background(), "")
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), essay.Prompt{User: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrConfiguration))
	assert.Equal(t, DefaultModel, g.Model())
}

func TestGenerate_Request(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"score\":9}"}]}}]}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(), "test-key", WithModel("gemini-test"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), essay.Prompt{
		System:      "grader",
		User:        "essay",
		JSON:        true,
		Temperature: 0.2,
		MaxTokens:   1200,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score":9}`, out)

	cfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from %v", body)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.Equal(t, float64(1200), cfg["maxOutputTokens"])
	assert.Contains(t, body, "systemInstruction")
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(), "test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), essay.Prompt{User: "u"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrUpstream))
}
