package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/collegeapi/internal/config"
	"github.com/okian/collegeapi/pkg/logger"
)

func TestNormalizeCommand(t *testing.T) {
	convey.Convey("Given a provider envelope on stdin", t, func() {
		input := `{"metadata":{"total":2},"results":[
			{"id":"166027","school.name":"Harvard University","school.state":"MA","latest.student.size":"7000.5"},
			{"id":1,"school.name":""}
		]}`
		var out, errOut bytes.Buffer
		cmd := newRootCommand()
		cmd.SetArgs([]string{"normalize", "--compact"})
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)

		err := cmd.Execute()

		convey.Convey("Then the named record is printed and the other is reported", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, `"name":"Harvard University"`)
			convey.So(out.String(), convey.ShouldContainSubstring, `"id":166027`)
			convey.So(out.String(), convey.ShouldContainSubstring, `"size":7000`)
			convey.So(out.String(), convey.ShouldContainSubstring, `"total":2`)
			convey.So(errOut.String(), convey.ShouldContainSubstring, "dropped 1 record")
		})
	})

	convey.Convey("Given a bare array", t, func() {
		var out bytes.Buffer
		err := runNormalize(strings.NewReader(`[{"school.name":"A"}, 5]`), &out, &bytes.Buffer{}, true)
		convey.So(err, convey.ShouldBeNil)
		convey.So(out.String(), convey.ShouldContainSubstring, `"name":"A"`)
		convey.So(out.String(), convey.ShouldContainSubstring, `"metadata":{}`)
	})

	convey.Convey("Given invalid input", t, func() {
		err := runNormalize(strings.NewReader(`"text"`), &bytes.Buffer{}, &bytes.Buffer{}, true)
		convey.So(err, convey.ShouldNotBeNil)

		err = runNormalize(strings.NewReader(`{"metadata":{}}`), &bytes.Buffer{}, &bytes.Buffer{}, true)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cfg := config.New()

		svc, err := buildService(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = svc.Close() }()
		mux := newMux(ctx, cfg, svc, logger.Nop())

		convey.Convey("Then health and docs routes are served", func() {
			for _, path := range []string{"/healthz", "/openapi.yaml", "/api-docs", "/metrics"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And missing credentials surface per request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/college/search?name=x", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusInternalServerError)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "Missing COLLEGE_SCORECARD_API_KEY")

			w = httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/database/list", http.NoBody)
			r.Header.Set("Authorization", "Bearer token")
			mux.ServeHTTP(w, r)
			convey.So(w.Code, convey.ShouldEqual, http.StatusInternalServerError)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "SUPABASE_URL")

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/openai/grade-essay", strings.NewReader(`{"essay":"hi"}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusInternalServerError)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "OPENAI_API_KEY")
		})
	})

	convey.Convey("Given an unknown provider", t, func() {
		cfg := config.New()
		cfg.LLMProvider = "llama"
		_, err := buildService(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldNotBeNil)
	})
}
