package service_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/collegeapi/internal/adapters/repository"
	"github.com/okian/collegeapi/internal/adapters/scorecard"
	service "github.com/okian/collegeapi/internal/app"
	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
)

type fakeSearcher struct {
	page scorecard.RawPage
	err  error
	got  scorecard.SearchParams
}

func (f *fakeSearcher) Search(_ context.Context, p scorecard.SearchParams) (scorecard.RawPage, error) {
	f.got = p
	return f.page, f.err
}

type fakeVerifier struct {
	tokens map[string]string
}

func (f fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return "", failure.New("fake.verify", failure.ErrAuthentication, "Invalid token")
}

type fakeCoach struct {
	resumeText string
}

func (f *fakeCoach) Outline(_ context.Context, in essay.OutlineInput) (essay.Outline, error) {
	return essay.Outline{Introduction: in.AboutYourself, AIOutline: "outline"}, nil
}

func (f *fakeCoach) Grade(_ context.Context, in essay.GradeInput) (essay.GradingResult, error) {
	return essay.GradingResult{Score: 7, Meta: essay.MetaOf(in.Essay)}, nil
}

func (f *fakeCoach) ReviewResume(_ context.Context, text string) (string, error) {
	f.resumeText = text
	return "feedback", nil
}

func newStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	st := repository.NewMemoryStore(context.Background())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestAuthenticate(t *testing.T) {
	Convey("Given a service with a verifier", t, func() {
		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithVerifier(fakeVerifier{tokens: map[string]string{"good": "user-1"}}),
		)
		ctx := context.Background()

		Convey("A valid bearer token resolves to its user", func() {
			id, err := svc.Authenticate(ctx, "Bearer good")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "user-1")
		})

		Convey("A missing header fails authentication", func() {
			_, err := svc.Authenticate(ctx, "")
			So(errors.Is(err, failure.ErrAuthentication), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "No token provided")
		})

		Convey("An unknown token fails authentication", func() {
			_, err := svc.Authenticate(ctx, "Bearer bad")
			So(errors.Is(err, failure.ErrAuthentication), ShouldBeTrue)
		})
	})

	Convey("Given a service without a verifier", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		_, err := svc.Authenticate(context.Background(), "Bearer good")
		So(errors.Is(err, failure.ErrConfiguration), ShouldBeTrue)
	})
}

func TestSearchColleges(t *testing.T) {
	Convey("Given a provider page with one unnamed record", t, func() {
		search := &fakeSearcher{page: scorecard.RawPage{
			Metadata: map[string]any{"total": 2},
			Results: []college.ExternalRecord{
				{college.FieldID: 1, college.FieldSchoolName: "Alpha College", college.FieldSchoolState: "CA"},
				{college.FieldID: 2, college.FieldSchoolName: ""},
			},
		}}
		svc := service.New(service.WithLogger(logger.Nop()), service.WithScorecard(search))

		res, err := svc.SearchColleges(context.Background(), scorecard.SearchParams{Name: "alpha"})

		Convey("Then only the named record is returned", func() {
			So(err, ShouldBeNil)
			So(search.got.Name, ShouldEqual, "alpha")
			So(res.Results, ShouldHaveLength, 1)
			So(res.Results[0].Latest.School.Name, ShouldEqual, "Alpha College")
			So(res.Metadata["total"], ShouldEqual, 2)
		})
	})

	Convey("Given a provider that fails", t, func() {
		search := &fakeSearcher{err: failure.New("scorecard.search", failure.ErrUpstream, "boom")}
		svc := service.New(service.WithLogger(logger.Nop()), service.WithScorecard(search))

		_, err := svc.SearchColleges(context.Background(), scorecard.SearchParams{})

		Convey("Then the upstream kind is preserved", func() {
			So(errors.Is(err, failure.ErrUpstream), ShouldBeTrue)
		})
	})

	Convey("Given a page without metadata", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()), service.WithScorecard(&fakeSearcher{}))
		res, err := svc.SearchColleges(context.Background(), scorecard.SearchParams{})
		So(err, ShouldBeNil)
		So(res.Metadata, ShouldNotBeNil)
		So(res.Results, ShouldBeEmpty)
	})
}

func TestSavedColleges(t *testing.T) {
	Convey("Given a service over a memory store", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()), service.WithStore(newStore(t)))
		ctx := context.Background()
		payload := map[string]any{
			"latest": map[string]any{"school": map[string]any{"name": "Alpha College", "state": "CA"}},
		}

		Convey("When a college is saved twice", func() {
			first, created, err := svc.SaveCollege(ctx, "u1", payload)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			second, created, err := svc.SaveCollege(ctx, "u1", map[string]any{"college_name": "Alpha College", "state": "CA"})
			So(err, ShouldBeNil)

			Convey("Then the second save returns the existing record", func() {
				So(created, ShouldBeFalse)
				So(second.ID, ShouldEqual, first.ID)

				list, err := svc.ListColleges(ctx, "u1")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
			})

			Convey("And deleting it empties the list", func() {
				So(svc.DeleteCollege(ctx, "u1", first.ID), ShouldBeNil)
				list, err := svc.ListColleges(ctx, "u1")
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)

				err = svc.DeleteCollege(ctx, "u1", first.ID)
				So(errors.Is(err, failure.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the payload has no name", func() {
			_, _, err := svc.SaveCollege(ctx, "u1", map[string]any{"state": "CA"})

			Convey("Then it fails validation and nothing is stored", func() {
				So(errors.Is(err, failure.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "College name is required")
				list, err := svc.ListColleges(ctx, "u1")
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		_, _, err := svc.SaveCollege(context.Background(), "u1", map[string]any{"name": "x"})
		So(errors.Is(err, failure.ErrConfiguration), ShouldBeTrue)
		So(svc.Close(), ShouldBeNil)
	})
}

func TestCoaching(t *testing.T) {
	Convey("Given a service with a coach", t, func() {
		coach := &fakeCoach{}
		svc := service.New(service.WithLogger(logger.Nop()), service.WithCoach(coach))
		ctx := context.Background()

		Convey("Outline and grade are delegated", func() {
			out, err := svc.GenerateOutline(ctx, essay.OutlineInput{AboutYourself: "me"})
			So(err, ShouldBeNil)
			So(out.Introduction, ShouldEqual, "me")

			res, err := svc.GradeEssay(ctx, essay.GradeInput{Essay: "one two"})
			So(err, ShouldBeNil)
			So(res.Meta.WordCount, ShouldEqual, 2)
		})

		Convey("A text upload is reviewed with its extracted text", func() {
			fb, err := svc.AnalyzeResumeFile(ctx, "resume.txt", []byte("  Captain of debate \n"))
			So(err, ShouldBeNil)
			So(fb, ShouldEqual, "feedback")
			So(coach.resumeText, ShouldEqual, "Captain of debate")
		})

		Convey("An unreadable upload fails validation", func() {
			_, err := svc.AnalyzeResumeFile(ctx, "resume.pdf", []byte("garbage"))
			So(errors.Is(err, failure.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "Could not extract readable text from this file.")
			So(coach.resumeText, ShouldEqual, "")
		})

		Convey("An upload without a filename fails validation", func() {
			_, err := svc.AnalyzeResumeFile(ctx, " ", []byte("text"))
			So(errors.Is(err, failure.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given a service without a coach", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		_, err := svc.AnalyzeResume(context.Background(), "text")
		So(errors.Is(err, failure.ErrConfiguration), ShouldBeTrue)
	})
}
