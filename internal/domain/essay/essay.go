// Package essay produces the structured AI outputs for personal statements and
// resumes: outlines, rubric grades and resume feedback.
package essay

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
)

// Prompt is a role-structured request to a text generator.
type Prompt struct {
	System string
	User   string
	// JSON asks the generator to reply with a single JSON object.
	JSON        bool
	Temperature float32
	MaxTokens   int
}

// Generator turns a prompt into generated text. Implementations return
// failure.ErrConfiguration when credentials are missing and
// failure.ErrUpstream for service errors. They never retry.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Coach runs the outline, grading and resume contracts against a Generator.
type Coach struct {
	gen    Generator
	log    logger.Logger
	schema *jsonschema.Schema
}

// Option configures a Coach.
type Option func(*Coach)

// WithLogger sets the logger used for schema diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Coach) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCoach builds a Coach over gen.
func NewCoach(gen Generator, opts ...Option) (*Coach, error) {
	if gen == nil {
		return nil, failure.New("essay.new", failure.ErrConfiguration, "text generator is required")
	}
	sch, err := compileGradingSchema()
	if err != nil {
		return nil, fmt.Errorf("compile grading schema: %w", err)
	}
	c := &Coach{gen: gen, log: logger.Nop(), schema: sch}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// generate calls the generator and makes sure the error carries a kind.
func (c *Coach) generate(ctx context.Context, op string, p Prompt) (string, error) {
	out, err := c.gen.Generate(ctx, p)
	if err != nil {
		if failure.KindOf(err) == nil {
			return "", failure.Wrap(op, failure.ErrUpstream, err)
		}
		return "", err
	}
	return out, nil
}
