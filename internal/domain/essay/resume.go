package essay

import (
	"context"
	"strings"

	"github.com/okian/collegeapi/internal/domain/failure"
)

const resumeSystemPrompt = "You are an expert college admissions and resume coach. Give specific, actionable advice."

// ReviewResume returns markdown feedback on resume text.
func (c *Coach) ReviewResume(ctx context.Context, text string) (string, error) {
	const op = "essay.review_resume"
	text = strings.TrimSpace(text)
	if text == "" {
		return "", failure.New(op, failure.ErrValidation, "Missing 'resume_text' in request body")
	}

	out, err := c.generate(ctx, op, Prompt{
		System:      resumeSystemPrompt,
		User:        resumePrompt(text),
		Temperature: 0.4,
		MaxTokens:   900,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func resumePrompt(text string) string {
	return "Review this student resume and provide practical, actionable feedback for college applications. " +
		"Focus on content impact, clarity, formatting, and what to improve immediately. " +
		"Use concise markdown with sections: Summary, Strengths, Improvements, and Priority Edits.\n\n" +
		"Resume:\n" + text
}
