package essay

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/collegeapi/internal/domain/failure"
)

const outlineSystemPrompt = "You are an expert college admissions essay coach. Keep output practical and specific."

// OutlineInput holds the four brainstorming answers. Any of them may be empty.
type OutlineInput struct {
	AboutYourself      string `json:"aboutYourself"`
	UniqueQuality      string `json:"uniqueQuality"`
	StoryAboutLovedOne string `json:"storyAboutLovedOne"`
	CollegeInfo        string `json:"collegeInfo"`
}

// Empty reports whether every answer is empty.
func (in OutlineInput) Empty() bool {
	return in.AboutYourself == "" && in.UniqueQuality == "" && in.StoryAboutLovedOne == "" && in.CollegeInfo == ""
}

// Outline echoes the answers next to the generated outline.
type Outline struct {
	Introduction string `json:"introduction"`
	UniqueTrait  string `json:"uniqueTrait"`
	Story        string `json:"story"`
	CollegeGoal  string `json:"collegeGoal"`
	AIOutline    string `json:"aiOutline"`
}

// Outline generates a personal statement outline. It fails with
// failure.ErrValidation only when all four answers are empty.
func (c *Coach) Outline(ctx context.Context, in OutlineInput) (Outline, error) {
	const op = "essay.outline"
	if in.Empty() {
		return Outline{}, failure.New(op, failure.ErrValidation, "Missing responses")
	}

	text, err := c.generate(ctx, op, Prompt{
		System:      outlineSystemPrompt,
		User:        outlinePrompt(in),
		Temperature: 0.6,
		MaxTokens:   700,
	})
	if err != nil {
		return Outline{}, err
	}

	return Outline{
		Introduction: in.AboutYourself,
		UniqueTrait:  in.UniqueQuality,
		Story:        in.StoryAboutLovedOne,
		CollegeGoal:  in.CollegeInfo,
		AIOutline:    strings.TrimSpace(text),
	}, nil
}

func outlinePrompt(in OutlineInput) string {
	var b strings.Builder
	b.WriteString("Generate a strong college personal statement outline from these responses. ")
	b.WriteString("Return concise markdown with: Hook, Core Story, Reflection, Why College, and Closing.\n\n")
	fmt.Fprintf(&b, "About me: %s\n", in.AboutYourself)
	fmt.Fprintf(&b, "Unique quality: %s\n", in.UniqueQuality)
	fmt.Fprintf(&b, "Story about loved one: %s\n", in.StoryAboutLovedOne)
	fmt.Fprintf(&b, "What colleges should know: %s", in.CollegeInfo)
	return b.String()
}
