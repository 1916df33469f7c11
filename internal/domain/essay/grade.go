package essay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/okian/collegeapi/internal/domain/failure"
	"github.com/okian/collegeapi/pkg/logger"
	"github.com/okian/collegeapi/pkg/metrics"
)

const gradeSystemPrompt = "You are an expert college admissions essay grader. " +
	"Return only valid JSON and follow the requested schema exactly."

const maxScore = 10

// Dimension is one fixed rubric criterion and its advisory weight.
type Dimension struct {
	Name   string
	Weight float64
}

// Rubric lists the grading dimensions in presentation order. Weights sum to 1
// and are passed to the generator as guidance only.
var Rubric = []Dimension{
	{Name: "clarity_and_thesis", Weight: 0.18},
	{Name: "voice_and_authenticity", Weight: 0.18},
	{Name: "structure_and_flow", Weight: 0.18},
	{Name: "evidence_and_specificity", Weight: 0.16},
	{Name: "style_and_readability", Weight: 0.14},
	{Name: "mechanics_and_grammar", Weight: 0.10},
	{Name: "impact_and_memorability", Weight: 0.06},
}

// RubricWeights returns the rubric as a name to weight map.
func RubricWeights() map[string]float64 {
	w := make(map[string]float64, len(Rubric))
	for _, d := range Rubric {
		w[d.Name] = d.Weight
	}
	return w
}

// GradeInput is the essay to grade plus optional context such as the prompt.
type GradeInput struct {
	Essay   string `json:"essay"`
	Context string `json:"context"`
}

// Meta is computed locally from the trimmed essay.
type Meta struct {
	WordCount int `json:"word_count"`
	CharCount int `json:"char_count"`
}

// MetaOf counts whitespace-delimited words and characters of essay.
func MetaOf(essay string) Meta {
	return Meta{
		WordCount: len(strings.Fields(essay)),
		CharCount: utf8.RuneCountInString(essay),
	}
}

// DimensionScore is the grade for one rubric dimension. Fields the generator
// omitted stay unset and are left out of the JSON.
type DimensionScore struct {
	Score  *float64 `json:"score,omitempty"`
	Reason *string  `json:"reason,omitempty"`
}

// PriorityFix is one concrete revision suggestion.
type PriorityFix struct {
	Issue         string `json:"issue"`
	WhyItMatters  string `json:"why_it_matters"`
	HowToFix      string `json:"how_to_fix"`
	BeforeExample string `json:"before_example"`
	AfterExample  string `json:"after_example"`
}

// GradingResult is the fully defaulted grade returned to clients.
type GradingResult struct {
	Score         float64                   `json:"score"`
	Summary       string                    `json:"summary"`
	RubricScores  map[string]DimensionScore `json:"rubric_scores"`
	Strengths     []string                  `json:"strengths"`
	Weaknesses    []string                  `json:"weaknesses"`
	PriorityFixes []PriorityFix             `json:"priority_fixes"`
	Meta          Meta                      `json:"meta"`
}

type gradeRequest struct {
	Essay         string             `json:"essay"`
	Context       string             `json:"context"`
	Meta          Meta               `json:"meta"`
	RubricWeights map[string]float64 `json:"rubric_weights"`
	ReturnSchema  map[string]any     `json:"return_schema"`
}

// Grade scores an essay against the rubric. Partial generator replies are
// defaulted field by field; only an empty essay or a reply that is not a JSON
// object fails.
func (c *Coach) Grade(ctx context.Context, in GradeInput) (GradingResult, error) {
	const op = "essay.grade"
	essay := strings.TrimSpace(in.Essay)
	if essay == "" {
		return GradingResult{}, failure.New(op, failure.ErrValidation, "Missing 'essay' in request body")
	}
	meta := MetaOf(essay)

	body, err := json.Marshal(gradeRequest{
		Essay:         essay,
		Context:       strings.TrimSpace(in.Context),
		Meta:          meta,
		RubricWeights: RubricWeights(),
		ReturnSchema:  returnSchema(),
	})
	if err != nil {
		return GradingResult{}, fmt.Errorf("encode grading request: %w", err)
	}

	raw, err := c.generate(ctx, op, Prompt{
		System:      gradeSystemPrompt,
		User:        string(body),
		JSON:        true,
		Temperature: 0.2,
		MaxTokens:   1200,
	})
	if err != nil {
		return GradingResult{}, err
	}

	obj, err := parseReply(raw)
	if err != nil {
		return GradingResult{}, failure.Wrap(op, failure.ErrUpstream, err)
	}

	if violations := c.checkSchema(obj); len(violations) > 0 {
		metrics.RecordGradingViolation()
		c.log.Warn(ctx, "grading reply deviates from schema",
			logger.Int("violations", len(violations)),
			logger.Any("details", violations),
		)
	}

	return buildResult(obj, meta), nil
}

// parseReply decodes the generator reply, tolerating a surrounding markdown
// code fence.
func parseReply(raw string) (map[string]any, error) {
	text := stripCodeFence(raw)
	if text == "" {
		text = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, failure.Newf("essay.parse_reply", failure.ErrUpstream, "grading reply is not valid JSON: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, failure.New("essay.parse_reply", failure.ErrUpstream, "grading reply is not a JSON object")
	}
	return obj, nil
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func buildResult(obj map[string]any, meta Meta) GradingResult {
	res := GradingResult{
		Summary:       stringOr(obj["summary"]),
		RubricScores:  make(map[string]DimensionScore, len(Rubric)),
		Strengths:     stringList(obj["strengths"]),
		Weaknesses:    stringList(obj["weaknesses"]),
		PriorityFixes: priorityFixes(obj["priority_fixes"]),
		Meta:          meta,
	}
	if s, ok := number(obj["score"]); ok {
		res.Score = math.Max(0, math.Min(maxScore, s))
	}

	scores, _ := obj["rubric_scores"].(map[string]any)
	for _, d := range Rubric {
		var ds DimensionScore
		if dim, ok := scores[d.Name].(map[string]any); ok {
			if s, ok := number(dim["score"]); ok {
				ds.Score = &s
			}
			if r, ok := dim["reason"].(string); ok {
				ds.Reason = &r
			}
		}
		res.RubricScores[d.Name] = ds
	}
	return res
}

func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case float64:
		f = x
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringOr(v any) string {
	s, _ := v.(string)
	return s
}

func stringList(v any) []string {
	out := []string{}
	items, _ := v.([]any)
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func priorityFixes(v any) []PriorityFix {
	out := []PriorityFix{}
	items, _ := v.([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, PriorityFix{
			Issue:         stringOr(m["issue"]),
			WhyItMatters:  stringOr(m["why_it_matters"]),
			HowToFix:      stringOr(m["how_to_fix"]),
			BeforeExample: stringOr(m["before_example"]),
			AfterExample:  stringOr(m["after_example"]),
		})
	}
	return out
}

// returnSchema is the informal shape description sent to the generator.
func returnSchema() map[string]any {
	dims := make(map[string]any, len(Rubric))
	for _, d := range Rubric {
		dims[d.Name] = map[string]string{"score": "number", "reason": "string"}
	}
	return map[string]any{
		"score":         "number 0-10",
		"summary":       "string",
		"rubric_scores": dims,
		"strengths":     []string{"string"},
		"weaknesses":    []string{"string"},
		"priority_fixes": []map[string]string{{
			"issue":          "string",
			"why_it_matters": "string",
			"how_to_fix":     "string",
			"before_example": "string",
			"after_example":  "string",
		}},
	}
}
