package essay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const gradingSchemaName = "grading-reply.schema.json"

// gradingSchemaJSON describes a well-formed grading reply. Replies are checked
// against it for diagnostics only.
const gradingSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["score", "summary", "rubric_scores", "strengths", "weaknesses", "priority_fixes"],
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 10},
    "summary": {"type": "string"},
    "rubric_scores": {
      "type": "object",
      "required": [
        "clarity_and_thesis", "voice_and_authenticity", "structure_and_flow",
        "evidence_and_specificity", "style_and_readability", "mechanics_and_grammar",
        "impact_and_memorability"
      ],
      "additionalProperties": {"$ref": "#/$defs/dimension"}
    },
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}},
    "priority_fixes": {"type": "array", "items": {"$ref": "#/$defs/fix"}}
  },
  "$defs": {
    "dimension": {
      "type": "object",
      "required": ["score", "reason"],
      "properties": {
        "score": {"type": "number"},
        "reason": {"type": "string"}
      }
    },
    "fix": {
      "type": "object",
      "required": ["issue", "why_it_matters", "how_to_fix", "before_example", "after_example"],
      "properties": {
        "issue": {"type": "string"},
        "why_it_matters": {"type": "string"},
        "how_to_fix": {"type": "string"},
        "before_example": {"type": "string"},
        "after_example": {"type": "string"}
      }
    }
  }
}`

var schemaPrinter = message.NewPrinter(language.English)

func compileGradingSchema() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(gradingSchemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", gradingSchemaName, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(gradingSchemaName, doc); err != nil {
		return nil, fmt.Errorf("add %s: %w", gradingSchemaName, err)
	}
	return compiler.Compile(gradingSchemaName)
}

// checkSchema lists every place obj deviates from the grading schema.
func (c *Coach) checkSchema(obj map[string]any) []string {
	err := c.schema.Validate(obj)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	collectViolations(ve, &out)
	return out
}

func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, cause := range ve.Causes {
		collectViolations(cause, out)
	}
}
