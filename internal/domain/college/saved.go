package college

import (
	"strings"

	"github.com/google/uuid"

	"github.com/okian/collegeapi/internal/domain/failure"
)

// SavedCollege is one user-save action. ID is assigned at save time and never
// derived from input.
type SavedCollege struct {
	ID                string   `json:"id"`
	CollegeName       string   `json:"college_name"`
	City              *string  `json:"city"`
	State             *string  `json:"state"`
	SchoolURL         *string  `json:"school_url"`
	CollegeExternalID *int64   `json:"college_external_id"`
	StudentSize       *int64   `json:"student_size"`
	TuitionInState    *int64   `json:"tuition_in_state"`
	TuitionOutOfState *int64   `json:"tuition_out_of_state"`
	AdmissionRate     *float64 `json:"admission_rate"`
}

// SameCollege reports whether s and o collide under the duplicate rule:
// identical college name and identical state, case-sensitive. Two absent
// states are identical.
func (s SavedCollege) SameCollege(o SavedCollege) bool {
	if s.CollegeName != o.CollegeName {
		return false
	}
	if s.State == nil || o.State == nil {
		return s.State == nil && o.State == nil
	}
	return *s.State == *o.State
}

// FieldMapping resolves one SavedCollege field from a client payload: the
// nested path wins, the legacy flat key is the fallback.
type FieldMapping struct {
	Target string
	Nested []string
	Flat   string
	assign func(rec *SavedCollege, v any) bool
}

// InputMappings is the complete client-payload mapping table.
var InputMappings = []FieldMapping{
	{Target: "college_name", Nested: []string{"latest", "school", "name"}, Flat: "name", assign: assignName},
	{Target: "city", Nested: []string{"latest", "school", "city"}, Flat: "city", assign: assignText(func(r *SavedCollege) **string { return &r.City })},
	{Target: "state", Nested: []string{"latest", "school", "state"}, Flat: "state", assign: assignText(func(r *SavedCollege) **string { return &r.State })},
	{Target: "school_url", Nested: []string{"latest", "school", "school_url"}, Flat: "website", assign: assignText(func(r *SavedCollege) **string { return &r.SchoolURL })},
	{Target: "college_external_id", Nested: []string{"id"}, assign: assignInt(func(r *SavedCollege) **int64 { return &r.CollegeExternalID })},
	{Target: "student_size", Nested: []string{"latest", "student", "size"}, Flat: "studentSize", assign: assignInt(func(r *SavedCollege) **int64 { return &r.StudentSize })},
	{Target: "tuition_in_state", Nested: []string{"latest", "cost", "tuition", "in_state"}, Flat: "tuitionInState", assign: assignInt(func(r *SavedCollege) **int64 { return &r.TuitionInState })},
	{Target: "tuition_out_of_state", Nested: []string{"latest", "cost", "tuition", "out_of_state"}, Flat: "tuitionOutOfState", assign: assignInt(func(r *SavedCollege) **int64 { return &r.TuitionOutOfState })},
	{Target: "admission_rate", Nested: []string{"latest", "admissions", "admission_rate", "overall"}, Flat: "acceptanceRate", assign: assignFloat(func(r *SavedCollege) **float64 { return &r.AdmissionRate })},
}

// NormalizeInput maps a client save payload, nested or legacy flat, onto a
// SavedCollege with a fresh ID. It does not validate required fields.
func NormalizeInput(payload map[string]any) SavedCollege {
	rec := SavedCollege{ID: uuid.NewString()}
	for _, m := range InputMappings {
		m.resolve(&rec, payload)
	}
	return rec
}

// resolve assigns the first candidate value that coerces to the target type.
func (m FieldMapping) resolve(rec *SavedCollege, payload map[string]any) {
	if v, ok := lookup(payload, m.Nested); ok && m.assign(rec, v) {
		return
	}
	if m.Flat == "" {
		return
	}
	if v, ok := lookup(payload, []string{m.Flat}); ok {
		m.assign(rec, v)
	}
}

// Validate enforces the fields a SavedCollege needs before it is stored.
func Validate(rec SavedCollege) error {
	if strings.TrimSpace(rec.CollegeName) == "" {
		return failure.New("college.validate", failure.ErrValidation, "College name is required")
	}
	return nil
}

// lookup walks path through nested objects. Missing keys, nulls and empty
// strings are absent.
func lookup(payload map[string]any, path []string) (any, bool) {
	var cur any = payload
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	switch v := cur.(type) {
	case nil:
		return nil, false
	case string:
		return v, v != ""
	}
	return cur, true
}

func assignName(rec *SavedCollege, v any) bool {
	s := Text(v)
	if s == nil || *s == "" {
		return false
	}
	rec.CollegeName = *s
	return true
}

func assignText(field func(*SavedCollege) **string) func(*SavedCollege, any) bool {
	return func(rec *SavedCollege, v any) bool {
		s := Text(v)
		if s == nil {
			return false
		}
		*field(rec) = s
		return true
	}
}

func assignInt(field func(*SavedCollege) **int64) func(*SavedCollege, any) bool {
	return func(rec *SavedCollege, v any) bool {
		i := Int(v)
		if i == nil {
			return false
		}
		*field(rec) = i
		return true
	}
}

func assignFloat(field func(*SavedCollege) **float64) func(*SavedCollege, any) bool {
	return func(rec *SavedCollege, v any) bool {
		f := Float(v)
		if f == nil {
			return false
		}
		*field(rec) = f
		return true
	}
}
