// Package college holds the internal college schema and the normalizers that
// map statistics-provider records and client save requests onto it.
package college

// ExternalRecord is one flat, dotted-key record from the statistics provider.
// It is the only loosely typed value in the system; Normalize is the coercion
// boundary and nothing downstream sees the map.
type ExternalRecord map[string]any

// Provider field names requested from the statistics provider.
const (
	FieldID                = "id"
	FieldSchoolName        = "school.name"
	FieldSchoolCity        = "school.city"
	FieldSchoolState       = "school.state"
	FieldSchoolURL         = "school.school_url"
	FieldOnlineOnly        = "school.online_only"
	FieldStudentSize       = "latest.student.size"
	FieldAdmissionRate     = "latest.admissions.admission_rate.overall"
	FieldSATReading75      = "latest.admissions.sat_scores.75th_percentile.critical_reading"
	FieldSATMath75         = "latest.admissions.sat_scores.75th_percentile.math"
	FieldACTCumulative75   = "latest.admissions.act_scores.75th_percentile.cumulative"
	FieldTuitionInState    = "latest.cost.tuition.in_state"
	FieldTuitionOutOfState = "latest.cost.tuition.out_of_state"
)

// ProviderFields is the projection sent with every search, in request order.
var ProviderFields = []string{
	FieldID,
	FieldSchoolName,
	FieldSchoolCity,
	FieldSchoolState,
	FieldSchoolURL,
	FieldOnlineOnly,
	FieldStudentSize,
	FieldAdmissionRate,
	FieldSATReading75,
	FieldSATMath75,
	FieldACTCumulative75,
	FieldTuitionInState,
	FieldTuitionOutOfState,
}

// NormalizedCollege is the canonical nested representation returned to clients.
// Absent values serialize as null.
type NormalizedCollege struct {
	ID     *int64 `json:"id"`
	Latest Latest `json:"latest"`
}

// Latest groups the most recent statistics for a school.
type Latest struct {
	School     School     `json:"school"`
	Student    Student    `json:"student"`
	Admissions Admissions `json:"admissions"`
	Cost       Cost       `json:"cost"`
}

// School identifies the institution. Name is always set.
type School struct {
	Name       string  `json:"name"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	SchoolURL  *string `json:"school_url"`
	OnlineOnly *int64  `json:"online_only"`
}

type Student struct {
	Size *int64 `json:"size"`
}

type Admissions struct {
	AdmissionRate AdmissionRate `json:"admission_rate"`
	SATScores     SATScores     `json:"sat_scores"`
	ACTScores     ACTScores     `json:"act_scores"`
}

type AdmissionRate struct {
	Overall *float64 `json:"overall"`
}

type SATScores struct {
	Percentile75 SATPercentile `json:"percentile_75"`
}

type SATPercentile struct {
	CriticalReading *int64 `json:"critical_reading"`
	Math            *int64 `json:"math"`
}

type ACTScores struct {
	Percentile75 ACTPercentile `json:"percentile_75"`
}

type ACTPercentile struct {
	Cumulative *int64 `json:"cumulative"`
}

type Cost struct {
	Tuition Tuition `json:"tuition"`
}

type Tuition struct {
	InState    *int64 `json:"in_state"`
	OutOfState *int64 `json:"out_of_state"`
}

// Normalize maps rec into the internal schema. It reports false, and the
// record is dropped, when the school name is missing or empty.
func Normalize(rec ExternalRecord) (NormalizedCollege, bool) {
	name := Text(rec[FieldSchoolName])
	if name == nil || *name == "" {
		return NormalizedCollege{}, false
	}

	return NormalizedCollege{
		ID: Int(rec[FieldID]),
		Latest: Latest{
			School: School{
				Name:       *name,
				City:       Text(rec[FieldSchoolCity]),
				State:      Text(rec[FieldSchoolState]),
				SchoolURL:  Text(rec[FieldSchoolURL]),
				OnlineOnly: Int(rec[FieldOnlineOnly]),
			},
			Student: Student{Size: Int(rec[FieldStudentSize])},
			Admissions: Admissions{
				AdmissionRate: AdmissionRate{Overall: Float(rec[FieldAdmissionRate])},
				SATScores: SATScores{Percentile75: SATPercentile{
					CriticalReading: Int(rec[FieldSATReading75]),
					Math:            Int(rec[FieldSATMath75]),
				}},
				ACTScores: ACTScores{Percentile75: ACTPercentile{
					Cumulative: Int(rec[FieldACTCumulative75]),
				}},
			},
			Cost: Cost{Tuition: Tuition{
				InState:    Int(rec[FieldTuitionInState]),
				OutOfState: Int(rec[FieldTuitionOutOfState]),
			}},
		},
	}, true
}

// NormalizeAll normalizes a page of records in order, skipping dropped ones.
// It returns the kept records and how many were dropped.
func NormalizeAll(recs []ExternalRecord) ([]NormalizedCollege, int) {
	out := make([]NormalizedCollege, 0, len(recs))
	dropped := 0
	for _, rec := range recs {
		c, ok := Normalize(rec)
		if !ok {
			dropped++
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}
