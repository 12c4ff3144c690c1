// Package verify audits aggregated survey data against the boundary
// hierarchy. Every check is a pure function returning the violations it
// found; none of them stop the caller.
package verify

import (
	"github.com/hazyhaar/slp-atlas/pkg/aggregate"
	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/hazyhaar/slp-atlas/pkg/geo"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
)

// Check names.
const (
	CheckCrossLevel     = "cross_level"
	CheckTotalCount     = "total_count"
	CheckNameUniqueness = "name_uniqueness"
)

// Violation is one failed assertion.
type Violation struct {
	Check   string         `json:"check"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Input is everything the checks read. Nothing in it is modified.
type Input struct {
	Records           []survey.Record
	DistrictColumn    string
	SubDistrictColumn string
	CountColumns      []string
	ByDistrict        aggregate.Aggregate
	BySubDistrict     aggregate.Aggregate
	SubDistricts      []geo.Feature
	Normalize         survey.Normalizer
}

func (in Input) norm() survey.Normalizer {
	if in.Normalize == nil {
		return survey.StripSpace
	}
	return in.Normalize
}

// Report is the outcome of Run.
type Report struct {
	Checks     []string    `json:"checks"`
	Violations []Violation `json:"violations"`
	OK         bool        `json:"ok"`
}

// Run executes the cross-level, total-count and name-uniqueness checks.
func Run(in Input) Report {
	r := Report{
		Checks:     []string{CheckCrossLevel, CheckTotalCount, CheckNameUniqueness},
		Violations: []Violation{},
	}
	r.Violations = append(r.Violations, CrossLevel(in)...)
	r.Violations = append(r.Violations, TotalCount(in)...)
	r.Violations = append(r.Violations, NameUniqueness(in.SubDistricts, in.norm())...)
	r.OK = len(r.Violations) == 0
	return r
}

// ByCheck returns the violations of one check.
func (r Report) ByCheck(check string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Check == check {
			out = append(out, v)
		}
	}
	return out
}

// Emit sends every violation to sink.
func (r Report) Emit(sink diag.Sink) {
	for _, v := range r.Violations {
		diag.Report(sink, v.Check, v.Message)
	}
}
