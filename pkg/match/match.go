// Package match pairs survey records with their district and sub-district
// boundary features by normalized name.
package match

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/hazyhaar/slp-atlas/pkg/geo"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
)

// Check is the diagnostic check name for unmatched records.
const Check = "match"

// Result associates a record with its features. A nil feature means no
// feature carried that name.
type Result struct {
	Record      survey.Record
	District    *geo.Feature
	SubDistrict *geo.Feature
}

// Matched reports whether both levels found a feature.
func (r Result) Matched() bool {
	return r.District != nil && r.SubDistrict != nil
}

// Columns names the record columns holding the two region names.
type Columns struct {
	District    string
	SubDistrict string
}

// Match returns one Result per record, in input order. When several
// features share a name the first one in the collection wins. Unmatched
// records are reported to sink, never returned as errors.
func Match(records []survey.Record, cols Columns, districts, subDistricts []geo.Feature, norm survey.Normalizer, sink diag.Sink) []Result {
	if norm == nil {
		norm = survey.StripSpace
	}
	byDistrict := index(districts, func(f geo.Feature) string { return f.Coarse }, norm)
	bySub := index(subDistricts, func(f geo.Feature) string { return f.Fine }, norm)

	results := make([]Result, len(records))
	unmatched := 0
	for i, rec := range records {
		r := Result{Record: rec}
		if v, ok := rec.Get(cols.District); ok {
			r.District = byDistrict[norm(v.String())]
		}
		if v, ok := rec.Get(cols.SubDistrict); ok {
			r.SubDistrict = bySub[norm(v.String())]
		}
		results[i] = r

		if !r.Matched() {
			unmatched++
			diag.Report(sink, Check, describe(r, cols))
		}
	}

	if unmatched > 0 {
		diag.Report(sink, Check, fmt.Sprintf("%d of %d survey records do not match the boundary data", unmatched, len(records)))
	}
	return results
}

// Unmatched filters results missing a feature at either level.
func Unmatched(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Matched() {
			out = append(out, r)
		}
	}
	return out
}

func index(features []geo.Feature, name func(geo.Feature) string, norm survey.Normalizer) map[string]*geo.Feature {
	idx := make(map[string]*geo.Feature, len(features))
	for i := range features {
		key := norm(name(features[i]))
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = &features[i]
		}
	}
	return idx
}

func describe(r Result, cols Columns) string {
	var missing []string
	if r.District == nil {
		missing = append(missing, "district")
	}
	if r.SubDistrict == nil {
		missing = append(missing, "sub-district")
	}
	return fmt.Sprintf("record %d (%s=%q, %s=%q) matched no %s",
		r.Record.Row,
		cols.District, r.Record.Value(cols.District).String(),
		cols.SubDistrict, r.Record.Value(cols.SubDistrict).String(),
		strings.Join(missing, " or "))
}
