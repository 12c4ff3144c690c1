package verify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/slp-atlas/pkg/aggregate"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
)

// DistrictTotals folds the sub-district aggregate into per-district
// counts using each sub-district feature's owning district. Features
// without sub-district data are skipped.
func DistrictTotals(in Input) aggregate.Aggregate {
	norm := in.norm()
	totals := make(aggregate.Aggregate)
	for _, f := range in.SubDistricts {
		data, ok := in.BySubDistrict[norm(f.Fine)]
		if !ok {
			continue
		}
		district := norm(f.Coarse)
		bucket, ok := totals[district]
		if !ok {
			bucket = make(aggregate.Group)
			totals[district] = bucket
		}
		for _, col := range in.CountColumns {
			c, ok := bucket[col]
			if !ok {
				c = make(aggregate.Counts)
				bucket[col] = c
			}
			for v, n := range data[col] {
				c[v] += n
			}
		}
	}
	return totals
}

// CrossLevel checks that every (district, column, value) count of the
// district aggregate equals the sum of that district's sub-district
// counts.
func CrossLevel(in Input) []Violation {
	derived := DistrictTotals(in)

	var out []Violation
	for _, district := range in.ByDistrict.Groups() {
		for _, col := range in.CountColumns {
			counts := in.ByDistrict[district][col]
			for _, value := range counts.Values() {
				want := counts[value]
				got := derived.Count(district, col, value)
				if got == want {
					continue
				}

				subs := contributing(in, district, col, value)
				rows := districtRecords(in, district)
				out = append(out, Violation{
					Check:   CheckCrossLevel,
					Message: crossLevelMessage(district, col, value, want, got, subs, rows),
					Details: map[string]any{
						"district":          district,
						"column":            col,
						"value":             value,
						"district_count":    want,
						"subdistrict_total": got,
						"subdistricts":      subs,
						"records":           rows,
					},
				})
			}
		}
	}
	return out
}

// contributing lists each sub-district of district with a non-zero count
// for (col, value).
func contributing(in Input, district, col, value string) map[string]int {
	norm := in.norm()
	subs := make(map[string]int)
	for _, f := range in.SubDistricts {
		if norm(f.Coarse) != district {
			continue
		}
		key := norm(f.Fine)
		if n := in.BySubDistrict.Count(key, col, value); n > 0 {
			subs[key] = n
		}
	}
	return subs
}

// districtRecords returns the raw rows of district, restricted to the
// region and counted columns.
func districtRecords(in Input, district string) []survey.Record {
	norm := in.norm()
	cols := append([]string{in.DistrictColumn, in.SubDistrictColumn}, in.CountColumns...)
	var out []survey.Record
	for _, rec := range in.Records {
		v, ok := rec.Get(in.DistrictColumn)
		if !ok || norm(v.String()) != district {
			continue
		}
		out = append(out, rec.Project(cols...))
	}
	return out
}

func crossLevelMessage(district, col, value string, want, got int, subs map[string]int, rows []survey.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "district %s.%s.%s has %d samples, but sub-district total is %d", district, col, value, want, got)

	b.WriteString(". Individual sub-district values:")
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %d", name, subs[name])
	}

	b.WriteString("\nRaw survey records:")
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		b.WriteString("\n  ")
		b.Write(data)
	}
	return b.String()
}
