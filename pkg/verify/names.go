package verify

import (
	"fmt"
	"sort"

	"github.com/hazyhaar/slp-atlas/pkg/geo"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
)

// NameUniqueness checks that no two sub-district features share a
// normalized name.
func NameUniqueness(features []geo.Feature, norm survey.Normalizer) []Violation {
	if norm == nil {
		norm = survey.StripSpace
	}
	seen := make(map[string]int, len(features))
	for _, f := range features {
		seen[norm(f.Fine)]++
	}
	if len(seen) == len(features) {
		return nil
	}

	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)

	return []Violation{{
		Check: CheckNameUniqueness,
		Message: fmt.Sprintf("sub-district names are not unique: %d sub-districts, but %d unique names (duplicated: %v)",
			len(features), len(seen), dups),
		Details: map[string]any{
			"features":     len(features),
			"unique_names": len(seen),
			"duplicates":   dups,
		},
	}}
}
