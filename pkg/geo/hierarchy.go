package geo

import (
	"fmt"

	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/hazyhaar/slp-atlas/pkg/nested"
)

// HierarchyCheck is the diagnostic check name for features left out of the
// hierarchy.
const HierarchyCheck = "hierarchy"

// Hierarchy arranges sub-district features as district -> sub-district
// leaves. A feature without both names is reported to sink and skipped, so
// every district child is a branch and the tree always builds.
func Hierarchy(features []Feature, sink diag.Sink) *nested.Node[Feature] {
	root := nested.NewBranch[Feature]()
	for i, f := range features {
		if f.Coarse == "" || f.Fine == "" {
			diag.Report(sink, HierarchyCheck, fmt.Sprintf(
				"feature %d (%q/%q) lacks a district or sub-district name, left out of the hierarchy",
				i, f.Coarse, f.Fine))
			continue
		}
		// Paths are always two deep, so SetPath cannot meet a leaf.
		_ = root.SetPath([]string{f.Coarse, f.Fine}, f)
	}
	return root
}
