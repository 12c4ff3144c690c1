// Package aggregate groups survey records by a region column and counts
// the observed values of one or more target columns per group.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hazyhaar/slp-atlas/pkg/survey"
)

// ErrMissingKey is matched by every MissingKeyError.
var ErrMissingKey = errors.New("missing group key")

// MissingKeyError reports a record with no value for the grouping column.
type MissingKeyError struct {
	Column string
	Row    int
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("record %d: no value for group column %q", e.Row, e.Column)
}

func (e *MissingKeyError) Unwrap() error { return ErrMissingKey }

// Counts maps an observed value to its number of occurrences.
type Counts map[string]int

// Group maps a counted column to its value counts.
type Group map[string]Counts

// Aggregate maps a GroupKey to its per-column counts.
type Aggregate map[string]Group

// Build groups records by groupBy and counts every column in countColumns.
// Group keys pass through norm (survey.StripSpace when nil). A record
// without a value for a counted column is counted under
// survey.MissingMarker. Build fails on the first record whose group
// value is absent or normalizes to the empty string.
func Build(records []survey.Record, groupBy string, countColumns []string, norm survey.Normalizer) (Aggregate, error) {
	if norm == nil {
		norm = survey.StripSpace
	}

	agg := make(Aggregate)
	for _, rec := range records {
		raw, ok := rec.Get(groupBy)
		if !ok {
			return nil, &MissingKeyError{Column: groupBy, Row: rec.Row}
		}
		key := norm(raw.String())
		if key == "" {
			return nil, &MissingKeyError{Column: groupBy, Row: rec.Row}
		}

		g, ok := agg[key]
		if !ok {
			g = make(Group, len(countColumns))
			agg[key] = g
		}
		for _, col := range countColumns {
			c, ok := g[col]
			if !ok {
				c = make(Counts)
				g[col] = c
			}
			c[rec.Value(col).Key()]++
		}
	}
	return agg, nil
}

// Count returns the count of value in (group, column), 0 when absent.
func (a Aggregate) Count(group, column, value string) int {
	return a[group][column][value]
}

// Groups returns the group keys in sorted order.
func (a Aggregate) Groups() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupTotal sums every value count of column within group.
func (a Aggregate) GroupTotal(group, column string) int {
	return a[group][column].Total()
}

// ColumnTotal sums column's counts across all groups.
func (a Aggregate) ColumnTotal(column string) int {
	total := 0
	for _, g := range a {
		total += g[column].Total()
	}
	return total
}

// Total sums every count in the aggregate.
func (a Aggregate) Total() int {
	total := 0
	for _, g := range a {
		for _, c := range g {
			total += c.Total()
		}
	}
	return total
}

// Equal reports whether a and b hold the same counts.
func (a Aggregate) Equal(b Aggregate) bool {
	return a.contains(b) && b.contains(a)
}

func (a Aggregate) contains(b Aggregate) bool {
	for group, g := range a {
		for col, c := range g {
			for v, n := range c {
				if b.Count(group, col, v) != n {
					return false
				}
			}
		}
	}
	return true
}

// Total sums the counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Values returns the observed values in sorted order.
func (c Counts) Values() []string {
	vals := make([]string, 0, len(c))
	for v := range c {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}
