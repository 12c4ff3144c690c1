// Package survey holds the tabular survey model: scalar values, immutable
// records, group-key normalizers and the CSV loader.
package survey

import (
	"encoding/json"
	"sort"
	"strconv"
)

// MissingMarker is the observed-value key used when a record has no value
// for a counted column.
const MissingMarker = "(missing)"

// Kind discriminates the scalar held by a Value.
type Kind uint8

const (
	Missing Kind = iota
	String
	Number
)

// Value is a single cell: a string, a number, or missing.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue wraps f.
func NumberValue(f float64) Value { return Value{kind: Number, num: f} }

// Kind returns the scalar kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell was absent.
func (v Value) IsMissing() bool { return v.kind == Missing }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == Number }

// String returns the cell as text. Missing cells are the empty string.
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return ""
}

// Key is the bucket name of v in an aggregate.
func (v Value) Key() string {
	if v.kind == Missing {
		return MissingMarker
	}
	return v.String()
}

// MarshalJSON encodes strings as strings, numbers as numbers and missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case String:
		return json.Marshal(v.str)
	case Number:
		return json.Marshal(v.num)
	}
	return []byte("null"), nil
}

// Record is one surveyed row. Absent cells are not stored.
type Record struct {
	Row    int
	fields map[string]Value
}

// NewRecord copies fields into a new record. Missing values are dropped so
// that Get reports them as absent.
func NewRecord(row int, fields map[string]Value) Record {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		if v.IsMissing() {
			continue
		}
		cp[k] = v
	}
	return Record{Row: row, fields: cp}
}

// FromStrings builds a record whose cells are all strings. Empty strings
// are kept; use NewRecord to model absent cells.
func FromStrings(row int, fields map[string]string) Record {
	m := make(map[string]Value, len(fields))
	for k, s := range fields {
		m[k] = StringValue(s)
	}
	return NewRecord(row, m)
}

// Get returns the value for column and whether it is present.
func (r Record) Get(column string) (Value, bool) {
	v, ok := r.fields[column]
	return v, ok
}

// Value returns the value for column, or a missing Value.
func (r Record) Value(column string) Value {
	return r.fields[column]
}

// Columns returns the present column names, sorted.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r.fields))
	for k := range r.fields {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Project returns a copy of r restricted to columns. Columns absent from r
// stay absent.
func (r Record) Project(columns ...string) Record {
	m := make(map[string]Value, len(columns))
	for _, c := range columns {
		if v, ok := r.fields[c]; ok {
			m[c] = v
		}
	}
	return Record{Row: r.Row, fields: m}
}

// MarshalJSON encodes the present cells as a JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields)
}
