package aggregate

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/hazyhaar/slp-atlas/pkg/survey"
)

func rows(fields ...map[string]string) []survey.Record {
	recs := make([]survey.Record, len(fields))
	for i, f := range fields {
		recs[i] = survey.FromStrings(i+1, f)
	}
	return recs
}

func TestBuild_Scenario(t *testing.T) {
	recs := rows(
		map[string]string{"region": "A", "col": "x"},
		map[string]string{"region": "A", "col": "y"},
		map[string]string{"region": "B", "col": "x"},
	)
	got, err := Build(recs, "region", []string{"col"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := Aggregate{
		"A": {"col": {"x": 1, "y": 1}},
		"B": {"col": {"x": 1}},
	}
	if !got.Equal(want) {
		t.Errorf("Build = %v, want %v", got, want)
	}
	if len(got) != 2 {
		t.Errorf("groups = %d, want 2", len(got))
	}
}

func TestBuild_MissingGroupColumn(t *testing.T) {
	recs := rows(
		map[string]string{"region": "A", "col": "x"},
		map[string]string{"col": "y"},
	)
	_, err := Build(recs, "region", []string{"col"}, nil)
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
	var mke *MissingKeyError
	if !errors.As(err, &mke) {
		t.Fatalf("err = %T, want *MissingKeyError", err)
	}
	if mke.Column != "region" || mke.Row != 2 {
		t.Errorf("MissingKeyError = %+v, want column region row 2", mke)
	}
}

func TestBuild_WhitespaceOnlyKey(t *testing.T) {
	recs := rows(map[string]string{"region": "  ", "col": "x"})
	if _, err := Build(recs, "region", []string{"col"}, nil); !errors.Is(err, ErrMissingKey) {
		t.Errorf("err = %v, want ErrMissingKey", err)
	}
}

func TestBuild_NormalizesKeys(t *testing.T) {
	recs := rows(
		map[string]string{"DS": "Manmunai North", "Fluência": "Falantes"},
		map[string]string{"DS": "ManmunaiNorth ", "Fluência": "Falantes"},
	)
	got, err := Build(recs, "DS", []string{"Fluência"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.Count("ManmunaiNorth", "Fluência", "Falantes") != 2 {
		t.Errorf("normalized group count = %d, want 2", got.Count("ManmunaiNorth", "Fluência", "Falantes"))
	}
}

func TestBuild_MissingCountValue(t *testing.T) {
	recs := []survey.Record{
		survey.FromStrings(1, map[string]string{"region": "A", "col": "x"}),
		survey.FromStrings(2, map[string]string{"region": "A"}),
	}
	got, err := Build(recs, "region", []string{"col"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.Count("A", "col", survey.MissingMarker) != 1 {
		t.Errorf("missing bucket = %d, want 1", got.Count("A", "col", survey.MissingMarker))
	}
	if got.GroupTotal("A", "col") != 2 {
		t.Errorf("GroupTotal = %d, want 2", got.GroupTotal("A", "col"))
	}
}

func TestBuild_NumericValues(t *testing.T) {
	recs := []survey.Record{
		survey.NewRecord(1, map[string]survey.Value{
			"region": survey.NumberValue(12),
			"age":    survey.NumberValue(34),
		}),
	}
	got, err := Build(recs, "region", []string{"age"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.Count("12", "age", "34") != 1 {
		t.Errorf("numeric bucket missing: %v", got)
	}
}

func TestBuild_DoesNotAliasInputs(t *testing.T) {
	cols := []string{"col"}
	recs := rows(map[string]string{"region": "A", "col": "x"})
	a, _ := Build(recs, "region", cols, nil)
	b, _ := Build(recs, "region", cols, nil)
	a["A"]["col"]["x"] = 99
	if b.Count("A", "col", "x") != 1 {
		t.Error("separate builds must not share counters")
	}
}

func TestBuild_TotalsMatchRecordCount(t *testing.T) {
	regions := []string{"Ampara", "Badulla", "Colombo", "Galle"}
	values := []string{"Falantes", "Semi-falantes", "Não-falantes", "NA"}
	rng := rand.New(rand.NewSource(7))

	var recs []survey.Record
	for i := 0; i < 200; i++ {
		f := map[string]survey.Value{
			"region": survey.StringValue(regions[rng.Intn(len(regions))]),
		}
		if rng.Intn(10) > 0 {
			f["fluency"] = survey.StringValue(values[rng.Intn(len(values))])
		}
		f["sex"] = survey.StringValue([]string{"M", "F"}[rng.Intn(2)])
		recs = append(recs, survey.NewRecord(i+1, f))
	}

	agg, err := Build(recs, "region", []string{"fluency", "sex"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, col := range []string{"fluency", "sex"} {
		if got := agg.ColumnTotal(col); got != len(recs) {
			t.Errorf("ColumnTotal(%s) = %d, want %d", col, got, len(recs))
		}
	}
	if agg.Total() != 2*len(recs) {
		t.Errorf("Total = %d, want %d", agg.Total(), 2*len(recs))
	}

	// Counting commutes: shuffled input yields the same aggregate.
	shuffled := append([]survey.Record(nil), recs...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	again, err := Build(shuffled, "region", []string{"fluency", "sex"}, nil)
	if err != nil {
		t.Fatalf("Build shuffled: %v", err)
	}
	if !agg.Equal(again) {
		t.Error("aggregate depends on record order")
	}
}

func TestGroupsAndValuesSorted(t *testing.T) {
	agg := Aggregate{
		"b": {"c": {"z": 1, "a": 2}},
		"a": {"c": {"m": 1}},
	}
	if g := agg.Groups(); g[0] != "a" || g[1] != "b" {
		t.Errorf("Groups = %v", g)
	}
	if v := agg["b"]["c"].Values(); v[0] != "a" || v[1] != "z" {
		t.Errorf("Values = %v", v)
	}
	if agg.Equal(Aggregate{"a": {"c": {"m": 1}}}) {
		t.Error("Equal should fail when groups differ")
	}
}
