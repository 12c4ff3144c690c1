package geo

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/slp-atlas/pkg/diag"
)

func TestParseFeatures(t *testing.T) {
	features, err := ParseFeatures([]byte(subDistrictJSON), DefaultNames())
	if err != nil {
		t.Fatalf("ParseFeatures: %v", err)
	}
	if len(features) != 3 {
		t.Fatalf("features = %d, want 3", len(features))
	}

	f := features[0]
	if f.Coarse != "Batticaloa" || f.Fine != "ManmunaiNorth" {
		t.Errorf("names = %q/%q, want Batticaloa/ManmunaiNorth", f.Coarse, f.Fine)
	}
	if f.Name() != "ManmunaiNorth" {
		t.Errorf("Name = %q, want ManmunaiNorth", f.Name())
	}
	if f.Properties["GID_2"] != "LKA.1.1_1" {
		t.Errorf("GID_2 = %v", f.Properties["GID_2"])
	}

	box, ok := f.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if box.MinLon != 81 || box.MaxLon != 82 || box.MinLat != 7 || box.MaxLat != 8 {
		t.Errorf("bounds = %+v", box)
	}

	lon, lat, ok := f.Centroid()
	if !ok {
		t.Fatal("expected centroid")
	}
	if math.Abs(lon-81.5) > 1e-9 || math.Abs(lat-7.5) > 1e-9 {
		t.Errorf("centroid = (%v, %v), want (81.5, 7.5)", lon, lat)
	}

	if _, ok := features[2].Bounds(); ok {
		t.Error("null geometry should have no bounds")
	}
}

func TestParseFeatures_DistrictLevel(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"NAME_1":"Ampara"},"geometry":null}
	]}`
	features, err := ParseFeatures([]byte(doc), Names{Coarse: "NAME_1"})
	if err != nil {
		t.Fatalf("ParseFeatures: %v", err)
	}
	if features[0].Fine != "" {
		t.Errorf("Fine = %q, want empty", features[0].Fine)
	}
	if features[0].Name() != "Ampara" {
		t.Errorf("Name = %q, want Ampara", features[0].Name())
	}
}

func TestParseFeatures_Invalid(t *testing.T) {
	if _, err := ParseFeatures([]byte("{not json"), DefaultNames()); err == nil {
		t.Error("expected error for malformed geojson")
	}
}

func TestLoadFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gadm41_LKA_2.json")
	os.WriteFile(path, []byte(subDistrictJSON), 0o644)

	features, err := LoadFeatures(path, DefaultNames())
	if err != nil {
		t.Fatalf("LoadFeatures: %v", err)
	}
	if len(features) != 3 {
		t.Errorf("features = %d, want 3", len(features))
	}

	if _, err := ReadFeatures(strings.NewReader(""), DefaultNames()); err == nil {
		t.Error("expected error for empty document")
	}
}

func TestHierarchy(t *testing.T) {
	features, _ := ParseFeatures([]byte(subDistrictJSON), DefaultNames())
	root := Hierarchy(features, nil)
	if keys := root.Keys(); len(keys) != 2 || keys[0] != "Batticaloa" || keys[1] != "Trincomalee" {
		t.Errorf("districts = %v", keys)
	}
	batti, _ := root.Child("Batticaloa")
	if batti.IsLeaf() || batti.Len() != 2 {
		t.Errorf("Batticaloa should be a branch with 2 sub-districts")
	}
	leaf, ok := root.Lookup("Batticaloa", "Eravur")
	if !ok {
		t.Fatal("expected Eravur leaf")
	}
	if f, _ := leaf.Value(); f.Fine != "Eravur" {
		t.Errorf("leaf feature = %q", f.Fine)
	}
}

func TestHierarchy_IncompleteNames(t *testing.T) {
	tests := []struct {
		name     string
		features []Feature
	}{
		{"blank first", []Feature{{Coarse: "Ampara", Fine: ""}, {Coarse: "Ampara", Fine: "Pottuvil"}}},
		{"blank after branch", []Feature{{Coarse: "Ampara", Fine: "Pottuvil"}, {Coarse: "Ampara", Fine: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &diag.Collector{}
			root := Hierarchy(append(tt.features, Feature{Fine: "Kinniya"}), sink)

			if keys := root.Keys(); len(keys) != 1 || keys[0] != "Ampara" {
				t.Fatalf("districts = %v", keys)
			}
			ampara, _ := root.Child("Ampara")
			if ampara.IsLeaf() || ampara.Len() != 1 {
				t.Errorf("Ampara should stay a branch with one sub-district")
			}
			if _, ok := root.Lookup("Ampara", "Pottuvil"); !ok {
				t.Error("Pottuvil missing")
			}
			if n := sink.Count(HierarchyCheck); n != 2 {
				t.Errorf("hierarchy diagnostics = %d, want 2", n)
			}
		})
	}
}
