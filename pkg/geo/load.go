package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// Names are the feature property keys holding the two region names.
type Names struct {
	Coarse string `yaml:"coarse"`
	Fine   string `yaml:"fine"`
}

// DefaultNames are the GADM level-1 / level-2 property keys.
func DefaultNames() Names {
	return Names{Coarse: "NAME_1", Fine: "NAME_2"}
}

// LoadFeatures reads a GeoJSON FeatureCollection from disk.
func LoadFeatures(path string, names Names) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geojson: %w", err)
	}
	defer f.Close()
	return ReadFeatures(f, names)
}

// ReadFeatures parses a GeoJSON FeatureCollection.
func ReadFeatures(r io.Reader, names Names) ([]Feature, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	return ParseFeatures(data, names)
}

// ParseFeatures decodes a FeatureCollection document. Features keep
// their input order.
func ParseFeatures(data []byte, names Names) ([]Feature, error) {
	if names.Coarse == "" {
		names = DefaultNames()
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		if gf == nil {
			continue
		}
		f := Feature{
			ID:         gf.ID,
			Properties: gf.Properties,
			Geometry:   gf.Geometry,
		}
		f.Coarse = propString(gf.Properties, names.Coarse)
		if names.Fine != "" {
			f.Fine = propString(gf.Properties, names.Fine)
		}
		features = append(features, f)
	}
	return features, nil
}

func propString(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
