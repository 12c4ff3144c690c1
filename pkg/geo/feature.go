// Package geo reads administrative boundary collections. The aggregation
// core only looks at a feature's coarse (district) and fine (sub-district)
// names; geometry is carried for the map layer.
package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Feature is one administrative boundary.
type Feature struct {
	ID         string
	Coarse     string // district name, e.g. GADM NAME_1
	Fine       string // sub-district name, empty on district features
	Properties map[string]any
	Geometry   geom.T
}

// Name is the most specific name of the feature.
func (f Feature) Name() string {
	if f.Fine != "" {
		return f.Fine
	}
	return f.Coarse
}

// Box is a lon/lat bounding box.
type Box struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Bounds returns the bounding box of the geometry; ok is false when the
// feature has no geometry.
func (f Feature) Bounds() (Box, bool) {
	if f.Geometry == nil || len(f.Geometry.FlatCoords()) == 0 {
		return Box{}, false
	}
	b := f.Geometry.Bounds()
	return Box{MinLon: b.Min(0), MinLat: b.Min(1), MaxLon: b.Max(0), MaxLat: b.Max(1)}, true
}

// Centroid returns the lon/lat centroid of the geometry.
func (f Feature) Centroid() (lon, lat float64, ok bool) {
	if f.Geometry == nil || len(f.Geometry.FlatCoords()) == 0 {
		return 0, 0, false
	}
	c, err := xy.Centroid(f.Geometry)
	if err != nil {
		return 0, 0, false
	}
	return c.X(), c.Y(), true
}
