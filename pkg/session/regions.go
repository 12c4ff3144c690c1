package session

import (
	"github.com/hazyhaar/slp-atlas/pkg/aggregate"
	"github.com/hazyhaar/slp-atlas/pkg/geo"
)

// Region is a boundary feature joined to its aggregate entry.
type Region struct {
	Name        string          `json:"name"`
	Key         string          `json:"key"`
	District    string          `json:"district"`
	SubDistrict string          `json:"subdistrict,omitempty"`
	HasData     bool            `json:"has_data"`
	Samples     int             `json:"samples"`
	Bounds      *geo.Box        `json:"bounds,omitempty"`
	Centroid    []float64       `json:"centroid,omitempty"`
	Data        aggregate.Group `json:"-"`
}

// Regions joins every feature of level with the level's aggregate: by
// sub-district name when the feature has one, by district name
// otherwise. Features keep their collection order.
func (s *Session) Regions(level Level) ([]Region, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	st, _ := s.snapshot()
	return s.regions(st, level), nil
}

func (s *Session) regions(st *state, level Level) []Region {
	v := st.view(level)
	primary := s.cfg.Columns.Count[0]

	out := make([]Region, 0, len(v.Features))
	for _, f := range v.Features {
		key := s.cfg.Normalize(f.Name())
		r := Region{
			Name:        f.Name(),
			Key:         key,
			District:    f.Coarse,
			SubDistrict: f.Fine,
		}
		if g, ok := v.Aggregate[key]; ok {
			r.HasData = true
			r.Data = g
			r.Samples = g[primary].Total()
		}
		if b, ok := f.Bounds(); ok {
			r.Bounds = &b
		}
		if lon, lat, ok := f.Centroid(); ok {
			r.Centroid = []float64{lon, lat}
		}
		out = append(out, r)
	}
	return out
}

func countWithData(regions []Region) int {
	n := 0
	for _, r := range regions {
		if r.HasData {
			n++
		}
	}
	return n
}

// NameTree returns the hierarchy reduced to names, for display.
func (s *Session) NameTree() map[string][]string {
	tree := s.Hierarchy()
	out := make(map[string][]string, tree.Len())
	for _, district := range tree.Keys() {
		node, _ := tree.Child(district)
		if node.IsLeaf() {
			out[district] = []string{}
			continue
		}
		out[district] = node.Keys()
	}
	return out
}
