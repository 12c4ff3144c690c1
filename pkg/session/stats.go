package session

import "math"

// Category is one displayed value of the primary column with its label.
type Category struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// DefaultCategories returns the fluency categories in display order.
func DefaultCategories() []Category {
	return []Category{
		{Value: "Falantes", Label: "Speakers"},
		{Value: "Semi-falantes", Label: "Semi-speakers"},
		{Value: "Não-falantes", Label: "Non-speakers"},
		{Value: "NA", Label: "NA"},
	}
}

// CategoryStat is the count of one category in a region.
type CategoryStat struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// RegionStats summarizes the primary column of one region.
type RegionStats struct {
	Name        string         `json:"name"`
	District    string         `json:"district,omitempty"`
	SubDistrict string         `json:"subdistrict,omitempty"`
	Level       Level          `json:"level"`
	Column      string         `json:"column"`
	Total       int            `json:"total"`
	Categories  []CategoryStat `json:"categories"`
}

// Stats returns the primary-column statistics of the region called name
// at level. ok is false for an unknown level or a region without data.
// Total counts every observed value, including those outside the
// configured categories; percentages are rounded to the nearest integer.
func (s *Session) Stats(level Level, name string) (RegionStats, bool) {
	if checkLevel(level) != nil {
		return RegionStats{}, false
	}
	st, _ := s.snapshot()
	v := st.view(level)
	key := s.cfg.Normalize(name)
	g, ok := v.Aggregate[key]
	if !ok {
		return RegionStats{}, false
	}

	col := s.cfg.Columns.Count[0]
	counts := g[col]
	rs := RegionStats{
		Name:       key,
		Level:      level,
		Column:     col,
		Total:      counts.Total(),
		Categories: make([]CategoryStat, 0, len(s.cfg.Categories)),
	}
	if level == District {
		rs.District = key
	}
	for _, f := range v.Features {
		if s.cfg.Normalize(f.Name()) == key {
			rs.Name = f.Name()
			rs.District = f.Coarse
			rs.SubDistrict = f.Fine
			break
		}
	}

	for _, c := range s.cfg.Categories {
		n := counts[c.Value]
		label := c.Label
		if label == "" {
			label = c.Value
		}
		rs.Categories = append(rs.Categories, CategoryStat{
			Value:   c.Value,
			Label:   label,
			Count:   n,
			Percent: percent(n, rs.Total),
		})
	}
	return rs, true
}

func percent(n, total int) int {
	if n == 0 || total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
