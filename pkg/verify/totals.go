package verify

import "fmt"

// TotalCount checks, per counted column, that the district aggregate and
// the sub-district aggregate each sum to the number of raw records.
func TotalCount(in Input) []Violation {
	expected := len(in.Records)

	var out []Violation
	for _, col := range in.CountColumns {
		byDistrict := in.ByDistrict.ColumnTotal(col)
		bySub := in.BySubDistrict.ColumnTotal(col)
		for _, lvl := range []struct {
			level string
			sum   int
		}{
			{"district", byDistrict},
			{"subdistrict", bySub},
		} {
			if lvl.sum == expected {
				continue
			}
			out = append(out, Violation{
				Check: CheckTotalCount,
				Message: fmt.Sprintf("%s: %s total does not match number of samples: district sum %d, sub-district sum %d, expected %d",
					col, lvl.level, byDistrict, bySub, expected),
				Details: map[string]any{
					"column":          col,
					"level":           lvl.level,
					"district_sum":    byDistrict,
					"subdistrict_sum": bySub,
					"expected":        expected,
				},
			})
		}
	}
	return out
}
