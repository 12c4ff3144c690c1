package session

import (
	"errors"
	"fmt"
)

// Level selects one of the two boundary resolutions.
type Level string

const (
	District    Level = "district"
	SubDistrict Level = "subdistrict"
)

// ErrUnknownLevel is returned for a level name that is neither district
// nor subdistrict.
var ErrUnknownLevel = errors.New("unknown level")

// ParseLevel accepts the level names and their aggregate key aliases
// (byDistrict, bySubDistrict).
func ParseLevel(s string) (Level, error) {
	switch s {
	case "district", "byDistrict":
		return District, nil
	case "subdistrict", "sub-district", "bySubDistrict":
		return SubDistrict, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func checkLevel(level Level) error {
	if level != District && level != SubDistrict {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return nil
}
