package survey

import (
	"golang.org/x/text/cases"
)

// Station is a named survey point with optional passage dimensions.
type Station struct {
	Name  string
	Left  Distance
	Right Distance
	Up    Distance
	Down  Distance
}

// NewStation returns a station with the given name and empty LRUDs.
func NewStation(name string) Station {
	return Station{Name: name}
}

// IsValid reports whether the station has a name.
func (s Station) IsValid() bool {
	return s.Name != ""
}

// HasLRUD reports whether any passage dimension is set.
func (s Station) HasLRUD() bool {
	return !s.Left.IsEmpty() || !s.Right.IsEmpty() || !s.Up.IsEmpty() || !s.Down.IsEmpty()
}

// IsBlank reports whether the station carries no name and no dimensions.
func (s Station) IsBlank() bool {
	return s.Name == "" && !s.HasLRUD()
}

// dimension returns a pointer to the LRUD field selected by role, or nil.
func (s *Station) dimension(role Role) *Distance {
	switch role {
	case StationLeftRole:
		return &s.Left
	case StationRightRole:
		return &s.Right
	case StationUpRole:
		return &s.Up
	case StationDownRole:
		return &s.Down
	}
	return nil
}

// FoldName returns the case-folded form of a station name. Two names refer
// to the same station when their folded forms are equal.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// SameName compares two station names case-insensitively.
func SameName(a, b string) bool {
	if a == b {
		return true
	}
	return FoldName(a) == FoldName(b)
}
