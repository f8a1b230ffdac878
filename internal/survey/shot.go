package survey

// Shot is the measurement between two consecutive stations.
type Shot struct {
	Distance    Distance
	Compass     Compass
	BackCompass Compass
	Clino       Clino
	BackClino   Clino

	// DistanceExcluded removes the shot length from network totals.
	// The zero value includes it.
	DistanceExcluded bool
}

// IsDistanceIncluded reports whether the length counts toward totals.
func (s Shot) IsDistanceIncluded() bool {
	return !s.DistanceExcluded
}

// IsBlank reports whether no measurement is set.
func (s Shot) IsBlank() bool {
	return s.Distance.IsEmpty() &&
		s.Compass.IsEmpty() && s.BackCompass.IsEmpty() &&
		s.Clino.IsEmpty() && s.BackClino.IsEmpty()
}

// IsVertical reports whether either inclination is a vertical sentinel.
func (s Shot) IsVertical() bool {
	return s.Clino.IsVertical() || s.BackClino.IsVertical()
}
