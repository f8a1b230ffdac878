package walls

import (
	"math"
	"time"
)

// Vector is one parsed vector line. For a station-only LRUD line To is empty
// and Distance is missing.
type Vector struct {
	From string
	To   string

	Distance         Length
	FrontAzimuth     Angle
	BackAzimuth      Angle
	FrontInclination Angle
	BackInclination  Angle

	// East, North and Elevation are set by RECT lines.
	East      Length
	North     Length
	Elevation Length

	Left  Length
	Right Length
	Up    Length
	Down  Length

	Date    time.Time
	Units   Units
	Segment Segment
}

// HasLRUD reports whether any passage dimension was given.
func (v Vector) HasLRUD() bool {
	return v.Left.Valid || v.Right.Valid || v.Up.Valid || v.Down.Valid
}

// DeriveCTFromRect fills the distance, azimuth and inclination from the
// rectangular offsets of a RECT line.
func (v *Vector) DeriveCTFromRect() {
	if !v.East.Valid || !v.North.Valid {
		return
	}
	e, n := v.East.Meters, v.North.Meters
	u := 0.0
	if v.Elevation.Valid {
		u = v.Elevation.Meters
	}

	horizontal := math.Hypot(e, n)
	v.Distance = meters(math.Hypot(horizontal, u))

	az := math.Atan2(e, n) * 180 / math.Pi
	if az < 0 {
		az += 360
	}
	v.FrontAzimuth = degrees(az)
	v.FrontInclination = degrees(math.Atan2(u, horizontal) * 180 / math.Pi)
	v.BackAzimuth = Angle{}
	v.BackInclination = Angle{}
}

// FixStation is a #FIX line: a station with known coordinates.
type FixStation struct {
	Name      string
	East      Length
	North     Length
	Elevation Length
	Date      time.Time
	Units     Units
	Segment   Segment
}
