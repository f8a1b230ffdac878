package walls

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// LengthUnit is a unit lengths can be written in.
type LengthUnit int

const (
	Meters LengthUnit = iota
	Feet
)

const metersPerFoot = 0.3048

func (u LengthUnit) String() string {
	if u == Feet {
		return "feet"
	}
	return "meters"
}

// AngleUnit is a unit angles can be written in. Percent grade is only
// meaningful for inclinations.
type AngleUnit int

const (
	Degrees AngleUnit = iota
	Grads
	Mils
	PercentGrade
)

func (u AngleUnit) String() string {
	switch u {
	case Grads:
		return "grads"
	case Mils:
		return "mils"
	case PercentGrade:
		return "percent"
	}
	return "degrees"
}

// Length is a length in meters, or missing.
type Length struct {
	Meters float64
	Valid  bool
}

// Angle is an angle in degrees, or missing.
type Angle struct {
	Degrees float64
	Valid   bool
}

func meters(v float64) Length { return Length{Meters: v, Valid: true} }
func degrees(v float64) Angle { return Angle{Degrees: v, Valid: true} }
func lengthIn(v float64, u LengthUnit) Length {
	if u == Feet {
		return meters(v * metersPerFoot)
	}
	return meters(v)
}

// In returns the length expressed in u.
func (l Length) In(u LengthUnit) float64 {
	if u == Feet {
		return l.Meters / metersPerFoot
	}
	return l.Meters
}

// Add returns l+o when both are valid, otherwise l.
func (l Length) Add(o Length) Length {
	if !l.Valid || !o.Valid {
		return l
	}
	return meters(l.Meters + o.Meters)
}

func angleIn(v float64, u AngleUnit) Angle {
	switch u {
	case Grads:
		return degrees(v * 0.9)
	case Mils:
		return degrees(v * 360 / 6400)
	case PercentGrade:
		return degrees(math.Atan(v/100) * 180 / math.Pi)
	}
	return degrees(v)
}

// isMissing reports whether a field token is a Walls placeholder for no data.
func isMissing(tok string) bool {
	return tok == "--" || tok == ""
}

var feetInches = regexp.MustCompile(`^([+-]?\d*\.?\d*)[iI](\d*\.?\d*)$`)

// parseLength reads a length token. A trailing f or m overrides def;
// 5i6 means five feet six inches.
func parseLength(tok string, def LengthUnit) (Length, bool) {
	if isMissing(tok) {
		return Length{}, true
	}
	if m := feetInches.FindStringSubmatch(tok); m != nil {
		ft, in := 0.0, 0.0
		var err error
		if m[1] != "" && m[1] != "+" && m[1] != "-" {
			if ft, err = parseNumber(m[1]); err != nil {
				return Length{}, false
			}
		}
		if m[2] != "" {
			if in, err = parseNumber(m[2]); err != nil {
				return Length{}, false
			}
		}
		if strings.HasPrefix(m[1], "-") {
			in = -in
		}
		return meters((ft + in/12) * metersPerFoot), true
	}

	unit := def
	switch last := tok[len(tok)-1]; last {
	case 'f', 'F':
		unit, tok = Feet, tok[:len(tok)-1]
	case 'm', 'M':
		unit, tok = Meters, tok[:len(tok)-1]
	}
	v, err := parseNumber(tok)
	if err != nil {
		return Length{}, false
	}
	return lengthIn(v, unit), true
}

var quadrant = regexp.MustCompile(`^([NSns])(\d*\.?\d+)([EWew])$`)

// parseAzimuth reads an azimuth token: a number with an optional d, g or m
// suffix, or a quadrant bearing such as N45E.
func parseAzimuth(tok string, def AngleUnit) (Angle, bool) {
	if isMissing(tok) {
		return Angle{}, true
	}
	if m := quadrant.FindStringSubmatch(tok); m != nil {
		v, err := parseNumber(m[2])
		if err != nil || v > 90 {
			return Angle{}, false
		}
		ns, ew := strings.ToUpper(m[1]), strings.ToUpper(m[3])
		switch {
		case ns == "N" && ew == "E":
			return degrees(v), true
		case ns == "S" && ew == "E":
			return degrees(180 - v), true
		case ns == "S" && ew == "W":
			return degrees(180 + v), true
		default:
			return degrees(math.Mod(360-v, 360)), true
		}
	}
	return parseAngle(tok, def, false)
}

// parseInclination reads an inclination token. Percent grade (p) is allowed.
func parseInclination(tok string, def AngleUnit) (Angle, bool) {
	if isMissing(tok) {
		return Angle{}, true
	}
	return parseAngle(tok, def, true)
}

func parseAngle(tok string, def AngleUnit, allowPercent bool) (Angle, bool) {
	unit := def
	switch last := tok[len(tok)-1]; last {
	case 'd', 'D':
		unit, tok = Degrees, tok[:len(tok)-1]
	case 'g', 'G':
		unit, tok = Grads, tok[:len(tok)-1]
	case 'm', 'M':
		unit, tok = Mils, tok[:len(tok)-1]
	case 'p', 'P':
		if !allowPercent {
			return Angle{}, false
		}
		unit, tok = PercentGrade, tok[:len(tok)-1]
	}
	v, err := parseNumber(tok)
	if err != nil {
		return Angle{}, false
	}
	return angleIn(v, unit), true
}

// splitSights splits "fs/bs" into its two halves. A token without '/' is a
// frontsight only.
func splitSights(tok string) (front, back string) {
	front, back, _ = strings.Cut(tok, "/")
	return front, back
}

// parseNumber is strconv.ParseFloat limited to finite values.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
