package survey

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DistanceState marks whether a length field holds a value.
type DistanceState int

const (
	DistanceEmpty DistanceState = iota
	DistanceValid
)

// CompassState marks whether an azimuth field holds a value.
type CompassState int

const (
	CompassEmpty CompassState = iota
	CompassValid
)

// ClinoState marks an inclination field. Up and Down are explicit vertical
// sentinels that carry no numeric value.
type ClinoState int

const (
	ClinoEmpty ClinoState = iota
	ClinoValid
	ClinoUp
	ClinoDown
)

// Distance is a length measurement with its state.
type Distance struct {
	Value float64
	State DistanceState
}

// Compass is an azimuth in degrees with its state.
type Compass struct {
	Value float64
	State CompassState
}

// Clino is an inclination in degrees with its state.
type Clino struct {
	Value float64
	State ClinoState
}

// ValidDistance returns a distance holding v.
func ValidDistance(v float64) Distance { return Distance{Value: v, State: DistanceValid} }

// ValidCompass returns an azimuth holding v.
func ValidCompass(v float64) Compass { return Compass{Value: v, State: CompassValid} }

// ValidClino returns an inclination holding v. Exactly +90 and -90 become the
// Up and Down sentinels.
func ValidClino(v float64) Clino {
	switch v {
	case 90:
		return Clino{State: ClinoUp}
	case -90:
		return Clino{State: ClinoDown}
	}
	return Clino{Value: v, State: ClinoValid}
}

func (d Distance) IsEmpty() bool { return d.State == DistanceEmpty }
func (c Compass) IsEmpty() bool  { return c.State == CompassEmpty }
func (c Clino) IsEmpty() bool    { return c.State == ClinoEmpty }

// IsVertical reports whether the inclination is one of the Up/Down sentinels.
func (c Clino) IsVertical() bool { return c.State == ClinoUp || c.State == ClinoDown }

func (d Distance) String() string {
	if d.State != DistanceValid {
		return ""
	}
	return formatNumber(d.Value)
}

func (c Compass) String() string {
	if c.State != CompassValid {
		return ""
	}
	return formatNumber(c.Value)
}

func (c Clino) String() string {
	switch c.State {
	case ClinoValid:
		return formatNumber(c.Value)
	case ClinoUp:
		return "Up"
	case ClinoDown:
		return "Down"
	}
	return ""
}

// ParseDistance converts editor text into a Distance. Blank text is Empty.
// The second result is false when the text is not a number.
func ParseDistance(text string) (Distance, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Distance{}, true
	}
	v, err := parseNumber(text)
	if err != nil {
		return Distance{}, false
	}
	return ValidDistance(v), true
}

// ParseCompass converts editor text into a Compass. Blank text is Empty.
func ParseCompass(text string) (Compass, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Compass{}, true
	}
	v, err := parseNumber(text)
	if err != nil {
		return Compass{}, false
	}
	return ValidCompass(v), true
}

// ParseClino converts editor text into a Clino. "up" and "down" (any case)
// select the vertical sentinels; blank text is Empty.
func ParseClino(text string) (Clino, bool) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Clino{}, true
	case strings.EqualFold(text, "up"):
		return Clino{State: ClinoUp}, true
	case strings.EqualFold(text, "down"):
		return Clino{State: ClinoDown}, true
	}
	v, err := parseNumber(text)
	if err != nil {
		return Clino{}, false
	}
	return ValidClino(v), true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
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
