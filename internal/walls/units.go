package walls

import (
	"fmt"
	"slices"
	"strings"
)

// VectorType selects how vector lines give the shot direction.
type VectorType int

const (
	// CT is compass-and-tape: distance, azimuth, inclination.
	CT VectorType = iota
	// RECT is rectangular: east, north, up offsets.
	RECT
)

// LrudType selects which station LRUDs on a vector line belong to and
// which way they face.
type LrudType int

const (
	LrudFrom LrudType = iota
	LrudTo
	LrudFB
	LrudTB
)

func (t LrudType) String() string {
	switch t {
	case LrudTo:
		return "T"
	case LrudFB:
		return "FB"
	case LrudTB:
		return "TB"
	}
	return "F"
}

// AtFromStation reports whether LRUDs describe the from-station.
func (t LrudType) AtFromStation() bool {
	return t == LrudFrom || t == LrudFB
}

// Units is the measurement context #UNITS directives maintain. Correction
// lengths are in meters and correction angles in degrees.
type Units struct {
	Vector VectorType

	DUnit LengthUnit
	SUnit LengthUnit

	AUnit  AngleUnit
	ABUnit AngleUnit
	VUnit  AngleUnit
	VBUnit AngleUnit

	Decl  float64
	IncA  float64
	IncAB float64
	IncV  float64
	IncVB float64
	Rect  float64

	IncD Length
	IncS Length

	TypeABCorrected bool
	TypeABTolerance float64
	TypeVBCorrected bool
	TypeVBTolerance float64

	Lrud      LrudType
	LrudOrder []byte // permutation of "LRUD"

	CTOrder   []byte // "DAV" or a permutation, V optional
	RectOrder []byte // "ENU" or a permutation, U optional

	Prefix [3]string
}

// DefaultUnits returns the Walls defaults.
func DefaultUnits() Units {
	return Units{
		IncD:            meters(0),
		IncS:            meters(0),
		TypeABTolerance: 5,
		TypeVBTolerance: 5,
		LrudOrder:       []byte("LRUD"),
		CTOrder:         []byte("DAV"),
		RectOrder:       []byte("ENU"),
	}
}

// Clone returns a copy sharing no slices with u.
func (u Units) Clone() Units {
	u.LrudOrder = slices.Clone(u.LrudOrder)
	u.CTOrder = slices.Clone(u.CTOrder)
	u.RectOrder = slices.Clone(u.RectOrder)
	return u
}

// SameCalibration reports whether u and o agree on everything a trip's
// calibration records.
func (u Units) SameCalibration(o Units) bool {
	return u.DUnit == o.DUnit &&
		u.Decl == o.Decl &&
		u.IncD == o.IncD &&
		u.IncA == o.IncA &&
		u.IncAB == o.IncAB &&
		u.IncV == o.IncV &&
		u.IncVB == o.IncVB &&
		u.TypeABCorrected == o.TypeABCorrected &&
		u.TypeVBCorrected == o.TypeVBCorrected
}

// CorrectLength applies INCS to a passage dimension.
func (u Units) CorrectLength(l Length) Length {
	return l.Add(u.IncS)
}

// ProcessStationName applies the active prefixes. Walls names carry up to
// three colon-separated prefixes; explicit ones override the #PREFIX state
// level by level, starting nearest the name.
func (u Units) ProcessStationName(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ":")
	base := parts[len(parts)-1]
	explicit := parts[:len(parts)-1]

	var prefixes []string
	for level := 3; level >= 1; level-- {
		p := u.Prefix[level-1]
		if level <= len(explicit) {
			p = explicit[len(explicit)-level]
		}
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return strings.Join(append(prefixes, base), ":")
}

// applyOption applies one #UNITS option to u. It returns false for options it
// does not recognise.
func (u *Units) applyOption(name, value string) (bool, error) {
	switch name {
	case "F", "FEET":
		u.DUnit, u.SUnit = Feet, Feet
	case "M", "METERS":
		u.DUnit, u.SUnit = Meters, Meters
	case "D":
		unit, err := lengthUnitOption(value)
		if err != nil {
			return true, err
		}
		u.DUnit = unit
	case "S":
		unit, err := lengthUnitOption(value)
		if err != nil {
			return true, err
		}
		u.SUnit = unit
	case "A", "AB", "A/AB":
		unit, err := angleUnitOption(value, false)
		if err != nil {
			return true, err
		}
		if name != "AB" {
			u.AUnit = unit
		}
		if name != "A" {
			u.ABUnit = unit
		}
	case "V", "VB", "V/VB":
		unit, err := angleUnitOption(value, true)
		if err != nil {
			return true, err
		}
		if name != "VB" {
			u.VUnit = unit
		}
		if name != "V" {
			u.VBUnit = unit
		}
	case "DECL", "INCA", "INCAB", "INCV", "INCVB", "RECT":
		if name == "RECT" && value == "" {
			u.Vector = RECT
			return true, nil
		}
		allowPercent := name == "INCV" || name == "INCVB"
		a, ok := parseAngle(value, Degrees, allowPercent)
		if value == "" || !ok {
			return true, fmt.Errorf("invalid angle %q for %s", value, name)
		}
		*u.angleField(name) = a.Degrees
	case "INCD", "INCS":
		unit := u.DUnit
		if name == "INCS" {
			unit = u.SUnit
		}
		l, ok := parseLength(value, unit)
		if value == "" || !ok {
			return true, fmt.Errorf("invalid length %q for %s", value, name)
		}
		if name == "INCD" {
			u.IncD = l
		} else {
			u.IncS = l
		}
	case "CT":
		u.Vector = CT
	case "TYPEAB", "TYPEVB":
		corrected, tol, err := typeOption(value)
		if err != nil {
			return true, fmt.Errorf("%s: %w", name, err)
		}
		if name == "TYPEAB" {
			u.TypeABCorrected = corrected
			if tol >= 0 {
				u.TypeABTolerance = tol
			}
		} else {
			u.TypeVBCorrected = corrected
			if tol >= 0 {
				u.TypeVBTolerance = tol
			}
		}
	case "LRUD":
		return true, u.lrudOption(value)
	case "ORDER":
		return true, u.orderOption(value)
	case "PREFIX", "PREFIX1", "PREFIX2", "PREFIX3":
		level := 1
		if len(name) == len("PREFIX")+1 {
			level = int(name[len(name)-1] - '0')
		}
		u.Prefix[level-1] = value
	default:
		return false, nil
	}
	return true, nil
}

func (u *Units) angleField(name string) *float64 {
	switch name {
	case "INCA":
		return &u.IncA
	case "INCAB":
		return &u.IncAB
	case "INCV":
		return &u.IncV
	case "INCVB":
		return &u.IncVB
	case "RECT":
		return &u.Rect
	}
	return &u.Decl
}

func lengthUnitOption(value string) (LengthUnit, error) {
	switch strings.ToUpper(value) {
	case "F", "FEET":
		return Feet, nil
	case "M", "METERS":
		return Meters, nil
	}
	return Meters, fmt.Errorf("invalid length unit %q", value)
}

func angleUnitOption(value string, allowPercent bool) (AngleUnit, error) {
	switch strings.ToUpper(value) {
	case "D", "DEGREES":
		return Degrees, nil
	case "G", "GRADS":
		return Grads, nil
	case "M", "MILS":
		return Mils, nil
	case "P", "PERCENT":
		if allowPercent {
			return PercentGrade, nil
		}
	}
	return Degrees, fmt.Errorf("invalid angle unit %q", value)
}

// typeOption parses C|N[,tolerance[,X]]. A negative tolerance means none
// was given.
func typeOption(value string) (corrected bool, tol float64, err error) {
	parts := strings.Split(value, ",")
	switch strings.ToUpper(parts[0]) {
	case "C":
		corrected = true
	case "N":
	default:
		return false, 0, fmt.Errorf("expected C or N, got %q", parts[0])
	}
	tol = -1
	if len(parts) > 1 && parts[1] != "" {
		a, ok := parseAngle(parts[1], Degrees, false)
		if !ok {
			return false, 0, fmt.Errorf("invalid tolerance %q", parts[1])
		}
		tol = a.Degrees
	}
	return corrected, tol, nil
}

func (u *Units) lrudOption(value string) error {
	kind, order, hasOrder := strings.Cut(strings.ToUpper(value), ":")
	switch kind {
	case "F", "FROM":
		u.Lrud = LrudFrom
	case "T", "TO":
		u.Lrud = LrudTo
	case "FB":
		u.Lrud = LrudFB
	case "TB":
		u.Lrud = LrudTB
	default:
		return fmt.Errorf("invalid LRUD type %q", kind)
	}
	if hasOrder {
		if !isPermutation(order, "LRUD", 4) {
			return fmt.Errorf("invalid LRUD order %q", order)
		}
		u.LrudOrder = []byte(order)
	}
	return nil
}

func (u *Units) orderOption(value string) error {
	order := strings.ToUpper(value)
	switch {
	case validOrder(order, "DAV"):
		u.CTOrder = []byte(order)
	case validOrder(order, "ENU"):
		u.RectOrder = []byte(order)
	default:
		return fmt.Errorf("invalid ORDER %q", value)
	}
	return nil
}

// validOrder accepts a permutation of all three letters of alphabet, or of
// its first two when the third is omitted.
func validOrder(order, alphabet string) bool {
	switch len(order) {
	case 3:
		return isPermutation(order, alphabet, 3)
	case 2:
		return isPermutation(order, alphabet[:2], 2)
	}
	return false
}

// isPermutation reports whether s has length n and uses each letter of
// alphabet at most once.
func isPermutation(s, alphabet string, n int) bool {
	if len(s) != n {
		return false
	}
	seen := make(map[rune]bool, n)
	for _, r := range s {
		if !strings.ContainsRune(alphabet, r) || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
