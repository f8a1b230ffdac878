package survey

// LengthUnit is the unit distances are recorded in.
type LengthUnit int

const (
	Meters LengthUnit = iota
	Feet
)

func (u LengthUnit) String() string {
	if u == Feet {
		return "feet"
	}
	return "meters"
}

// Calibration holds the instrument corrections of a trip. Values are added
// to raw readings; declination is added to front and back azimuths.
type Calibration struct {
	DistanceUnit LengthUnit

	TapeCalibration float64

	FrontCompassCalibration float64
	BackCompassCalibration  float64
	FrontClinoCalibration   float64
	BackClinoCalibration    float64

	Declination float64

	// CorrectedCompassBacksight and CorrectedClinoBacksight mark backsights
	// that were recorded already reversed.
	CorrectedCompassBacksight bool
	CorrectedClinoBacksight   bool

	FrontSights bool
	BackSights  bool
}

// NewCalibration returns the default calibration: meters, no corrections,
// front and back sights both enabled.
func NewCalibration() Calibration {
	return Calibration{FrontSights: true, BackSights: true}
}
