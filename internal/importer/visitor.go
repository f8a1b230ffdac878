package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/cavewalls/internal/survey"
	"github.com/roach88/cavewalls/internal/walls"
)

// lrudRecord is the latest passage dimensions seen for a station.
type lrudRecord struct {
	station survey.Station
	date    time.Time
}

// lrudMap keeps one record per station, keyed by folded name.
type lrudMap map[string]lrudRecord

// offer stores rec when it is dated and no older than the stored record, or
// when it is undated and nothing dated has been stored for the station.
func (m lrudMap) offer(rec lrudRecord) {
	key := survey.FoldName(rec.station.Name)
	prev, ok := m[key]
	switch {
	case !rec.date.IsZero():
		if !ok || prev.date.IsZero() || !rec.date.Before(prev.date) {
			m[key] = rec
		}
	case !ok || prev.date.IsZero():
		m[key] = rec
	}
}

// visitor collects the trips of one survey file from parser events.
//
// A new trip starts at the first vector or #FIX after a #DATE, or after a
// #UNITS directive that changes the calibration.
type visitor struct {
	parser  *walls.SurveyParser
	session *session
	prefix  string
	trips   []*survey.Trip
	current *survey.Trip
	prior   walls.Units
	comment string
	lruds   lrudMap
}

func newVisitor(s *session, prefix string) *visitor {
	v := &visitor{session: s, prefix: prefix, lruds: make(lrudMap)}
	v.parser = walls.NewSurveyParser(v)
	return v
}

func (v *visitor) ensureTrip() {
	if v.current != nil {
		return
	}
	trip := survey.NewTrip(fmt.Sprintf("%s (%d)", v.prefix, len(v.trips)+1))
	trip.Date = v.parser.Date()
	trip.Calibration = calibrationFrom(v.parser.Units())
	v.current = trip
}

func (v *visitor) ParsedVector(vec walls.Vector) {
	v.ensureTrip()
	if n := len(v.trips); n == 0 || v.trips[n-1] != v.current {
		v.trips = append(v.trips, v.current)
	}

	units := vec.Units
	from := v.session.createStation(units.ProcessStationName(vec.From))

	if units.Vector == walls.RECT && vec.North.Valid {
		vec.DeriveCTFromRect()
		// RECT lines are not declination-corrected, the trip declination is
		// added back later.
		if vec.FrontAzimuth.Valid {
			vec.FrontAzimuth.Degrees += units.Rect - units.Decl
		}
	}

	var (
		to   survey.Station
		shot survey.Shot
	)
	lrud := &from
	if vec.Distance.Valid {
		to = v.session.createStation(units.ProcessStationName(vec.To))
		shot = shotFrom(vec, units.DUnit)
		if !units.Lrud.AtFromStation() {
			lrud = &to
		}
	}

	lrud.Left = distanceFrom(units.CorrectLength(vec.Left), units.DUnit)
	lrud.Right = distanceFrom(units.CorrectLength(vec.Right), units.DUnit)
	lrud.Up = distanceFrom(units.CorrectLength(vec.Up), units.DUnit)
	lrud.Down = distanceFrom(units.CorrectLength(vec.Down), units.DUnit)
	if vec.HasLRUD() && lrud.Name != "" {
		v.lruds.offer(lrudRecord{station: *lrud, date: vec.Date})
	}

	if vec.Distance.Valid {
		v.current.AddShotToLastChunk(from, to, shot)
	}
}

func (v *visitor) ParsedFixStation(walls.FixStation) {
	v.ensureTrip()
	v.session.warn(warnFixStations, true, "This data contains #FIX stations, which can't currently be imported")
}

func (v *visitor) ParsedDate(time.Time) {
	v.current = nil
}

func (v *visitor) WillParseUnits() {
	v.prior = v.parser.Units()
}

func (v *visitor) ParsedUnits() {
	if !v.parser.Units().SameCalibration(v.prior) {
		v.current = nil
	}
}

func (v *visitor) ParsedComment(text string) {
	v.comment = text
}

func (v *visitor) Message(m walls.Message) {
	v.session.parseError(m.String())
}

// parseLine feeds one line and returns the comment it carried, if any.
func (v *visitor) parseLine(seg walls.Segment) (string, error) {
	v.comment = ""
	err := v.parser.ParseLine(seg)
	return v.comment, err
}

var surveyorSeparator = regexp.MustCompile(`\s*;\s*`)

func splitSurveyors(comment string) []string {
	return surveyorSeparator.Split(strings.TrimSpace(comment), -1)
}

// nameTrips gives the first trip name and the rest "name (2)", "name (3)",
// and so on. Each trip gets its own team built from surveyors.
func nameTrips(trips []*survey.Trip, name string, surveyors []string) {
	for i, trip := range trips {
		if name != "" {
			trip.Name = name
			if i > 0 {
				trip.Name = fmt.Sprintf("%s (%d)", name, i+1)
			}
		}
		if len(surveyors) > 0 {
			var team survey.Team
			for _, s := range surveyors {
				team.AddMember(survey.TeamMember{Name: s})
			}
			trip.Team = team
		}
	}
}

func lengthUnit(u walls.LengthUnit) survey.LengthUnit {
	if u == walls.Feet {
		return survey.Feet
	}
	return survey.Meters
}

func calibrationFrom(u walls.Units) survey.Calibration {
	c := survey.NewCalibration()
	c.DistanceUnit = lengthUnit(u.DUnit)
	c.CorrectedCompassBacksight = u.TypeABCorrected
	c.CorrectedClinoBacksight = u.TypeVBCorrected
	c.TapeCalibration = u.IncD.In(u.DUnit)
	c.FrontCompassCalibration = u.IncA
	c.FrontClinoCalibration = u.IncV
	c.BackCompassCalibration = u.IncAB
	c.BackClinoCalibration = u.IncVB
	c.Declination = u.Decl
	return c
}

func distanceFrom(l walls.Length, u walls.LengthUnit) survey.Distance {
	if !l.Valid {
		return survey.Distance{}
	}
	return survey.ValidDistance(l.In(u))
}

func shotFrom(vec walls.Vector, u walls.LengthUnit) survey.Shot {
	shot := survey.Shot{Distance: distanceFrom(vec.Distance, u)}
	if vec.FrontAzimuth.Valid {
		shot.Compass = survey.ValidCompass(vec.FrontAzimuth.Degrees)
	}
	if vec.BackAzimuth.Valid {
		shot.BackCompass = survey.ValidCompass(vec.BackAzimuth.Degrees)
	}
	if vec.FrontInclination.Valid {
		shot.Clino = survey.ValidClino(vec.FrontInclination.Degrees)
	}
	if vec.BackInclination.Valid {
		shot.BackClino = survey.ValidClino(vec.BackInclination.Degrees)
	}
	return shot
}
