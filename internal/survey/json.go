package survey

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// MarshalJSON encodes an empty distance as null and a valid one as a number.
func (d Distance) MarshalJSON() ([]byte, error) {
	if d.State != DistanceValid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value)
}

func (d *Distance) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("distance: %w", err)
	}
	if v == nil {
		*d = Distance{}
		return nil
	}
	*d = ValidDistance(*v)
	return nil
}

// MarshalJSON encodes an empty azimuth as null and a valid one as a number.
func (c Compass) MarshalJSON() ([]byte, error) {
	if c.State != CompassValid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

func (c *Compass) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("compass: %w", err)
	}
	if v == nil {
		*c = Compass{}
		return nil
	}
	*c = ValidCompass(*v)
	return nil
}

// MarshalJSON encodes an inclination as null, a number, "up" or "down".
func (c Clino) MarshalJSON() ([]byte, error) {
	switch c.State {
	case ClinoValid:
		return json.Marshal(c.Value)
	case ClinoUp:
		return []byte(`"up"`), nil
	case ClinoDown:
		return []byte(`"down"`), nil
	}
	return []byte("null"), nil
}

func (c *Clino) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("clino: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		*c = Clino{}
	case float64:
		*c = ValidClino(v)
	case string:
		parsed, ok := ParseClino(v)
		if !ok {
			return fmt.Errorf("clino: invalid value %q", v)
		}
		*c = parsed
	default:
		return fmt.Errorf("clino: unexpected %T", raw)
	}
	return nil
}

type stationJSON struct {
	Name  string   `json:"name"`
	Left  Distance `json:"left"`
	Right Distance `json:"right"`
	Up    Distance `json:"up"`
	Down  Distance `json:"down"`
}

func (s Station) MarshalJSON() ([]byte, error) {
	return json.Marshal(stationJSON(s))
}

func (s *Station) UnmarshalJSON(data []byte) error {
	var w stationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Station(w)
	return nil
}

type shotJSON struct {
	Distance         Distance `json:"distance"`
	Compass          Compass  `json:"compass"`
	BackCompass      Compass  `json:"back_compass"`
	Clino            Clino    `json:"clino"`
	BackClino        Clino    `json:"back_clino"`
	DistanceExcluded bool     `json:"distance_excluded,omitempty"`
}

func (s Shot) MarshalJSON() ([]byte, error) {
	return json.Marshal(shotJSON(s))
}

func (s *Shot) UnmarshalJSON(data []byte) error {
	var w shotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Shot(w)
	return nil
}

type suppressedJSON struct {
	Index   int    `json:"index"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

type chunkJSON struct {
	Stations   []Station        `json:"stations"`
	Shots      []Shot           `json:"shots"`
	Suppressed []suppressedJSON `json:"suppressed,omitempty"`
}

// MarshalJSON encodes stations, shots and suppressed warnings. Other errors
// are derived again on decode.
func (c *Chunk) MarshalJSON() ([]byte, error) {
	w := chunkJSON{Stations: c.stations, Shots: c.shots}
	if w.Stations == nil {
		w.Stations = []Station{}
	}
	if w.Shots == nil {
		w.Shots = []Shot{}
	}
	for _, fe := range c.Errors() {
		if fe.Suppressed {
			w.Suppressed = append(w.Suppressed, suppressedJSON{Index: fe.Index, Role: fe.Role.String(), Message: fe.Message})
		}
	}
	return json.Marshal(w)
}

func (c *Chunk) UnmarshalJSON(data []byte) error {
	var w chunkJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	if len(w.Stations) > 0 && len(w.Stations) != len(w.Shots)+1 {
		return fmt.Errorf("chunk: %d stations do not match %d shots", len(w.Stations), len(w.Shots))
	}
	c.stations = w.Stations
	c.shots = w.Shots
	c.updateErrorIndexes()
	for _, s := range w.Suppressed {
		role, ok := ParseRole(s.Role)
		if !ok {
			return fmt.Errorf("chunk: unknown role %q", s.Role)
		}
		c.SetSuppressWarning(role, s.Index, Error{Type: ErrorWarning, Message: s.Message}, true)
	}
	return nil
}

type memberJSON struct {
	Name string   `json:"name"`
	Jobs []string `json:"jobs,omitempty"`
}

type calibrationJSON struct {
	DistanceUnit              string  `json:"distance_unit"`
	Tape                      float64 `json:"tape,omitempty"`
	FrontCompass              float64 `json:"front_compass,omitempty"`
	BackCompass               float64 `json:"back_compass,omitempty"`
	FrontClino                float64 `json:"front_clino,omitempty"`
	BackClino                 float64 `json:"back_clino,omitempty"`
	Declination               float64 `json:"declination,omitempty"`
	CorrectedCompassBacksight bool    `json:"corrected_compass_backsight,omitempty"`
	CorrectedClinoBacksight   bool    `json:"corrected_clino_backsight,omitempty"`
	FrontSights               bool    `json:"front_sights"`
	BackSights                bool    `json:"back_sights"`
}

func (c Calibration) MarshalJSON() ([]byte, error) {
	return json.Marshal(calibrationJSON{
		DistanceUnit:              c.DistanceUnit.String(),
		Tape:                      c.TapeCalibration,
		FrontCompass:              c.FrontCompassCalibration,
		BackCompass:               c.BackCompassCalibration,
		FrontClino:                c.FrontClinoCalibration,
		BackClino:                 c.BackClinoCalibration,
		Declination:               c.Declination,
		CorrectedCompassBacksight: c.CorrectedCompassBacksight,
		CorrectedClinoBacksight:   c.CorrectedClinoBacksight,
		FrontSights:               c.FrontSights,
		BackSights:                c.BackSights,
	})
}

func (c *Calibration) UnmarshalJSON(data []byte) error {
	var w calibrationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	unit := Meters
	switch strings.ToLower(w.DistanceUnit) {
	case "", "meters":
	case "feet":
		unit = Feet
	default:
		return fmt.Errorf("calibration: unknown distance unit %q", w.DistanceUnit)
	}
	*c = Calibration{
		DistanceUnit:              unit,
		TapeCalibration:           w.Tape,
		FrontCompassCalibration:   w.FrontCompass,
		BackCompassCalibration:    w.BackCompass,
		FrontClinoCalibration:     w.FrontClino,
		BackClinoCalibration:      w.BackClino,
		Declination:               w.Declination,
		CorrectedCompassBacksight: w.CorrectedCompassBacksight,
		CorrectedClinoBacksight:   w.CorrectedClinoBacksight,
		FrontSights:               w.FrontSights,
		BackSights:                w.BackSights,
	}
	return nil
}

type tripJSON struct {
	Name        string       `json:"name"`
	Date        string       `json:"date,omitempty"`
	Calibration Calibration  `json:"calibration"`
	Team        []memberJSON `json:"team,omitempty"`
	Chunks      []*Chunk     `json:"chunks"`
}

func (t *Trip) MarshalJSON() ([]byte, error) {
	w := tripJSON{
		Name:        t.Name,
		Calibration: t.Calibration,
		Chunks:      t.Chunks,
	}
	if !t.Date.IsZero() {
		w.Date = t.Date.Format(dateLayout)
	}
	for _, m := range t.Team.Members {
		w.Team = append(w.Team, memberJSON(m))
	}
	if w.Chunks == nil {
		w.Chunks = []*Chunk{}
	}
	return json.Marshal(w)
}

func (t *Trip) UnmarshalJSON(data []byte) error {
	var w tripJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("trip: %w", err)
	}
	out := Trip{Name: w.Name, Calibration: w.Calibration, Chunks: w.Chunks}
	if w.Date != "" {
		d, err := time.Parse(dateLayout, w.Date)
		if err != nil {
			return fmt.Errorf("trip %q: date: %w", w.Name, err)
		}
		out.Date = d
	}
	for _, m := range w.Team {
		out.Team.AddMember(TeamMember(m))
	}
	*t = out
	return nil
}

type caveJSON struct {
	Name  string  `json:"name"`
	Trips []*Trip `json:"trips"`
}

func (c *Cave) MarshalJSON() ([]byte, error) {
	w := caveJSON{Name: c.Name, Trips: c.Trips}
	if w.Trips == nil {
		w.Trips = []*Trip{}
	}
	return json.Marshal(w)
}

func (c *Cave) UnmarshalJSON(data []byte) error {
	var w caveJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("cave: %w", err)
	}
	*c = Cave(w)
	return nil
}

type regionJSON struct {
	Caves []*Cave `json:"caves"`
}

func (r *Region) MarshalJSON() ([]byte, error) {
	w := regionJSON{Caves: r.Caves}
	if w.Caves == nil {
		w.Caves = []*Cave{}
	}
	return json.Marshal(w)
}

func (r *Region) UnmarshalJSON(data []byte) error {
	var w regionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("region: %w", err)
	}
	*r = Region(w)
	return nil
}
