package survey

import (
	"fmt"
	"regexp"
)

var validStationName = regexp.MustCompile(`^[-_A-Za-z0-9]+$`)

// deriveErrors computes the validation errors for one field.
func (c *Chunk) deriveErrors(role Role, index int) []Error {
	if role.IsStationRole() {
		if index < 0 || index >= len(c.stations) {
			return nil
		}
		return c.stationErrors(role, index)
	}
	if index < 0 || index >= len(c.shots) {
		return nil
	}
	return c.shotErrors(role, index)
}

func (c *Chunk) stationErrors(role Role, index int) []Error {
	st := c.stations[index]

	if role == StationNameRole {
		if st.Name == "" {
			if c.adjacentShotHasData(index) {
				return []Error{{Type: ErrorFatal, Message: "station name is empty"}}
			}
			return nil
		}
		if !validStationName.MatchString(st.Name) {
			return []Error{{Type: ErrorWarning, Message: "station name has characters other than letters, numbers, '-' and '_'"}}
		}
		return nil
	}

	d := st.dimension(role)
	if d == nil {
		return nil
	}
	if d.State == DistanceValid && d.Value < 0 {
		return []Error{{Type: ErrorFatal, Message: fmt.Sprintf("%s is negative", dimensionName(role))}}
	}
	if d.IsEmpty() && st.IsValid() {
		return []Error{{Type: ErrorWarning, Message: fmt.Sprintf("missing %s", dimensionName(role))}}
	}
	return nil
}

func (c *Chunk) shotErrors(role Role, index int) []Error {
	shot := c.shots[index]
	if shot.IsBlank() {
		return nil
	}

	switch role {
	case ShotDistanceRole:
		if shot.Distance.IsEmpty() {
			return []Error{{Type: ErrorFatal, Message: "missing distance"}}
		}
		if shot.Distance.Value < 0 {
			return []Error{{Type: ErrorFatal, Message: "distance is negative"}}
		}
	case ShotCompassRole, ShotBackCompassRole:
		if shot.Compass.IsEmpty() && shot.BackCompass.IsEmpty() && !shot.IsVertical() {
			if role == ShotCompassRole {
				return []Error{{Type: ErrorFatal, Message: "missing compass"}}
			}
			return nil
		}
		v := shot.Compass
		if role == ShotBackCompassRole {
			v = shot.BackCompass
		}
		if v.State == CompassValid && (v.Value < 0 || v.Value > 360) {
			return []Error{{Type: ErrorFatal, Message: "compass must be between 0 and 360"}}
		}
	case ShotClinoRole, ShotBackClinoRole:
		if shot.Clino.IsEmpty() && shot.BackClino.IsEmpty() {
			if role == ShotClinoRole {
				return []Error{{Type: ErrorFatal, Message: "missing clino"}}
			}
			return nil
		}
		v := shot.Clino
		if role == ShotBackClinoRole {
			v = shot.BackClino
		}
		if v.State == ClinoValid && (v.Value < -90 || v.Value > 90) {
			return []Error{{Type: ErrorFatal, Message: "clino must be between -90 and 90"}}
		}
	}
	return nil
}

// adjacentShotHasData reports whether a shot touching station index carries
// any measurement.
func (c *Chunk) adjacentShotHasData(index int) bool {
	for _, i := range []int{index - 1, index} {
		if i >= 0 && i < len(c.shots) && !c.shots[i].IsBlank() {
			return true
		}
	}
	return false
}

func dimensionName(role Role) string {
	switch role {
	case StationLeftRole:
		return "left"
	case StationRightRole:
		return "right"
	case StationUpRole:
		return "up"
	case StationDownRole:
		return "down"
	}
	return role.String()
}
