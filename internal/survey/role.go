package survey

import "slices"

// Role selects one field of a station or a shot.
type Role int

const (
	StationNameRole Role = iota
	StationLeftRole
	StationRightRole
	StationUpRole
	StationDownRole
	ShotDistanceRole
	ShotDistanceIncludedRole
	ShotCompassRole
	ShotBackCompassRole
	ShotClinoRole
	ShotBackClinoRole
)

// StationRoles lists the roles that address station fields.
var StationRoles = []Role{
	StationNameRole,
	StationLeftRole,
	StationRightRole,
	StationUpRole,
	StationDownRole,
}

// ShotRoles lists the roles that address shot fields.
var ShotRoles = []Role{
	ShotDistanceRole,
	ShotDistanceIncludedRole,
	ShotCompassRole,
	ShotBackCompassRole,
	ShotClinoRole,
	ShotBackClinoRole,
}

// IsStationRole reports whether r reads or writes station data.
func (r Role) IsStationRole() bool {
	switch r {
	case StationNameRole, StationLeftRole, StationRightRole, StationUpRole, StationDownRole:
		return true
	}
	return false
}

// IsShotRole reports whether r reads or writes shot data.
func (r Role) IsShotRole() bool {
	switch r {
	case ShotDistanceRole, ShotDistanceIncludedRole, ShotCompassRole,
		ShotBackCompassRole, ShotClinoRole, ShotBackClinoRole:
		return true
	}
	return false
}

func (r Role) String() string {
	switch r {
	case StationNameRole:
		return "station.name"
	case StationLeftRole:
		return "station.left"
	case StationRightRole:
		return "station.right"
	case StationUpRole:
		return "station.up"
	case StationDownRole:
		return "station.down"
	case ShotDistanceRole:
		return "shot.distance"
	case ShotDistanceIncludedRole:
		return "shot.distance_included"
	case ShotCompassRole:
		return "shot.compass"
	case ShotBackCompassRole:
		return "shot.back_compass"
	case ShotClinoRole:
		return "shot.clino"
	case ShotBackClinoRole:
		return "shot.back_clino"
	}
	return "unknown"
}

// Direction picks the side of an index an insert or paired removal applies to.
type Direction int

const (
	Above Direction = iota
	Below
)

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, bool) {
	for _, r := range append(slices.Clone(StationRoles), ShotRoles...) {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}
