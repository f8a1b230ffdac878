package survey

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Chunk is an ordered run of stations joined by shots.
//
// INVARIANT: len(stations) == len(shots)+1 whenever the chunk is non-empty.
// Mutations that would break it are refused without error; callers are
// expected to offer only operations that make sense.
type Chunk struct {
	stations []Station
	shots    []Shot
	errors   errorIndex
	observer Observer
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{errors: make(errorIndex)}
}

// Clone returns a deep copy. The observer is not copied.
func (c *Chunk) Clone() *Chunk {
	return &Chunk{
		stations: slices.Clone(c.stations),
		shots:    slices.Clone(c.shots),
		errors:   c.errors.clone(),
	}
}

// SetObserver installs the change callback. A nil observer disables
// notifications.
func (c *Chunk) SetObserver(o Observer) {
	c.observer = o
}

func (c *Chunk) emit(ch Change) {
	if c.observer != nil {
		c.observer(ch)
	}
}

// IsValid reports whether the chunk satisfies the station/shot invariant.
func (c *Chunk) IsValid() bool {
	return len(c.stations) > 0 && len(c.shots) > 0 && len(c.stations)-1 == len(c.shots)
}

func (c *Chunk) StationCount() int { return len(c.stations) }
func (c *Chunk) ShotCount() int    { return len(c.shots) }

// Station returns the station at index, or a zero Station when out of range.
func (c *Chunk) Station(index int) Station {
	if index < 0 || index >= len(c.stations) {
		return Station{}
	}
	return c.stations[index]
}

// Shot returns the shot at index, or a zero Shot when out of range.
func (c *Chunk) Shot(index int) Shot {
	if index < 0 || index >= len(c.shots) {
		return Shot{}
	}
	return c.shots[index]
}

// Stations returns a copy of the stations.
func (c *Chunk) Stations() []Station { return slices.Clone(c.stations) }

// Shots returns a copy of the shots.
func (c *Chunk) Shots() []Shot { return slices.Clone(c.shots) }

// CanAddShot reports whether AppendShot would accept from.
func (c *Chunk) CanAddShot(from, _ Station) bool {
	return len(c.stations) == 0 || SameName(c.stations[len(c.stations)-1].Name, from.Name)
}

// AppendShot adds shot and to after the last station. The chunk must be
// empty or end with a station named like from; otherwise nothing happens.
func (c *Chunk) AppendShot(from, to Station, shot Shot) {
	if !c.CanAddShot(from, to) {
		return
	}

	first := len(c.stations)
	if len(c.stations) == 0 {
		c.stations = append(c.stations, from)
	}

	shotIndex := len(c.shots)
	c.shots = append(c.shots, shot)
	c.emit(Change{Kind: ShotsAdded, Begin: shotIndex, End: shotIndex + 1})

	c.stations = append(c.stations, to)
	c.emit(Change{Kind: StationsAdded, Begin: first, End: len(c.stations)})

	// The station before the new shot gained a neighbour.
	for i := max(first-1, 0); i < len(c.stations); i++ {
		c.checkForStationError(i)
	}
	c.checkForShotError(shotIndex)
}

// AppendNewShot adds an empty shot and station so editing can continue.
//
// A chunk with at most two stations and one shot that is not yet valid is
// padded to exactly two stations and one shot instead. Nothing happens when
// the last station has no name to chain from.
func (c *Chunk) AppendNewShot() {
	if !c.IsValid() && len(c.stations) <= 2 && len(c.shots) <= 1 {
		for i := len(c.stations); i < 2; i++ {
			c.stations = append(c.stations, Station{})
			c.emit(Change{Kind: StationsAdded, Begin: i, End: i + 1})
		}
		if len(c.shots) != 1 {
			c.shots = append(c.shots, Shot{})
			c.emit(Change{Kind: ShotsAdded, Begin: 0, End: 1})
		}

		c.checkForStationError(len(c.stations) - 2)
		c.checkForStationError(len(c.stations) - 1)
		c.checkForShotError(len(c.shots) - 1)
		return
	}

	var from Station
	if len(c.stations) > 0 {
		from = c.stations[len(c.stations)-1]
		if !from.IsValid() {
			return
		}
	}

	c.AppendShot(from, Station{}, Shot{})
}

// SplitAtStation moves stations[index:] into a new chunk and returns it.
//
// The new chunk starts with an empty station followed by the moved stations
// and the shots leading into them. This chunk keeps stations[:index] and
// receives a fresh empty shot and station at its end. Returns nil when index
// is 0 or past the last station.
func (c *Chunk) SplitAtStation(index int) *Chunk {
	if index < 1 || index >= len(c.stations) {
		return nil
	}

	split := NewChunk()
	split.stations = append(split.stations, Station{})
	for i := index; i < len(c.stations); i++ {
		split.stations = append(split.stations, c.stations[i])
		if i-1 >= 0 && i-1 < len(c.shots) {
			split.shots = append(split.shots, c.shots[i-1])
		}
	}

	stationEnd := len(c.stations)
	shotEnd := len(c.shots)
	shotIndex := index - 1

	c.stations = c.stations[:index:index]
	c.shots = c.shots[:shotIndex:shotIndex]

	c.emit(Change{Kind: StationsRemoved, Begin: index, End: stationEnd})
	c.emit(Change{Kind: ShotsRemoved, Begin: shotIndex, End: shotEnd})

	c.updateErrorIndexes()
	split.updateErrorIndexes()

	c.AppendNewShot()

	return split
}

// InsertStation inserts an empty station at index (Above) or index+1
// (Below), together with an empty shot at index so the invariant holds.
// An empty chunk is bootstrapped with AppendNewShot instead.
func (c *Chunk) InsertStation(index int, dir Direction) {
	if len(c.stations) == 0 {
		c.AppendNewShot()
		return
	}
	if index < 0 || index >= len(c.stations) {
		return
	}

	shotIndex := index
	if dir == Below {
		index++
	}

	c.stations = slices.Insert(c.stations, index, Station{})
	c.shots = slices.Insert(c.shots, shotIndex, Shot{})

	c.emit(Change{Kind: StationsAdded, Begin: index, End: index + 1})
	c.emit(Change{Kind: ShotsAdded, Begin: shotIndex, End: shotIndex + 1})

	c.updateErrorIndexes()
}

// InsertShot inserts an empty shot at index (Above) or index+1 (Below),
// together with an empty station after the addressed shot.
func (c *Chunk) InsertShot(index int, dir Direction) {
	if len(c.stations) == 0 {
		c.AppendNewShot()
		return
	}
	if index < 0 || index >= len(c.shots) {
		return
	}

	stationIndex := index + 1
	if dir == Below {
		index++
	}

	c.stations = slices.Insert(c.stations, stationIndex, Station{})
	c.emit(Change{Kind: StationsAdded, Begin: stationIndex, End: stationIndex + 1})

	c.shots = slices.Insert(c.shots, index, Shot{})
	c.emit(Change{Kind: ShotsAdded, Begin: index, End: index + 1})

	c.updateErrorIndexes()
}

// CanRemoveStation reports whether RemoveStation would succeed.
func (c *Chunk) CanRemoveStation(stationIndex int, shotDir Direction) bool {
	if len(c.stations) <= 2 {
		return false
	}
	if stationIndex < 0 || stationIndex >= len(c.stations) {
		return false
	}
	shotIndex := shotBeside(stationIndex, shotDir)
	return shotIndex >= 0 && shotIndex < len(c.shots)
}

// RemoveStation removes the station and the shot above or below it.
func (c *Chunk) RemoveStation(stationIndex int, shotDir Direction) {
	if !c.CanRemoveStation(stationIndex, shotDir) {
		return
	}
	c.remove(stationIndex, shotBeside(stationIndex, shotDir))
	c.updateErrorIndexes()
}

// CanRemoveShot reports whether RemoveShot would succeed.
func (c *Chunk) CanRemoveShot(shotIndex int, stationDir Direction) bool {
	if len(c.shots) <= 1 {
		return false
	}
	if shotIndex < 0 || shotIndex >= len(c.shots) {
		return false
	}
	stationIndex := stationBeside(shotIndex, stationDir)
	return stationIndex >= 0 && stationIndex < len(c.stations)
}

// RemoveShot removes the shot and the station above or below it.
func (c *Chunk) RemoveShot(shotIndex int, stationDir Direction) {
	if !c.CanRemoveShot(shotIndex, stationDir) {
		return
	}
	c.remove(stationBeside(shotIndex, stationDir), shotIndex)
	c.updateErrorIndexes()
}

// remove does no bounds checking.
func (c *Chunk) remove(stationIndex, shotIndex int) {
	c.stations = slices.Delete(c.stations, stationIndex, stationIndex+1)
	c.emit(Change{Kind: StationsRemoved, Begin: stationIndex, End: stationIndex + 1})

	c.shots = slices.Delete(c.shots, shotIndex, shotIndex+1)
	c.emit(Change{Kind: ShotsRemoved, Begin: shotIndex, End: shotIndex + 1})
}

// shotBeside returns the shot above (i-1) or below (i) station i.
func shotBeside(stationIndex int, dir Direction) int {
	if dir == Above {
		return stationIndex - 1
	}
	return stationIndex
}

// stationBeside returns the station above (i) or below (i+1) shot i.
func stationBeside(shotIndex int, dir Direction) int {
	if dir == Above {
		return shotIndex
	}
	return shotIndex + 1
}

// SetStation replaces the station at index. Out of range is a no-op.
func (c *Chunk) SetStation(station Station, index int) {
	if index < 0 || index >= len(c.stations) {
		return
	}
	c.stations[index] = station
	for _, role := range StationRoles {
		c.emit(Change{Kind: DataChanged, Role: role, Index: index})
	}
	c.checkForStationError(index)
	c.checkNeighbourShots(index)
}

// Data returns the text of the field selected by role at index. Empty fields
// and out-of-range indices give "".
func (c *Chunk) Data(role Role, index int) string {
	switch {
	case role.IsStationRole():
		if index < 0 || index >= len(c.stations) {
			return ""
		}
		st := c.stations[index]
		if role == StationNameRole {
			return st.Name
		}
		return st.dimension(role).String()
	case role.IsShotRole():
		if index < 0 || index >= len(c.shots) {
			return ""
		}
		shot := c.shots[index]
		switch role {
		case ShotDistanceRole:
			return shot.Distance.String()
		case ShotDistanceIncludedRole:
			return strconv.FormatBool(shot.IsDistanceIncluded())
		case ShotCompassRole:
			return shot.Compass.String()
		case ShotBackCompassRole:
			return shot.BackCompass.String()
		case ShotClinoRole:
			return shot.Clino.String()
		case ShotBackClinoRole:
			return shot.BackClino.String()
		}
	}
	return ""
}

// SetData writes text into the field selected by role. It returns false when
// the role is unknown, the index is out of range, or the text does not parse.
func (c *Chunk) SetData(role Role, index int, text string) bool {
	switch {
	case role.IsStationRole():
		return c.SetStationData(role, index, text)
	case role.IsShotRole():
		return c.SetShotData(role, index, text)
	}
	slog.Debug("chunk: unknown role", "role", int(role))
	return false
}

// SetStationData writes a station field.
func (c *Chunk) SetStationData(role Role, index int, text string) bool {
	if index < 0 || index >= len(c.stations) {
		slog.Debug("chunk: station index out of range", "role", role, "index", index, "data", text)
		return false
	}
	if !role.IsStationRole() {
		return false
	}

	st := &c.stations[index]
	if role == StationNameRole {
		st.Name = strings.TrimSpace(text)
	} else {
		d, ok := ParseDistance(text)
		if !ok {
			slog.Debug("chunk: not a length", "role", role, "index", index, "data", text)
			return false
		}
		*st.dimension(role) = d
	}

	c.emit(Change{Kind: DataChanged, Role: role, Index: index})
	if role == StationNameRole {
		// LRUD warnings depend on the station being named.
		c.checkForStationError(index)
	} else {
		c.checkForError(role, index)
	}
	return true
}

// SetShotData writes a shot field.
func (c *Chunk) SetShotData(role Role, index int, text string) bool {
	if index < 0 || index >= len(c.shots) {
		slog.Debug("chunk: shot index out of range", "role", role, "index", index, "data", text)
		return false
	}

	shot := &c.shots[index]
	ok := true
	switch role {
	case ShotDistanceRole:
		shot.Distance, ok = ParseDistance(text)
	case ShotDistanceIncludedRole:
		included, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			ok = false
			break
		}
		shot.DistanceExcluded = !included
	case ShotCompassRole:
		shot.Compass, ok = ParseCompass(text)
	case ShotBackCompassRole:
		shot.BackCompass, ok = ParseCompass(text)
	case ShotClinoRole:
		shot.Clino, ok = ParseClino(text)
	case ShotBackClinoRole:
		shot.BackClino, ok = ParseClino(text)
	default:
		return false
	}
	if !ok {
		slog.Debug("chunk: rejected shot data", "role", role, "index", index, "data", text)
		return false
	}

	c.emit(Change{Kind: DataChanged, Role: role, Index: index})
	c.checkForShotError(index)
	// Station name errors depend on whether adjacent shots carry data.
	c.checkForError(StationNameRole, index)
	c.checkForError(StationNameRole, index+1)
	return true
}

// IsStationAndShotsEmpty reports whether no station or shot carries data.
// Invalid chunks count as empty.
func (c *Chunk) IsStationAndShotsEmpty() bool {
	if !c.IsValid() {
		return true
	}
	for _, st := range c.stations {
		if !st.IsBlank() {
			return false
		}
	}
	for _, shot := range c.shots {
		if !shot.IsBlank() {
			return false
		}
	}
	return true
}

// HasStation reports whether a station with the name exists (case-insensitive).
func (c *Chunk) HasStation(name string) bool {
	for _, st := range c.stations {
		if SameName(st.Name, name) {
			return true
		}
	}
	return false
}

// IndicesOfStation returns every index whose station has the name.
func (c *Chunk) IndicesOfStation(name string) []int {
	var indices []int
	for i, st := range c.stations {
		if SameName(st.Name, name) {
			indices = append(indices, i)
		}
	}
	return indices
}

// NeighboringStations returns the named stations positioned directly before
// or after any occurrence of name, de-duplicated by name.
func (c *Chunk) NeighboringStations(name string) []Station {
	indices := c.IndicesOfStation(name)
	if len(indices) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var neighbors []Station
	for _, i := range indices {
		for _, n := range []int{i - 1, i + 1} {
			st := c.Station(n)
			if !st.IsValid() {
				continue
			}
			key := FoldName(st.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			neighbors = append(neighbors, st)
		}
	}
	return neighbors
}

// Errors returns every validation error ordered by index then role.
func (c *Chunk) Errors() []FieldError {
	var out []FieldError
	for _, key := range c.errors.sortedKeys() {
		for _, e := range c.errors[key] {
			out = append(out, FieldError{ErrorKey: key, Error: e})
		}
	}
	return out
}

// ErrorsAt returns the errors attached to one field.
func (c *Chunk) ErrorsAt(role Role, index int) []Error {
	return slices.Clone(c.errors[ErrorKey{Index: index, Role: role}])
}

// FatalCount returns the number of fatal errors.
func (c *Chunk) FatalCount() int { return c.countErrors(ErrorFatal) }

// WarningCount returns the number of unsuppressed warnings.
func (c *Chunk) WarningCount() int { return c.countErrors(ErrorWarning) }

func (c *Chunk) countErrors(t ErrorType) int {
	n := 0
	for _, errs := range c.errors {
		for _, e := range errs {
			if e.Type == t && !e.Suppressed {
				n++
			}
		}
	}
	return n
}

// SetSuppressWarning toggles suppression of a warning on one field. Fatal
// errors cannot be suppressed; unknown warnings are ignored.
func (c *Chunk) SetSuppressWarning(role Role, index int, warning Error, suppress bool) {
	if warning.Type != ErrorWarning {
		return
	}
	key := ErrorKey{Index: index, Role: role}
	errs := c.errors[key]
	for i := range errs {
		if errs[i].sameError(warning) {
			errs[i].Suppressed = suppress
			c.emit(Change{Kind: DataChanged, Role: role, Index: index})
			c.emit(Change{Kind: ErrorsChanged})
			return
		}
	}
}

// GuessLastStationName predicts the name for an empty last station. When the
// chunk has exactly two stations the previous chunk's last station seeds the
// guess; otherwise the second-to-last station does. Returns "" when the last
// station already has a name.
func (c *Chunk) GuessLastStationName(previous *Chunk) string {
	if len(c.stations) < 2 {
		return ""
	}
	if c.stations[len(c.stations)-1].Name != "" {
		return ""
	}

	var name string
	if len(c.stations) == 2 && previous != nil && previous.StationCount() > 0 {
		name = previous.stations[len(previous.stations)-1].Name
	}
	if name == "" {
		name = c.stations[len(c.stations)-2].Name
	}
	return GuessNextStation(name)
}

func (c *Chunk) checkForError(role Role, index int) {
	derived := c.deriveErrors(role, index)
	if c.errors.replace(ErrorKey{Index: index, Role: role}, derived) {
		c.emit(Change{Kind: ErrorsChanged})
	}
}

func (c *Chunk) checkForStationError(index int) {
	if index < 0 || index >= len(c.stations) {
		return
	}
	for _, role := range StationRoles {
		c.checkForError(role, index)
	}
}

func (c *Chunk) checkForShotError(index int) {
	if index < 0 || index >= len(c.shots) {
		return
	}
	for _, role := range ShotRoles {
		c.checkForError(role, index)
	}
}

// checkNeighbourShots re-checks shots adjacent to a replaced station.
func (c *Chunk) checkNeighbourShots(stationIndex int) {
	c.checkForShotError(stationIndex - 1)
	c.checkForShotError(stationIndex)
}

// updateErrorIndexes rebuilds every error after a structural change.
func (c *Chunk) updateErrorIndexes() {
	hadErrors := len(c.errors) > 0
	c.errors = make(errorIndex)

	observer := c.observer
	c.observer = nil
	for i := range c.shots {
		c.checkForShotError(i)
	}
	for i := range c.stations {
		c.checkForStationError(i)
	}
	c.observer = observer

	if hadErrors || len(c.errors) > 0 {
		c.emit(Change{Kind: ErrorsChanged})
	}
}
