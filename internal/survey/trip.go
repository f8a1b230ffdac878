package survey

import "time"

// Trip is one survey outing: metadata plus the chunks it owns.
type Trip struct {
	Name        string
	Date        time.Time
	Calibration Calibration
	Team        Team
	Chunks      []*Chunk
}

// NewTrip returns an empty trip with default calibration.
func NewTrip(name string) *Trip {
	return &Trip{Name: name, Calibration: NewCalibration()}
}

// AddChunk appends c.
func (t *Trip) AddChunk(c *Chunk) {
	t.Chunks = append(t.Chunks, c)
}

// AddShotToLastChunk appends the shot to the last chunk when it chains from
// that chunk's last station, and otherwise starts a new chunk.
func (t *Trip) AddShotToLastChunk(from, to Station, shot Shot) {
	if n := len(t.Chunks); n > 0 && t.Chunks[n-1].CanAddShot(from, to) {
		t.Chunks[n-1].AppendShot(from, to, shot)
		return
	}
	c := NewChunk()
	c.AppendShot(from, to, shot)
	t.AddChunk(c)
}

// ReplaceWith overwrites every field of t with a deep copy of other.
func (t *Trip) ReplaceWith(other *Trip) {
	cp := other.Clone()
	*t = *cp
}

// Clone returns a deep copy.
func (t *Trip) Clone() *Trip {
	out := &Trip{
		Name:        t.Name,
		Date:        t.Date,
		Calibration: t.Calibration,
		Team:        t.Team.Clone(),
		Chunks:      make([]*Chunk, 0, len(t.Chunks)),
	}
	for _, c := range t.Chunks {
		out.Chunks = append(out.Chunks, c.Clone())
	}
	return out
}

// GuessLastStationName guesses the empty last station of chunk chunkIndex,
// seeding from the previous chunk when there is one.
func (t *Trip) GuessLastStationName(chunkIndex int) string {
	if chunkIndex < 0 || chunkIndex >= len(t.Chunks) {
		return ""
	}
	var previous *Chunk
	if chunkIndex > 0 {
		previous = t.Chunks[chunkIndex-1]
	}
	return t.Chunks[chunkIndex].GuessLastStationName(previous)
}

// StationCount sums the stations of every chunk.
func (t *Trip) StationCount() int {
	n := 0
	for _, c := range t.Chunks {
		n += c.StationCount()
	}
	return n
}

// ShotCount sums the shots of every chunk.
func (t *Trip) ShotCount() int {
	n := 0
	for _, c := range t.Chunks {
		n += c.ShotCount()
	}
	return n
}
