package survey

// Cave owns an ordered list of trips.
type Cave struct {
	Name  string
	Trips []*Trip
}

// NewCave returns an empty cave.
func NewCave(name string) *Cave {
	return &Cave{Name: name}
}

// AddTrip appends t.
func (c *Cave) AddTrip(t *Trip) {
	c.Trips = append(c.Trips, t)
}

// Trip returns the first trip with the name (case-insensitive), or nil.
func (c *Cave) Trip(name string) *Trip {
	for _, t := range c.Trips {
		if SameName(t.Name, name) {
			return t
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Cave) Clone() *Cave {
	out := &Cave{Name: c.Name, Trips: make([]*Trip, 0, len(c.Trips))}
	for _, t := range c.Trips {
		out.Trips = append(out.Trips, t.Clone())
	}
	return out
}

// Region is the root of a survey project.
type Region struct {
	Caves []*Cave
}

// NewRegion returns an empty region.
func NewRegion() *Region {
	return &Region{}
}

// AddCave appends c.
func (r *Region) AddCave(c *Cave) {
	r.Caves = append(r.Caves, c)
}

// Cave returns the first cave with the name (case-insensitive), or nil.
func (r *Region) Cave(name string) *Cave {
	for _, c := range r.Caves {
		if SameName(c.Name, name) {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Region) Clone() *Region {
	out := &Region{Caves: make([]*Cave, 0, len(r.Caves))}
	for _, c := range r.Caves {
		out.Caves = append(out.Caves, c.Clone())
	}
	return out
}
