package importtree

import (
	"errors"
	"fmt"

	"github.com/roach88/cavewalls/internal/survey"
)

// ErrNothingToImport is returned by ImportInto when no node would change
// the region.
var ErrNothingToImport = errors.New("nothing to import")

// ImportData commits a staged tree into a region.
type ImportData struct {
	tree *Tree
}

// NewImportData wraps tree.
func NewImportData(tree *Tree) *ImportData {
	return &ImportData{tree: tree}
}

// Tree returns the staged tree.
func (d *ImportData) Tree() *Tree { return d.tree }

// ImportSummary counts what ImportInto changed.
type ImportSummary struct {
	CavesAdded    int
	TripsAdded    int
	TripsReplaced int
}

// CanImport reports whether at least one node would change a region: a
// NewCave, an AddToCave with a target cave, or a ReplaceTrip with both a
// target cave and a target trip. Target caves are inherited from ancestors.
func (d *ImportData) CanImport() bool {
	ok := false
	d.tree.Walk(func(id NodeID, _ int) bool {
		if ok {
			return false
		}
		ok = d.importable(id)
		return !ok
	})
	return ok
}

func (d *ImportData) importable(id NodeID) bool {
	switch d.tree.ImportType(id) {
	case NewCave:
		return true
	case AddToCave:
		return d.tree.EffectiveTargetCave(id) != nil
	case ReplaceTrip:
		return d.tree.EffectiveTargetCave(id) != nil && d.tree.TargetTrip(id) != nil
	}
	return false
}

// ImportInto commits the tree into region in pre-order.
//
// NewCave nodes become caves appended to the region. AddToCave nodes that
// carry data become trips appended to their target cave. ReplaceTrip nodes overwrite their
// target trip. Structure nodes and ExistingTrip containers that are not trips
// themselves are passed through; NoImport stops the descent.
//
// Targets are checked against region before anything changes, so a failed
// call leaves region untouched.
func (d *ImportData) ImportInto(region *survey.Region) (ImportSummary, error) {
	var summary ImportSummary
	if !d.CanImport() {
		return summary, ErrNothingToImport
	}
	if err := d.checkTargets(region); err != nil {
		return summary, err
	}
	for _, root := range d.tree.Roots() {
		d.importNode(root, region, &summary)
	}
	return summary, nil
}

func (d *ImportData) checkTargets(region *survey.Region) error {
	var err error
	d.tree.Walk(func(id NodeID, _ int) bool {
		if err != nil {
			return false
		}
		typ := d.tree.ImportType(id)
		if typ != AddToCave && typ != ReplaceTrip {
			return typ != NoImport
		}
		cave := d.tree.EffectiveTargetCave(id)
		if cave != nil && !containsCave(region, cave) {
			err = fmt.Errorf("import %q: target cave %q is not in the region", d.tree.Path(id), cave.Name)
			return false
		}
		if trip := d.tree.TargetTrip(id); typ == ReplaceTrip && trip != nil && cave != nil && !containsTrip(cave, trip) {
			err = fmt.Errorf("import %q: target trip %q is not in cave %q", d.tree.Path(id), trip.Name, cave.Name)
			return false
		}
		return true
	})
	return err
}

func containsCave(region *survey.Region, cave *survey.Cave) bool {
	for _, c := range region.Caves {
		if c == cave {
			return true
		}
	}
	return false
}

func containsTrip(cave *survey.Cave, trip *survey.Trip) bool {
	for _, t := range cave.Trips {
		if t == trip {
			return true
		}
	}
	return false
}

func (d *ImportData) importNode(id NodeID, region *survey.Region, summary *ImportSummary) {
	descend := true

	switch d.tree.ImportType(id) {
	case NoImport:
		return
	case NewCave:
		region.AddCave(d.ToCave(id))
		summary.CavesAdded++
		return
	case AddToCave:
		if cave := d.tree.EffectiveTargetCave(id); cave != nil && addTrip(cave, d.ToTrip(id)) {
			summary.TripsAdded++
		}
	case ReplaceTrip:
		cave, trip := d.tree.EffectiveTargetCave(id), d.tree.TargetTrip(id)
		if cave != nil && trip != nil {
			trip.ReplaceWith(d.ToTrip(id))
			summary.TripsReplaced++
		}
	case ExistingTrip:
		descend = !d.tree.IsTrip(id)
	}

	if !descend {
		return
	}
	for _, child := range d.tree.Children(id) {
		d.importNode(child, region, summary)
	}
}

// ToTrip builds a trip from the node's metadata, its own chunks and the
// chunks of its Structure descendants, depth-first. Chunks are deep copies.
func (d *ImportData) ToTrip(id NodeID) *survey.Trip {
	n := d.tree.Node(id)
	if n == nil {
		return nil
	}
	trip := &survey.Trip{
		Name:        n.Name,
		Date:        n.Date,
		Calibration: n.Calibration,
		Team:        n.Team.Clone(),
	}
	d.flatten(id, trip)
	return trip
}

func (d *ImportData) flatten(id NodeID, trip *survey.Trip) {
	for _, c := range d.tree.Node(id).Chunks {
		trip.AddChunk(c.Clone())
	}
	for _, child := range d.tree.Children(id) {
		if d.tree.ImportType(child) == Structure {
			d.flatten(child, trip)
		}
	}
}

// ToCave builds a cave named after the node. The node's own chunks form a
// trip of the same name and every trip-typed descendant becomes a trip.
// Structure and nested NewCave nodes that own chunks become trips of their
// own unless an enclosing trip already absorbed them. NoImport subtrees and
// ExistingTrip trips are left out. Trips without chunks are dropped.
func (d *ImportData) ToCave(id NodeID) *survey.Cave {
	n := d.tree.Node(id)
	if n == nil {
		return nil
	}
	cave := survey.NewCave(n.Name)
	trip := &survey.Trip{
		Name:        n.Name,
		Date:        n.Date,
		Calibration: n.Calibration,
		Team:        n.Team.Clone(),
	}
	for _, c := range n.Chunks {
		trip.AddChunk(c.Clone())
	}
	addTrip(cave, trip)
	d.collectTrips(id, cave, false)
	return cave
}

// collectTrips adds the trips below id to cave. absorbed reports whether the
// Structure children of id were already flattened into a trip.
func (d *ImportData) collectTrips(id NodeID, cave *survey.Cave, absorbed bool) {
	for _, child := range d.tree.Children(id) {
		switch d.tree.ImportType(child) {
		case ExistingTrip:
			if !d.tree.IsTrip(child) {
				d.collectTrips(child, cave, false)
			}
		case AddToCave, ReplaceTrip:
			addTrip(cave, d.ToTrip(child))
			d.collectTrips(child, cave, true)
		case Structure, NewCave:
			switch {
			case absorbed && d.tree.ImportType(child) == Structure:
				d.collectTrips(child, cave, true)
			case len(d.tree.Node(child).Chunks) > 0:
				addTrip(cave, d.ToTrip(child))
				d.collectTrips(child, cave, true)
			default:
				d.collectTrips(child, cave, false)
			}
		}
	}
}

func addTrip(cave *survey.Cave, trip *survey.Trip) bool {
	if len(trip.Chunks) == 0 {
		return false
	}
	cave.AddTrip(trip)
	return true
}

// MarkExistingTrips flags trip nodes whose survey data already exists in
// region as ExistingTrip, pointing them at the matching cave and trip. It
// returns how many nodes were marked.
func (d *ImportData) MarkExistingTrips(region *survey.Region) (int, error) {
	return d.MarkExistingTripsExcept(region, nil)
}

// MarkExistingTripsExcept is MarkExistingTrips leaving the nodes in keep
// with the type they already have.
func (d *ImportData) MarkExistingTripsExcept(region *survey.Region, keep map[NodeID]bool) (int, error) {
	type location struct {
		cave *survey.Cave
		trip *survey.Trip
	}
	known := make(map[string]location)
	for _, cave := range region.Caves {
		for _, trip := range cave.Trips {
			h, err := survey.ContentHash(trip.Chunks)
			if err != nil {
				return 0, fmt.Errorf("hash trip %q: %w", trip.Name, err)
			}
			if _, dup := known[h]; !dup {
				known[h] = location{cave: cave, trip: trip}
			}
		}
	}

	var trips []NodeID
	d.tree.Walk(func(id NodeID, _ int) bool {
		if d.tree.IsTrip(id) && !keep[id] {
			trips = append(trips, id)
		}
		return true
	})

	marked := 0
	for _, id := range trips {
		h, err := survey.ContentHash(d.ToTrip(id).Chunks)
		if err != nil {
			return marked, fmt.Errorf("hash %q: %w", d.tree.Path(id), err)
		}
		loc, ok := known[h]
		if !ok {
			continue
		}
		d.tree.SetImportType(id, ExistingTrip)
		d.tree.SetTargetCave(id, loc.cave)
		d.tree.SetTargetTrip(id, loc.trip)
		marked++
	}
	return marked, nil
}
