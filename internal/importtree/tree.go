// Package importtree stages parsed survey data for review before it is
// committed into a project region.
//
// Nodes live in an arena owned by a Tree and refer to each other by NodeID.
// A node owns its chunks and its child handles; the parent handle is a
// plain back-reference. Target caves and trips are borrowed pointers into
// the region the tree will be committed into.
package importtree

import (
	"strings"
	"time"

	"github.com/roach88/cavewalls/internal/survey"
)

// NodeID addresses a node within its Tree.
type NodeID int

// NoNode is the parent of a root node.
const NoNode NodeID = -1

// Node is one book, survey or trip-like unit of staged data.
type Node struct {
	Name            string
	Chunks          []*survey.Chunk
	Team            survey.Team
	Calibration     survey.Calibration
	Date            time.Time
	IncludeDistance bool

	importType ImportType
	targetCave *survey.Cave
	targetTrip *survey.Trip

	parent   NodeID
	children []NodeID
}

// Tree is an arena of staged nodes.
//
// Thread-safety: a Tree is owned by one goroutine at a time. The importer
// builds it on a worker goroutine and hands it over when parsing finishes.
type Tree struct {
	nodes []*Node
	roots []NodeID
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// AddNode creates a node under parent, or a root when parent is NoNode.
func (t *Tree) AddNode(parent NodeID, name string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{
		Name:            name,
		Calibration:     survey.NewCalibration(),
		IncludeDistance: true,
		parent:          NoNode,
	})
	if t.valid(parent) {
		t.nodes[id].parent = parent
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	} else {
		t.roots = append(t.roots, id)
	}
	return id
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns the node with the id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if !t.valid(id) {
		return nil
	}
	return t.nodes[id]
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []NodeID {
	return append([]NodeID(nil), t.roots...)
}

// Parent returns the parent of id, or NoNode.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return NoNode
	}
	return t.nodes[id].parent
}

// Children returns the children of id in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return append([]NodeID(nil), t.nodes[id].children...)
}

// AddChunk gives ownership of c to the node.
func (t *Tree) AddChunk(id NodeID, c *survey.Chunk) {
	if n := t.Node(id); n != nil {
		n.Chunks = append(n.Chunks, c)
	}
}

// PromoteOnlyChild replaces root by its child when it has exactly one, and
// returns the node that is now the root. The old root is left unreachable.
func (t *Tree) PromoteOnlyChild(root NodeID) NodeID {
	n := t.Node(root)
	if n == nil || n.parent != NoNode || len(n.children) != 1 {
		return root
	}
	child := n.children[0]
	n.children = nil
	t.nodes[child].parent = NoNode
	for i, r := range t.roots {
		if r == root {
			t.roots[i] = child
		}
	}
	return child
}

// ImportType returns the selected import type of id.
func (t *Tree) ImportType(id NodeID) ImportType {
	if n := t.Node(id); n != nil {
		return n.importType
	}
	return NoImport
}

// SetImportType selects how id is committed and derives the type of every
// descendant: trip-shaped children become AddToCave and the rest Structure,
// or all become NoImport when typ is NoImport. A child of id is trip-shaped
// when it owns chunks and no ancestor above id is AddToCave; the type being
// set on id does not count, so the trips directly beneath it keep their own
// identity. Further down, the freshly derived types do count, so chunks below
// a derived AddToCave node fold into that trip. Setting the same type again
// repeats the propagation.
func (t *Tree) SetImportType(id NodeID, typ ImportType) {
	t.setImportType(id, typ, false)
}

func (t *Tree) setImportType(id NodeID, typ ImportType, derived bool) {
	n := t.Node(id)
	if n == nil {
		return
	}

	n.importType = typ
	nested := t.underAddToCave(n.parent) || (derived && typ == AddToCave)
	for _, child := range n.children {
		switch {
		case typ == NoImport:
			t.setImportType(child, NoImport, true)
		case !nested && len(t.nodes[child].Chunks) > 0:
			t.setImportType(child, AddToCave, true)
		default:
			t.setImportType(child, Structure, true)
		}
	}
}

// IsTrip reports whether id stands for one trip: it owns chunks and no
// ancestor is already being added to a cave as a trip.
func (t *Tree) IsTrip(id NodeID) bool {
	n := t.Node(id)
	if n == nil {
		return false
	}
	return !t.underAddToCave(n.parent) && len(n.Chunks) > 0
}

// underAddToCave reports whether id or any of its ancestors is AddToCave.
func (t *Tree) underAddToCave(id NodeID) bool {
	for cur := id; t.valid(cur); cur = t.nodes[cur].parent {
		if t.nodes[cur].importType == AddToCave {
			return true
		}
	}
	return false
}

// SetTargetCave sets the cave id is committed into and clears its target trip.
func (t *Tree) SetTargetCave(id NodeID, c *survey.Cave) {
	if n := t.Node(id); n != nil && n.targetCave != c {
		n.targetCave = c
		n.targetTrip = nil
	}
}

// TargetCave returns the cave set on id itself.
func (t *Tree) TargetCave(id NodeID) *survey.Cave {
	if n := t.Node(id); n != nil {
		return n.targetCave
	}
	return nil
}

// EffectiveTargetCave returns the target cave of id or of its nearest
// ancestor that has one.
func (t *Tree) EffectiveTargetCave(id NodeID) *survey.Cave {
	for cur := id; t.valid(cur); cur = t.nodes[cur].parent {
		if c := t.nodes[cur].targetCave; c != nil {
			return c
		}
	}
	return nil
}

// SetTargetTrip sets the trip a ReplaceTrip node overwrites.
func (t *Tree) SetTargetTrip(id NodeID, trip *survey.Trip) {
	if n := t.Node(id); n != nil {
		n.targetTrip = trip
	}
}

// TargetTrip returns the trip set on id.
func (t *Tree) TargetTrip(id NodeID) *survey.Trip {
	if n := t.Node(id); n != nil {
		return n.targetTrip
	}
	return nil
}

// ImportTypeString describes the import type of id.
func (t *Tree) ImportTypeString(id NodeID) string {
	return t.ImportType(id).Label()
}

// StationCount sums the stations of the chunks id owns.
func (t *Tree) StationCount(id NodeID) int {
	n := t.Node(id)
	if n == nil {
		return 0
	}
	count := 0
	for _, c := range n.Chunks {
		count += c.StationCount()
	}
	return count
}

// ShotCount sums the shots of the chunks id owns.
func (t *Tree) ShotCount(id NodeID) int {
	n := t.Node(id)
	if n == nil {
		return 0
	}
	count := 0
	for _, c := range n.Chunks {
		count += c.ShotCount()
	}
	return count
}

// Station returns station index counted across the node's chunks, or a
// zero Station when index is out of range.
func (t *Tree) Station(id NodeID, index int) survey.Station {
	n := t.Node(id)
	if n == nil || index < 0 {
		return survey.Station{}
	}
	for _, c := range n.Chunks {
		if index < c.StationCount() {
			return c.Station(index)
		}
		index -= c.StationCount()
	}
	return survey.Station{}
}

// ParentChunkOfShot returns the chunk holding shot index counted across the
// node's chunks, or nil.
func (t *Tree) ParentChunkOfShot(id NodeID, index int) *survey.Chunk {
	c, _ := t.locateShot(id, index)
	return c
}

// ChunkShotIndex converts a node-wide shot index into an index within its
// chunk, or -1.
func (t *Tree) ChunkShotIndex(id NodeID, index int) int {
	_, i := t.locateShot(id, index)
	return i
}

func (t *Tree) locateShot(id NodeID, index int) (*survey.Chunk, int) {
	n := t.Node(id)
	if n == nil || index < 0 {
		return nil, -1
	}
	for _, c := range n.Chunks {
		if index < c.ShotCount() {
			return c, index
		}
		index -= c.ShotCount()
	}
	return nil, -1
}

// Walk visits every node in pre-order, children in insertion order. When fn
// returns false the node's children are skipped.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	for _, r := range t.roots {
		t.walk(r, 0, fn)
	}
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, child := range t.nodes[id].children {
		t.walk(child, depth+1, fn)
	}
}

// PathSeparator joins node names in a Path.
const PathSeparator = "/"

// Path returns the names from the root down to id joined by PathSeparator.
func (t *Tree) Path(id NodeID) string {
	var names []string
	for cur := id; t.valid(cur); cur = t.nodes[cur].parent {
		names = append(names, t.nodes[cur].Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator)
}

// Find returns the first node in pre-order whose Path equals path,
// comparing names case-insensitively.
func (t *Tree) Find(path string) (NodeID, bool) {
	found := NoNode
	t.Walk(func(id NodeID, _ int) bool {
		if found != NoNode {
			return false
		}
		if survey.SameName(t.Path(id), path) {
			found = id
			return false
		}
		return true
	})
	return found, found != NoNode
}
