package importtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cavewalls/internal/survey"
	"github.com/roach88/cavewalls/internal/testutil"
)

// project is the tree most tests stage:
//
//	Project
//	├── Book A
//	│   ├── a1.srv  A1-A2
//	│   └── a2.srv  A2-A3-A4
//	└── b.srv       B1-B2
type project struct {
	tree       *Tree
	root, book NodeID
	a1, a2, b  NodeID
}

func newProject() project {
	t := New()
	p := project{tree: t}
	p.root = t.AddNode(NoNode, "Project")
	p.book = t.AddNode(p.root, "Book A")
	p.a1 = t.AddNode(p.book, "a1.srv")
	t.AddChunk(p.a1, testutil.Chain("A1", "A2"))
	p.a2 = t.AddNode(p.book, "a2.srv")
	t.AddChunk(p.a2, testutil.Chain("A2", "A3", "A4"))
	p.b = t.AddNode(p.root, "b.srv")
	t.AddChunk(p.b, testutil.Chain("B1", "B2"))
	return p
}

func TestTree_Structure(t *testing.T) {
	p := newProject()

	assert.Equal(t, []NodeID{p.root}, p.tree.Roots())
	assert.Equal(t, []NodeID{p.book, p.b}, p.tree.Children(p.root))
	assert.Equal(t, p.book, p.tree.Parent(p.a2))
	assert.Equal(t, NoNode, p.tree.Parent(p.root))
	assert.Nil(t, p.tree.Node(99))
	assert.Nil(t, p.tree.Children(NoNode))

	n := p.tree.Node(p.a1)
	assert.True(t, n.IncludeDistance)
	assert.True(t, n.Calibration.FrontSights)
	assert.Equal(t, NoImport, p.tree.ImportType(p.a1))
}

func TestTree_SetImportType_NewCave(t *testing.T) {
	p := newProject()
	p.tree.SetImportType(p.root, NewCave)

	assert.Equal(t, NewCave, p.tree.ImportType(p.root))
	assert.Equal(t, Structure, p.tree.ImportType(p.book))
	assert.Equal(t, AddToCave, p.tree.ImportType(p.a1))
	assert.Equal(t, AddToCave, p.tree.ImportType(p.a2))
	assert.Equal(t, AddToCave, p.tree.ImportType(p.b))
}

func TestTree_SetImportType_AddToCaveNestsTrips(t *testing.T) {
	p := newProject()
	p.tree.SetImportType(p.root, AddToCave)

	assert.Equal(t, Structure, p.tree.ImportType(p.book))
	assert.Equal(t, AddToCave, p.tree.ImportType(p.b), "direct trip children keep their identity")
	assert.Equal(t, Structure, p.tree.ImportType(p.a1), "grandchildren fold into the enclosing trip")
	assert.Equal(t, Structure, p.tree.ImportType(p.a2))
}

func TestTree_SetImportType_NoImportForcesAll(t *testing.T) {
	p := newProject()
	p.tree.SetImportType(p.root, NewCave)
	p.tree.SetImportType(p.root, NoImport)

	p.tree.Walk(func(id NodeID, _ int) bool {
		assert.Equal(t, NoImport, p.tree.ImportType(id), p.tree.Path(id))
		return true
	})
}

func TestTree_SetImportType_Idempotent(t *testing.T) {
	for _, typ := range []ImportType{NoImport, ExistingTrip, NewCave, AddToCave, ReplaceTrip, Structure} {
		t.Run(typ.String(), func(t *testing.T) {
			p := newProject()
			p.tree.SetImportType(p.root, typ)
			first := snapshotTypes(p.tree)

			p.tree.SetImportType(p.root, typ)
			assert.Equal(t, first, snapshotTypes(p.tree))
		})
	}
}

func TestTree_SetImportType_ChildOverride(t *testing.T) {
	p := newProject()
	p.tree.SetImportType(p.root, NewCave)
	p.tree.SetImportType(p.a2, NoImport)

	assert.Equal(t, AddToCave, p.tree.ImportType(p.a1))
	assert.Equal(t, NoImport, p.tree.ImportType(p.a2))
}

// nestedSurvey stages Cave -> Upper (chunks) -> Lower (chunks): a survey
// whose node also holds a nested survey.
func nestedSurvey() (*Tree, NodeID, NodeID, NodeID) {
	tree := New()
	root := tree.AddNode(NoNode, "Cave")
	upper := tree.AddNode(root, "Upper")
	tree.AddChunk(upper, testutil.Chain("U1", "U2"))
	lower := tree.AddNode(upper, "Lower")
	tree.AddChunk(lower, testutil.Chain("L1", "L2", "L3"))
	return tree, root, upper, lower
}

func TestTree_SetImportType_DerivedTripAbsorbsChildren(t *testing.T) {
	tree, root, upper, lower := nestedSurvey()
	tree.SetImportType(root, NewCave)

	assert.Equal(t, AddToCave, tree.ImportType(upper))
	assert.True(t, tree.IsTrip(upper))
	assert.Equal(t, Structure, tree.ImportType(lower), "chunks below a derived trip fold into it")
	assert.False(t, tree.IsTrip(lower))

	tree.SetImportType(root, NewCave)
	assert.Equal(t, Structure, tree.ImportType(lower))
}

func snapshotTypes(tree *Tree) map[NodeID]ImportType {
	out := make(map[NodeID]ImportType)
	tree.Walk(func(id NodeID, _ int) bool {
		out[id] = tree.ImportType(id)
		return true
	})
	return out
}

func TestTree_IsTrip(t *testing.T) {
	p := newProject()

	assert.False(t, p.tree.IsTrip(p.root), "no chunks")
	assert.False(t, p.tree.IsTrip(p.book))
	assert.True(t, p.tree.IsTrip(p.a1))
	assert.True(t, p.tree.IsTrip(p.b))
	assert.False(t, p.tree.IsTrip(NoNode))

	p.tree.SetImportType(p.book, AddToCave)
	assert.False(t, p.tree.IsTrip(p.a1), "ancestor is already a trip")
	assert.True(t, p.tree.IsTrip(p.b))
}

func TestTree_Targets(t *testing.T) {
	p := newProject()
	region := testutil.Region("Alpha", "Beta")
	alpha, beta := region.Caves[0], region.Caves[1]
	trip := testutil.Trip("old")
	alpha.AddTrip(trip)

	p.tree.SetTargetCave(p.root, alpha)
	p.tree.SetTargetTrip(p.root, trip)
	assert.Same(t, alpha, p.tree.EffectiveTargetCave(p.a1), "inherited from the root")
	assert.Nil(t, p.tree.TargetCave(p.a1))

	p.tree.SetTargetCave(p.root, alpha)
	assert.Same(t, trip, p.tree.TargetTrip(p.root), "same cave keeps the trip")

	p.tree.SetTargetCave(p.root, beta)
	assert.Nil(t, p.tree.TargetTrip(p.root), "changing the cave clears the trip")

	p.tree.SetTargetCave(p.book, alpha)
	assert.Same(t, alpha, p.tree.EffectiveTargetCave(p.a2))
	assert.Same(t, beta, p.tree.EffectiveTargetCave(p.b))
}

func TestTree_ImportTypeString(t *testing.T) {
	p := newProject()
	assert.Equal(t, "Don't Import", p.tree.ImportTypeString(p.root))

	p.tree.SetImportType(p.root, NewCave)
	assert.Equal(t, "New Cave", p.tree.ImportTypeString(p.root))
	assert.Equal(t, "New Trip", p.tree.ImportTypeString(p.a1))
}

func TestTree_Aggregates(t *testing.T) {
	tree := New()
	id := tree.AddNode(NoNode, "two chunks")
	tree.AddChunk(id, testutil.Chain("A1", "A2", "A3"))
	tree.AddChunk(id, testutil.Chain("B1", "B2"))

	assert.Equal(t, 5, tree.StationCount(id))
	assert.Equal(t, 3, tree.ShotCount(id))
	assert.Equal(t, "B1", tree.Station(id, 3).Name)
	assert.Equal(t, survey.Station{}, tree.Station(id, 5))
	assert.Equal(t, survey.Station{}, tree.Station(id, -1))

	assert.Same(t, tree.Node(id).Chunks[1], tree.ParentChunkOfShot(id, 2))
	assert.Equal(t, 0, tree.ChunkShotIndex(id, 2))
	assert.Equal(t, 1, tree.ChunkShotIndex(id, 1))
	assert.Nil(t, tree.ParentChunkOfShot(id, 3))
	assert.Equal(t, -1, tree.ChunkShotIndex(id, 3))
}

func TestTree_PromoteOnlyChild(t *testing.T) {
	tree := New()
	root := tree.AddNode(NoNode, "")
	only := tree.AddNode(root, "cave.wpj")
	tree.AddNode(only, "a.srv")

	got := tree.PromoteOnlyChild(root)
	assert.Equal(t, only, got)
	assert.Equal(t, []NodeID{only}, tree.Roots())
	assert.Equal(t, NoNode, tree.Parent(only))
	assert.Equal(t, "cave.wpj/a.srv", tree.Path(tree.Children(only)[0]))

	leaf := tree.Children(only)[0]
	assert.Equal(t, leaf, tree.PromoteOnlyChild(leaf), "only roots are promoted")
}

func TestTree_PromoteOnlyChild_KeepsSeveral(t *testing.T) {
	p := newProject()
	assert.Equal(t, p.root, p.tree.PromoteOnlyChild(p.root))
	assert.Equal(t, p.book, p.tree.PromoteOnlyChild(p.book), "not a root")
}

func TestTree_Walk(t *testing.T) {
	p := newProject()

	var visited []string
	p.tree.Walk(func(id NodeID, depth int) bool {
		visited = append(visited, p.tree.Node(id).Name)
		return id != p.book
	})
	assert.Equal(t, []string{"Project", "Book A", "b.srv"}, visited, "returning false skips children")

	depths := map[NodeID]int{}
	p.tree.Walk(func(id NodeID, depth int) bool {
		depths[id] = depth
		return true
	})
	assert.Equal(t, 2, depths[p.a2])
}

func TestTree_PathAndFind(t *testing.T) {
	p := newProject()

	assert.Equal(t, "Project/Book A/a2.srv", p.tree.Path(p.a2))
	assert.Equal(t, "", p.tree.Path(NoNode))

	id, ok := p.tree.Find("project/book a/A2.SRV")
	require.True(t, ok)
	assert.Equal(t, p.a2, id)

	_, ok = p.tree.Find("Project/missing")
	assert.False(t, ok)
}

func TestImportType_Names(t *testing.T) {
	for _, typ := range []ImportType{NoImport, ExistingTrip, NewCave, AddToCave, ReplaceTrip, Structure} {
		parsed, err := ParseImportType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseImportType("merge")
	assert.Error(t, err)
	assert.Equal(t, "ImportType(42)", ImportType(42).String())
}
