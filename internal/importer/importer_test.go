package importer

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cavewalls/internal/importtree"
	"github.com/roach88/cavewalls/internal/renamer"
	"github.com/roach88/cavewalls/internal/survey"
	"github.com/roach88/cavewalls/internal/testutil"
	"github.com/roach88/cavewalls/internal/walls"
)

const caveSrv = `; Entrance Series
; Ann; Bob
#DATE 2004-07-21
A1 A2 10 45 0 <1,2,3,4>
A2 A3 5 90 90
#DATE 2004-08-01
A3 A4 3 180 -90
#FIX A1 0 0 0
#FIX A2 1 1 1
`

func newTestImporter() *Importer {
	return New(Options{IDs: testutil.NewSequenceGenerator("run")})
}

func newTestSession() *session {
	return &session{
		ctx:     context.Background(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tree:    importtree.New(),
		renamer: renamer.New(),
		warned:  make(map[warning]bool),
		lruds:   make(lrudMap),
		result:  &Result{},
	}
}

func untitledEntry(path string) *walls.Entry {
	e := walls.NewSurveyEntry(path)
	e.Title = ""
	return e
}

func importFiles(t *testing.T, paths ...string) *Result {
	t.Helper()
	res, err := newTestImporter().Import(context.Background(), paths)
	require.NoError(t, err)
	return res
}

func TestImport_SurveyFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "cave.srv", caveSrv)
	res := importFiles(t, path)

	assert.Equal(t, "run-0001", res.RunID)
	assert.Equal(t, []FileResult{{Path: path, Status: FileParsed, Trips: 2}}, res.Files)
	assert.Empty(t, res.ParseErrors)
	assert.Equal(t, []string{
		"warning: This data contains #FIX stations, which can't currently be imported",
	}, res.ImportErrors)

	tree := res.Tree
	assert.Equal(t, []importtree.NodeID{res.Root}, tree.Roots(), "the only file is promoted to root")
	node := tree.Node(res.Root)
	assert.Equal(t, "cave", node.Name)
	assert.True(t, node.IncludeDistance)
	assert.True(t, time.Date(2004, 7, 21, 0, 0, 0, 0, time.UTC).Equal(node.Date), "date of the first trip")
	assert.Equal(t, []string{"Ann", "Bob"}, node.Team.Names())

	require.Len(t, node.Chunks, 2, "#DATE starts a new trip")
	assert.Equal(t, []string{"A1", "A2", "A3"}, testutil.StationNames(node.Chunks[0]))
	assert.Equal(t, []string{"A3", "A4"}, testutil.StationNames(node.Chunks[1]))

	first := node.Chunks[0]
	assert.Equal(t, survey.ValidDistance(10), first.Shot(0).Distance)
	assert.Equal(t, survey.ValidCompass(45), first.Shot(0).Compass)
	assert.True(t, first.Shot(0).BackCompass.IsEmpty(), "absent fields stay empty")
	assert.Equal(t, survey.ClinoUp, first.Shot(1).Clino.State)
	assert.Equal(t, survey.ClinoDown, node.Chunks[1].Shot(0).Clino.State)

	a1 := first.Station(0)
	assert.Equal(t, survey.ValidDistance(1), a1.Left)
	assert.Equal(t, survey.ValidDistance(4), a1.Down)
	assert.True(t, first.Station(1).Left.IsEmpty())
}

func TestImport_LRUDLatestDateWins(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "lrud.srv", `#DATE 2004-07-21
A1 A2 10 0 0 <1,1,1,1>
#DATE 2003-01-01
A1 A3 10 0 0 <2,2,2,2>
`)
	res := importFiles(t, path)
	node := res.Tree.Node(res.Root)

	require.Len(t, node.Chunks, 2)
	for _, c := range node.Chunks {
		assert.Equal(t, survey.ValidDistance(1), c.Station(0).Left, "the older record must not win")
	}
}

func TestImport_LRUDUndatedLaterWins(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "lrud.srv", `A1 A2 10 0 0 <1,1,1,1>
A2 A3 10 0 0
A1 *5 5 5 5*
`)
	res := importFiles(t, path)
	node := res.Tree.Node(res.Root)

	require.Len(t, node.Chunks, 1)
	c := node.Chunks[0]
	assert.Equal(t, survey.ValidDistance(5), c.Station(0).Left, "station-only line applied to the shot station")
	assert.True(t, c.Station(1).Left.IsEmpty())
}

func TestImport_LRUDToStation(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "to.srv", `#UNITS LRUD=T
A1 A2 10 0 0 <1,2,3,4>
`)
	res := importFiles(t, path)
	c := res.Tree.Node(res.Root).Chunks[0]

	assert.True(t, c.Station(0).Left.IsEmpty())
	assert.Equal(t, survey.ValidDistance(2), c.Station(1).Right)
}

func TestImport_UnitsChangeStartsTrip(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "units.srv", `A1 A2 10 0 0
#UNITS LRUD=T
A2 A3 10 0 0
#UNITS DECL=2.5 FEET
A3 A4 10 0 0
`)
	res := importFiles(t, path)
	node := res.Tree.Node(res.Root)

	assert.Equal(t, 2, res.Files[0].Trips, "LRUD style is not calibration")
	require.Len(t, node.Chunks, 2)
	assert.Equal(t, []string{"A1", "A2", "A3"}, testutil.StationNames(node.Chunks[0]))
	assert.Equal(t, survey.Meters, node.Calibration.DistanceUnit, "calibration of the first trip")
	assert.InDelta(t, 10, node.Chunks[1].Shot(0).Distance.Value, 1e-9, "distances stay in the recorded unit")
}

func TestImport_RenamedStationWarnsOnce(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "names.srv", `A.1 A.2 10 0 0
A.2 A.3 10 0 0
`)
	res := importFiles(t, path)

	require.Len(t, res.ImportErrors, 1)
	assert.Contains(t, res.ImportErrors[0], "A.1 -> A_1")
	c := res.Tree.Node(res.Root).Chunks[0]
	assert.Equal(t, []string{"A_1", "A_2", "A_3"}, testutil.StationNames(c))
}

func TestImport_Project(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "upper/entrance.srv", "E1 E2 10 0 0\n")
	testutil.WriteFile(t, dir, "lower.srv", "; Lower Level\nL1 L2 5 0 0\n")
	testutil.WriteFile(t, dir, "broken.srv", "B1 B2 ten 0 0\n")
	project := testutil.WriteFile(t, dir, "cave.wpj", `.BOOK	Cave Project
.NAME	CAVE
.BOOK	Upper
.PATH	upper
.SURVEY	Entrance
.NAME	entrance
.ENDBOOK
.SURVEY
.NAME	lower
.REF	308000 4300000 13 0.5 1200
.SURVEY	Broken
.NAME	broken
.ENDBOOK
`)
	res := importFiles(t, project)

	assert.Equal(t, []FileResult{{Path: project, Status: FileParsed, Trips: 2, SkippedSurveys: 1}}, res.Files)
	require.Len(t, res.ParseErrors, 1)
	assert.Contains(t, res.ParseErrors[0], "broken.srv")
	assert.Equal(t, []string{
		"warning: This data contains geographic references, which can't currently be imported",
	}, res.ImportErrors)

	tree := res.Tree
	assert.Equal(t, "Cave Project", tree.Node(res.Root).Name)
	id, ok := tree.Find("Cave Project/Upper/Entrance")
	require.True(t, ok)
	assert.Equal(t, 1, tree.ShotCount(id))

	_, ok = tree.Find("Cave Project/Lower Level")
	assert.True(t, ok, "an untitled survey is named by its first comment")
	_, ok = tree.Find("Cave Project/Broken")
	assert.False(t, ok, "a failed survey is left out")
}

func TestImport_MissingFileIsSkipped(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.srv")
	res := importFiles(t, missing)

	assert.Equal(t, FileSkipped, res.Files[0].Status)
	require.Len(t, res.ParseErrors, 1)
	assert.Contains(t, res.ParseErrors[0], "couldn't open file")
	assert.Equal(t, DefaultRootName, res.Tree.Node(res.Root).Name)
	assert.Empty(t, res.Tree.Children(res.Root))
}

func TestImport_NonFiniteMeasurementSkipsFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.srv", "A1 A2 10 0 0\nA2 A3 NaN 0 0\nA3 A4 10 Inf 0\n")
	res := importFiles(t, path)

	assert.Equal(t, FileSkipped, res.Files[0].Status)
	require.Len(t, res.ParseErrors, 1)
	assert.Empty(t, res.Tree.Children(res.Root), "no data from the file is kept")
}

func TestImport_LongLineIsParsed(t *testing.T) {
	text := "; " + strings.Repeat("x", 100000) + "\nA1 A2 10 0 0\n"
	path := testutil.WriteFile(t, t.TempDir(), "long.srv", text)
	res := importFiles(t, path)

	assert.Equal(t, FileParsed, res.Files[0].Status)
	assert.Empty(t, res.ParseErrors)
	assert.Len(t, res.Tree.Children(res.Root), 1)
}

func TestImport_SeveralFilesShareARoot(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.srv", "A1 A2 1 0 0\n")
	b := testutil.WriteFile(t, dir, "b.srv", "B1 B2 1 0 0\n")

	res, err := New(Options{RootName: "Spring Trip"}).Import(context.Background(), []string{a, b})
	require.NoError(t, err)

	assert.Len(t, res.RunID, 36, "UUIDv7 by default")
	assert.Equal(t, "Spring Trip", res.Tree.Node(res.Root).Name)
	assert.Len(t, res.Tree.Children(res.Root), 2)
}

func TestImport_Cancelled(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "cave.srv", caveSrv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestImporter().Import(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestParseSurvey_TripNames(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "named.srv", `; Big Room
; Ann ; Bob;Cy
A1 A2 1 0 0
#DATE 2010-05-05
A2 A3 1 0 0
#DATE 2010-05-06
A3 A4 1 0 0
`)
	trips, err := newTestSession().parseSurvey(untitledEntry(path))
	require.NoError(t, err)

	require.Len(t, trips, 3)
	assert.Equal(t, "Big Room", trips[0].Name)
	assert.Equal(t, "Big Room (2)", trips[1].Name)
	assert.Equal(t, "Big Room (3)", trips[2].Name)
	assert.Equal(t, []string{"Ann", "Bob", "Cy"}, trips[2].Team.Names())
	assert.Equal(t, 2010, trips[1].Date.Year())
}

func TestParseSurvey_DefaultTripNames(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "plain.srv", "A1 A2 1 0 0\n#DATE 2010-05-05\nA2 A3 1 0 0\n")
	trips, err := newTestSession().parseSurvey(untitledEntry(path))
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "plain.srv (1)", trips[0].Name)
	assert.Equal(t, "plain.srv (2)", trips[1].Name)
}
