package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cavewalls/internal/config"
	"github.com/roach88/cavewalls/internal/plan"
	"github.com/roach88/cavewalls/internal/store"
	"github.com/roach88/cavewalls/internal/survey"
	"github.com/roach88/cavewalls/internal/testutil"
)

const fernProject = `; Fern Cave survey project
.BOOK Fern Cave
.SURVEY Entrance
.NAME entrance
.SURVEY Back Room
.NAME back
.ENDBOOK
`

// writeTestFile writes content under dir and returns its path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, name, content)
}

// writeFernProject writes a two-survey project and returns the .wpj path.
func writeFernProject(t *testing.T, dir string) string {
	t.Helper()
	writeTestFile(t, dir, "entrance.srv", "A1 A2 10 0 0\nA2 A3 5 90 -5\n")
	writeTestFile(t, dir, "back.srv", "B1 B2 3 180 0\n")
	return writeTestFile(t, dir, "cave.wpj", fernProject)
}

// testOptions returns root options with default config and a database in dir.
func testOptions(dir, format string) *RootOptions {
	cfg := config.Defaults()
	cfg.Store.Path = filepath.Join(dir, "cave.db")
	return &RootOptions{
		Format: format,
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeData(t *testing.T, out string, data any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func decodeError(t *testing.T, out string) CLIError {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func loadRegion(t *testing.T, opts *RootOptions) *survey.Region {
	t.Helper()
	db, err := store.Open(opts.Config.Store.Path)
	require.NoError(t, err)
	defer db.Close()
	region, err := db.LoadRegion(context.Background())
	require.NoError(t, err)
	return region
}

func TestInspect_Golden(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)

	out, err := execute(t, NewInspectCommand(testOptions(dir, "text")), project)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "inspect_project", []byte(out))
}

func TestInspect_JSON(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)

	out, err := execute(t, NewInspectCommand(testOptions(dir, "json")), project)
	require.NoError(t, err)

	var report InspectReport
	decodeData(t, out, &report)
	require.Len(t, report.Nodes, 3)
	assert.Equal(t, InspectNode{Path: "Fern Cave", Name: "Fern Cave", Type: "new-cave"}, report.Nodes[0])
	assert.Equal(t, InspectNode{
		Path:     "Fern Cave/Entrance",
		Name:     "Entrance",
		Depth:    1,
		Type:     "new-trip",
		Trip:     true,
		Shots:    2,
		Stations: 3,
	}, report.Nodes[1])
	assert.Equal(t, "Fern Cave/Back Room", report.Nodes[2].Path)
	assert.Equal(t, []FileReport{{Path: "cave.wpj", Status: "parsed", Trips: 2}}, report.Files)
	assert.NoFileExists(t, filepath.Join(dir, "cave.db"), "inspect never creates the database")
}

func TestInspect_Template(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)

	out, err := execute(t, NewInspectCommand(testOptions(dir, "text")), project, "--template")
	require.NoError(t, err)

	p, err := plan.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "skip", p.Default)
	assert.Equal(t, []plan.Node{
		{Path: "Fern Cave", Type: "new-cave"},
		{Path: "Fern Cave/Entrance", Type: "new-trip"},
		{Path: "Fern Cave/Back Room", Type: "new-trip"},
	}, p.Nodes)
}

func TestImport_CommitsRun(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)
	opts := testOptions(dir, "json")

	out, err := execute(t, NewImportCommand(opts), project)
	require.NoError(t, err)

	var report ImportReport
	decodeData(t, out, &report)
	assert.Len(t, report.RunID, 36)
	assert.Equal(t, 1, report.CavesAdded)
	assert.Zero(t, report.ExistingTrips)

	region := loadRegion(t, opts)
	require.Len(t, region.Caves, 1)
	cave := region.Caves[0]
	assert.Equal(t, "Fern Cave", cave.Name)
	require.Len(t, cave.Trips, 2)
	assert.Equal(t, "Entrance", cave.Trips[0].Name)
	assert.Equal(t, "Back Room", cave.Trips[1].Name)
	assert.Equal(t, []string{"A1", "A2", "A3"}, testutil.StationNames(cave.Trips[0].Chunks[0]))

	out, err = execute(t, NewRunsCommand(opts))
	require.NoError(t, err)
	var runs []store.Run
	decodeData(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, []string{project}, runs[0].Sources)
}

func TestImport_TextOutput(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)

	out, err := execute(t, NewImportCommand(testOptions(dir, "text")), project)
	require.NoError(t, err)
	assert.Contains(t, out, "1 cave(s) added, 0 trip(s) added, 0 trip(s) replaced")
	assert.Contains(t, out, "cave.wpj parsed trips=2")
}

func TestImport_DryRunMarksExisting(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)
	opts := testOptions(dir, "json")

	_, err := execute(t, NewImportCommand(opts), project)
	require.NoError(t, err)

	out, err := execute(t, NewImportCommand(opts), project, "--dry-run")
	require.NoError(t, err)

	var report ImportReport
	decodeData(t, out, &report)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.ExistingTrips)

	assert.Len(t, loadRegion(t, opts).Caves, 1, "dry run leaves the database alone")
	db, err := store.Open(opts.Config.Store.Path)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestImport_WithPlan(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)
	opts := testOptions(dir, "json")

	db, err := store.Open(opts.Config.Store.Path)
	require.NoError(t, err)
	require.NoError(t, db.Commit(context.Background(), &store.Run{ID: "seed"}, func(r *survey.Region) error {
		r.AddCave(survey.NewCave("Main"))
		return nil
	}))
	db.Close()

	planPath := writeTestFile(t, dir, "plan.yaml", `nodes:
  - path: Fern Cave
    type: existing
    cave: Main
  - path: Fern Cave/Entrance
    type: skip
`)

	out, err := execute(t, NewImportCommand(opts), project, "--plan", planPath)
	require.NoError(t, err)

	var report ImportReport
	decodeData(t, out, &report)
	assert.Zero(t, report.CavesAdded)
	assert.Equal(t, 1, report.TripsAdded)

	region := loadRegion(t, opts)
	require.Len(t, region.Caves, 1)
	require.Len(t, region.Caves[0].Trips, 1)
	assert.Equal(t, "Back Room", region.Caves[0].Trips[0].Name)
}

func TestImport_PlanEntryWinsOverExistingTrip(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)
	opts := testOptions(dir, "json")

	_, err := execute(t, NewImportCommand(opts), project)
	require.NoError(t, err)

	planPath := writeTestFile(t, dir, "plan.yaml", `nodes:
  - path: Fern Cave
    type: existing
    cave: Fern Cave
  - path: Fern Cave/Entrance
    type: new-trip
`)
	out, err := execute(t, NewImportCommand(opts), project, "--plan", planPath)
	require.NoError(t, err)

	var report ImportReport
	decodeData(t, out, &report)
	assert.Equal(t, 1, report.ExistingTrips, "only Back Room is marked")
	assert.Equal(t, 1, report.TripsAdded)

	region := loadRegion(t, opts)
	require.Len(t, region.Caves, 1)
	names := []string{}
	for _, trip := range region.Caves[0].Trips {
		names = append(names, trip.Name)
	}
	assert.Equal(t, []string{"Entrance", "Back Room", "Entrance"}, names)
}

func TestImport_Failures(t *testing.T) {
	tests := []struct {
		name     string
		args     func(dir, project string) []string
		exitCode int
		errCode  string
	}{
		{
			name:     "nothing to import",
			args:     func(_, project string) []string { return []string{project, "--type", "skip"} },
			exitCode: ExitFailure,
			errCode:  ErrCodeNothingToImport,
		},
		{
			name:     "missing file",
			args:     func(dir, _ string) []string { return []string{filepath.Join(dir, "nope.srv")} },
			exitCode: ExitCommandError,
			errCode:  ErrCodeNotFound,
		},
		{
			name: "plan names unknown cave",
			args: func(dir, project string) []string {
				p := writeTestFile(t, dir, "plan.yaml", "nodes:\n  - path: Fern Cave/Entrance\n    type: new-trip\n    cave: Nowhere\n")
				return []string{project, "--plan", p}
			},
			exitCode: ExitFailure,
			errCode:  ErrCodePlan,
		},
		{
			name: "plan fails schema",
			args: func(dir, project string) []string {
				p := writeTestFile(t, dir, "plan.yaml", "nodes:\n  - path: Fern Cave\n    type: merge\n")
				return []string{project, "--plan", p}
			},
			exitCode: ExitFailure,
			errCode:  ErrCodePlan,
		},
		{
			name: "unparseable survey",
			args: func(dir, _ string) []string {
				return []string{writeTestFile(t, dir, "bad.srv", "A1 A2 ten 0 0\n")}
			},
			exitCode: ExitFailure,
			errCode:  ErrCodeParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			project := writeFernProject(t, dir)

			out, err := execute(t, NewImportCommand(testOptions(dir, "json")), tt.args(dir, project)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.True(t, Reported(err))
			assert.Equal(t, tt.errCode, decodeError(t, out).Code)
		})
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, "json")

	valid := writeTestFile(t, dir, "valid.yaml", "default: skip\nnodes:\n  - path: Fern Cave\n    type: new-cave\n")
	out, err := execute(t, NewCheckCommand(opts), valid)
	require.NoError(t, err)
	var result CheckResult
	decodeData(t, out, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Nodes)

	invalid := writeTestFile(t, dir, "invalid.yaml", "nodes:\n  - path: Fern Cave\n    type: merge\n")
	out, err = execute(t, NewCheckCommand(opts), invalid)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	result = CheckResult{}
	decodeData(t, out, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, "Fern Cave", result.Node)
	assert.Equal(t, "type", result.Field)

	_, err = execute(t, NewCheckCommand(opts), filepath.Join(dir, "absent.yaml"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRegion(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)
	opts := testOptions(dir, "text")

	out, err := execute(t, NewRegionCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "No caves in the database.")

	_, err = execute(t, NewImportCommand(opts), project)
	require.NoError(t, err)

	out, err = execute(t, NewRegionCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "Fern Cave (2 trip(s))")
	assert.Contains(t, out, "  Entrance shots=2 stations=3 hash=")

	jsonOpts := testOptions(dir, "json")
	out, err = execute(t, NewRegionCommand(jsonOpts))
	require.NoError(t, err)
	var caves []CaveSummary
	decodeData(t, out, &caves)
	require.Len(t, caves, 1)
	hash := caves[0].Trips[1].ContentHash

	out, err = execute(t, NewRegionCommand(jsonOpts), "--hash", hash)
	require.NoError(t, err)
	var refs []store.TripRef
	decodeData(t, out, &refs)
	require.Len(t, refs, 1)
	assert.Equal(t, "Back Room", refs[0].Trip)
}

func TestUndo(t *testing.T) {
	dir := t.TempDir()
	project := writeFernProject(t, dir)
	opts := testOptions(dir, "json")

	_, err := execute(t, NewUndoCommand(opts))
	assert.Equal(t, ExitFailure, GetExitCode(err), "nothing to undo yet")

	out, err := execute(t, NewImportCommand(opts), project)
	require.NoError(t, err)
	var report ImportReport
	decodeData(t, out, &report)

	out, err = execute(t, NewUndoCommand(opts))
	require.NoError(t, err)
	var run store.Run
	decodeData(t, out, &run)
	assert.Equal(t, report.RunID, run.ID)
	assert.True(t, run.Undone)
	assert.Empty(t, loadRegion(t, opts).Caves)

	_, err = execute(t, NewUndoCommand(opts), report.RunID)
	assert.Equal(t, ExitFailure, GetExitCode(err), "already undone")

	_, err = execute(t, NewUndoCommand(opts), "no-such-run")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
