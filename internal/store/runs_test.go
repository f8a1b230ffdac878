package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cavewalls/internal/survey"
	"github.com/roach88/cavewalls/internal/testutil"
)

// addCave commits a run that appends one cave with one trip.
func addCave(t *testing.T, s *Store, id, cave string) *Run {
	t.Helper()
	run := &Run{
		ID:        id,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Sources:   []string{cave + ".srv"},
	}
	require.NoError(t, s.Commit(context.Background(), run, func(r *survey.Region) error {
		c := survey.NewCave(cave)
		c.AddTrip(testutil.Trip(cave+".srv", testutil.Chain(cave+"1", cave+"2")))
		r.AddCave(c)
		run.CavesAdded = 1
		return nil
	}))
	return run
}

func caveNames(t *testing.T, s *Store) []string {
	t.Helper()
	region, err := s.LoadRegion(context.Background())
	require.NoError(t, err)
	names := []string{}
	for _, c := range region.Caves {
		names = append(names, c.Name)
	}
	return names
}

func TestRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestRuns_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)

	addCave(t, s, "zz-first", "A")
	addCave(t, s, "aa-second", "B")

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "zz-first", runs[0].ID)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, "aa-second", runs[1].ID)
	assert.Equal(t, int64(2), runs[1].Seq)

	assert.Equal(t, []string{"A.srv"}, runs[0].Sources)
	assert.Equal(t, 1, runs[0].CavesAdded)
	assert.True(t, runs[0].CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.False(t, runs[0].Undone)
}

func TestRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestUndo_RestoresSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	addCave(t, s, "run-1", "A")
	addCave(t, s, "run-2", "B")
	require.Equal(t, []string{"A", "B"}, caveNames(t, s))

	run, err := s.Undo(ctx, "run-2")
	require.NoError(t, err)
	assert.True(t, run.Undone)
	assert.Equal(t, []string{"A"}, caveNames(t, s))

	stored, err := s.Run(ctx, "run-2")
	require.NoError(t, err)
	assert.True(t, stored.Undone)

	_, err = s.Undo(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, caveNames(t, s))
}

func TestUndo_RestoresTripData(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	addCave(t, s, "run-1", "A")
	run := &Run{ID: "run-2"}
	require.NoError(t, s.Commit(ctx, run, func(r *survey.Region) error {
		r.Caves[0].Trips[0].ReplaceWith(testutil.Trip("replaced", testutil.Chain("Z1", "Z2")))
		run.TripsReplaced = 1
		return nil
	}))

	_, err := s.Undo(ctx, "run-2")
	require.NoError(t, err)

	region, err := s.LoadRegion(ctx)
	require.NoError(t, err)
	trip := region.Caves[0].Trips[0]
	assert.Equal(t, "A.srv", trip.Name)
	require.Len(t, trip.Chunks, 1)
	assert.Equal(t, []string{"A1", "A2"}, testutil.StationNames(trip.Chunks[0]))
}

func TestUndo_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	addCave(t, s, "run-1", "A")
	addCave(t, s, "run-2", "B")

	_, err := s.Undo(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.Undo(ctx, "run-1")
	assert.ErrorIs(t, err, ErrNotLatestRun)
	assert.Equal(t, []string{"A", "B"}, caveNames(t, s), "refused undo leaves the region alone")

	_, err = s.Undo(ctx, "run-2")
	require.NoError(t, err)
	_, err = s.Undo(ctx, "run-2")
	assert.ErrorIs(t, err, ErrRunUndone)
}

func TestUndo_AfterLaterCommit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	addCave(t, s, "run-1", "A")
	addCave(t, s, "run-2", "B")
	_, err := s.Undo(ctx, "run-2")
	require.NoError(t, err)

	addCave(t, s, "run-3", "C")
	assert.Equal(t, []string{"A", "C"}, caveNames(t, s))

	_, err = s.Undo(ctx, "run-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, caveNames(t, s))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, int64(3), runs[2].Seq)
}
