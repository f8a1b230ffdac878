package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cavewalls/internal/survey"
)

var (
	// ErrRunNotFound is returned when no import run has the requested id.
	ErrRunNotFound = errors.New("import run not found")

	// ErrRunUndone is returned when undoing a run that was already undone.
	ErrRunUndone = errors.New("import run already undone")

	// ErrNotLatestRun is returned when undoing a run that later runs built on.
	ErrNotLatestRun = errors.New("import run is not the most recent")
)

// Run records one committed import.
type Run struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	CreatedAt     time.Time `json:"created_at"`
	Sources       []string  `json:"sources"`
	CavesAdded    int       `json:"caves_added"`
	TripsAdded    int       `json:"trips_added"`
	TripsReplaced int       `json:"trips_replaced"`
	Undone        bool      `json:"undone"`
}

const runColumns = `id, seq, created_at, sources, caves_added, trips_added, trips_replaced, undone`

func scanRun(scan func(...any) error) (Run, error) {
	var (
		run              Run
		created, sources string
		undone           int
	)
	if err := scan(&run.ID, &run.Seq, &created, &sources,
		&run.CavesAdded, &run.TripsAdded, &run.TripsReplaced, &undone); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: created_at: %w", run.ID, err)
	}
	run.CreatedAt = t
	if run.Sources, err = unmarshalSources(sources); err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.Undone = undone != 0
	return run, nil
}

// Runs lists every import run, oldest first.
// Ordered per ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing was imported yet.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	runs := []Run{}
	err := scanEach(ctx, s.db, `
		SELECT `+runColumns+`
		FROM import_runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, func(scan func(...any) error) error {
		run, err := scanRun(scan)
		if err != nil {
			return fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Run returns the import run with the id, or ErrRunNotFound.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	run, _, err := readRun(ctx, s.db, id)
	return run, err
}

func readRun(ctx context.Context, q querier, id string) (Run, string, error) {
	var snapshot string
	run, err := scanRun(func(dest ...any) error {
		return q.QueryRowContext(ctx, `
			SELECT `+runColumns+`, snapshot
			FROM import_runs WHERE id = ?
		`, id).Scan(append(dest, &snapshot)...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, "", fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, "", fmt.Errorf("read run %s: %w", id, err)
	}
	return run, snapshot, nil
}

// Undo restores the region to how it was before run id and marks the run
// undone. Only the most recent run that is not undone can be undone, so runs
// unwind in reverse order.
func (s *Store) Undo(ctx context.Context, id string) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("undo %s: begin: %w", id, err)
	}
	defer tx.Rollback()

	run, snapshot, err := readRun(ctx, tx, id)
	if err != nil {
		return Run{}, fmt.Errorf("undo: %w", err)
	}
	if run.Undone {
		return Run{}, fmt.Errorf("undo %s: %w", id, ErrRunUndone)
	}

	var latest string
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM import_runs WHERE undone = 0
		ORDER BY seq DESC LIMIT 1
	`).Scan(&latest); err != nil {
		return Run{}, fmt.Errorf("undo %s: latest run: %w", id, err)
	}
	if latest != id {
		return Run{}, fmt.Errorf("undo %s: %w (latest is %s)", id, ErrNotLatestRun, latest)
	}

	region := survey.NewRegion()
	if err := json.Unmarshal([]byte(snapshot), region); err != nil {
		return Run{}, fmt.Errorf("undo %s: snapshot: %w", id, err)
	}
	if err := saveRegion(ctx, tx, region); err != nil {
		return Run{}, fmt.Errorf("undo %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE import_runs SET undone = 1 WHERE id = ?
	`, id); err != nil {
		return Run{}, fmt.Errorf("undo %s: mark undone: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("undo %s: %w", id, err)
	}
	run.Undone = true
	return run, nil
}
