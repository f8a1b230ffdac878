package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cavewalls/internal/survey"
)

// Commit applies mutate to the stored region and records run, atomically.
//
// The region is loaded inside the transaction and a snapshot of it is kept
// with the run so Undo can restore it. mutate may fill in run's counters;
// they are written after it returns. When mutate fails nothing is written
// and its error is returned wrapped.
//
// On success run.Seq holds the assigned sequence number.
func (s *Store) Commit(ctx context.Context, run *Run, mutate func(*survey.Region) error) error {
	if run == nil || run.ID == "" {
		return errors.New("commit: run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit %s: begin: %w", run.ID, err)
	}
	defer tx.Rollback()

	region, err := loadRegion(ctx, tx)
	if err != nil {
		return fmt.Errorf("commit %s: load region: %w", run.ID, err)
	}
	snapshot, err := json.Marshal(region)
	if err != nil {
		return fmt.Errorf("commit %s: snapshot: %w", run.ID, err)
	}

	if err := mutate(region); err != nil {
		return fmt.Errorf("commit %s: %w", run.ID, err)
	}

	if err := saveRegion(ctx, tx, region); err != nil {
		return fmt.Errorf("commit %s: %w", run.ID, err)
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return fmt.Errorf("commit %s: %w", run.ID, err)
	}
	if err := insertRun(ctx, tx, run, seq, string(snapshot)); err != nil {
		return fmt.Errorf("commit %s: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", run.ID, err)
	}
	run.Seq = seq
	return nil
}

// saveRegion replaces everything stored with region.
func saveRegion(ctx context.Context, q querier, region *survey.Region) error {
	for _, table := range []string{"chunks", "trips", "caves"} {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for ci, cave := range region.Caves {
		res, err := q.ExecContext(ctx, `
			INSERT INTO caves (position, name) VALUES (?, ?)
		`, ci, cave.Name)
		if err != nil {
			return fmt.Errorf("insert cave %q: %w", cave.Name, err)
		}
		caveID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert cave %q: %w", cave.Name, err)
		}
		for ti, trip := range cave.Trips {
			if err := insertTrip(ctx, q, caveID, ti, trip); err != nil {
				return fmt.Errorf("cave %q: %w", cave.Name, err)
			}
		}
	}
	return nil
}

func insertTrip(ctx context.Context, q querier, caveID int64, position int, trip *survey.Trip) error {
	meta, err := marshalTripMeta(trip)
	if err != nil {
		return err
	}
	hash, err := survey.ContentHash(trip.Chunks)
	if err != nil {
		return fmt.Errorf("hash trip %q: %w", trip.Name, err)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO trips (cave_id, position, name, meta, content_hash)
		VALUES (?, ?, ?, ?, ?)
	`, caveID, position, trip.Name, meta, hash)
	if err != nil {
		return fmt.Errorf("insert trip %q: %w", trip.Name, err)
	}
	tripID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert trip %q: %w", trip.Name, err)
	}

	for i, c := range trip.Chunks {
		data, err := marshalChunk(c)
		if err != nil {
			return fmt.Errorf("trip %q: %w", trip.Name, err)
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO chunks (trip_id, position, data) VALUES (?, ?, ?)
		`, tripID, i, data); err != nil {
			return fmt.Errorf("insert chunk %d of trip %q: %w", i, trip.Name, err)
		}
	}
	return nil
}

func nextSeq(ctx context.Context, q querier) (int64, error) {
	var seq int64
	if err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM import_runs
	`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

func insertRun(ctx context.Context, q querier, run *Run, seq int64, snapshot string) error {
	sources, err := marshalSources(run.Sources)
	if err != nil {
		return err
	}
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO import_runs
			(id, seq, created_at, sources, caves_added, trips_added, trips_replaced, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, seq, created.UTC().Format(time.RFC3339), sources,
		run.CavesAdded, run.TripsAdded, run.TripsReplaced, snapshot)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	run.CreatedAt = created.UTC().Truncate(time.Second)
	return nil
}
