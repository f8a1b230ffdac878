package store

import (
	"context"
	"fmt"

	"github.com/roach88/cavewalls/internal/survey"
)

// LoadRegion reads the whole region. An empty store yields an empty region.
func (s *Store) LoadRegion(ctx context.Context) (*survey.Region, error) {
	return loadRegion(ctx, s.db)
}

// loadRegion reads caves, trips and chunks with one flat query each. Rows are
// closed before the next query starts because the pool holds one connection.
func loadRegion(ctx context.Context, q querier) (*survey.Region, error) {
	region := survey.NewRegion()

	caves := make(map[int64]*survey.Cave)
	if err := scanEach(ctx, q, `
		SELECT id, name FROM caves ORDER BY position ASC, id ASC
	`, func(scan func(...any) error) error {
		var (
			id   int64
			name string
		)
		if err := scan(&id, &name); err != nil {
			return fmt.Errorf("scan cave: %w", err)
		}
		cave := survey.NewCave(name)
		caves[id] = cave
		region.AddCave(cave)
		return nil
	}); err != nil {
		return nil, err
	}

	trips := make(map[int64]*survey.Trip)
	if err := scanEach(ctx, q, `
		SELECT id, cave_id, meta FROM trips ORDER BY cave_id ASC, position ASC, id ASC
	`, func(scan func(...any) error) error {
		var (
			id, caveID int64
			meta       string
		)
		if err := scan(&id, &caveID, &meta); err != nil {
			return fmt.Errorf("scan trip: %w", err)
		}
		cave, ok := caves[caveID]
		if !ok {
			return fmt.Errorf("trip %d: unknown cave %d", id, caveID)
		}
		trip, err := unmarshalTripMeta(meta)
		if err != nil {
			return fmt.Errorf("trip %d: %w", id, err)
		}
		trips[id] = trip
		cave.AddTrip(trip)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := scanEach(ctx, q, `
		SELECT trip_id, data FROM chunks ORDER BY trip_id ASC, position ASC, id ASC
	`, func(scan func(...any) error) error {
		var (
			tripID int64
			data   string
		)
		if err := scan(&tripID, &data); err != nil {
			return fmt.Errorf("scan chunk: %w", err)
		}
		trip, ok := trips[tripID]
		if !ok {
			return fmt.Errorf("chunk: unknown trip %d", tripID)
		}
		c, err := unmarshalChunk(data)
		if err != nil {
			return fmt.Errorf("trip %q: %w", trip.Name, err)
		}
		trip.AddChunk(c)
		return nil
	}); err != nil {
		return nil, err
	}

	return region, nil
}

// scanEach runs query and calls fn once per row.
func scanEach(ctx context.Context, q querier, query string, fn func(scan func(...any) error) error, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// TripRef locates a stored trip.
type TripRef struct {
	Cave        string
	Trip        string
	ContentHash string
}

// FindTrips returns the stored trips whose survey data hashes to hash, in
// region order.
func (s *Store) FindTrips(ctx context.Context, hash string) ([]TripRef, error) {
	refs := []TripRef{}
	err := scanEach(ctx, s.db, `
		SELECT c.name, t.name, t.content_hash
		FROM trips t JOIN caves c ON c.id = t.cave_id
		WHERE t.content_hash = ?
		ORDER BY c.position ASC, t.position ASC
	`, func(scan func(...any) error) error {
		var ref TripRef
		if err := scan(&ref.Cave, &ref.Trip, &ref.ContentHash); err != nil {
			return fmt.Errorf("scan trip ref: %w", err)
		}
		refs = append(refs, ref)
		return nil
	}, hash)
	if err != nil {
		return nil, fmt.Errorf("find trips: %w", err)
	}
	return refs, nil
}
