package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cavewalls/internal/survey"
)

// FullShot returns a level shot of length d heading east.
func FullShot(d float64) survey.Shot {
	return survey.Shot{
		Distance: survey.ValidDistance(d),
		Compass:  survey.ValidCompass(90),
		Clino:    survey.ValidClino(0),
	}
}

// Chain builds names[0] -> names[1] -> ... with one full shot per leg. The
// i-th shot is i units long.
func Chain(names ...string) *survey.Chunk {
	c := survey.NewChunk()
	for i := 1; i < len(names); i++ {
		c.AppendShot(survey.NewStation(names[i-1]), survey.NewStation(names[i]), FullShot(float64(i)))
	}
	return c
}

// Trip returns a trip named name dated 2020-01-01 holding chunks.
func Trip(name string, chunks ...*survey.Chunk) *survey.Trip {
	trip := survey.NewTrip(name)
	trip.Date = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range chunks {
		trip.AddChunk(c)
	}
	return trip
}

// Region returns a region with one cave per name, each holding no trips.
func Region(caves ...string) *survey.Region {
	r := survey.NewRegion()
	for _, name := range caves {
		r.AddCave(survey.NewCave(name))
	}
	return r
}

// StationNames lists the station names of c in order.
func StationNames(c *survey.Chunk) []string {
	names := make([]string, 0, c.StationCount())
	for _, st := range c.Stations() {
		names = append(names, st.Name)
	}
	return names
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
