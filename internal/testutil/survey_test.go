package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	c := Chain("A1", "A2", "A3")

	assert.True(t, c.IsValid())
	assert.Equal(t, []string{"A1", "A2", "A3"}, StationNames(c))
	assert.InDelta(t, 2, c.Shot(1).Distance.Value, 1e-9)
	assert.Zero(t, c.FatalCount())
}

func TestTripAndRegion(t *testing.T) {
	trip := Trip("Entrance", Chain("A1", "A2"), Chain("B1", "B2", "B3"))
	assert.Equal(t, 3, trip.ShotCount())
	assert.Equal(t, 2020, trip.Date.Year())

	r := Region("Alpha", "Beta")
	require.Len(t, r.Caves, 2)
	assert.NotNil(t, r.Cave("beta"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "sub/a.srv", "A1 A2 1 0 0\n")

	assert.Equal(t, filepath.Join(dir, "sub", "a.srv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A1 A2 1 0 0\n", string(data))
}
