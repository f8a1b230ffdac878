package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator_Sequence(t *testing.T) {
	gen := NewSequenceGenerator("import")

	assert.Equal(t, 0, gen.Current())
	assert.Equal(t, "import-0001", gen.Generate())
	assert.Equal(t, "import-0002", gen.Generate())
	assert.Equal(t, 2, gen.Current())
}

func TestSequenceGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "run-0001", NewSequenceGenerator("").Generate())
}

func TestSequenceGenerator_Reset(t *testing.T) {
	gen := NewSequenceGenerator("")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, 0, gen.Current())
	assert.Equal(t, "run-0001", gen.Generate())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("")
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine, "IDs must be unique")
	assert.Equal(t, numGoroutines*callsPerGoroutine, gen.Current())
}
