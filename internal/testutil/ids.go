// Package testutil holds fixtures shared by package tests: deterministic
// run IDs, survey data builders and temp-file helpers.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator hands out run IDs of the form "<prefix>-0001",
// "<prefix>-0002", ... so that store contents and CLI output are stable
// across test runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequenceGenerator creates a generator starting at 1. An empty prefix
// becomes "run".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Current returns how many IDs have been handed out.
func (g *SequenceGenerator) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns "<prefix>-0001".
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
