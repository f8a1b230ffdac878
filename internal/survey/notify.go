package survey

import "sync"

// ChangeKind distinguishes chunk change notifications.
type ChangeKind int

const (
	// StationsAdded reports stations inserted at [Begin, End).
	StationsAdded ChangeKind = iota + 1
	// StationsRemoved reports stations that occupied [Begin, End).
	StationsRemoved
	// ShotsAdded reports shots inserted at [Begin, End).
	ShotsAdded
	// ShotsRemoved reports shots that occupied [Begin, End).
	ShotsRemoved
	// DataChanged reports a field update at (Role, Index).
	DataChanged
	// ErrorsChanged reports that the validation errors changed.
	ErrorsChanged
)

func (k ChangeKind) String() string {
	switch k {
	case StationsAdded:
		return "stations_added"
	case StationsRemoved:
		return "stations_removed"
	case ShotsAdded:
		return "shots_added"
	case ShotsRemoved:
		return "shots_removed"
	case DataChanged:
		return "data_changed"
	case ErrorsChanged:
		return "errors_changed"
	}
	return "unknown"
}

// Change is one notification raised by a chunk mutation.
type Change struct {
	Kind  ChangeKind
	Begin int
	End   int
	Role  Role
	Index int
}

// Observer receives chunk changes synchronously, in mutation order.
type Observer func(Change)

// ChangeBuffer collects changes for a caller that drains them later.
//
// Thread-safety: Observe and Drain may be called from different goroutines,
// although chunks themselves are not safe for concurrent mutation.
type ChangeBuffer struct {
	mu      sync.Mutex
	changes []Change
}

// NewChangeBuffer creates an empty buffer.
func NewChangeBuffer() *ChangeBuffer {
	return &ChangeBuffer{changes: make([]Change, 0, 16)}
}

// Observe appends c. Pass b.Observe to Chunk.SetObserver.
func (b *ChangeBuffer) Observe(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, c)
}

// Len returns the number of buffered changes.
func (b *ChangeBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}

// Drain removes and returns every buffered change in FIFO order.
func (b *ChangeBuffer) Drain() []Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.changes
	b.changes = make([]Change, 0, 16)
	return out
}

// Count returns how many buffered changes have the given kind.
func (b *ChangeBuffer) Count(kind ChangeKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}
