package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// ErrBusy is returned by Worker.Start while a run is active.
var ErrBusy = errors.New("importer: an import is already running")

// Outcome is what a Worker run delivers on Done.
type Outcome struct {
	Result *Result
	Err    error
}

// Worker runs imports on a background goroutine, one at a time.
//
// Thread-safety: all methods are safe for concurrent use.
type Worker struct {
	importer *Importer
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan Outcome
}

// NewWorker returns an idle worker.
func NewWorker(im *Importer, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Worker{importer: im, log: log, done: make(chan Outcome, 1)}
}

// Start begins importing paths and returns immediately. The outcome is
// delivered on Done once parsing has finished; the tree is not touched by
// the worker after that. Done holds one outcome: the caller must receive it
// before a later run can finish, and Start returns ErrBusy until then.
func (w *Worker) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.log.Debug("import started", "files", len(paths))

	go func() {
		res, err := w.importer.Import(runCtx, paths)
		if err != nil {
			w.log.Warn("import stopped", "error", err)
		}

		// The worker stays busy until the outcome is handed over, so an
		// undrained Done holds back the next Start instead of a goroutine.
		w.done <- Outcome{Result: res, Err: err}
		cancel()

		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
	}()
	return nil
}

// Stop asks the running import to stop at the next file or project entry.
// Its outcome still arrives on Done, carrying the cancellation error.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

// Busy reports whether an import is running.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Done delivers the outcome of each run in start order.
func (w *Worker) Done() <-chan Outcome {
	return w.done
}
