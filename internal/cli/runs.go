package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cavewalls/internal/store"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List committed import runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, cmd)
		},
	}

	return cmd
}

func runRuns(opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	db, err := store.Open(opts.Config.Store.Path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer db.Close()

	runs, err := db.Runs(cmd.Context())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	return formatter.Render(runs, func(w io.Writer) {
		if len(runs) == 0 {
			fmt.Fprintln(w, "No import runs found in database.")
			return
		}
		for _, r := range runs {
			writeRun(w, r)
		}
	})
}

func writeRun(w io.Writer, r store.Run) {
	status := ""
	if r.Undone {
		status = " (undone)"
	}
	fmt.Fprintf(w, "%d %s %s%s: caves=%d trips=%d replaced=%d sources=%s\n",
		r.Seq, r.ID, r.CreatedAt.Format(time.RFC3339), status,
		r.CavesAdded, r.TripsAdded, r.TripsReplaced, strings.Join(r.Sources, ","))
}

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo [run-id]",
		Short: "Undo the most recent import run",
		Long: `Restore the survey database to how it was before an import run.

Runs unwind newest first: only the most recent run that is not already
undone can be undone. Without a run id, that run is chosen.

Exit codes:
  0 - Run undone
  1 - Run already undone, or a later run must be undone first
  2 - Command error (run not found, database not readable, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runUndo(rootOpts, id, cmd)
		},
	}

	return cmd
}

func runUndo(opts *RootOptions, id string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	db, err := store.Open(opts.Config.Store.Path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer db.Close()

	if id == "" {
		runs, err := db.Runs(cmd.Context())
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
		for i := len(runs) - 1; i >= 0 && id == ""; i-- {
			if !runs[i].Undone {
				id = runs[i].ID
			}
		}
		if id == "" {
			return formatter.fail(ExitFailure, ErrCodeNotFound, "no import run to undo", nil)
		}
	}

	run, err := db.Undo(cmd.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrRunNotFound):
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "import run not found", err)
	case errors.Is(err, store.ErrRunUndone), errors.Is(err, store.ErrNotLatestRun):
		return formatter.fail(ExitFailure, ErrCodeStore, "cannot undo import run", err)
	default:
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to undo import run", err)
	}

	opts.Logger.Info("import undone", "run_id", run.ID, "seq", run.Seq)
	return formatter.Render(run, func(w io.Writer) {
		fmt.Fprintf(w, "Undid run %s (%d cave(s), %d trip(s) added, %d trip(s) replaced)\n",
			run.ID, run.CavesAdded, run.TripsAdded, run.TripsReplaced)
	})
}
