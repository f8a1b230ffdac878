package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cavewalls/internal/importtree"
	"github.com/roach88/cavewalls/internal/plan"
	"github.com/roach88/cavewalls/internal/store"
	"github.com/roach88/cavewalls/internal/survey"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	StageOptions
	NoMarkExisting bool
	DryRun         bool
}

// ImportReport is the result of an import.
type ImportReport struct {
	RunID         string       `json:"run_id"`
	DryRun        bool         `json:"dry_run,omitempty"`
	Files         []FileReport `json:"files"`
	ExistingTrips int          `json:"existing_trips"`
	CavesAdded    int          `json:"caves_added"`
	TripsAdded    int          `json:"trips_added"`
	TripsReplaced int          `json:"trips_replaced"`
	ParseErrors   []string     `json:"parse_errors,omitempty"`
	ImportErrors  []string     `json:"import_errors,omitempty"`
}

// errDryRun rolls back a dry-run commit.
var errDryRun = errors.New("dry run")

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import Walls files into the survey database",
		Long: `Parse Walls projects (.wpj) and survey files (.srv) and commit them
into the survey database as one import run.

Every root of the parsed tree gets the default import type. A plan file
(--plan) can then choose the type and targets of individual nodes. Trips
whose survey data is already in the database are marked as existing and
left alone unless --no-mark-existing is given.

Files that fail to parse are reported and skipped.

Exit codes:
  0 - Import committed
  1 - Nothing to import, or the plan could not be applied
  2 - Command error (missing files, database not readable, etc.)

Examples:
  cavewalls import cave.wpj
  cavewalls import a.srv b.srv --root-name "Spring Trip"
  cavewalls import cave.wpj --plan plan.yaml --dry-run`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	addStageFlags(cmd, &opts.StageOptions)
	cmd.Flags().BoolVar(&opts.NoMarkExisting, "no-mark-existing", false, "import trips even when their data is already stored")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would change without committing")

	return cmd
}

func addStageFlags(cmd *cobra.Command, so *StageOptions) {
	cmd.Flags().StringVar(&so.RootName, "root-name", "", "name of the root when several files are imported")
	cmd.Flags().StringVar(&so.TripPrefix, "trip-prefix", "", "prefix for the names of untitled trips")
	cmd.Flags().StringVar(&so.Type, "type", "", "import type of the roots (skip|new-cave|new-trip|...)")
	cmd.Flags().StringVar(&so.PlanPath, "plan", "", "import plan file (YAML)")
}

func runImport(opts *ImportOptions, paths []string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	st, err := stage(ctx, opts.RootOptions, &opts.StageOptions, paths)
	if err != nil {
		return reportStageError(formatter, err)
	}
	if !st.parsedAnything() {
		return formatter.fail(ExitFailure, ErrCodeParse, "no file could be parsed", errors.New(firstOr(st.result.ParseErrors, "no data")))
	}
	formatter.VerboseLog("Parsed %d file(s), run %s", len(paths), st.result.RunID)

	db, err := store.Open(opts.Config.Store.Path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer db.Close()

	report := ImportReport{
		RunID:        st.result.RunID,
		DryRun:       opts.DryRun,
		Files:        st.fileReports(),
		ParseErrors:  st.result.ParseErrors,
		ImportErrors: st.result.ImportErrors,
	}
	markExisting := opts.Config.Import.MarkExisting && !opts.NoMarkExisting

	run := &store.Run{ID: st.result.RunID, CreatedAt: time.Now(), Sources: paths}
	err = db.Commit(ctx, run, func(region *survey.Region) error {
		if err := st.applyPlan(region); err != nil {
			return err
		}
		data := importtree.NewImportData(st.result.Tree)
		if markExisting {
			n, err := data.MarkExistingTripsExcept(region, st.planned())
			if err != nil {
				return err
			}
			report.ExistingTrips = n
		}
		summary, err := data.ImportInto(region)
		if err != nil {
			return err
		}
		run.CavesAdded = summary.CavesAdded
		run.TripsAdded = summary.TripsAdded
		run.TripsReplaced = summary.TripsReplaced
		report.CavesAdded = summary.CavesAdded
		report.TripsAdded = summary.TripsAdded
		report.TripsReplaced = summary.TripsReplaced
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	switch {
	case err == nil, errors.Is(err, errDryRun):
	case errors.Is(err, importtree.ErrNothingToImport):
		return formatter.fail(ExitFailure, ErrCodeNothingToImport, "nothing to import", err)
	case plan.IsError(err):
		return formatter.fail(ExitFailure, ErrCodePlan, "failed to apply plan", err)
	default:
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to commit import", err)
	}

	opts.Logger.Info("import committed",
		"run_id", report.RunID,
		"dry_run", report.DryRun,
		"caves_added", report.CavesAdded,
		"trips_added", report.TripsAdded,
		"trips_replaced", report.TripsReplaced)

	return formatter.Render(report, func(w io.Writer) { writeImportReport(w, report) })
}

func writeImportReport(w io.Writer, r ImportReport) {
	verb := "Imported"
	if r.DryRun {
		verb = "Would import"
	}
	fmt.Fprintf(w, "%s run %s: %d cave(s) added, %d trip(s) added, %d trip(s) replaced\n",
		verb, r.RunID, r.CavesAdded, r.TripsAdded, r.TripsReplaced)
	if r.ExistingTrips > 0 {
		fmt.Fprintf(w, "%d trip(s) already in the database were left alone\n", r.ExistingTrips)
	}
	writeFiles(w, r.Files)
	writeMessages(w, "Parse errors", r.ParseErrors)
	writeMessages(w, "Warnings", r.ImportErrors)
}

func writeFiles(w io.Writer, files []FileReport) {
	fmt.Fprintln(w, "\nFiles:")
	for _, f := range files {
		fmt.Fprintf(w, "  %s %s trips=%d", f.Path, f.Status, f.Trips)
		if f.SkippedSurveys > 0 {
			fmt.Fprintf(w, " skipped_surveys=%d", f.SkippedSurveys)
		}
		fmt.Fprintln(w)
	}
}

func writeMessages(w io.Writer, title string, messages []string) {
	if len(messages) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, m := range messages {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}
