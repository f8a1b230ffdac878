package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/cavewalls/internal/importer"
	"github.com/roach88/cavewalls/internal/importtree"
	"github.com/roach88/cavewalls/internal/plan"
	"github.com/roach88/cavewalls/internal/survey"
)

// StageOptions holds the flags shared by commands that parse Walls files.
type StageOptions struct {
	RootName   string
	TripPrefix string
	Type       string // import type given to the roots
	PlanPath   string
}

// FileReport describes one requested file.
type FileReport struct {
	Path           string `json:"path"`
	Status         string `json:"status"`
	Trips          int    `json:"trips"`
	SkippedSurveys int    `json:"skipped_surveys,omitempty"`
}

// staged is a parsed import ready to be planned and committed.
type staged struct {
	result *importer.Result
	plan   *plan.Plan
}

// stage checks that every path exists, loads the plan if one is given and
// parses the files on an import worker. Cancelling ctx stops the worker.
func stage(ctx context.Context, opts *RootOptions, so *StageOptions, paths []string) (*staged, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, &stageError{code: ErrCodeNotFound, exit: ExitCommandError, message: fmt.Sprintf("file not found: %s", p), err: err}
		}
	}

	var pl *plan.Plan
	if so.PlanPath != "" {
		var err error
		pl, err = plan.Load(so.PlanPath)
		if err != nil {
			return nil, &stageError{code: ErrCodePlan, exit: ExitFailure, message: "invalid plan", err: err}
		}
	}

	rootName := so.RootName
	if rootName == "" {
		rootName = opts.Config.Import.RootName
	}
	tripPrefix := so.TripPrefix
	if tripPrefix == "" {
		tripPrefix = opts.Config.Import.TripPrefix
	}
	im := importer.New(importer.Options{
		RootName:   rootName,
		TripPrefix: tripPrefix,
		Logger:     opts.Logger,
	})

	w := importer.NewWorker(im, opts.Logger)
	if err := w.Start(ctx, paths); err != nil {
		return nil, &stageError{code: ErrCodeGeneric, exit: ExitCommandError, message: "failed to start import", err: err}
	}
	out := <-w.Done()
	if out.Err != nil {
		return nil, &stageError{code: ErrCodeGeneric, exit: ExitCommandError, message: "import interrupted", err: out.Err}
	}

	typeName := so.Type
	if typeName == "" {
		typeName = opts.Config.Import.DefaultType
	}
	typ, err := importtree.ParseImportType(typeName)
	if err != nil {
		return nil, &stageError{code: ErrCodeGeneric, exit: ExitCommandError, message: "invalid import type", err: err}
	}
	for _, root := range out.Result.Tree.Roots() {
		out.Result.Tree.SetImportType(root, typ)
	}

	return &staged{result: out.Result, plan: pl}, nil
}

// planned returns the nodes the staged plan sets explicitly.
func (s *staged) planned() map[importtree.NodeID]bool {
	if s.plan == nil {
		return nil
	}
	return s.plan.Selected(s.result.Tree)
}

// applyPlan applies the staged plan, if any, against region.
func (s *staged) applyPlan(region *survey.Region) error {
	if s.plan == nil {
		return nil
	}
	return s.plan.Apply(s.result.Tree, region)
}

// parsedAnything reports whether at least one file was read.
func (s *staged) parsedAnything() bool {
	for _, f := range s.result.Files {
		if f.Status == importer.FileParsed {
			return true
		}
	}
	return false
}

func (s *staged) fileReports() []FileReport {
	reports := make([]FileReport, 0, len(s.result.Files))
	for _, f := range s.result.Files {
		reports = append(reports, FileReport{
			Path:           filepath.Base(f.Path),
			Status:         f.Status.String(),
			Trips:          f.Trips,
			SkippedSurveys: f.SkippedSurveys,
		})
	}
	return reports
}

// stageError carries the output code and exit code for a staging failure.
type stageError struct {
	code    string
	exit    int
	message string
	err     error
}

func (e *stageError) Error() string { return fmt.Sprintf("%s: %v", e.message, e.err) }
func (e *stageError) Unwrap() error { return e.err }

// reportStageError outputs err through f. Errors that did not come from
// stage are command errors.
func reportStageError(f *OutputFormatter, err error) error {
	var se *stageError
	if !errors.As(err, &se) {
		return f.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return f.fail(se.exit, se.code, se.message, se.err)
}
