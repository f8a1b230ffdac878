package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cavewalls/internal/plan"
)

// CheckResult holds plan check results.
type CheckResult struct {
	Valid bool   `json:"valid"`
	Nodes int    `json:"nodes"`
	Node  string `json:"node,omitempty"`
	Field string `json:"field,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <plan.yaml>",
		Short: "Validate an import plan without importing",
		Long: `Validate an import plan against the plan schema: known fields only,
every node has a path and a known import type.

Cave and trip names are not looked up; import and inspect do that when the
plan is applied.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(path); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "plan not found", err)
	}

	p, err := plan.Load(path)
	if err != nil {
		result := CheckResult{Field: "yaml", Error: err.Error()}
		var pe *plan.Error
		if errors.As(err, &pe) {
			result = CheckResult{Node: pe.Node, Field: pe.Field, Error: pe.Message}
		}
		if renderErr := formatter.Render(result, func(w io.Writer) {
			fmt.Fprintf(w, "%s: invalid\n  %s\n", path, err)
		}); renderErr != nil {
			return renderErr
		}
		exitErr := WrapExitError(ExitFailure, "invalid plan", err)
		exitErr.reported = true
		return exitErr
	}

	result := CheckResult{Valid: true, Nodes: len(p.Nodes)}
	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s: valid (%d node(s))\n", path, result.Nodes)
	})
}
