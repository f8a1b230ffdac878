package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cavewalls/internal/importtree"
	"github.com/roach88/cavewalls/internal/plan"
	"github.com/roach88/cavewalls/internal/store"
	"github.com/roach88/cavewalls/internal/survey"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	StageOptions
	Template bool
}

// InspectNode is one node of the staged tree.
type InspectNode struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Type     string `json:"type"`
	Trip     bool   `json:"trip"`
	Shots    int    `json:"shots"`
	Stations int    `json:"stations"`
}

// InspectReport is the staged tree of an import that was not committed.
type InspectReport struct {
	Nodes        []InspectNode `json:"nodes"`
	Files        []FileReport  `json:"files"`
	ParseErrors  []string      `json:"parse_errors,omitempty"`
	ImportErrors []string      `json:"import_errors,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Show how Walls files would be imported",
		Long: `Parse Walls files and print the staged import tree without touching
the database. With --template, print an import plan listing every node
instead; edit it and pass it to import --plan.

When --plan names caves or trips, they are looked up in the database if it
exists.

Examples:
  cavewalls inspect cave.wpj
  cavewalls inspect cave.wpj --template > plan.yaml
  cavewalls inspect cave.wpj --plan plan.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args, cmd)
		},
	}

	addStageFlags(cmd, &opts.StageOptions)
	cmd.Flags().BoolVar(&opts.Template, "template", false, "print an import plan template")

	return cmd
}

func runInspect(opts *InspectOptions, paths []string, cmd *cobra.Command) error {
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

	if st.plan != nil {
		region, err := existingRegion(cmd, opts.Config.Store.Path)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, "failed to read database", err)
		}
		if err := st.applyPlan(region); err != nil {
			return formatter.fail(ExitFailure, ErrCodePlan, "failed to apply plan", err)
		}
	}

	tree := st.result.Tree
	if opts.Template {
		p := plan.Template(tree)
		if opts.Format == "json" {
			return formatter.Success(p)
		}
		if err := p.Encode(cmd.OutOrStdout()); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to write plan", err)
		}
		return nil
	}

	report := InspectReport{
		Nodes:        inspectNodes(tree),
		Files:        st.fileReports(),
		ParseErrors:  st.result.ParseErrors,
		ImportErrors: st.result.ImportErrors,
	}
	return formatter.Render(report, func(w io.Writer) { writeInspectReport(w, report) })
}

// existingRegion loads the stored region, or an empty one when the database
// file does not exist yet.
func existingRegion(cmd *cobra.Command, path string) (*survey.Region, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return survey.NewRegion(), nil
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.LoadRegion(cmd.Context())
}

func inspectNodes(tree *importtree.Tree) []InspectNode {
	nodes := []InspectNode{}
	tree.Walk(func(id importtree.NodeID, depth int) bool {
		nodes = append(nodes, InspectNode{
			Path:     tree.Path(id),
			Name:     tree.Node(id).Name,
			Depth:    depth,
			Type:     tree.ImportType(id).String(),
			Trip:     tree.IsTrip(id),
			Shots:    tree.ShotCount(id),
			Stations: tree.StationCount(id),
		})
		return true
	})
	return nodes
}

func writeInspectReport(w io.Writer, r InspectReport) {
	for _, n := range r.Nodes {
		fmt.Fprintf(w, "%s%s", strings.Repeat("  ", n.Depth), n.Name)
		if label := typeLabel(n.Type); label != "" {
			fmt.Fprintf(w, " [%s]", label)
		}
		if n.Shots > 0 {
			fmt.Fprintf(w, " shots=%d stations=%d", n.Shots, n.Stations)
		}
		fmt.Fprintln(w)
	}
	writeFiles(w, r.Files)
	writeMessages(w, "Parse errors", r.ParseErrors)
	writeMessages(w, "Warnings", r.ImportErrors)
}

func typeLabel(name string) string {
	typ, err := importtree.ParseImportType(name)
	if err != nil {
		return name
	}
	return typ.Label()
}
