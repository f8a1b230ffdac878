package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cavewalls/internal/store"
	"github.com/roach88/cavewalls/internal/survey"
)

// RegionOptions holds flags for the region command.
type RegionOptions struct {
	*RootOptions
	Hash string
}

// TripSummary describes one stored trip.
type TripSummary struct {
	Name        string   `json:"name"`
	Date        string   `json:"date,omitempty"`
	Team        []string `json:"team,omitempty"`
	Chunks      int      `json:"chunks"`
	Shots       int      `json:"shots"`
	Stations    int      `json:"stations"`
	ContentHash string   `json:"content_hash"`
}

// CaveSummary describes one stored cave.
type CaveSummary struct {
	Name  string        `json:"name"`
	Trips []TripSummary `json:"trips"`
}

// NewRegionCommand creates the region command.
func NewRegionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "region",
		Short: "List the caves and trips in the survey database",
		Long: `List the caves and trips in the survey database.

With --hash, list only the trips whose survey data has that content hash.

Examples:
  cavewalls region --db ./cave.db
  cavewalls region --hash 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegion(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Hash, "hash", "", "list trips with this content hash")

	return cmd
}

func runRegion(opts *RegionOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	db, err := store.Open(opts.Config.Store.Path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer db.Close()

	if opts.Hash != "" {
		refs, err := db.FindTrips(cmd.Context(), opts.Hash)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, "failed to find trips", err)
		}
		return formatter.Render(refs, func(w io.Writer) {
			if len(refs) == 0 {
				fmt.Fprintln(w, "No trips with that content hash.")
				return
			}
			for _, r := range refs {
				fmt.Fprintf(w, "%s / %s\n", r.Cave, r.Trip)
			}
		})
	}

	region, err := db.LoadRegion(cmd.Context())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to load region", err)
	}
	caves, err := summarizeRegion(region)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to summarize region", err)
	}
	return formatter.Render(caves, func(w io.Writer) { writeRegion(w, caves) })
}

func summarizeRegion(region *survey.Region) ([]CaveSummary, error) {
	caves := make([]CaveSummary, 0, len(region.Caves))
	for _, c := range region.Caves {
		cave := CaveSummary{Name: c.Name, Trips: []TripSummary{}}
		for _, t := range c.Trips {
			hash, err := survey.ContentHash(t.Chunks)
			if err != nil {
				return nil, fmt.Errorf("trip %q: %w", t.Name, err)
			}
			trip := TripSummary{
				Name:        t.Name,
				Team:        t.Team.Names(),
				Chunks:      len(t.Chunks),
				Shots:       t.ShotCount(),
				Stations:    t.StationCount(),
				ContentHash: hash,
			}
			if !t.Date.IsZero() {
				trip.Date = t.Date.Format("2006-01-02")
			}
			cave.Trips = append(cave.Trips, trip)
		}
		caves = append(caves, cave)
	}
	return caves, nil
}

func writeRegion(w io.Writer, caves []CaveSummary) {
	if len(caves) == 0 {
		fmt.Fprintln(w, "No caves in the database.")
		return
	}
	for _, c := range caves {
		fmt.Fprintf(w, "%s (%d trip(s))\n", c.Name, len(c.Trips))
		for _, t := range c.Trips {
			fmt.Fprintf(w, "  %s", t.Name)
			if t.Date != "" {
				fmt.Fprintf(w, " %s", t.Date)
			}
			fmt.Fprintf(w, " shots=%d stations=%d hash=%s\n", t.Shots, t.Stations, shortHash(t.ContentHash))
		}
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
