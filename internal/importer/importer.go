package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/cavewalls/internal/importtree"
	"github.com/roach88/cavewalls/internal/renamer"
	"github.com/roach88/cavewalls/internal/survey"
	"github.com/roach88/cavewalls/internal/walls"
)

// DefaultRootName names the root of an import whose files give no name.
const DefaultRootName = "Walls Import"

// maxLineLength bounds one line of a survey file.
const maxLineLength = 1 << 20

// FileStatus tags what happened to one requested file.
type FileStatus int

const (
	FileParsed FileStatus = iota
	FileSkipped
)

func (s FileStatus) String() string {
	if s == FileSkipped {
		return "skipped"
	}
	return "parsed"
}

// FileResult reports on one requested file.
type FileResult struct {
	Path   string
	Status FileStatus
	// Trips counts the trips read from the file.
	Trips int
	// SkippedSurveys counts project surveys left out because of errors.
	SkippedSurveys int
}

// Result is the outcome of one import run.
type Result struct {
	RunID string
	Tree  *importtree.Tree
	Root  importtree.NodeID

	// ParseErrors are parser diagnostics, including the errors that caused
	// a file or survey to be skipped.
	ParseErrors []string
	// ImportErrors are warnings about data that could not be carried over.
	ImportErrors []string

	Files []FileResult
}

// Options configures an Importer.
type Options struct {
	// RootName replaces an empty root name. Defaults to DefaultRootName.
	RootName string
	// TripPrefix replaces the file name in the names of untitled trips.
	TripPrefix string
	Logger     *slog.Logger
	IDs        IDGenerator
}

// Importer reads Walls files into an import tree.
//
// Thread-safety: an Importer holds only configuration, every Import call
// keeps its own state.
type Importer struct {
	rootName   string
	tripPrefix string
	log        *slog.Logger
	ids        IDGenerator
}

// New returns an importer.
func New(opts Options) *Importer {
	im := &Importer{
		rootName:   opts.RootName,
		tripPrefix: opts.TripPrefix,
		log:        opts.Logger,
		ids:        opts.IDs,
	}
	if im.rootName == "" {
		im.rootName = DefaultRootName
	}
	if im.log == nil {
		im.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if im.ids == nil {
		im.ids = UUIDv7Generator{}
	}
	return im
}

type warning int

const (
	warnFixStations warning = iota
	warnGeographicReferences
	warnStationRenamed
)

// session is the state of one Import call.
type session struct {
	ctx        context.Context
	log        *slog.Logger
	tripPrefix string
	tree       *importtree.Tree
	renamer    *renamer.Renamer
	warned     map[warning]bool
	lruds      lrudMap
	result     *Result
}

// Import reads paths in order. Files ending in .srv become survey nodes and
// anything else is read as a .wpj project. A file that cannot be read or
// parsed is skipped with all its data and recorded in ParseErrors; the
// other files are still imported.
//
// ctx is checked between files and between project entries. A cancelled
// import returns ctx's error and no result.
func (im *Importer) Import(ctx context.Context, paths []string) (*Result, error) {
	runID := im.ids.Generate()
	s := &session{
		ctx:        ctx,
		log:        im.log.With("run_id", runID),
		tripPrefix: im.tripPrefix,
		tree:       importtree.New(),
		renamer:    renamer.New(),
		warned:     make(map[warning]bool),
		lruds:      make(lrudMap),
		result:     &Result{RunID: runID},
	}
	s.result.Tree = s.tree

	root := s.tree.AddNode(importtree.NoNode, "")
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
		file, err := s.importFile(path, root)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		s.result.Files = append(s.result.Files, file)
	}

	root = s.tree.PromoteOnlyChild(root)
	if n := s.tree.Node(root); n.Name == "" {
		n.Name = im.rootName
	}
	s.result.Root = root
	s.applyLRUDs()

	s.log.Info("import finished",
		"files", len(paths),
		"parse_errors", len(s.result.ParseErrors),
		"import_errors", len(s.result.ImportErrors))
	return s.result, nil
}

// importFile reads one requested file under parent. The returned error is
// only ever a cancellation.
func (s *session) importFile(path string, parent importtree.NodeID) (FileResult, error) {
	file := FileResult{Path: path, Status: FileSkipped}
	log := s.log.With("path", path)

	if strings.EqualFold(filepath.Ext(path), ".srv") {
		trips, ok := s.convertSurvey(walls.NewSurveyEntry(path), parent)
		if ok {
			file.Status = FileParsed
			file.Trips = trips
			log.Info("parsed file", "trips", trips)
		} else {
			log.Warn("skipping file due to errors")
		}
		return file, nil
	}

	project, messages, err := walls.ParseProjectFile(path)
	for _, m := range messages {
		s.parseError(m.String())
	}
	if err != nil {
		s.parseError(errorMessage(err))
		log.Warn("skipping file due to errors", "error", err)
		return file, nil
	}

	file.Status = FileParsed
	if err := s.convertEntry(project, parent, &file); err != nil {
		return file, err
	}
	log.Info("parsed project", "trips", file.Trips, "skipped_surveys", file.SkippedSurveys)
	return file, nil
}

func (s *session) convertEntry(e *walls.Entry, parent importtree.NodeID, file *FileResult) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.warn(warnGeographicReferences, e.HasReference(),
		"This data contains geographic references, which can't currently be imported")

	if e.IsSurvey() {
		trips, ok := s.convertSurvey(e, parent)
		if ok {
			file.Trips += trips
		} else {
			file.SkippedSurveys++
		}
		return nil
	}

	id := s.tree.AddNode(parent, e.Title)
	for _, child := range e.Children {
		if err := s.convertEntry(child, id, file); err != nil {
			return err
		}
	}
	return nil
}

// convertSurvey parses the survey file of e and, when it parses cleanly,
// adds a node holding the chunks and team of all its trips. The node takes
// its calibration and date from the first trip, and that trip's name when
// the entry has no title.
func (s *session) convertSurvey(e *walls.Entry, parent importtree.NodeID) (int, bool) {
	trips, err := s.parseSurvey(e)
	if err != nil {
		s.parseError(errorMessage(err))
		return 0, false
	}

	name := e.Title
	if name == "" && len(trips) > 0 {
		name = trips[0].Name
	}
	id := s.tree.AddNode(parent, name)
	n := s.tree.Node(id)
	n.IncludeDistance = true
	if len(trips) > 0 {
		n.Calibration = trips[0].Calibration
		n.Date = trips[0].Date
	}
	for _, trip := range trips {
		for _, c := range trip.Chunks {
			s.tree.AddChunk(id, c)
		}
		for _, m := range trip.Team.Members {
			n.Team.AddMember(m)
		}
	}
	return len(trips), true
}

// parseSurvey reads the trips of e's survey file. A survey without a file
// name yields no trips and no error.
func (s *session) parseSurvey(e *walls.Entry) ([]*survey.Trip, error) {
	path := e.AbsolutePath()
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open file %s: %w", path, err)
	}
	defer f.Close()

	prefix := filepath.Base(path)
	if s.tripPrefix != "" {
		prefix = s.tripPrefix
	}
	v := newVisitor(s, prefix)

	for _, options := range e.AllOptions() {
		if err := v.parser.ParseUnitsOptions(options); err != nil {
			return nil, err
		}
	}

	var (
		tripName  string
		surveyors []string
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	line := 0
	for scanner.Scan() {
		comment, err := v.parseLine(walls.Segment{Text: scanner.Text(), Source: path, Line: line})
		if err != nil {
			return nil, err
		}
		switch {
		case comment == "":
		case line == 0:
			tripName = comment
		case line == 1:
			surveyors = splitSurveyors(comment)
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read from file %s: %w", path, err)
	}

	if e.Title != "" {
		tripName = e.Title
	}
	nameTrips(v.trips, tripName, surveyors)

	for _, rec := range v.lruds {
		s.lruds.offer(rec)
	}
	return v.trips, nil
}

// createStation resolves a Walls station name to a project station and
// warns once when a name had to change.
func (s *session) createStation(name string) survey.Station {
	station := s.renamer.CreateStation(name)
	s.warn(warnStationRenamed, name != station.Name, fmt.Sprintf(
		"Some stations had to be renamed to fit station name restrictions (for instance: %s -> %s)",
		name, station.Name))
	return station
}

// applyLRUDs copies the latest recorded dimensions of every station onto
// each of its occurrences in the tree.
func (s *session) applyLRUDs() {
	if len(s.lruds) == 0 {
		return
	}
	s.tree.Walk(func(id importtree.NodeID, _ int) bool {
		for _, c := range s.tree.Node(id).Chunks {
			for i, st := range c.Stations() {
				rec, ok := s.lruds[survey.FoldName(st.Name)]
				if !ok || st.Name == "" {
					continue
				}
				updated := rec.station
				updated.Name = st.Name
				c.SetStation(updated, i)
			}
		}
		return true
	})
}

func (s *session) warn(kind warning, condition bool, text string) {
	if !condition || s.warned[kind] {
		return
	}
	s.warned[kind] = true
	s.result.ImportErrors = append(s.result.ImportErrors, walls.Message{Severity: walls.SeverityWarning, Text: text}.String())
}

func (s *session) parseError(text string) {
	s.result.ParseErrors = append(s.result.ParseErrors, text)
}

func errorMessage(err error) string {
	var pe *walls.ParseError
	if errors.As(err, &pe) {
		return pe.AsMessage().String()
	}
	return walls.Message{Severity: walls.SeverityError, Text: err.Error()}.String()
}
