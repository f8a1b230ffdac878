package walls

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Entry is a book or survey in a .wpj project.
type Entry struct {
	Title   string
	Name    string
	Path    string
	Options string
	Status  int

	// Reference holds the raw .REF text of a geographic reference.
	Reference string

	IsBook   bool
	Parent   *Entry
	Children []*Entry

	// projectDir is set on the root book.
	projectDir string
	segment    Segment
}

// IsSurvey reports whether e refers to a survey file.
func (e *Entry) IsSurvey() bool { return !e.IsBook }

// HasReference reports whether e carries a geographic reference.
func (e *Entry) HasReference() bool { return e.Reference != "" }

// Segment returns where e was declared.
func (e *Entry) Segment() Segment { return e.segment }

// NewSurveyEntry describes a standalone .srv file as a survey entry.
func NewSurveyEntry(path string) *Entry {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return &Entry{
		Name:       base,
		Title:      name,
		projectDir: filepath.Dir(path),
		segment:    Segment{Text: name, Source: path},
	}
}

// dir resolves the directory e's relative paths start from.
func (e *Entry) dir() string {
	var base string
	if e.Parent == nil {
		base = e.projectDir
	} else {
		base = e.Parent.dir()
	}
	if !e.IsBook {
		return base
	}
	if e.Path == "" {
		return base
	}
	if filepath.IsAbs(e.Path) {
		return e.Path
	}
	return filepath.Join(base, e.Path)
}

// AbsolutePath returns the survey file e refers to, or "" for a book or a
// survey without a file name. Book paths chain from the project directory.
func (e *Entry) AbsolutePath() string {
	if e.IsBook || e.Name == "" {
		return ""
	}
	dir := e.dir()
	if e.Path != "" {
		if filepath.IsAbs(e.Path) {
			dir = e.Path
		} else {
			dir = filepath.Join(dir, e.Path)
		}
	}
	name := e.Name
	if filepath.Ext(name) == "" {
		name += ".srv"
	}
	p := filepath.Join(dir, name)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// AllOptions returns the #UNITS options of every ancestor and then e, in
// the order they apply.
func (e *Entry) AllOptions() []Segment {
	var chain []*Entry
	for cur := e; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	var out []Segment
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Options != "" {
			seg := chain[i].segment
			seg.Text = chain[i].Options
			out = append(out, seg)
		}
	}
	return out
}

// ParseProjectFile reads a .wpj file.
func ParseProjectFile(path string) (*Entry, []Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open project: %w", err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return ParseProject(f, abs)
}

// ParseProject reads a .wpj project from r. source names the file for
// diagnostics and anchors relative paths. The returned book is the root of
// the project; structural problems are returned as a *ParseError.
func ParseProject(r io.Reader, source string) (*Entry, []Message, error) {
	var (
		root     *Entry
		books    []*Entry
		current  *Entry
		messages []Message
	)

	scanner := bufio.NewScanner(r)
	line := -1
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		seg := Segment{Text: text, Source: source, Line: line}

		if !strings.HasPrefix(text, ".") {
			messages = append(messages, NewMessage(SeverityWarning, "ignored line outside a directive", seg))
			continue
		}

		word, rest := text, ""
		if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
			word, rest = text[:i], strings.TrimSpace(text[i:])
		}

		switch strings.ToUpper(word) {
		case ".BOOK":
			book := &Entry{Title: rest, IsBook: true, segment: seg}
			if len(books) == 0 {
				if root != nil {
					return nil, messages, newParseError(seg, "project has more than one root book")
				}
				book.projectDir = filepath.Dir(source)
				root = book
			} else {
				parent := books[len(books)-1]
				book.Parent = parent
				parent.Children = append(parent.Children, book)
			}
			books = append(books, book)
			current = book
		case ".SURVEY":
			if len(books) == 0 {
				return nil, messages, newParseError(seg, ".SURVEY outside a .BOOK")
			}
			parent := books[len(books)-1]
			survey := &Entry{Title: rest, Parent: parent, segment: seg}
			parent.Children = append(parent.Children, survey)
			current = survey
		case ".ENDBOOK":
			if len(books) == 0 {
				return nil, messages, newParseError(seg, ".ENDBOOK without a matching .BOOK")
			}
			books = books[:len(books)-1]
			current = nil
			if len(books) > 0 {
				current = books[len(books)-1]
			}
		case ".NAME", ".PATH", ".OPTIONS", ".STATUS", ".REF":
			if current == nil {
				return nil, messages, newParseError(seg, "%s outside a .BOOK or .SURVEY", word)
			}
			if err := setEntryField(current, strings.ToUpper(word), rest, seg); err != nil {
				return nil, messages, err
			}
		default:
			messages = append(messages, NewMessage(SeverityWarning, fmt.Sprintf("unrecognized project directive %s", word), seg))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, messages, fmt.Errorf("read project %s: %w", source, err)
	}

	if root == nil {
		return nil, messages, newParseError(Segment{Source: source}, "project has no .BOOK")
	}
	if len(books) > 0 {
		messages = append(messages, NewMessage(SeverityWarning, "missing .ENDBOOK", Segment{Source: source, Line: line}))
	}
	return root, messages, nil
}

func setEntryField(e *Entry, directive, value string, seg Segment) error {
	switch directive {
	case ".NAME":
		e.Name = value
	case ".PATH":
		e.Path = value
	case ".OPTIONS":
		e.Options = value
	case ".STATUS":
		status, err := strconv.Atoi(value)
		if err != nil {
			return newParseError(seg, "invalid .STATUS %q", value)
		}
		e.Status = status
	case ".REF":
		e.Reference = value
	}
	return nil
}
