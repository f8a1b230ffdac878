package walls

import (
	"errors"
	"fmt"
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Segment is a piece of source text and where it came from.
type Segment struct {
	Text   string
	Source string
	Line   int
	Column int
}

func (s Segment) location() string {
	if s.Source == "" {
		return fmt.Sprintf("line %d, column %d", s.Line+1, s.Column+1)
	}
	return fmt.Sprintf("%s:%d:%d", s.Source, s.Line+1, s.Column+1)
}

// at returns a segment pointing col runes further into s.
func (s Segment) at(col int) Segment {
	s.Column += col
	return s
}

// Message is a diagnostic that did not stop parsing.
type Message struct {
	Severity Severity
	Text     string
	Source   string
	Line     int
	Column   int
}

// NewMessage returns a message located at seg.
func NewMessage(sev Severity, text string, seg Segment) Message {
	return Message{Severity: sev, Text: text, Source: seg.Source, Line: seg.Line, Column: seg.Column}
}

func (m Message) String() string {
	if m.Source == "" && m.Line == 0 && m.Column == 0 {
		return fmt.Sprintf("%s: %s", m.Severity, m.Text)
	}
	seg := Segment{Source: m.Source, Line: m.Line, Column: m.Column}
	return fmt.Sprintf("%s: %s (%s)", m.Severity, m.Text, seg.location())
}

// ParseError is a fatal problem in a file. Lines and columns are zero-based
// internally and printed one-based.
type ParseError struct {
	Severity Severity
	Message  string
	Source   string
	Line     int
	Column   int
}

func newParseError(seg Segment, format string, args ...any) *ParseError {
	return &ParseError{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Source:   seg.Source,
		Line:     seg.Line,
		Column:   seg.Column,
	}
}

func (e *ParseError) Error() string {
	seg := Segment{Source: e.Source, Line: e.Line, Column: e.Column}
	return fmt.Sprintf("%s: %s", seg.location(), e.Message)
}

// AsMessage converts e for callers that collect diagnostics as messages.
func (e *ParseError) AsMessage() Message {
	return Message{Severity: e.Severity, Text: e.Message, Source: e.Source, Line: e.Line, Column: e.Column}
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
