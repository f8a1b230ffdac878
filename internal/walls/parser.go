package walls

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Visitor receives what a SurveyParser reads, in source order.
type Visitor interface {
	ParsedVector(v Vector)
	ParsedFixStation(s FixStation)
	ParsedDate(d time.Time)
	// WillParseUnits is called before a #UNITS directive changes the units.
	WillParseUnits()
	// ParsedUnits is called after a #UNITS directive has been applied.
	ParsedUnits()
	ParsedComment(text string)
	Message(m Message)
}

// NopVisitor ignores every event. Embed it to implement part of Visitor.
type NopVisitor struct{}

func (NopVisitor) ParsedVector(Vector)         {}
func (NopVisitor) ParsedFixStation(FixStation) {}
func (NopVisitor) ParsedDate(time.Time)        {}
func (NopVisitor) WillParseUnits()             {}
func (NopVisitor) ParsedUnits()                {}
func (NopVisitor) ParsedComment(string)        {}
func (NopVisitor) Message(Message)             {}

// SurveyParser parses a .srv file line by line.
//
// Thread-safety: a SurveyParser is used by one goroutine at a time.
type SurveyParser struct {
	visitor Visitor

	units      Units
	savedUnits []Units
	date       time.Time

	inBlockComment bool
}

// NewSurveyParser returns a parser reporting to v.
func NewSurveyParser(v Visitor) *SurveyParser {
	if v == nil {
		v = NopVisitor{}
	}
	return &SurveyParser{visitor: v, units: DefaultUnits()}
}

// Units returns a copy of the current units.
func (p *SurveyParser) Units() Units { return p.units.Clone() }

// Date returns the date of the last #DATE directive, or the zero time.
func (p *SurveyParser) Date() time.Time { return p.date }

// ParseLine parses one line of a survey file. A *ParseError means the line
// could not be understood and the rest of the file should not be trusted.
func (p *SurveyParser) ParseLine(seg Segment) error {
	text := strings.TrimRightFunc(seg.Text, unicode.IsSpace)
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	seg = seg.at(len(text) - len(trimmed))
	seg.Text = trimmed

	if p.inBlockComment {
		if strings.HasPrefix(trimmed, "#]") {
			p.inBlockComment = false
		}
		return nil
	}
	if trimmed == "" {
		return nil
	}

	body, comment, hasComment := strings.Cut(trimmed, ";")
	body = strings.TrimSpace(body)

	var err error
	switch {
	case body == "":
	case strings.HasPrefix(body, "#"):
		err = p.parseDirective(body, seg)
	default:
		err = p.parseVector(body, seg)
	}
	if err != nil {
		return err
	}

	if hasComment {
		p.visitor.ParsedComment(strings.TrimSpace(comment))
	}
	return nil
}

// ParseUnitsOptions applies a list of #UNITS options, such as the options a
// .wpj project attaches to a survey.
func (p *SurveyParser) ParseUnitsOptions(seg Segment) error {
	return p.parseUnits(seg.Text, seg)
}

func (p *SurveyParser) parseDirective(body string, seg Segment) error {
	if strings.HasPrefix(body, "#[") {
		p.inBlockComment = true
		return nil
	}
	if strings.HasPrefix(body, "#]") {
		return nil
	}

	word, rest := body[1:], ""
	if i := strings.IndexFunc(word, unicode.IsSpace); i >= 0 {
		word, rest = word[:i], strings.TrimSpace(word[i:])
	}

	switch strings.ToUpper(word) {
	case "U", "UNITS":
		return p.parseUnits(rest, seg)
	case "DATE":
		return p.parseDate(rest, seg)
	case "FIX":
		return p.parseFix(rest, seg)
	case "PREFIX", "PREFIX1":
		p.units.Prefix[0] = firstField(rest)
	case "PREFIX2":
		p.units.Prefix[1] = firstField(rest)
	case "PREFIX3":
		p.units.Prefix[2] = firstField(rest)
	case "S", "SEG", "SEGMENT", "N", "NOTE", "F", "FLAG", "SYM", "SYMBOL":
	default:
		p.visitor.Message(NewMessage(SeverityWarning, fmt.Sprintf("unrecognized directive #%s", word), seg))
	}
	return nil
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return unquote(fields[0])
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (p *SurveyParser) parseUnits(options string, seg Segment) error {
	p.visitor.WillParseUnits()

	for _, opt := range strings.Fields(options) {
		name, value, _ := strings.Cut(opt, "=")
		name = strings.ToUpper(name)
		value = unquote(value)

		switch name {
		case "SAVE":
			if len(p.savedUnits) >= 10 {
				return newParseError(seg, "too many saved units")
			}
			p.savedUnits = append(p.savedUnits, p.units.Clone())
			continue
		case "RESTORE":
			if len(p.savedUnits) == 0 {
				p.visitor.Message(NewMessage(SeverityWarning, "no saved units to restore", seg))
				continue
			}
			p.units = p.savedUnits[len(p.savedUnits)-1]
			p.savedUnits = p.savedUnits[:len(p.savedUnits)-1]
			continue
		case "RESET":
			p.units = DefaultUnits()
			continue
		}

		known, err := p.units.applyOption(name, value)
		if err != nil {
			return newParseError(seg, "#UNITS %s: %v", opt, err)
		}
		if !known {
			p.visitor.Message(NewMessage(SeverityWarning, fmt.Sprintf("unrecognized #UNITS option %s", opt), seg))
		}
	}

	p.visitor.ParsedUnits()
	return nil
}

var (
	isoDate = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	usDate  = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`)
)

// ParseDate reads the date forms #DATE accepts: yyyy-mm-dd, mm/dd/yyyy and
// mm-dd-yyyy.
func ParseDate(s string) (time.Time, bool) {
	var y, m, d string
	if g := isoDate.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := usDate.FindStringSubmatch(s); g != nil {
		m, d, y = g[1], g[2], g[3]
	} else {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func (p *SurveyParser) parseDate(rest string, seg Segment) error {
	d, ok := ParseDate(firstField(rest))
	if !ok {
		return newParseError(seg, "invalid date %q", rest)
	}
	p.date = d
	p.visitor.ParsedDate(d)
	return nil
}

func (p *SurveyParser) parseFix(rest string, seg Segment) error {
	fields := strings.Fields(stripGroups(rest))
	if len(fields) < 4 {
		return newParseError(seg, "#FIX needs a station and three coordinates")
	}
	fix := FixStation{
		Name:    fields[0],
		Date:    p.date,
		Units:   p.units.Clone(),
		Segment: seg,
	}
	coords := []*Length{&fix.East, &fix.North, &fix.Elevation}
	for i, c := range coords {
		l, ok := parseLength(fields[i+1], p.units.DUnit)
		if !ok {
			return newParseError(seg, "#FIX %s: invalid coordinate %q", fix.Name, fields[i+1])
		}
		*c = l
	}
	p.visitor.ParsedFixStation(fix)
	return nil
}

// stripGroups removes parenthesized variance overrides and inline
// directives that may trail a data line.
func stripGroups(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case r == '#' && depth == 0:
			return b.String()
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extractLRUD removes a <l,r,u,d> or *l r u d* group from s.
func extractLRUD(s string) (rest, group string, found bool) {
	for _, delim := range [][2]string{{"<", ">"}, {"*", "*"}} {
		open := strings.Index(s, delim[0])
		if open < 0 {
			continue
		}
		closeAt := strings.Index(s[open+1:], delim[1])
		if closeAt < 0 {
			continue
		}
		closeAt += open + 1
		return s[:open] + " " + s[closeAt+1:], s[open+1 : closeAt], true
	}
	return s, "", false
}

func (p *SurveyParser) parseVector(body string, seg Segment) error {
	rest, group, hasLRUD := extractLRUD(stripGroups(body))
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return newParseError(seg, "expected a station name")
	}

	v := Vector{
		From:    fields[0],
		Date:    p.date,
		Units:   p.units.Clone(),
		Segment: seg,
	}

	if hasLRUD {
		if err := p.readLRUD(&v, group, seg); err != nil {
			return err
		}
	}

	if len(fields) == 1 {
		if !hasLRUD {
			return newParseError(seg, "expected a to-station after %s", v.From)
		}
		p.visitor.ParsedVector(v)
		return nil
	}

	v.To = fields[1]
	measurements := fields[2:]

	var err error
	if p.units.Vector == RECT {
		err = p.readRect(&v, measurements, seg)
	} else {
		err = p.readCT(&v, measurements, seg)
	}
	if err != nil {
		return err
	}

	p.visitor.ParsedVector(v)
	return nil
}

func (p *SurveyParser) readCT(v *Vector, fields []string, seg Segment) error {
	order := p.units.CTOrder
	if len(fields) < 2 {
		return newParseError(seg, "vector %s %s: expected distance and azimuth", v.From, v.To)
	}
	if len(fields) > len(order) {
		p.visitor.Message(NewMessage(SeverityWarning,
			fmt.Sprintf("vector %s %s: ignored extra fields %v", v.From, v.To, fields[len(order):]), seg))
	}

	for i, elem := range order {
		tok := ""
		if i < len(fields) {
			tok = fields[i]
		}
		switch elem {
		case 'D':
			d, ok := parseLength(tok, p.units.DUnit)
			if !ok || !d.Valid {
				return newParseError(seg, "vector %s %s: invalid distance %q", v.From, v.To, tok)
			}
			if d.Meters < 0 {
				return newParseError(seg, "vector %s %s: negative distance", v.From, v.To)
			}
			v.Distance = d
		case 'A':
			front, back := splitSights(tok)
			fa, ok1 := parseAzimuth(front, p.units.AUnit)
			ba, ok2 := parseAzimuth(back, p.units.ABUnit)
			if !ok1 || !ok2 {
				return newParseError(seg, "vector %s %s: invalid azimuth %q", v.From, v.To, tok)
			}
			v.FrontAzimuth, v.BackAzimuth = fa, ba
		case 'V':
			front, back := splitSights(tok)
			fv, ok1 := parseInclination(front, p.units.VUnit)
			bv, ok2 := parseInclination(back, p.units.VBUnit)
			if !ok1 || !ok2 {
				return newParseError(seg, "vector %s %s: invalid inclination %q", v.From, v.To, tok)
			}
			v.FrontInclination, v.BackInclination = fv, bv
		}
	}
	return nil
}

func (p *SurveyParser) readRect(v *Vector, fields []string, seg Segment) error {
	order := p.units.RectOrder
	if len(fields) < 2 {
		return newParseError(seg, "vector %s %s: expected east and north offsets", v.From, v.To)
	}
	for i, elem := range order {
		tok := ""
		if i < len(fields) {
			tok = fields[i]
		}
		l, ok := parseLength(tok, p.units.DUnit)
		if !ok {
			return newParseError(seg, "vector %s %s: invalid offset %q", v.From, v.To, tok)
		}
		switch elem {
		case 'E':
			v.East = l
		case 'N':
			v.North = l
		case 'U':
			v.Elevation = l
		}
	}
	if !v.East.Valid || !v.North.Valid {
		return newParseError(seg, "vector %s %s: missing east or north offset", v.From, v.To)
	}
	return nil
}

func (p *SurveyParser) readLRUD(v *Vector, group string, seg Segment) error {
	fields := strings.FieldsFunc(group, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) < 4 {
		return newParseError(seg, "%s: expected four LRUD values, got %d", v.From, len(fields))
	}
	for i, elem := range p.units.LrudOrder {
		l, ok := parseLength(fields[i], p.units.SUnit)
		if !ok {
			return newParseError(seg, "%s: invalid LRUD value %q", v.From, fields[i])
		}
		switch elem {
		case 'L':
			v.Left = l
		case 'R':
			v.Right = l
		case 'U':
			v.Up = l
		case 'D':
			v.Down = l
		}
	}
	return nil
}
