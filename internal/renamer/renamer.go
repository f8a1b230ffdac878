// Package renamer maps station names from foreign survey formats onto the
// restricted name alphabet of the project: letters, digits, '-' and '_'.
package renamer

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cavewalls/internal/survey"
)

// Renamer resolves station names, remembering every mapping it makes so that
// the same original always yields the same station and two different
// originals never collapse onto one name.
//
// A Renamer is not safe for concurrent use.
type Renamer struct {
	// byOriginal maps a folded original name to its renamed form.
	byOriginal map[string]string
	// owners maps a folded renamed name to the folded original that claimed it.
	owners map[string]string
	order  []Mapping
}

// Mapping records one name that had to change.
type Mapping struct {
	Original string
	Renamed  string
}

// New returns an empty renamer.
func New() *Renamer {
	r := &Renamer{}
	r.Reset()
	return r
}

// Reset forgets every mapping.
func (r *Renamer) Reset() {
	r.byOriginal = make(map[string]string)
	r.owners = make(map[string]string)
	r.order = nil
}

// CreateStation returns a station named Rename(name) with empty dimensions.
func (r *Renamer) CreateStation(name string) survey.Station {
	return survey.NewStation(r.Rename(name))
}

// Rename returns the project-safe form of name. Empty names stay empty.
func (r *Renamer) Rename(name string) string {
	if name == "" {
		return ""
	}

	key := survey.FoldName(name)
	if renamed, ok := r.byOriginal[key]; ok {
		return renamed
	}

	base := sanitize(name)
	renamed := base
	for n := 2; ; n++ {
		owner, taken := r.owners[survey.FoldName(renamed)]
		if !taken || owner == key {
			break
		}
		renamed = base + "_" + strconv.Itoa(n)
	}

	r.byOriginal[key] = renamed
	r.owners[survey.FoldName(renamed)] = key
	if renamed != name {
		r.order = append(r.order, Mapping{Original: name, Renamed: renamed})
	}
	return renamed
}

// Mappings returns the names that changed, in the order first seen.
func (r *Renamer) Mappings() []Mapping {
	return append([]Mapping(nil), r.order...)
}

// sanitize NFC-normalizes name and replaces every rune outside
// [-_A-Za-z0-9] with '_'.
func sanitize(name string) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isNameRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
