package importtree

import "fmt"

// ImportType selects how a staged node is committed into a region.
type ImportType int

const (
	NoImport ImportType = iota
	ExistingTrip
	NewCave
	AddToCave
	ReplaceTrip
	// Structure passes a container through: its chunks belong to the
	// nearest enclosing trip or cave.
	Structure
)

var importTypeNames = map[ImportType]string{
	NoImport:     "skip",
	ExistingTrip: "existing",
	NewCave:      "new-cave",
	AddToCave:    "new-trip",
	ReplaceTrip:  "replace-trip",
	Structure:    "structure",
}

// String returns the short name used in plans and command output.
func (t ImportType) String() string {
	if s, ok := importTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ImportType(%d)", int(t))
}

// Label returns the description shown next to a node.
func (t ImportType) Label() string {
	switch t {
	case NoImport:
		return "Don't Import"
	case ExistingTrip:
		return "Trip already exists"
	case NewCave:
		return "New Cave"
	case AddToCave:
		return "New Trip"
	case ReplaceTrip:
		return "Replace Existing Trip"
	}
	return ""
}

// ParseImportType is the inverse of ImportType.String.
func ParseImportType(s string) (ImportType, error) {
	for t, name := range importTypeNames {
		if name == s {
			return t, nil
		}
	}
	return NoImport, fmt.Errorf("unknown import type %q", s)
}
