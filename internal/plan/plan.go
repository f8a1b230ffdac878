// Package plan reads import plans: YAML files that choose how each node of
// a staged import tree is committed.
//
//	default: skip
//	nodes:
//	  - path: Cave Project/Upper
//	    type: new-cave
//	  - path: Cave Project/lower
//	    type: replace-trip
//	    cave: Blue Spring
//	    trip: Lower Level
package plan

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cavewalls/internal/importtree"
	"github.com/roach88/cavewalls/internal/survey"
)

//go:embed schema.cue
var schemaSource string

// Plan is a parsed import plan.
type Plan struct {
	// Default is applied to every root before the node entries.
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
	Nodes   []Node `yaml:"nodes" json:"nodes,omitempty"`
}

// Node selects the import type and targets of one tree node.
type Node struct {
	Path string `yaml:"path" json:"path"`
	Type string `yaml:"type" json:"type"`
	Cave string `yaml:"cave,omitempty" json:"cave,omitempty"`
	Trip string `yaml:"trip,omitempty" json:"trip,omitempty"`
}

// Error is a problem with a plan. Node is the path of the entry it concerns,
// if any.
type Error struct {
	Node    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("plan node %q: %s: %s", e.Node, e.Field, e.Message)
	}
	return fmt.Sprintf("plan: %s: %s", e.Field, e.Message)
}

// IsError reports whether err is or wraps a *Error.
func IsError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// Load reads a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan, rejecting unknown fields, and validates it against
// the plan schema.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks p against the embedded CUE schema.
func (p *Plan) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("plan schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Plan")).Unify(ctx.Encode(p))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return p.schemaError(err)
	}
	return nil
}

// schemaError converts the first CUE error into a *Error naming the entry.
func (p *Plan) schemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Field: "schema", Message: err.Error()}
	}
	first := errs[0]
	// Paths are rooted at the #Plan definition the value was unified with.
	path := first.Path()
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	out := &Error{Field: "schema", Message: first.Error()}
	if len(path) >= 3 && path[0] == "nodes" {
		var i int
		if _, scanErr := fmt.Sscanf(path[1], "%d", &i); scanErr == nil && i < len(p.Nodes) {
			out.Node = p.Nodes[i].Path
			out.Field = path[2]
		}
	} else if len(path) > 0 {
		out.Field = path[0]
	}
	return out
}

// Apply sets import types and then targets on tree. Targets name caves and
// trips of region. Nothing is imported; pass the tree to
// importtree.ImportData afterwards.
func (p *Plan) Apply(tree *importtree.Tree, region *survey.Region) error {
	if p.Default != "" {
		typ, err := importtree.ParseImportType(p.Default)
		if err != nil {
			return &Error{Field: "default", Message: err.Error()}
		}
		for _, root := range tree.Roots() {
			tree.SetImportType(root, typ)
		}
	}

	ids := make([]importtree.NodeID, len(p.Nodes))
	for i, n := range p.Nodes {
		id, ok := tree.Find(n.Path)
		if !ok {
			return &Error{Node: n.Path, Field: "path", Message: "no such node"}
		}
		typ, err := importtree.ParseImportType(n.Type)
		if err != nil {
			return &Error{Node: n.Path, Field: "type", Message: err.Error()}
		}
		tree.SetImportType(id, typ)
		ids[i] = id
	}

	for i, n := range p.Nodes {
		if err := applyTargets(tree, region, ids[i], n); err != nil {
			return err
		}
	}
	return nil
}

// Selected returns the tree nodes named by the plan's entries.
func (p *Plan) Selected(tree *importtree.Tree) map[importtree.NodeID]bool {
	out := make(map[importtree.NodeID]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if id, ok := tree.Find(n.Path); ok {
			out[id] = true
		}
	}
	return out
}

func applyTargets(tree *importtree.Tree, region *survey.Region, id importtree.NodeID, n Node) error {
	if n.Cave != "" {
		cave := region.Cave(n.Cave)
		if cave == nil {
			return &Error{Node: n.Path, Field: "cave", Message: fmt.Sprintf("no cave named %q", n.Cave)}
		}
		tree.SetTargetCave(id, cave)
	}

	cave := tree.EffectiveTargetCave(id)
	if n.Trip != "" {
		if cave == nil {
			return &Error{Node: n.Path, Field: "trip", Message: "a trip needs a cave"}
		}
		trip := cave.Trip(n.Trip)
		if trip == nil {
			return &Error{Node: n.Path, Field: "trip", Message: fmt.Sprintf("no trip named %q in cave %q", n.Trip, cave.Name)}
		}
		tree.SetTargetTrip(id, trip)
	}

	switch tree.ImportType(id) {
	case importtree.AddToCave:
		if cave == nil {
			return &Error{Node: n.Path, Field: "cave", Message: "new-trip needs a target cave"}
		}
	case importtree.ReplaceTrip:
		if cave == nil || tree.TargetTrip(id) == nil {
			return &Error{Node: n.Path, Field: "trip", Message: "replace-trip needs a target cave and trip"}
		}
	}
	return nil
}

// Template returns a plan listing every node of tree with its current
// import type, for editing by hand. Structure nodes are left out.
func Template(tree *importtree.Tree) *Plan {
	p := &Plan{Default: importtree.NoImport.String()}
	tree.Walk(func(id importtree.NodeID, _ int) bool {
		typ := tree.ImportType(id)
		if typ == importtree.Structure {
			return true
		}
		n := Node{Path: tree.Path(id), Type: typ.String()}
		if c := tree.TargetCave(id); c != nil {
			n.Cave = c.Name
		}
		if trip := tree.TargetTrip(id); trip != nil {
			n.Trip = trip.Name
		}
		p.Nodes = append(p.Nodes, n)
		return true
	})
	return p
}

// Encode writes p as YAML.
func (p *Plan) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return enc.Close()
}
