package goal

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/nodeadmin/uel/atom"
)

// SolverConfig is the optional solver block of a goal file.
type SolverConfig struct {
	// MaxUnifiers stops enumeration after this many unifiers. Zero means all.
	MaxUnifiers int `hcl:"max_unifiers,optional"`

	// Timeout bounds the whole enumeration. Zero means no bound.
	Timeout time.Duration `hcl:"timeout,optional"`

	// Verify re-checks every unifier with the EL reasoner.
	Verify bool `hcl:"verify,optional"`

	// Order is "insertion" (default) or "reverse".
	Order string `hcl:"order,optional"`
}

// File is a decoded goal file.
type File struct {
	Goal   *Goal
	Solver SolverConfig
}

type fileSpec struct {
	Variables       []string             `hcl:"variables,optional"`
	Definitions     []*definitionSpec    `hcl:"definition,block"`
	Equations       []*equationSpec      `hcl:"equation,block"`
	Subsumptions    []*subsumptionSpec   `hcl:"subsumption,block"`
	Disequations    []*equationSpec      `hcl:"disequation,block"`
	Dissubsumptions []*subsumptionSpec   `hcl:"dissubsumption,block"`
	Types           []*typeAssertionSpec `hcl:"type,block"`
	Solver          *SolverConfig        `hcl:"solver,block"`
}

type definitionSpec struct {
	Name      string   `hcl:"name,label"`
	Atoms     []string `hcl:"atoms"`
	Primitive bool     `hcl:"primitive,optional"`
}

type equationSpec struct {
	Left  []string `hcl:"left"`
	Right []string `hcl:"right"`
}

type subsumptionSpec struct {
	Body []string `hcl:"body"`
	Head []string `hcl:"head"`
}

type typeAssertionSpec struct {
	Variable string `hcl:"variable,label"`
	Type     string `hcl:"is"`
}

// ParseFile reads and decodes the goal file at path.
func ParseFile(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read goal file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes an HCL goal description. Concept names listed in variables
// become variables; every other concept name is a constant. Atoms are written
// as described by atom.Manager.Parse.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	decoder := &gohcl.Decoder{}
	dur := time.Duration(0)
	decoder.RegisterExpressionDecoder(reflect.TypeOf(dur), decodeDuration)
	decoder.RegisterExpressionDecoder(reflect.TypeOf(&dur), decodeDuration)

	var spec fileSpec
	if diags := decoder.DecodeBody(hclFile.Body, nil, &spec); diags.HasErrors() {
		return nil, diags
	}

	f := &File{Goal: New(nil)}
	if spec.Solver != nil {
		f.Solver = *spec.Solver
	}
	if err := spec.build(f.Goal); err != nil {
		return nil, err
	}
	if err := f.Solver.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the solver block.
func (c *SolverConfig) Validate() error {
	var mErr multierror.Error
	if c.MaxUnifiers < 0 {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("max_unifiers must not be negative"))
	}
	if c.Timeout < 0 {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("timeout must not be negative"))
	}
	switch c.Order {
	case "", "insertion", "reverse":
	default:
		mErr.Errors = append(mErr.Errors, fmt.Errorf("unknown order %q", c.Order))
	}
	return mErr.ErrorOrNil()
}

func (s *fileSpec) build(g *Goal) error {
	m := g.Atoms
	for _, name := range s.Variables {
		m.Variable(name)
	}

	var mErr multierror.Error
	parseAll := func(what string, literals []string) []atom.ID {
		ids := make([]atom.ID, 0, len(literals))
		for _, lit := range literals {
			id, err := m.Parse(lit)
			if err != nil {
				mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: %w", what, err))
				continue
			}
			ids = append(ids, id)
		}
		return ids
	}

	for _, d := range s.Definitions {
		what := fmt.Sprintf("definition %q", d.Name)
		lhs, err := m.Parse(d.Name)
		if err != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: %w", what, err))
			continue
		}
		if !m.Atom(lhs).IsConceptName() {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: definiendum must be a concept name", what))
			continue
		}
		// A definition name is a variable even when not listed in variables.
		m.MakeVariable(lhs)
		g.Definitions = append(g.Definitions, Definition{
			Definiendum: lhs,
			Right:       parseAll(what, d.Atoms),
			Primitive:   d.Primitive,
		})
	}
	for i, e := range s.Equations {
		what := fmt.Sprintf("equation %d", i)
		g.Equations = append(g.Equations, Equation{Left: parseAll(what, e.Left), Right: parseAll(what, e.Right)})
	}
	for i, sub := range s.Subsumptions {
		what := fmt.Sprintf("subsumption %d", i)
		g.Subsumptions = append(g.Subsumptions, Subsumption{Body: parseAll(what, sub.Body), Head: parseAll(what, sub.Head)})
	}
	for i, e := range s.Disequations {
		what := fmt.Sprintf("disequation %d", i)
		g.Disequations = append(g.Disequations, Disequation{Left: parseAll(what, e.Left), Right: parseAll(what, e.Right)})
	}
	for i, sub := range s.Dissubsumptions {
		what := fmt.Sprintf("dissubsumption %d", i)
		g.Dissubsumptions = append(g.Dissubsumptions, Dissubsumption{Body: parseAll(what, sub.Body), Head: parseAll(what, sub.Head)})
	}
	for _, ta := range s.Types {
		what := fmt.Sprintf("type %q", ta.Variable)
		v, ok := m.Lookup(ta.Variable)
		if !ok || !m.IsVariable(v) {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: not a declared variable", what))
			continue
		}
		ids := parseAll(what, []string{ta.Type})
		if len(ids) == 1 {
			g.Types = append(g.Types, TypeAssertion{Variable: v, Type: ids[0]})
		}
	}

	return mErr.ErrorOrNil()
}
