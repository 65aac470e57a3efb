// Package rulebased implements the rule-based EL unification algorithm: eager
// rules propagate deterministic consequences, nondeterministic rules branch,
// and an explicit stack of committed branches drives backtracking. Unifiers
// are enumerated one at a time.
package rulebased

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	metrics "github.com/hashicorp/go-metrics/compat"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
)

// ErrInterrupted is returned once the context passed to ComputeNextUnifier
// is done. An interrupted algorithm cannot be resumed.
var ErrInterrupted = errors.New("unification interrupted")

// State is the lifecycle state of an Algorithm.
type State int

const (
	StateUninitialized State = iota
	StateNormalizing
	StateSearching
	StateFound
	StateExhausted
	StateInterrupted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateNormalizing:
		return "normalizing"
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	case StateInterrupted:
		return "interrupted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Config tunes an Algorithm.
type Config struct {
	Logger hclog.Logger

	// Order is the enumeration order of the nondeterministic rules. It
	// changes the sequence in which unifiers are found, not the set.
	Order Order
}

func DefaultConfig() *Config {
	return &Config{
		Logger: hclog.NewNullLogger(),
		Order:  OrderInsertion,
	}
}

// frame is one committed nondeterministic branch.
type frame struct {
	sub    *FlatSubsumption
	rule   int
	app    Application
	mark   int
	result *Result
}

// Stat is one entry of the diagnostic statistics.
type Stat struct {
	Key   string
	Value string
}

// Algorithm enumerates the unifiers of one goal. It is not safe for
// concurrent use.
type Algorithm struct {
	logger hclog.Logger
	goal   *goal.Goal
	atoms  *atom.Manager

	normalized *NormalizedGoal
	assignment *Assignment
	trail      *trail
	stack      []*frame

	staticRules  []Rule
	dynamicRules []Rule
	eagerRules   []Rule
	nondetRules  []Rule

	// afterSaturate runs whenever the initial saturation or a committed
	// branch reaches a consistent fixpoint.
	afterSaturate func()

	state    State
	err      error
	treeSize int
	deadEnds int
	unifiers int
}

// New prepares the algorithm for g. It fails with ErrUnsupportedFeature for
// goals with negative constraints or type restrictions.
func New(g *goal.Goal, cfg *Config) (*Algorithm, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := checkSupported(g); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid goal: %w", err)
	}

	m := g.Atoms
	eager := eagerRule{atoms: m}
	a := &Algorithm{
		logger: logger.Named("rulebased"),
		goal:   g,
		atoms:  m,
		staticRules: []Rule{
			EagerGroundSolvingRule{eager},
			EagerSolving1Rule{eager},
			EagerConflictRule{eager},
		},
		dynamicRules: []Rule{
			EagerSolving2Rule{eager},
			EagerExtensionRule{eager},
		},
		nondetRules: []Rule{
			DecompositionRule{atoms: m, order: cfg.Order},
			ExtensionRule{atoms: m, order: cfg.Order},
		},
	}
	a.eagerRules = append(append([]Rule{}, a.staticRules...), a.dynamicRules...)
	return a, nil
}

func (a *Algorithm) State() State { return a.state }

// ComputeNextUnifier searches for the next unifier. It returns true when one
// was found, which Unifier then reports, and false once no (more) unifiers
// exist. If ctx is done before the search ends, it returns ErrInterrupted.
// An error from normalizing the goal is returned again on every later call.
func (a *Algorithm) ComputeNextUnifier(ctx context.Context) (bool, error) {
	defer metrics.MeasureSince([]string{"uel", "rulebased", "compute_next_unifier"}, time.Now())

	switch a.state {
	case StateInterrupted:
		return false, ErrInterrupted
	case StateFailed:
		return false, a.err
	case StateExhausted:
		return false, nil
	case StateUninitialized:
		ok, err := a.initialize(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			a.logger.Debug("goal is unsolvable by eager propagation")
			return a.exhausted()
		}
	case StateFound:
		a.state = StateSearching
		ok, err := a.backtrack(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return a.exhausted()
		}
	}

	for {
		if err := a.checkInterrupt(ctx); err != nil {
			return false, err
		}

		sub := a.normalized.FirstUnsolved()
		if sub == nil {
			a.state = StateFound
			a.unifiers++
			metrics.IncrCounter([]string{"uel", "rulebased", "unifier"}, 1)
			a.logger.Debug("found unifier", "unifiers", a.unifiers, "depth", len(a.stack))
			return true, nil
		}

		ok, err := a.applyNextNondeterministicRule(ctx, sub, nil)
		if err != nil {
			return false, err
		}
		if ok {
			continue
		}

		a.deadEnds++
		metrics.IncrCounter([]string{"uel", "rulebased", "dead_end"}, 1)
		if a.logger.IsTrace() {
			a.logger.Trace("dead end", "subsumption", sub.Format(a.atoms), "depth", len(a.stack))
		}
		ok, err = a.backtrack(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return a.exhausted()
		}
	}
}

func (a *Algorithm) exhausted() (bool, error) {
	a.state = StateExhausted
	a.logger.Debug("search exhausted", "unifiers", a.unifiers, "dead_ends", a.deadEnds)
	return false, nil
}

func (a *Algorithm) checkInterrupt(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		a.state = StateInterrupted
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

// initialize normalizes the goal, pre-solves every subsumption with a
// variable head and saturates. It reports false if the eager rules already
// refute the goal.
func (a *Algorithm) initialize(ctx context.Context) (bool, error) {
	a.state = StateNormalizing
	if err := a.checkInterrupt(ctx); err != nil {
		return false, err
	}

	n, err := NewNormalizedGoal(a.goal)
	if err != nil {
		a.state = StateFailed
		a.err = err
		return false, err
	}
	a.normalized = n
	a.assignment = NewAssignment(a.atoms)
	a.trail = newTrail(n, a.assignment)

	p := newPropagation(NewResult(nil, Application{}, true))
	for _, s := range n.All() {
		// ⊓B ⊑ X is not a real constraint: it is discharged by expanding it
		// whenever X gains a subsumer.
		if a.atoms.IsVariable(s.head) {
			s.solved = true
			continue
		}
		p.check(s, a.eagerRules)
	}

	a.logger.Debug("normalized goal", "subsumptions", n.Size(), "variables", len(a.atoms.Variables()))
	a.state = StateSearching
	if !a.saturate(p) {
		return false, nil
	}
	a.saturated()
	return true, nil
}

func (a *Algorithm) saturated() {
	if a.afterSaturate != nil {
		a.afterSaturate()
	}
}

// applyNextNondeterministicRule tries the alternatives for sub in order,
// resuming after the branch recorded in from if it is set, and pushes the
// first one that survives saturation.
func (a *Algorithm) applyNextNondeterministicRule(ctx context.Context, sub *FlatSubsumption, from *frame) (bool, error) {
	start := 0
	if from != nil {
		start = from.rule
	}

	for ri := start; ri < len(a.nondetRules); ri++ {
		rule := a.nondetRules[ri]

		var app Application
		var ok bool
		if from != nil && ri == from.rule {
			app, ok = rule.NextApplication(sub, a.assignment, from.app)
		} else {
			app, ok = rule.FirstApplication(sub, a.assignment)
		}

		for ; ok; app, ok = rule.NextApplication(sub, a.assignment, app) {
			if err := a.checkInterrupt(ctx); err != nil {
				return false, err
			}
			if f := a.tryApplication(sub, ri, app); f != nil {
				a.stack = append(a.stack, f)
				return true, nil
			}
		}
	}
	return false, nil
}

// tryApplication applies one alternative, commits it and saturates. On
// failure everything it did is rolled back and nil is returned.
func (a *Algorithm) tryApplication(sub *FlatSubsumption, ri int, app Application) *frame {
	rule := a.nondetRules[ri]
	mark := a.trail.mark()
	a.treeSize++

	res := rule.Apply(sub, a.assignment, app)
	p := newPropagation(NewResult(sub, app, true))
	if a.install(p, res) && a.saturate(p) {
		a.saturated()
		metrics.IncrCounter([]string{"uel", "rulebased", "branch"}, 1)
		if a.logger.IsTrace() {
			a.logger.Trace("branch", "rule", app.Rule, "index", app.Index,
				"subsumption", sub.Format(a.atoms), "depth", len(a.stack)+1)
		}
		return &frame{sub: sub, rule: ri, app: app, mark: mark, result: p.acc}
	}

	if a.logger.IsTrace() {
		a.logger.Trace("alternative failed", "rule", app.Rule, "index", app.Index,
			"subsumption", sub.Format(a.atoms))
	}
	a.trail.rollback(mark)
	return nil
}

// backtrack pops committed branches until one of them has a further
// alternative that survives saturation.
func (a *Algorithm) backtrack(ctx context.Context) (bool, error) {
	for len(a.stack) > 0 {
		f := a.stack[len(a.stack)-1]
		a.stack[len(a.stack)-1] = nil
		a.stack = a.stack[:len(a.stack)-1]

		a.trail.rollback(f.mark)
		if a.logger.IsTrace() {
			a.logger.Trace("backtrack", "subsumption", f.sub.Format(a.atoms), "depth", len(a.stack))
		}

		ok, err := a.applyNextNondeterministicRule(ctx, f.sub, f)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Unifier returns the current assignment as one definition per variable,
// in ascending order of variable ID. It is only meaningful after
// ComputeNextUnifier returned true.
func (a *Algorithm) Unifier() []goal.Definition {
	vars := a.atoms.Variables()
	defs := make([]goal.Definition, 0, len(vars))
	for _, v := range vars {
		var right []atom.ID
		if a.assignment != nil {
			right = a.assignment.Subsumers(v)
		}
		defs = append(defs, goal.Definition{Definiendum: v, Right: right})
	}
	return defs
}

// Assignment returns a copy of the current assignment.
func (a *Algorithm) Assignment() *Assignment {
	if a.assignment == nil {
		return NewAssignment(a.atoms)
	}
	return a.assignment.Copy()
}

// Stats returns diagnostic counters of the search so far.
func (a *Algorithm) Stats() []Stat {
	goalSize := 0
	if a.normalized != nil {
		goalSize = a.normalized.MaxSize()
	}
	return []Stat{
		{Key: "Goal size", Value: strconv.Itoa(goalSize)},
		{Key: "Search tree size", Value: strconv.Itoa(a.treeSize)},
		{Key: "Dead ends", Value: strconv.Itoa(a.deadEnds)},
		{Key: "Variables", Value: strconv.Itoa(len(a.atoms.Variables()))},
		{Key: "Unifiers", Value: strconv.Itoa(a.unifiers)},
	}
}
