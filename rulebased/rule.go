package rulebased

import (
	"fmt"

	"github.com/nodeadmin/uel/atom"
)

// RuleID names a rule. Applications carry it so that a rule can refuse an
// application made by another rule.
type RuleID uint8

const (
	RuleNone RuleID = iota
	RuleEagerGroundSolving
	RuleEagerSolving1
	RuleEagerConflict
	RuleEagerSolving2
	RuleEagerExtension
	RuleDecomposition
	RuleExtension
)

var ruleNames = map[RuleID]string{
	RuleNone:               "none",
	RuleEagerGroundSolving: "eager-ground-solving",
	RuleEagerSolving1:      "eager-solving-1",
	RuleEagerConflict:      "eager-conflict",
	RuleEagerSolving2:      "eager-solving-2",
	RuleEagerExtension:     "eager-extension",
	RuleDecomposition:      "decomposition",
	RuleExtension:          "extension",
}

func (id RuleID) String() string {
	if name, ok := ruleNames[id]; ok {
		return name
	}
	return fmt.Sprintf("rule(%d)", uint8(id))
}

// Application is one way of applying a rule to a subsumption. Applications
// are immutable values; each call to NextApplication returns a new one.
type Application struct {
	Rule RuleID

	// Index is the body position the application is built on, or -1 if it
	// does not depend on a body position.
	Index int

	// Atom is the body atom the application is built on: the variable for
	// the extension rules, the existential restriction for decomposition.
	Atom atom.ID
}

func (app Application) String() string {
	return fmt.Sprintf("%s[%d]", app.Rule, app.Index)
}

// Rule is a strategy for solving a single subsumption under an assignment.
type Rule interface {
	ID() RuleID

	// FirstApplication returns the first way to apply the rule, if any.
	FirstApplication(sub *FlatSubsumption, a *Assignment) (Application, bool)

	// NextApplication returns the alternative following prev, if any. The
	// enumeration order is stable for a given subsumption and assignment.
	NextApplication(sub *FlatSubsumption, a *Assignment, prev Application) (Application, bool)

	// Apply computes the effects of app without installing them. It panics
	// if app was made by another rule.
	Apply(sub *FlatSubsumption, a *Assignment, app Application) *Result
}

// Order selects how nondeterministic rules enumerate body positions.
type Order int

const (
	// OrderInsertion walks the body from the smallest atom ID upwards.
	OrderInsertion Order = iota
	// OrderReverse walks the body from the largest atom ID downwards.
	OrderReverse
)

// ParseOrder maps the configuration names "insertion" and "reverse" to
// orders. The empty string selects OrderInsertion.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "insertion":
		return OrderInsertion, nil
	case "reverse":
		return OrderReverse, nil
	}
	return OrderInsertion, fmt.Errorf("unknown order %q", s)
}

func (o Order) String() string {
	if o == OrderReverse {
		return "reverse"
	}
	return "insertion"
}

// first is the first body position in this order.
func (o Order) first(n int) int {
	if o == OrderReverse {
		return n - 1
	}
	return 0
}

// next is the body position after i in this order.
func (o Order) next(i int) int {
	if o == OrderReverse {
		return i - 1
	}
	return i + 1
}

func mustOwn(id RuleID, app Application) {
	if app.Rule != id {
		panic(fmt.Sprintf("rulebased: application %s passed to rule %s", app, id))
	}
}
