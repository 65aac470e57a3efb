package rulebased

import (
	"github.com/nodeadmin/uel/atom"
)

// Result records the effects of one rule application. A result is a
// proposal: nothing in it is installed until the algorithm commits it.
type Result struct {
	// Subsumption is the subsumption the rule was applied to, or nil for the
	// combined result of an eager saturation pass.
	Subsumption *FlatSubsumption
	Application Application

	// NewUnsolved are freshly created subsumptions still to be solved.
	NewUnsolved []*FlatSubsumption

	// NewSolved are freshly created subsumptions that are solved from the
	// start.
	NewSolved []*FlatSubsumption

	// Solved are pre-existing subsumptions that became solved.
	Solved []*FlatSubsumption

	// NewSubsumers are the subsumers to add to the assignment.
	NewSubsumers *Assignment

	Successful bool
}

func NewResult(sub *FlatSubsumption, app Application, successful bool) *Result {
	return &Result{
		Subsumption:  sub,
		Application:  app,
		NewSubsumers: NewAssignment(nil),
		Successful:   successful,
	}
}

// failed is the result of an application that cannot succeed.
func failed(sub *FlatSubsumption, app Application) *Result {
	return NewResult(sub, app, false)
}

// solvedBy is the result of an application that solves sub and nothing else.
func solvedBy(sub *FlatSubsumption, app Application) *Result {
	r := NewResult(sub, app, true)
	r.Solved = append(r.Solved, sub)
	return r
}

// Amend folds other into r. The combined result is successful only if both
// were.
func (r *Result) Amend(other *Result) {
	r.NewUnsolved = append(r.NewUnsolved, other.NewUnsolved...)
	r.NewSolved = append(r.NewSolved, other.NewSolved...)
	r.Solved = append(r.Solved, other.Solved...)
	r.NewSubsumers.Merge(other.NewSubsumers)
	r.Successful = r.Successful && other.Successful
}

// addSubsumer records the proposal v ⊑ s.
func (r *Result) addSubsumer(v, s atom.ID) {
	r.NewSubsumers.Add(v, s)
}

// IsEmpty reports whether the result changes nothing.
func (r *Result) IsEmpty() bool {
	return len(r.NewUnsolved) == 0 && len(r.NewSolved) == 0 &&
		len(r.Solved) == 0 && r.NewSubsumers.IsEmpty()
}
