package rulebased

// pendingCheck is a subsumption waiting to be tried with a list of eager
// rules.
type pendingCheck struct {
	sub   *FlatSubsumption
	rules []Rule
}

// propagation holds the work of one eager saturation pass.
type propagation struct {
	pending []pendingCheck

	// diff collects the subsumers installed since the dynamic rules last
	// looked at the affected subsumptions.
	diff *Assignment

	// acc is the combined result of everything installed in this pass.
	acc *Result
}

func newPropagation(acc *Result) *propagation {
	return &propagation{diff: NewAssignment(nil), acc: acc}
}

func (p *propagation) check(s *FlatSubsumption, rules []Rule) {
	p.pending = append(p.pending, pendingCheck{sub: s, rules: rules})
}

// install commits res through the trail and queues whatever it makes worth
// checking. It reports false for an unsuccessful result.
func (a *Algorithm) install(p *propagation, res *Result) bool {
	if !res.Successful {
		return false
	}

	for _, s := range res.Solved {
		a.trail.solve(s)
	}
	for _, s := range res.NewSolved {
		a.addSubsumption(p, s, true)
	}
	for _, s := range res.NewUnsolved {
		a.addSubsumption(p, s, false)
	}
	for _, v := range res.NewSubsumers.Variables() {
		for _, s := range res.NewSubsumers.Subsumers(v) {
			if a.trail.addSubsumer(v, s) {
				p.diff.Add(v, s)
			}
		}
	}

	p.acc.Amend(res)
	return true
}

// addSubsumption inserts a new subsumption. One with a variable head is
// solved immediately and expanded with the head's current subsumers; any
// other is queued for the eager rules unless it is known to be solved.
func (a *Algorithm) addSubsumption(p *propagation, s *FlatSubsumption, solved bool) {
	if !a.trail.addSubsumption(s) {
		return
	}
	if a.atoms.IsVariable(s.head) {
		a.trail.solve(s)
		for _, ns := range a.normalized.ExpandOne(s, a.assignment.Subsumers(s.head)) {
			a.addSubsumption(p, ns, false)
		}
		return
	}
	if solved {
		a.trail.solve(s)
		return
	}
	p.check(s, a.eagerRules)
}

// saturate applies the eager rules until nothing changes. It reports false
// as soon as one of them fails; the caller is then responsible for rolling
// back.
func (a *Algorithm) saturate(p *propagation) bool {
	for {
		for len(p.pending) > 0 {
			next := p.pending[0]
			p.pending = p.pending[1:]
			if next.sub.solved {
				continue
			}
			if !a.applyEagerRules(p, next.sub, next.rules) {
				return false
			}
		}

		if p.diff.IsEmpty() {
			return true
		}
		diff := p.diff
		p.diff = NewAssignment(nil)

		for _, s := range a.normalized.Expand(diff) {
			a.addSubsumption(p, s, false)
		}
		for _, v := range diff.Variables() {
			for _, s := range a.normalized.ByBodyVariable(v) {
				if !s.solved {
					p.check(s, a.dynamicRules)
				}
			}
		}
	}
}

// applyEagerRules applies the first applicable rule of rules to s.
func (a *Algorithm) applyEagerRules(p *propagation, s *FlatSubsumption, rules []Rule) bool {
	for _, rule := range rules {
		app, ok := rule.FirstApplication(s, a.assignment)
		if !ok {
			continue
		}
		res := rule.Apply(s, a.assignment, app)
		if !res.Successful {
			if a.logger.IsTrace() {
				a.logger.Trace("eager rule failed", "rule", app.Rule, "subsumption", s.Format(a.atoms))
			}
			return false
		}
		return a.install(p, res)
	}
	return true
}
