package command

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/posener/complete"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
	"github.com/nodeadmin/uel/reasoner"
	"github.com/nodeadmin/uel/rulebased"
)

// solverFlags are the flags shared by the commands that run the solver.
// Flags left unset fall back to the solver block of a goal file.
type solverFlags struct {
	json    bool
	stats   bool
	metrics bool

	maxUnifiers int
	timeout     time.Duration
	verify      bool
	order       string

	set map[string]bool
}

func (s *solverFlags) register(f *flag.FlagSet) {
	f.BoolVar(&s.json, "json", false, "")
	f.BoolVar(&s.stats, "stats", false, "")
	f.BoolVar(&s.metrics, "metrics", false, "")
	f.IntVar(&s.maxUnifiers, "max", 0, "")
	f.DurationVar(&s.timeout, "timeout", 0, "")
	f.BoolVar(&s.verify, "verify", false, "")
	f.StringVar(&s.order, "order", "", "")
}

// resolve records which flags were given on the command line and merges
// them over base.
func (s *solverFlags) resolve(f *flag.FlagSet, base goal.SolverConfig) goal.SolverConfig {
	s.set = make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { s.set[fl.Name] = true })

	cfg := base
	if s.set["max"] {
		cfg.MaxUnifiers = s.maxUnifiers
	}
	if s.set["timeout"] {
		cfg.Timeout = s.timeout
	}
	if s.set["verify"] {
		cfg.Verify = s.verify
	}
	if s.set["order"] {
		cfg.Order = s.order
	}
	return cfg
}

func solverAutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-json":    complete.PredictNothing,
		"-stats":   complete.PredictNothing,
		"-metrics": complete.PredictNothing,
		"-max":     complete.PredictAnything,
		"-timeout": complete.PredictAnything,
		"-verify":  complete.PredictNothing,
		"-order":   complete.PredictSet("insertion", "reverse"),
	}
}

func solverOptionsUsage() string {
	return `
  -max=<n>
    Stop after n unifiers. Zero enumerates all of them.

  -timeout=<duration>
    Abort the search after the given duration, e.g. "30s".

  -verify
    Check every unifier with the EL completion reasoner before printing it.

  -order=<insertion|reverse>
    Order in which the nondeterministic rules try their alternatives.

  -json
    Output the unifiers in JSON format.

  -stats
    Output statistics of the search.

  -metrics
    Output the counters and timers the solver emitted.
`
}

// Definition is one variable of a unifier in JSON output.
type Definition struct {
	Variable string   `json:"variable"`
	Atoms    []string `json:"atoms"`
}

// Unifier is one solution in JSON output.
type Unifier struct {
	Index       int          `json:"index"`
	Definitions []Definition `json:"definitions"`
}

// Metric is one counter or timer of the solver in JSON output. Timer
// values are in milliseconds.
type Metric struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
}

// SolveResult is the outcome of one solver run.
type SolveResult struct {
	Unifiers    []Unifier         `json:"unifiers"`
	Complete    bool              `json:"complete"`
	Interrupted bool              `json:"interrupted"`
	Stats       map[string]string `json:"stats,omitempty"`
	Metrics     []Metric          `json:"metrics,omitempty"`

	stats   []rulebased.Stat
	metrics *metrics.InmemSink
}

// solve enumerates the unifiers of g. Variables for which show returns false
// are left out of the reported unifiers. Interruption by timeout or signal is
// not an error: the result then carries the unifiers found so far.
func solve(ctx context.Context, logger hclog.Logger, g *goal.Goal, cfg goal.SolverConfig,
	show func(atom.ID) bool, withMetrics bool) (*SolveResult, error) {

	order, err := rulebased.ParseOrder(cfg.Order)
	if err != nil {
		return nil, err
	}

	res := &SolveResult{}
	if withMetrics {
		res.metrics = metrics.NewInmemSink(time.Hour, time.Hour)
		mcfg := metrics.DefaultConfig("")
		mcfg.EnableHostname = false
		mcfg.EnableRuntimeMetrics = false
		if _, err := metrics.NewGlobal(mcfg, res.metrics); err != nil {
			return nil, fmt.Errorf("failed to set up metrics: %w", err)
		}
	}

	alg, err := rulebased.New(g, &rulebased.Config{Logger: logger, Order: order})
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	m := g.Atoms
	for {
		ok, err := alg.ComputeNextUnifier(ctx)
		if errors.Is(err, rulebased.ErrInterrupted) {
			logger.Warn("search interrupted", "unifiers", len(res.Unifiers), "error", err)
			res.Interrupted = true
			break
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Complete = true
			break
		}

		defs := alg.Unifier()
		index := len(res.Unifiers) + 1
		if cfg.Verify {
			if err := reasoner.Verify(g, defs); err != nil {
				return nil, fmt.Errorf("unifier %d failed verification: %w", index, err)
			}
		}

		u := Unifier{Index: index}
		for _, d := range defs {
			if show != nil && !show(d.Definiendum) {
				continue
			}
			u.Definitions = append(u.Definitions, Definition{
				Variable: m.Format(d.Definiendum),
				Atoms:    formatAtoms(m, d.Right),
			})
		}
		res.Unifiers = append(res.Unifiers, u)

		if cfg.MaxUnifiers > 0 && len(res.Unifiers) >= cfg.MaxUnifiers {
			break
		}
	}

	res.stats = alg.Stats()
	res.Stats = make(map[string]string, len(res.stats))
	for _, s := range res.stats {
		res.Stats[s.Key] = s.Value
	}
	return res, nil
}

func formatAtoms(m *atom.Manager, ids []atom.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.Format(id)
	}
	slices.Sort(out)
	return out
}

// outputResult prints res and returns the exit code: 0 if at least one
// unifier was found, 2 if the goal has none, 1 if the search was interrupted
// before finding any.
func (m *Meta) outputResult(res *SolveResult, flags *solverFlags) int {
	if flags.json {
		if flags.metrics && res.metrics != nil {
			res.Metrics = collectMetrics(res.metrics)
		}
		out, err := formatJSON(res)
		if err != nil {
			m.Ui.Error(err.Error())
			return 1
		}
		m.Ui.Output(out)
		return exitCode(res)
	}

	colorize := m.Colorize()
	for _, u := range res.Unifiers {
		m.Ui.Output(colorize.Color(fmt.Sprintf("[bold]Unifier %d[reset]", u.Index)))
		lines := make([]string, 0, len(u.Definitions))
		for _, d := range u.Definitions {
			rhs := "⊤"
			if len(d.Atoms) > 0 {
				rhs = strings.Join(d.Atoms, " ⊓ ")
			}
			lines = append(lines, d.Variable+"|"+rhs)
		}
		m.Ui.Output(formatKV(lines))
		m.Ui.Output("")
	}

	switch {
	case res.Interrupted:
		m.Ui.Warn(fmt.Sprintf("Search interrupted after %d unifier(s)", len(res.Unifiers)))
	case len(res.Unifiers) == 0:
		m.Ui.Output("Goal is not unifiable")
	case res.Complete:
		m.Ui.Output(fmt.Sprintf("Found all %d unifier(s)", len(res.Unifiers)))
	default:
		m.Ui.Output(fmt.Sprintf("Stopped after %d unifier(s)", len(res.Unifiers)))
	}

	if flags.stats {
		lines := make([]string, 0, len(res.stats))
		for _, s := range res.stats {
			lines = append(lines, s.Key+"|"+s.Value)
		}
		m.Ui.Output(colorize.Color("\n[bold]Statistics[reset]"))
		m.Ui.Output(formatKV(lines))
	}

	if flags.metrics && res.metrics != nil {
		m.Ui.Output(colorize.Color("\n[bold]Metrics[reset]"))
		m.Ui.Output(formatList(metricLines(res.metrics)))
	}

	return exitCode(res)
}

func exitCode(res *SolveResult) int {
	switch {
	case len(res.Unifiers) > 0:
		return 0
	case res.Interrupted:
		return 1
	}
	return 2
}

// collectMetrics returns the counters and timers of sink sorted by name.
func collectMetrics(sink *metrics.InmemSink) []Metric {
	var out []Metric
	for _, interval := range sink.Data() {
		interval.RLock()
		for name, v := range interval.Counters {
			out = append(out, Metric{Name: name, Type: "counter", Count: v.Count, Sum: v.Sum, Mean: v.AggregateSample.Mean()})
		}
		for name, v := range interval.Samples {
			out = append(out, Metric{Name: name, Type: "timer", Count: v.Count, Sum: v.Sum, Mean: v.AggregateSample.Mean()})
		}
		interval.RUnlock()
	}
	slices.SortFunc(out, func(a, b Metric) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.Type, b.Type))
	})
	return out
}

// metricLines renders the counters and timers of sink as a table.
func metricLines(sink *metrics.InmemSink) []string {
	lines := []string{"Name|Type|Count|Sum|Mean"}
	for _, v := range collectMetrics(sink) {
		sum := fmt.Sprintf("%.0f", v.Sum)
		if v.Type == "timer" {
			sum = fmt.Sprintf("%.3f", v.Sum)
		}
		lines = append(lines, fmt.Sprintf("%s|%s|%d|%s|%.3f", v.Name, v.Type, v.Count, sum, v.Mean))
	}
	return lines
}
