package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/posener/complete"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
	"github.com/nodeadmin/uel/ontology"
)

type OntologyCommand struct {
	Meta
}

func (c *OntologyCommand) Help() string {
	helpText := `
Usage: uel ontology [options] -input <file> -equate <A>=<B> ...

  Reads an OBO or OWL (RDF/XML) ontology and unifies pairs of its concepts
  with respect to their definitions. Concepts named with -var become
  variables; the definitions of the defined and primitive concepts that the
  equations reach are part of the goal.

General Options:
  ` + generalOptionsUsage() + `

Ontology Options:

  -input=<path>
    Path to the ontology. Required.

  -format=<auto|obo|owl>
    Syntax of the ontology. The default derives it from the file extension.

  -var=<id>
    Makes the concept with the given ID a variable. Can be repeated.

  -equate=<left>=<right>
    Adds the equation left ≡ right. Both sides are atoms, e.g. "GO:1" or
    "∃part_of.GO:2". Can be repeated; at least one is required.

  -all
    Also print the definition variables introduced for ontology concepts.
  ` + solverOptionsUsage()
	return strings.TrimSpace(helpText)
}

func (c *OntologyCommand) Synopsis() string {
	return "Unify concepts of an OBO or OWL ontology"
}

func (c *OntologyCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(), solverAutocompleteFlags(),
		complete.Flags{
			"-input":  complete.PredictFiles("*"),
			"-format": complete.PredictSet("auto", "obo", "owl"),
			"-var":    complete.PredictAnything,
			"-equate": complete.PredictAnything,
			"-all":    complete.PredictNothing,
		})
}

func (c *OntologyCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *OntologyCommand) Name() string { return "ontology" }

func (c *OntologyCommand) Run(args []string) int {
	var sf solverFlags
	var input, format string
	var vars, equations stringSliceFlag
	var all bool

	flags := c.Meta.FlagSet(c.Name())
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	sf.register(flags)
	flags.StringVar(&input, "input", "", "")
	flags.StringVar(&format, "format", "auto", "")
	flags.Var(&vars, "var", "")
	flags.Var(&equations, "equate", "")
	flags.BoolVar(&all, "all", false, "")

	if err := flags.Parse(args); err != nil {
		return 1
	}
	if len(flags.Args()) != 0 {
		c.Ui.Error("This command takes no arguments")
		c.Ui.Error(commandErrorText(c))
		return 1
	}
	if input == "" {
		c.Ui.Error("Missing -input")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	var named []goal.NamedEquation
	for _, eq := range equations {
		left, right, ok := strings.Cut(eq, "=")
		if !ok {
			c.Ui.Error(fmt.Sprintf("Invalid -equate %q: expected <left>=<right>", eq))
			return 1
		}
		named = append(named, goal.NamedEquation{Left: strings.TrimSpace(left), Right: strings.TrimSpace(right)})
	}

	cfg := sf.resolve(flags, goal.SolverConfig{})
	if err := cfg.Validate(); err != nil {
		c.Ui.Error(fmt.Sprintf("Invalid solver options: %s", err))
		return 1
	}

	logger := c.Meta.Logger("uel")

	ont, err := readOntology(input, format)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error reading ontology: %s", err))
		return 1
	}
	logger.Debug("ontology loaded", "file", input, "terms", len(ont.Terms))

	m := atom.NewManager()
	g, err := goal.FromOntology(ont, m, vars, named)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error building goal: %s", err))
		return 1
	}
	logger.Debug("goal built", "definitions", len(g.Definitions), "variables", len(m.Variables()))

	var show func(atom.ID) bool
	if !all {
		show = func(id atom.ID) bool { return !m.IsAuxiliary(id) }
	}

	res, err := solve(context.Background(), logger, g, cfg, show, sf.metrics)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error solving goal: %s", err))
		return 1
	}
	return c.outputResult(res, &sf)
}

func readOntology(path, format string) (*ontology.Ontology, error) {
	inputFmt := detectFormat(path, format)
	if inputFmt == "" {
		return nil, fmt.Errorf("cannot detect format for %q, use -format obo or -format owl", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology: %w", err)
	}
	defer f.Close()

	var ont *ontology.Ontology
	switch inputFmt {
	case "obo":
		ont, err = ontology.ParseOBO(f)
	case "owl":
		ont, err = ontology.ParseOWL(f)
	default:
		return nil, fmt.Errorf("unknown format %q", inputFmt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return ont, nil
}
