package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/posener/complete"

	"github.com/nodeadmin/uel/goal"
)

type UnifyCommand struct {
	Meta
}

func (c *UnifyCommand) Help() string {
	helpText := `
Usage: uel unify [options] <goal file>

  Enumerates the unifiers of the EL unification goal described by an HCL
  goal file. Each unifier assigns to every variable a conjunction of flat
  atoms. Options given on the command line override the solver block of the
  goal file.

  The exit code is 0 if at least one unifier was found, 2 if the goal is not
  unifiable and 1 on errors or if the search was interrupted before finding
  a unifier.

General Options:
  ` + generalOptionsUsage() + `

Unify Options:
  ` + solverOptionsUsage()
	return strings.TrimSpace(helpText)
}

func (c *UnifyCommand) Synopsis() string {
	return "Enumerate the unifiers of a goal file"
}

func (c *UnifyCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(), solverAutocompleteFlags())
}

func (c *UnifyCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictFiles("*.hcl")
}

func (c *UnifyCommand) Name() string { return "unify" }

func (c *UnifyCommand) Run(args []string) int {
	var sf solverFlags

	flags := c.Meta.FlagSet(c.Name())
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	sf.register(flags)

	if err := flags.Parse(args); err != nil {
		return 1
	}

	args = flags.Args()
	if len(args) != 1 {
		c.Ui.Error("This command takes one argument: <goal file>")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	f, err := goal.ParseFile(args[0])
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing goal file: %s", err))
		return 1
	}

	cfg := sf.resolve(flags, f.Solver)
	if err := cfg.Validate(); err != nil {
		c.Ui.Error(fmt.Sprintf("Invalid solver options: %s", err))
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	logger := c.Meta.Logger("uel")
	logger.Debug("goal loaded", "file", args[0], "constraints", f.Goal.Size(),
		"variables", len(f.Goal.Atoms.Variables()))

	res, err := solve(context.Background(), logger, f.Goal, cfg, nil, sf.metrics)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error solving goal: %s", err))
		return 1
	}
	return c.outputResult(res, &sf)
}
