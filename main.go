package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/cli"

	"github.com/nodeadmin/uel/command"
	"github.com/nodeadmin/uel/version"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

func Run(args []string) int {
	meta := new(command.Meta)
	meta.SetupUi(args)

	commands := command.Commands(meta)

	cli := &cli.CLI{
		Name:                       "uel",
		Version:                    version.GetVersion().FullVersionNumber(false),
		Args:                       args,
		Commands:                   commands,
		HelpFunc:                   cli.FilteredHelpFunc(commandNames(commands), cli.BasicHelpFunc("uel")),
		HelpWriter:                 os.Stdout,
		ErrorWriter:                os.Stderr,
		Autocomplete:               true,
		AutocompleteNoDefaultFlags: true,
	}

	exitCode, err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}

func commandNames(commands map[string]cli.CommandFactory) []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
