package command

import (
	"github.com/hashicorp/cli"

	"github.com/nodeadmin/uel/version"
)

// Commands returns the mapping of CLI commands for uel. The meta parameter
// lets you set meta options for all commands.
func Commands(metaPtr *Meta) map[string]cli.CommandFactory {
	if metaPtr == nil {
		metaPtr = new(Meta)
	}

	meta := *metaPtr
	if meta.Ui == nil {
		meta.Ui = &cli.BasicUi{}
	}

	return map[string]cli.CommandFactory{
		"unify": func() (cli.Command, error) {
			return &UnifyCommand{
				Meta: meta,
			}, nil
		},
		"ontology": func() (cli.Command, error) {
			return &OntologyCommand{
				Meta: meta,
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{
				Version: version.GetVersion(),
				Ui:      meta.Ui,
			}, nil
		},
	}
}
