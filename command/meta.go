package command

import (
	"flag"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	colorable "github.com/mattn/go-colorable"
	"github.com/mitchellh/colorstring"
	"github.com/posener/complete"
	"golang.org/x/term"
)

const (
	// EnvUELCLINoColor disables colored output when set.
	EnvUELCLINoColor = "UEL_CLI_NO_COLOR"

	// EnvUELLogLevel is the default for -log-level.
	EnvUELLogLevel = "UEL_LOG_LEVEL"
)

// Meta contains the meta-options and functionality that every uel command
// inherits.
type Meta struct {
	Ui cli.Ui

	// These are set by the command line flags.
	logLevel string
	noColor  bool
}

// FlagSet returns a FlagSet with the common flags that every command
// implements.
func (m *Meta) FlagSet(n string) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)

	defaultLevel := os.Getenv(EnvUELLogLevel)
	if defaultLevel == "" {
		defaultLevel = "warn"
	}
	f.StringVar(&m.logLevel, "log-level", defaultLevel, "")
	f.BoolVar(&m.noColor, "no-color", false, "")

	f.SetOutput(&uiErrorWriter{ui: m.Ui})

	return f
}

// AutocompleteFlags returns the completions for the flags of FlagSet.
func (m *Meta) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-log-level": complete.PredictSet("trace", "debug", "info", "warn", "error", "off"),
		"-no-color":  complete.PredictNothing,
	}
}

// Logger returns the root logger for a command run. Log lines go to the
// error stream of the Ui so that they never mix with command output.
func (m *Meta) Logger(name string) hclog.Logger {
	level := hclog.LevelFromString(m.logLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            name,
		Level:           level,
		Output:          &uiErrorWriter{ui: m.Ui},
		DisableTime:     true,
		IncludeLocation: level <= hclog.Debug,
	})
}

func (m *Meta) Colorize() *colorstring.Colorize {
	_, coloredUi := m.Ui.(*cli.ColoredUi)

	return &colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !coloredUi || m.noColor,
		Reset:   true,
	}
}

// SetupUi builds the Ui for the process, colored when stdout is a terminal
// and color is not disabled.
func (m *Meta) SetupUi(args []string) {
	noColor := os.Getenv(EnvUELCLINoColor) != ""
	for _, arg := range args {
		if arg == "-no-color" || arg == "--no-color" {
			noColor = true
		}
	}

	m.Ui = &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      colorable.NewColorableStdout(),
		ErrorWriter: colorable.NewColorableStderr(),
	}

	if !noColor && term.IsTerminal(int(os.Stdout.Fd())) {
		m.Ui = &cli.ColoredUi{
			ErrorColor: cli.UiColorRed,
			WarnColor:  cli.UiColorYellow,
			InfoColor:  cli.UiColorGreen,
			Ui:         m.Ui,
		}
	}
}

// generalOptionsUsage returns the help string for the global options.
func generalOptionsUsage() string {
	return `
  -log-level=<level>
    Log verbosity of the solver: trace, debug, info, warn, error or off.
    Overrides the UEL_LOG_LEVEL environment variable if set.
    Default = warn

  -no-color
    Disables colored command output. Alternatively, UEL_CLI_NO_COLOR may be
    set.
`
}
