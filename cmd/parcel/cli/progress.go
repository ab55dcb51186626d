package cli

import (
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/parcelbio/parcel/progress"
)

// progressVerbosity maps the configured progress mode to the engine's
// verbosity levels. Anything unrecognized falls back to per-file bars.
func progressVerbosity() progress.Verbosity {
	switch viper.GetString("progress") {
	case "none":
		return progress.None
	case "total":
		return progress.Total
	default:
		return progress.PerFile
	}
}

// interactive reports whether overwrite prompts can be answered: stdin must
// be a terminal.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
