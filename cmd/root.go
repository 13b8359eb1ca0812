package cmd

import (
	"github.com/crytic/charybdis/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootCmd represents the root CLI command object which all other commands are attached to.
var rootCmd = &cobra.Command{
	Use:   "charybdis",
	Short: "A property fuzzing harness for rebasing vault systems",
	Long:  "charybdis drives randomized operation sequences against a rebasing vault and checks a set of accounting invariants after every call",
}

// cmdLogger is the logger that will be used for the cmd package.
var cmdLogger = logging.NewLogger(zerolog.InfoLevel, true)

// Execute provides an exportable function that will execute the root command and return whatever error arises.
func Execute() error {
	return rootCmd.Execute()
}
