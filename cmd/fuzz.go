package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/crytic/charybdis/cmd/exitcodes"
	"github.com/crytic/charybdis/fuzzing"
	"github.com/crytic/charybdis/fuzzing/config"
	"github.com/crytic/charybdis/logging/colors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fuzzCmd represents the command provider for fuzzing
var fuzzCmd = &cobra.Command{
	Use:               "fuzz",
	Short:             "Starts a fuzzing campaign",
	Long:              `Starts a fuzzing campaign`,
	Args:              cmdValidateFuzzArgs,
	ValidArgsFunction: cmdValidFuzzArgs,
	RunE:              cmdRunFuzz,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// cmdValidFuzzArgs will return which flags are valid for dynamic completion for the fuzz command
func cmdValidFuzzArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Gather a list of flags that are available to be used in the current command but have not been used yet
	var unusedFlags []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	// Add all the flags allowed for the fuzz command
	err := addFuzzFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the fuzz command", err)
	}

	// Add the fuzz command and its associated flags to the root command
	rootCmd.AddCommand(fuzzCmd)
}

// cmdValidateFuzzArgs makes sure that there are no positional arguments provided to the fuzz command
func cmdValidateFuzzArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		err = fmt.Errorf("fuzz does not accept any positional arguments, only flags and their associated values")
		cmdLogger.Error("Failed to validate args to the fuzz command", err)
		return err
	}
	return nil
}

// loadProjectConfig resolves the campaign configuration for a command: the --config flag if used, otherwise
// charybdis.json in the working directory if present, otherwise defaults.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	_, existenceError := os.Stat(configPath)
	if existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		return config.ReadProjectConfigFromFile(configPath)
	}
	if configFlagUsed {
		return nil, fmt.Errorf("could not find the config file at %s", configPath)
	}

	cmdLogger.Warn("Unable to find the config file at ", configPath, ", will use the default configuration")
	return config.GetDefaultProjectConfig(), nil
}

// cmdRunFuzz executes the CLI fuzz command: it resolves the project configuration, applies any flag overrides,
// and runs a fuzzing campaign to completion.
func cmdRunFuzz(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the fuzz command", err)
		return err
	}

	// Update the project configuration given whatever flags were set using the CLI
	if err = updateProjectConfigWithFuzzFlags(cmd, projectConfig); err != nil {
		cmdLogger.Error("Failed to run the fuzz command", err)
		return err
	}

	fuzzer, err := fuzzing.NewFuzzer(*projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to create the fuzzer", err)
		return err
	}

	// Stop the campaign gracefully on SIGINT.
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt)
	go func() {
		<-signalChannel
		fuzzer.Logger().Info("Received a SIGINT, stopping the campaign")
		fuzzer.Stop()
	}()
	defer signal.Stop(signalChannel)

	if err = fuzzer.Start(); err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	// Campaign results determine the process exit code, so CI can gate on them.
	if len(fuzzer.TestCasesWithStatus(fuzzing.TestCaseStatusFailed)) > 0 {
		return exitcodes.NewErrorWithExitCode(nil, exitcodes.ExitCodeTestFailed)
	}
	return nil
}
