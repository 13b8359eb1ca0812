package cmd

import (
	"fmt"

	"github.com/crytic/charybdis/fuzzing/config"
	"github.com/spf13/cobra"
)

// addFuzzFlags adds the various flags for the fuzz command
func addFuzzFlags() error {
	// Get the default project config and throw an error if we cant
	defaultConfig := config.GetDefaultProjectConfig()

	// Config file
	fuzzCmd.Flags().String("config", "", "path to config file")

	// Number of workers
	fuzzCmd.Flags().Int("workers", 0,
		fmt.Sprintf("number of fuzzer workers (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.Workers))

	// Timeout
	fuzzCmd.Flags().Int("timeout", 0,
		fmt.Sprintf("number of seconds to run the fuzzer campaign for (unless a config file is provided, default is %d). 0 means that timeout is not enforced", defaultConfig.Fuzzing.Timeout))

	// Test limit
	fuzzCmd.Flags().Uint64("test-limit", 0,
		fmt.Sprintf("number of handler calls to test before exiting (unless a config file is provided, default is %d). 0 means that test limit is not enforced", defaultConfig.Fuzzing.TestLimit))

	// Sequence length
	fuzzCmd.Flags().Int("seq-len", 0,
		fmt.Sprintf("maximum length of a call sequence (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.SequenceLength))

	// Base seed
	fuzzCmd.Flags().Int64("seed", 0, "base seed for the campaign (unless a config file is provided, default is a time-derived seed)")

	// Corpus directory
	fuzzCmd.Flags().String("corpus-dir", "",
		fmt.Sprintf("directory path for corpus failure records (unless a config file is provided, default is %q)", defaultConfig.Fuzzing.CorpusDirectory))

	// Fail fast
	fuzzCmd.Flags().Bool("fail-fast", false, "enables stopping the campaign on the first failed test")

	// Disable colors
	fuzzCmd.Flags().Bool("no-color", false, "disables colored terminal output")

	return nil
}

// updateProjectConfigWithFuzzFlags will update the given project configuration with any CLI arguments that were
// provided to the fuzz command
func updateProjectConfigWithFuzzFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update number of workers
	if cmd.Flags().Changed("workers") {
		projectConfig.Fuzzing.Workers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return err
		}
	}

	// Update timeout
	if cmd.Flags().Changed("timeout") {
		projectConfig.Fuzzing.Timeout, err = cmd.Flags().GetInt("timeout")
		if err != nil {
			return err
		}
	}

	// Update test limit
	if cmd.Flags().Changed("test-limit") {
		projectConfig.Fuzzing.TestLimit, err = cmd.Flags().GetUint64("test-limit")
		if err != nil {
			return err
		}
	}

	// Update sequence length
	if cmd.Flags().Changed("seq-len") {
		projectConfig.Fuzzing.SequenceLength, err = cmd.Flags().GetInt("seq-len")
		if err != nil {
			return err
		}
	}

	// Update base seed
	if cmd.Flags().Changed("seed") {
		projectConfig.Fuzzing.Seed, err = cmd.Flags().GetInt64("seed")
		if err != nil {
			return err
		}
	}

	// Update corpus directory
	if cmd.Flags().Changed("corpus-dir") {
		projectConfig.Fuzzing.CorpusDirectory, err = cmd.Flags().GetString("corpus-dir")
		if err != nil {
			return err
		}
	}

	// Update fail fast
	if cmd.Flags().Changed("fail-fast") {
		projectConfig.Fuzzing.StopOnFailedTest, err = cmd.Flags().GetBool("fail-fast")
		if err != nil {
			return err
		}
	}

	// Update color usage
	if cmd.Flags().Changed("no-color") {
		projectConfig.Logging.NoColor, err = cmd.Flags().GetBool("no-color")
		if err != nil {
			return err
		}
	}

	return nil
}
