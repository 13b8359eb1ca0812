package cmd

import (
	"fmt"

	"github.com/crytic/charybdis/cmd/exitcodes"
	"github.com/crytic/charybdis/fuzzing"
	"github.com/crytic/charybdis/fuzzing/corpus"
	"github.com/crytic/charybdis/logging/colors"
	"github.com/spf13/cobra"
)

// replayCmd represents the command provider for replaying persisted failure records
var replayCmd = &cobra.Command{
	Use:           "replay <failure-id>",
	Short:         "Replays a persisted failure record",
	Long:          `Replays a shrunken failing call sequence from the corpus against a fresh environment and reports whether it still reproduces`,
	Args:          cmdValidateReplayArgs,
	RunE:          cmdRunReplay,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	replayCmd.Flags().String("config", "", "path to config file")
	rootCmd.AddCommand(replayCmd)
}

// cmdValidateReplayArgs makes sure that a single failure record ID is provided to the replay command
func cmdValidateReplayArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("replay requires exactly one failure record id argument")
		cmdLogger.Error("Failed to validate args to the replay command", err)
		return err
	}
	return nil
}

// cmdRunReplay executes the CLI replay command: it loads a failure record from the configured corpus and
// re-executes it against a fresh environment.
func cmdRunReplay(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the replay command", err)
		return err
	}
	if projectConfig.Fuzzing.CorpusDirectory == "" {
		err = fmt.Errorf("no corpus directory is configured, nothing to replay from")
		cmdLogger.Error("Failed to run the replay command", err)
		return err
	}

	corpusStore, err := corpus.OpenCorpus(projectConfig.Fuzzing.CorpusDirectory)
	if err != nil {
		cmdLogger.Error("Failed to open the corpus", err)
		return err
	}
	defer corpusStore.Close()

	record, err := corpusStore.Failure(args[0])
	if err != nil {
		cmdLogger.Error("Failed to load the failure record", err)
		return err
	}

	cmdLogger.Info("Replaying failure record ", colors.Bold, record.ID, colors.Reset,
		" (", len(record.Calls), " calls, seed ", record.Seed, ")")
	result, err := fuzzing.ReplayFailure(projectConfig, record)
	if err != nil {
		cmdLogger.Error("Replay aborted", err)
		return err
	}

	if !result.Reproduced() {
		cmdLogger.Info(colors.GreenBold("The failure no longer reproduces"))
		return nil
	}

	cmdLogger.Info("Replayed call sequence:\n", result.Sequence.String())
	for _, failure := range result.Failures {
		cmdLogger.Error("Property violated on replay: ", failure.String())
	}
	if result.SettlementErr != nil {
		cmdLogger.Error("Settlement failed on replay", result.SettlementErr)
	}
	return exitcodes.NewErrorWithExitCode(nil, exitcodes.ExitCodeTestFailed)
}
