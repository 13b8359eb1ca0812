package fuzzing

import (
	"testing"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/config"
	"github.com/crytic/charybdis/fuzzing/handlers"
	"github.com/crytic/charybdis/fuzzing/properties"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a small, fast campaign configuration for tests.
func testConfig(t *testing.T) config.ProjectConfig {
	projectConfig := *config.GetDefaultProjectConfig()
	projectConfig.Fuzzing.Workers = 2
	projectConfig.Fuzzing.Seed = 12345
	projectConfig.Fuzzing.SequenceLength = 25
	projectConfig.Fuzzing.TestLimit = 2_000
	projectConfig.Fuzzing.ShrinkLimit = 250
	projectConfig.Fuzzing.ActorCount = 4
	projectConfig.Fuzzing.CorpusDirectory = t.TempDir()
	return projectConfig
}

func TestCampaignSmoke(t *testing.T) {
	fuzzer, err := NewFuzzer(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, fuzzer.Start())

	// Every oracle property and the settlement check must survive the campaign.
	assert.Empty(t, fuzzer.TestCasesWithStatus(TestCaseStatusFailed))
	assert.Len(t, fuzzer.TestCasesWithStatus(TestCaseStatusPassed), len(fuzzer.TestCases()))
	assert.True(t, fuzzer.Metrics().CallsTested().Sign() > 0)
	assert.True(t, fuzzer.Metrics().SequencesTested().Sign() > 0)
}

func TestCampaignSeedReproducibility(t *testing.T) {
	run := func() string {
		projectConfig := testConfig(t)
		projectConfig.Fuzzing.Workers = 1
		projectConfig.Fuzzing.TestLimit = 300
		projectConfig.Fuzzing.CorpusDirectory = ""
		fuzzer, err := NewFuzzer(projectConfig)
		require.NoError(t, err)
		require.NoError(t, fuzzer.Start())
		return fuzzer.Metrics().CallsTested().String() + "/" + fuzzer.Metrics().SequencesTested().String()
	}
	assert.Equal(t, run(), run())
}

func TestEnvironmentDeterminism(t *testing.T) {
	projectConfig := testConfig(t)

	run := func() []string {
		env, err := newEnvironment(&projectConfig)
		require.NoError(t, err)
		var summaries []string
		for i, handler := range handlers.All() {
			call, err := env.executeCall(handler, int64(9000+i))
			require.NoError(t, err)
			summaries = append(summaries, call.String())
			require.Empty(t, env.checkProperties(properties.NewChecker()))
		}
		return summaries
	}
	assert.Equal(t, run(), run())
}

func TestSettlementDrainsFreshEnvironment(t *testing.T) {
	projectConfig := testConfig(t)
	env, err := newEnvironment(&projectConfig)
	require.NoError(t, err)

	// Run a short deterministic burst of activity first.
	for i, handler := range handlers.All() {
		_, err := env.executeCall(handler, int64(100+i))
		require.NoError(t, err)
	}
	require.NoError(t, settleEnvironment(env))
	require.Empty(t, env.checkProperties(properties.NewChecker()))

	// A drained vault has nothing left to settle: a second pass leaves the queue untouched.
	settled := env.vault.QueueMetadata()
	require.NoError(t, settleEnvironment(env))
	assert.Equal(t, settled.Queued, env.vault.QueueMetadata().Queued)
	assert.Equal(t, settled.Claimed, env.vault.QueueMetadata().Claimed)
	assert.Zero(t, env.ghostStore.TotalCount())
}

func TestHandlerWeightOverrides(t *testing.T) {
	projectConfig := testConfig(t)
	projectConfig.Fuzzing.HandlerWeights = map[string]uint64{"deposit": 500, "timeJump": 0}

	fuzzer, err := NewFuzzer(projectConfig)
	require.NoError(t, err)
	for _, weighted := range fuzzer.weightedHandlers {
		assert.NotEqual(t, "timeJump", weighted.handler.ID)
		if weighted.handler.ID == "deposit" {
			assert.Equal(t, uint64(500), weighted.weight)
		}
	}

	projectConfig.Fuzzing.HandlerWeights = map[string]uint64{"nonsense": 1}
	_, err = NewFuzzer(projectConfig)
	assert.Error(t, err)
}

func TestFailureRecordingAndShrinking(t *testing.T) {
	projectConfig := testConfig(t)
	// Zero seed exercises the time-derived fallback; the corpus record must carry the resolved seed.
	projectConfig.Fuzzing.Seed = 0
	fuzzer, err := NewFuzzer(projectConfig)
	require.NoError(t, err)
	worker := newFuzzerWorker(fuzzer, 0, 777)

	var failedEvents []TestCaseFailedEvent
	fuzzer.Events.TestCaseFailed.Subscribe(func(event TestCaseFailedEvent) error {
		failedEvents = append(failedEvents, event)
		return nil
	})

	// Feed the worker a synthetic violation whose sequence does not reproduce on replay: shrinking must keep
	// the original sequence intact and the test case must conclude failed with a corpus record.
	var solvency *properties.Property
	for _, property := range fuzzer.checker.Properties() {
		if property.ID == "VAULT-SOLVENCY" {
			solvency = property
		}
	}
	require.NotNil(t, solvency)

	sequence := calls.CallSequence{
		{HandlerID: "deposit", Seed: 1, Outcome: calls.OutcomeSuccess},
		{HandlerID: "rebase", Seed: 2, Outcome: calls.OutcomeDeclined},
	}
	worker.onPropertyFailures(sequence, []*properties.Failure{
		{Property: solvency, Err: errors.New("synthetic violation")},
	})

	testCase := fuzzer.propertyCases["VAULT-SOLVENCY"]
	assert.Equal(t, TestCaseStatusFailed, testCase.Status())
	assert.Equal(t, sequence, testCase.CallSequence())
	assert.Contains(t, testCase.Message(), "synthetic violation")

	require.Len(t, failedEvents, 1)
	assert.Equal(t, testCase, failedEvents[0].TestCase)

	require.NotEmpty(t, testCase.CorpusID())
	record, err := fuzzer.corpus.Failure(testCase.CorpusID())
	require.NoError(t, err)
	assert.Equal(t, []string{"VAULT-SOLVENCY"}, record.PropertyIDs)
	assert.Len(t, record.Calls, 2)
	assert.Equal(t, fuzzer.BaseSeed(), record.Seed)
	assert.NotZero(t, record.Seed)
	require.NoError(t, fuzzer.corpus.Close())
}

func TestWorkerEventsDriveSequenceMetrics(t *testing.T) {
	projectConfig := testConfig(t)
	fuzzer, err := NewFuzzer(projectConfig)
	require.NoError(t, err)
	defer fuzzer.corpus.Close()

	worker := newFuzzerWorker(fuzzer, 0, 99)
	require.NoError(t, fuzzer.Events.WorkerCreated.Publish(FuzzerWorkerCreatedEvent{Worker: worker}))

	require.Zero(t, fuzzer.Metrics().SequencesTested().Uint64())
	require.NoError(t, worker.Events.SequenceTested.Publish(FuzzerWorkerSequenceTestedEvent{Worker: worker}))
	assert.Equal(t, uint64(1), fuzzer.Metrics().SequencesTested().Uint64())
}
