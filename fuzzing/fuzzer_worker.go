package fuzzing

import (
	"context"
	"math/big"
	"math/rand"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/corpus"
	"github.com/crytic/charybdis/fuzzing/handlers"
	"github.com/crytic/charybdis/fuzzing/properties"
	"github.com/crytic/charybdis/utils"
	"github.com/crytic/charybdis/utils/randomutils"
	"github.com/pkg/errors"
)

// FuzzerWorker runs call sequences against fresh vault environments on behalf of a Fuzzer.
type FuzzerWorker struct {
	// fuzzer describes the Fuzzer instance which this worker belongs to.
	fuzzer *Fuzzer

	// workerIndex describes the index of the worker within the Fuzzer's worker pool.
	workerIndex int

	// randomProvider provides the worker's sequence-level randomness: handler selection and per-call seeds.
	randomProvider *rand.Rand

	// handlerChooser selects weighted random handlers for sequence generation.
	handlerChooser *randomutils.WeightedRandomChooser[*handlers.Handler]

	// metrics points at this worker's slot in the Fuzzer's metrics.
	metrics *fuzzerWorkerMetrics

	// Events describes the event system for the FuzzerWorker.
	Events FuzzerWorkerEvents
}

// newFuzzerWorker creates a FuzzerWorker with its own deterministic random provider.
func newFuzzerWorker(fuzzer *Fuzzer, workerIndex int, seed int64) *FuzzerWorker {
	randomProvider := rand.New(rand.NewSource(seed))
	handlerChooser := randomutils.NewWeightedRandomChooser[*handlers.Handler](randomProvider)
	for _, weighted := range fuzzer.weightedHandlers {
		handlerChooser.AddChoices(randomutils.NewWeightedRandomChoice(weighted.handler, weighted.weight))
	}
	return &FuzzerWorker{
		fuzzer:         fuzzer,
		workerIndex:    workerIndex,
		randomProvider: randomProvider,
		handlerChooser: handlerChooser,
		metrics:        &fuzzer.metrics.workerMetrics[workerIndex],
	}
}

// run generates and tests call sequences until the campaign context is cancelled. Returns an error only for
// fatal harness failures; property violations are recorded on the test cases and fuzzing continues.
func (fw *FuzzerWorker) run(ctx context.Context) error {
	for !utils.CheckContextDone(ctx) {
		if err := fw.runSequence(ctx); err != nil {
			return err
		}
	}
	return nil
}

// runSequence builds a fresh environment, drives one generated call sequence through it with the oracle checked
// after every call, and finishes with the settlement pass.
func (fw *FuzzerWorker) runSequence(ctx context.Context) error {
	env, err := newEnvironment(fw.fuzzer.config)
	if err != nil {
		return err
	}

	if err = fw.Events.SequenceTesting.Publish(FuzzerWorkerSequenceTestingEvent{Worker: fw}); err != nil {
		return errors.Wrap(err, "sequence testing event subscriber returned an error")
	}

	sequence := make(calls.CallSequence, 0, fw.fuzzer.config.Fuzzing.SequenceLength)
	defer func() {
		_ = fw.Events.SequenceTested.Publish(FuzzerWorkerSequenceTestedEvent{Worker: fw, Sequence: sequence})
	}()
	for i := 0; i < fw.fuzzer.config.Fuzzing.SequenceLength; i++ {
		if utils.CheckContextDone(ctx) {
			return nil
		}

		handlerPtr, err := fw.handlerChooser.Choose()
		if err != nil {
			return errors.Wrap(err, "could not choose a handler")
		}
		call, err := env.executeCall(*handlerPtr, fw.randomProvider.Int63())
		if err != nil {
			// Unexpected rejections and ghost desyncs are harness-fatal: they mean generated calls are no
			// longer well-formed, so further results are untrustworthy.
			return errors.Wrapf(err, "call sequence aborted:\n%s", sequence.String())
		}
		sequence = append(sequence, call)
		fw.metrics.callsTested.Add(fw.metrics.callsTested, big.NewInt(1))

		if failures := env.checkProperties(fw.fuzzer.checker); len(failures) > 0 {
			fw.metrics.failedSequences.Add(fw.metrics.failedSequences, big.NewInt(1))
			fw.onPropertyFailures(sequence, failures)
			return nil
		}

		if fw.fuzzer.callTestingLimitReached() {
			fw.fuzzer.Stop()
			return nil
		}
	}

	// The per-call oracle saw nothing; prove the vault can still wind down fully.
	if err := settleEnvironment(env); err != nil {
		fw.metrics.failedSequences.Add(fw.metrics.failedSequences, big.NewInt(1))
		fw.onSettlementFailure(sequence, err)
		return nil
	}
	if failures := env.checkProperties(fw.fuzzer.checker); len(failures) > 0 {
		fw.metrics.failedSequences.Add(fw.metrics.failedSequences, big.NewInt(1))
		fw.onPropertyFailures(sequence, failures)
	}
	return nil
}

// onPropertyFailures shrinks the failing sequence, persists it to the corpus, and concludes the violated
// property test cases.
func (fw *FuzzerWorker) onPropertyFailures(sequence calls.CallSequence, failures []*properties.Failure) {
	failedIDs := make(map[string]bool, len(failures))
	for _, failure := range failures {
		failedIDs[failure.Property.ID] = true
	}

	shrunken := fw.shrinkSequence(sequence, func(candidate calls.CallSequence) (calls.CallSequence, bool) {
		return fw.replayForProperties(candidate, failedIDs)
	})
	corpusID := fw.persistFailure(shrunken, failedIDs)

	for _, failure := range failures {
		testCase, ok := fw.fuzzer.propertyCases[failure.Property.ID]
		if !ok {
			continue
		}
		testCase.markFailed(failure.Err, shrunken, corpusID)
		_ = fw.fuzzer.Events.TestCaseFailed.Publish(TestCaseFailedEvent{TestCase: testCase})
	}
}

// onSettlementFailure shrinks the sequence against the settlement check and concludes the settlement test case.
func (fw *FuzzerWorker) onSettlementFailure(sequence calls.CallSequence, settlementErr error) {
	shrunken := fw.shrinkSequence(sequence, fw.replayForSettlement)
	corpusID := fw.persistFailure(shrunken, map[string]bool{settlementTestCaseID: true})

	testCase := fw.fuzzer.settlementCase
	testCase.markFailed(settlementErr, shrunken, corpusID)
	_ = fw.fuzzer.Events.TestCaseFailed.Publish(TestCaseFailedEvent{TestCase: testCase})
}

// persistFailure writes the shrunken sequence to the corpus if one is configured. Returns the record ID or "".
func (fw *FuzzerWorker) persistFailure(shrunken calls.CallSequence, failedIDs map[string]bool) string {
	if fw.fuzzer.corpus == nil {
		return ""
	}

	record := &corpus.FailureRecord{Seed: fw.fuzzer.baseSeed}
	for _, call := range shrunken {
		record.Calls = append(record.Calls, corpus.RecordedCall{HandlerID: call.HandlerID, Seed: call.Seed})
	}
	for id := range failedIDs {
		record.PropertyIDs = append(record.PropertyIDs, id)
	}

	corpusID, err := fw.fuzzer.corpus.SaveFailure(record)
	if err != nil {
		fw.fuzzer.logger.Warn("Could not persist failure record to corpus", err)
		return ""
	}
	return corpusID
}
