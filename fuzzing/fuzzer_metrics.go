package fuzzing

import "math/big"

// FuzzerMetrics represents a struct tracking metrics for a Fuzzer run.
type FuzzerMetrics struct {
	// workerMetrics describes metrics for each worker. Each worker only updates its own metrics, so the
	// aggregates are loosely synchronized.
	workerMetrics []fuzzerWorkerMetrics
}

// fuzzerWorkerMetrics represents metrics for a single FuzzerWorker.
type fuzzerWorkerMetrics struct {
	// sequencesTested describes the amount of call sequences the worker ran to completion.
	sequencesTested *big.Int

	// callsTested describes the amount of handler calls the worker executed.
	callsTested *big.Int

	// failedSequences describes the amount of sequences which surfaced a property failure.
	failedSequences *big.Int

	// shrinking indicates whether the worker is currently shrinking a failing sequence.
	shrinking bool
}

// newFuzzerMetrics obtains a new FuzzerMetrics struct for the provided number of workers.
func newFuzzerMetrics(workerCount int) *FuzzerMetrics {
	metrics := FuzzerMetrics{
		workerMetrics: make([]fuzzerWorkerMetrics, workerCount),
	}
	for i := 0; i < workerCount; i++ {
		metrics.workerMetrics[i].sequencesTested = big.NewInt(0)
		metrics.workerMetrics[i].callsTested = big.NewInt(0)
		metrics.workerMetrics[i].failedSequences = big.NewInt(0)
	}
	return &metrics
}

// SequencesTested returns the amount of call sequences tested across all workers.
func (m *FuzzerMetrics) SequencesTested() *big.Int {
	sequencesTested := big.NewInt(0)
	for _, workerMetrics := range m.workerMetrics {
		sequencesTested.Add(sequencesTested, workerMetrics.sequencesTested)
	}
	return sequencesTested
}

// CallsTested returns the amount of handler calls executed across all workers.
func (m *FuzzerMetrics) CallsTested() *big.Int {
	callsTested := big.NewInt(0)
	for _, workerMetrics := range m.workerMetrics {
		callsTested.Add(callsTested, workerMetrics.callsTested)
	}
	return callsTested
}

// FailedSequences returns the amount of failing sequences observed across all workers.
func (m *FuzzerMetrics) FailedSequences() *big.Int {
	failedSequences := big.NewInt(0)
	for _, workerMetrics := range m.workerMetrics {
		failedSequences.Add(failedSequences, workerMetrics.failedSequences)
	}
	return failedSequences
}

// WorkersShrinkingCount returns the amount of workers currently shrinking a failing sequence.
func (m *FuzzerMetrics) WorkersShrinkingCount() uint64 {
	var count uint64
	for _, workerMetrics := range m.workerMetrics {
		if workerMetrics.shrinking {
			count++
		}
	}
	return count
}
