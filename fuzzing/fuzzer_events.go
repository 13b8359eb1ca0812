package fuzzing

import "github.com/crytic/charybdis/events"

// FuzzerEvents defines event emitters for a Fuzzer.
type FuzzerEvents struct {
	// FuzzerStarting emits events when the Fuzzer initialized state and is ready to begin the campaign.
	FuzzerStarting events.EventEmitter[FuzzerStartingEvent]

	// FuzzerStopping emits events when the Fuzzer is exiting its campaign loop.
	FuzzerStopping events.EventEmitter[FuzzerStoppingEvent]

	// WorkerCreated emits events when a FuzzerWorker is created by the Fuzzer.
	WorkerCreated events.EventEmitter[FuzzerWorkerCreatedEvent]

	// WorkerDestroyed emits events when a FuzzerWorker exits its campaign loop.
	WorkerDestroyed events.EventEmitter[FuzzerWorkerDestroyedEvent]

	// TestCaseFailed emits events when a test case concludes as failed.
	TestCaseFailed events.EventEmitter[TestCaseFailedEvent]
}

// FuzzerStartingEvent describes an event where a Fuzzer is initialized and about to start its campaign.
type FuzzerStartingEvent struct {
	// Fuzzer represents the source of the event.
	Fuzzer *Fuzzer
}

// FuzzerStoppingEvent describes an event where a Fuzzer's campaign loop is exiting.
type FuzzerStoppingEvent struct {
	// Fuzzer represents the source of the event.
	Fuzzer *Fuzzer

	// Err describes a fatal campaign error, if one occurred.
	Err error
}

// FuzzerWorkerCreatedEvent describes an event where a FuzzerWorker is created.
type FuzzerWorkerCreatedEvent struct {
	// Worker represents the worker which was created.
	Worker *FuzzerWorker
}

// FuzzerWorkerDestroyedEvent describes an event where a FuzzerWorker exits its campaign loop.
type FuzzerWorkerDestroyedEvent struct {
	// Worker represents the worker which exited.
	Worker *FuzzerWorker
}

// TestCaseFailedEvent describes an event where a test case concludes as failed.
type TestCaseFailedEvent struct {
	// TestCase represents the failed test.
	TestCase TestCase
}
