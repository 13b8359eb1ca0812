package fuzzing

import (
	"github.com/crytic/charybdis/events"
	"github.com/crytic/charybdis/fuzzing/calls"
)

// FuzzerWorkerEvents defines event emitters for a FuzzerWorker.
type FuzzerWorkerEvents struct {
	// SequenceTesting emits events when the FuzzerWorker is about to test a new call sequence.
	SequenceTesting events.EventEmitter[FuzzerWorkerSequenceTestingEvent]

	// SequenceTested emits events when the FuzzerWorker finished testing a call sequence.
	SequenceTested events.EventEmitter[FuzzerWorkerSequenceTestedEvent]
}

// FuzzerWorkerSequenceTestingEvent describes an event where a FuzzerWorker is about to test a new call sequence.
type FuzzerWorkerSequenceTestingEvent struct {
	// Worker represents the source of the event.
	Worker *FuzzerWorker
}

// FuzzerWorkerSequenceTestedEvent describes an event where a FuzzerWorker finished testing a call sequence.
type FuzzerWorkerSequenceTestedEvent struct {
	// Worker represents the source of the event.
	Worker *FuzzerWorker

	// Sequence is the call sequence which was tested, as far as it was executed.
	Sequence calls.CallSequence
}
