package fuzzing

import (
	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/handlers"
)

// shrinkVerifier replays a candidate sequence from a fresh environment and reports whether it still reproduces
// the original failure. On success it returns the re-executed sequence, truncated at the failing call.
type shrinkVerifier func(candidate calls.CallSequence) (calls.CallSequence, bool)

// shrinkSequence minimizes a failing call sequence by repeatedly attempting to remove elements, keeping any
// removal after which the verifier still reproduces the failure. The total number of replays is bounded by the
// configured shrink limit.
func (fw *FuzzerWorker) shrinkSequence(sequence calls.CallSequence, verifier shrinkVerifier) calls.CallSequence {
	fw.metrics.shrinking = true
	defer func() { fw.metrics.shrinking = false }()

	shrunken := sequence.Clone()
	replays := uint64(0)
	limit := fw.fuzzer.config.Fuzzing.ShrinkLimit

	improved := true
	for improved && replays < limit {
		improved = false
		for i := 0; i < len(shrunken) && replays < limit; i++ {
			candidate := make(calls.CallSequence, 0, len(shrunken)-1)
			candidate = append(candidate, shrunken[:i]...)
			candidate = append(candidate, shrunken[i+1:]...)

			replays++
			if replayed, ok := verifier(candidate); ok {
				shrunken = replayed
				improved = true
				i--
			}
		}
	}
	return shrunken
}

// replayForProperties replays the candidate and reports whether any of the originally violated properties fails
// again. The returned sequence is rebuilt from the replay and truncated at the first violating call.
func (fw *FuzzerWorker) replayForProperties(candidate calls.CallSequence, failedIDs map[string]bool) (calls.CallSequence, bool) {
	env, err := newEnvironment(fw.fuzzer.config)
	if err != nil {
		return nil, false
	}

	replayed := make(calls.CallSequence, 0, len(candidate))
	for _, recorded := range candidate {
		handler, err := handlers.ByID(recorded.HandlerID)
		if err != nil {
			return nil, false
		}
		call, err := env.executeCall(handler, recorded.Seed)
		if err != nil {
			return nil, false
		}
		replayed = append(replayed, call)

		for _, failure := range env.checkProperties(fw.fuzzer.checker) {
			if failedIDs[failure.Property.ID] {
				return replayed, true
			}
		}
	}
	return nil, false
}

// replayForSettlement replays the whole candidate and reports whether the settlement pass still fails.
func (fw *FuzzerWorker) replayForSettlement(candidate calls.CallSequence) (calls.CallSequence, bool) {
	env, err := newEnvironment(fw.fuzzer.config)
	if err != nil {
		return nil, false
	}

	replayed := make(calls.CallSequence, 0, len(candidate))
	for _, recorded := range candidate {
		handler, err := handlers.ByID(recorded.HandlerID)
		if err != nil {
			return nil, false
		}
		call, err := env.executeCall(handler, recorded.Seed)
		if err != nil {
			return nil, false
		}
		replayed = append(replayed, call)
	}
	if err := settleEnvironment(env); err != nil {
		return replayed, true
	}
	return nil, false
}
