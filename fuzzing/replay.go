package fuzzing

import (
	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/config"
	"github.com/crytic/charybdis/fuzzing/corpus"
	"github.com/crytic/charybdis/fuzzing/handlers"
	"github.com/crytic/charybdis/fuzzing/properties"
	"github.com/crytic/charybdis/utils"
	"github.com/pkg/errors"
)

// ReplayResult describes the outcome of replaying a persisted failure record.
type ReplayResult struct {
	// Sequence is the re-executed call sequence, truncated at the first violating call if one occurred.
	Sequence calls.CallSequence

	// Failures lists the property violations observed during the replay.
	Failures []*properties.Failure

	// SettlementErr describes a settlement failure observed after the replay, if any.
	SettlementErr error
}

// Reproduced reports whether the replay reproduced any failure.
func (r *ReplayResult) Reproduced() bool {
	return len(r.Failures) > 0 || r.SettlementErr != nil
}

// ReplayFailure re-executes a persisted failure record against a fresh environment built from the provided
// configuration and reports whether the recorded failure still reproduces.
func ReplayFailure(projectConfig *config.ProjectConfig, record *corpus.FailureRecord) (*ReplayResult, error) {
	env, err := newEnvironment(projectConfig)
	if err != nil {
		return nil, err
	}
	checker := properties.NewChecker()

	result := &ReplayResult{}
	for _, recorded := range record.Calls {
		handler, err := handlers.ByID(recorded.HandlerID)
		if err != nil {
			return nil, errors.Wrap(err, "failure record references an unknown handler")
		}
		call, err := env.executeCall(handler, recorded.Seed)
		if err != nil {
			return nil, errors.Wrap(err, "replayed call failed unexpectedly")
		}
		result.Sequence = append(result.Sequence, call)

		if failures := env.checkProperties(checker); len(failures) > 0 {
			result.Failures = failures
			return result, nil
		}
	}

	// Records targeting the settlement check only fail once the wind-down runs.
	if utils.SliceContains(record.PropertyIDs, func(id string) bool { return id == settlementTestCaseID }) {
		result.SettlementErr = settleEnvironment(env)
	}
	return result, nil
}
