package fuzzing

import (
	"fmt"
	"sync"

	"github.com/crytic/charybdis/fuzzing/calls"
)

// settlementTestCaseID identifies the settlement test case in reports and corpus records.
const settlementTestCaseID = "SETTLEMENT-DRAIN"

// SettlementTestCase tracks the post-sequence settlement check: after every generated sequence, the vault must
// be able to drain its strategies, pay out its whole withdrawal queue, and zero every user actor's balance.
type SettlementTestCase struct {
	lock         sync.Mutex
	status       TestCaseStatus
	failureErr   error
	callSequence calls.CallSequence
	corpusID     string
}

// newSettlementTestCase creates the settlement test case in its initial state.
func newSettlementTestCase() *SettlementTestCase {
	return &SettlementTestCase{status: TestCaseStatusNotStarted}
}

// markRunning transitions the test case into the running state if it has not concluded.
func (t *SettlementTestCase) markRunning() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status == TestCaseStatusNotStarted {
		t.status = TestCaseStatusRunning
	}
}

// markPassed concludes the test case as passed, unless a failure was already recorded.
func (t *SettlementTestCase) markPassed() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status != TestCaseStatusFailed {
		t.status = TestCaseStatusPassed
	}
}

// markFailed records a settlement failure with its shrunken reproducing sequence. The first failure wins.
func (t *SettlementTestCase) markFailed(err error, sequence calls.CallSequence, corpusID string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status == TestCaseStatusFailed {
		return
	}
	t.status = TestCaseStatusFailed
	t.failureErr = err
	t.callSequence = sequence
	t.corpusID = corpusID
}

// Status describes the status of the test case.
func (t *SettlementTestCase) Status() TestCaseStatus {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.status
}

// CallSequence describes the shrunken call sequence which caused the failure, or nil.
func (t *SettlementTestCase) CallSequence() calls.CallSequence {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.callSequence
}

// Name describes the name of the test case.
func (t *SettlementTestCase) Name() string {
	return "Settlement: full queue drain"
}

// ID obtains a unique identifier for the test case.
func (t *SettlementTestCase) ID() string {
	return settlementTestCaseID
}

// Message obtains a text-based printable message which describes the test result.
func (t *SettlementTestCase) Message() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status != TestCaseStatusFailed {
		return fmt.Sprintf("%s %s", t.Name(), t.status)
	}
	message := fmt.Sprintf("%s failed: %v", t.Name(), t.failureErr)
	if len(t.callSequence) > 0 {
		message += fmt.Sprintf("\n[Call Sequence]\n%s", t.callSequence.String())
	}
	if t.corpusID != "" {
		message += fmt.Sprintf("\n[Corpus] failure record %s", t.corpusID)
	}
	return message
}
