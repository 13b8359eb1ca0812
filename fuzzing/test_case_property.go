package fuzzing

import (
	"fmt"
	"sync"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/properties"
)

// PropertyTestCase tracks one oracle property across the campaign. It starts running and fails permanently the
// first time a worker observes a violation.
type PropertyTestCase struct {
	property *properties.Property

	lock         sync.Mutex
	status       TestCaseStatus
	failureErr   error
	callSequence calls.CallSequence
	corpusID     string
}

// newPropertyTestCase wraps an oracle property as a fuzzer test case.
func newPropertyTestCase(property *properties.Property) *PropertyTestCase {
	return &PropertyTestCase{
		property: property,
		status:   TestCaseStatusNotStarted,
	}
}

// Property returns the underlying oracle property.
func (t *PropertyTestCase) Property() *properties.Property {
	return t.property
}

// markRunning transitions the test case into the running state if it has not concluded.
func (t *PropertyTestCase) markRunning() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status == TestCaseStatusNotStarted {
		t.status = TestCaseStatusRunning
	}
}

// markPassed concludes the test case as passed, unless a failure was already recorded.
func (t *PropertyTestCase) markPassed() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status != TestCaseStatusFailed {
		t.status = TestCaseStatusPassed
	}
}

// markFailed records a violation with its shrunken reproducing sequence. The first recorded failure wins.
func (t *PropertyTestCase) markFailed(err error, sequence calls.CallSequence, corpusID string) {
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
func (t *PropertyTestCase) Status() TestCaseStatus {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.status
}

// CallSequence describes the shrunken call sequence which caused the failure, or nil.
func (t *PropertyTestCase) CallSequence() calls.CallSequence {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.callSequence
}

// Name describes the name of the test case.
func (t *PropertyTestCase) Name() string {
	return fmt.Sprintf("Property: %s", t.property.ID)
}

// ID obtains a unique identifier for the test case.
func (t *PropertyTestCase) ID() string {
	return t.property.ID
}

// CorpusID returns the UUID the failure record was persisted under, if any.
func (t *PropertyTestCase) CorpusID() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.corpusID
}

// Message obtains a text-based printable message which describes the test result.
func (t *PropertyTestCase) Message() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.status != TestCaseStatusFailed {
		return fmt.Sprintf("%s (%s) %s", t.Name(), t.property.Description, t.status)
	}
	message := fmt.Sprintf("%s violated: %v", t.Name(), t.failureErr)
	if len(t.callSequence) > 0 {
		message += fmt.Sprintf("\n[Call Sequence]\n%s", t.callSequence.String())
	}
	if t.corpusID != "" {
		message += fmt.Sprintf("\n[Corpus] failure record %s", t.corpusID)
	}
	return message
}
