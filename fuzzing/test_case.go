package fuzzing

import "github.com/crytic/charybdis/fuzzing/calls"

// TestCaseStatus defines the state of a TestCase.
type TestCaseStatus string

const (
	// TestCaseStatusNotStarted describes a test which has not yet been evaluated.
	TestCaseStatusNotStarted TestCaseStatus = "NOT STARTED"

	// TestCaseStatusRunning describes a test which has not yet concluded.
	TestCaseStatusRunning TestCaseStatus = "RUNNING"

	// TestCaseStatusPassed describes a test which passed.
	TestCaseStatusPassed TestCaseStatus = "PASSED"

	// TestCaseStatusFailed describes a test which failed.
	TestCaseStatusFailed TestCaseStatus = "FAILED"
)

// TestCase describes a test being run by the Fuzzer.
type TestCase interface {
	// Status describes the status of the test case.
	Status() TestCaseStatus

	// CallSequence describes the call sequence which caused a test failure, shrunken where possible. Returns
	// nil if the test has not failed.
	CallSequence() calls.CallSequence

	// Name describes the name of the test case.
	Name() string

	// ID obtains a unique identifier for the test case.
	ID() string

	// Message obtains a text-based printable message which describes the test result.
	Message() string
}
