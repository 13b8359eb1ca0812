package vault

import "fmt"

// RejectionCode identifies a business-rule rejection raised by the vault. Callers classify rejections by code,
// never by message text, so the harness allow-list cannot drift when messages are reworded.
type RejectionCode int

const (
	// RejectionZeroAmount indicates an operation was invoked with a zero amount.
	RejectionZeroAmount RejectionCode = iota
	// RejectionInsufficientBalance indicates the caller's token balance cannot cover the requested amount.
	RejectionInsufficientBalance
	// RejectionInsufficientClaimableLiquidity indicates a withdrawal request is not yet covered by claimable
	// queue liquidity.
	RejectionInsufficientClaimableLiquidity
	// RejectionPendingLiquidity indicates idle liquidity is reserved for pending claims or the buffer and cannot
	// be moved.
	RejectionPendingLiquidity
	// RejectionBelowThreshold indicates an operation's configured activation threshold was not met.
	RejectionBelowThreshold
	// RejectionMaturityNotReached indicates a withdrawal request's claim delay has not yet elapsed.
	RejectionMaturityNotReached
	// RejectionUnknownRequest indicates a withdrawal request index beyond the queue frontier.
	RejectionUnknownRequest
	// RejectionNotRequestOwner indicates the caller does not own the referenced withdrawal request.
	RejectionNotRequestOwner
	// RejectionAlreadyClaimed indicates the referenced withdrawal request was claimed previously.
	RejectionAlreadyClaimed
	// RejectionUnauthorized indicates the caller lacks the role required by a privileged entry point.
	RejectionUnauthorized
	// RejectionInvalidConfiguration indicates a configuration setter was invoked with an out-of-range value.
	RejectionInvalidConfiguration
	// RejectionUnknownStrategy indicates a strategy index beyond the configured strategy set.
	RejectionUnknownStrategy
)

// String returns a short identifier for the rejection code.
func (c RejectionCode) String() string {
	switch c {
	case RejectionZeroAmount:
		return "ZeroAmount"
	case RejectionInsufficientBalance:
		return "InsufficientBalance"
	case RejectionInsufficientClaimableLiquidity:
		return "InsufficientClaimableLiquidity"
	case RejectionPendingLiquidity:
		return "PendingLiquidity"
	case RejectionBelowThreshold:
		return "BelowThreshold"
	case RejectionMaturityNotReached:
		return "MaturityNotReached"
	case RejectionUnknownRequest:
		return "UnknownRequest"
	case RejectionNotRequestOwner:
		return "NotRequestOwner"
	case RejectionAlreadyClaimed:
		return "AlreadyClaimed"
	case RejectionUnauthorized:
		return "Unauthorized"
	case RejectionInvalidConfiguration:
		return "InvalidConfiguration"
	case RejectionUnknownStrategy:
		return "UnknownStrategy"
	default:
		return fmt.Sprintf("RejectionCode(%d)", int(c))
	}
}

// Rejection is the error type returned for every business-rule rejection. It carries a structured code and a
// human-readable reason for reporting.
type Rejection struct {
	// Code identifies the rejection class.
	Code RejectionCode
	// Reason provides human-readable context for logs and failure reports.
	Reason string
}

// Error returns the error message string, implementing the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("vault rejection [%s]: %s", r.Code, r.Reason)
}

// NewRejection creates a Rejection with the provided code and a formatted reason.
func NewRejection(code RejectionCode, format string, args ...any) *Rejection {
	return &Rejection{
		Code:   code,
		Reason: fmt.Sprintf(format, args...),
	}
}
