package utils

import "context"

// CheckContextDone checks if the provided context has indicated it was cancelled or is done.
// Returns true if the context is done, false otherwise.
func CheckContextDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
