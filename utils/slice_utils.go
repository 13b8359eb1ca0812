package utils

// SliceSelect provides a way of projecting a specific element from a slice's elements into a slice of its own.
func SliceSelect[T any, K any](x []T, f func(x T) K) []K {
	r := make([]K, len(x))
	for i := 0; i < len(x); i++ {
		r[i] = f(x[i])
	}
	return r
}

// SliceWhere provides a way of querying specific elements which fit some criteria into a new slice.
func SliceWhere[T any](x []T, f func(x T) bool) []T {
	r := make([]T, 0)
	for i := 0; i < len(x); i++ {
		if f(x[i]) {
			r = append(r, x[i])
		}
	}
	return r
}

// SliceContains indicates whether the provided slice contains an element for which f returns true.
func SliceContains[T any](x []T, f func(x T) bool) bool {
	for i := 0; i < len(x); i++ {
		if f(x[i]) {
			return true
		}
	}
	return false
}
