// Package ghost tracks harness-side bookkeeping which mirrors state the vault only exposes indirectly: the set
// of outstanding withdrawal requests per actor. Handlers use it to pick claimable requests without rescanning
// the whole queue, and the settlement pass uses it to prove the queue fully drains.
package ghost

import (
	"github.com/crytic/charybdis/vault"
	"github.com/pkg/errors"
)

// ErrDesync marks a divergence between ghost bookkeeping and the vault's own records. It is a harness bug, not
// a vault property failure, and the driver aborts the campaign when it surfaces.
var ErrDesync = errors.New("ghost state desynchronized from vault")

// Request is the ghost's view of one outstanding withdrawal request.
type Request struct {
	// Owner is the actor which created the request.
	Owner vault.Address

	// Index is the request's queue index in the vault.
	Index uint64

	// MaturityTimestamp is the earliest claimable timestamp, mirrored from the vault at request time.
	MaturityTimestamp uint64
}

// Store holds the outstanding withdrawal requests grouped by owner.
type Store struct {
	pending map[vault.Address][]Request
	total   int
}

// NewStore returns an empty ghost store.
func NewStore() *Store {
	return &Store{pending: make(map[vault.Address][]Request)}
}

// Append records a newly created withdrawal request.
func (s *Store) Append(request Request) {
	s.pending[request.Owner] = append(s.pending[request.Owner], request)
	s.total++
}

// PendingFor returns a copy of the outstanding requests of the provided owner. Callers may reorder or trim the
// returned slice freely.
func (s *Store) PendingFor(owner vault.Address) []Request {
	requests := make([]Request, len(s.pending[owner]))
	copy(requests, s.pending[owner])
	return requests
}

// Count returns the number of outstanding requests of the provided owner.
func (s *Store) Count(owner vault.Address) int {
	return len(s.pending[owner])
}

// TotalCount returns the number of outstanding requests across all owners.
func (s *Store) TotalCount() int {
	return s.total
}

// Remove drops the request with the provided queue index from the owner's outstanding set, swapping with the
// last element. Returns ErrDesync if no such request is tracked.
func (s *Store) Remove(owner vault.Address, index uint64) error {
	requests := s.pending[owner]
	for i, request := range requests {
		if request.Index == index {
			requests[i] = requests[len(requests)-1]
			s.pending[owner] = requests[:len(requests)-1]
			s.total--
			return nil
		}
	}
	return errors.Wrapf(ErrDesync, "request %d not tracked for owner %s", index, owner)
}

// Owners returns every owner with at least one outstanding request.
func (s *Store) Owners() []vault.Address {
	owners := make([]vault.Address, 0, len(s.pending))
	for owner, requests := range s.pending {
		if len(requests) > 0 {
			owners = append(owners, owner)
		}
	}
	return owners
}
