// Package actors provides the fixed cast of accounts a fuzzing campaign drives the vault with: a pool of
// unprivileged user actors plus the privileged governor, operator, treasury, and dead-sink addresses.
package actors

import (
	"fmt"

	"github.com/crytic/charybdis/vault"
)

// Registry holds the campaign's account set. The user actor pool is fixed for the lifetime of a campaign so
// call sequences replay deterministically.
type Registry struct {
	// actors is the pool of unprivileged user accounts.
	actors []vault.Address

	// Governor may change vault configuration.
	Governor vault.Address

	// Operator may move vault capital.
	Operator vault.Address

	// Treasury receives trustee fees.
	Treasury vault.Address

	// Dead holds the genesis deposit.
	Dead vault.Address
}

// NewRegistry derives a deterministic account set with the provided number of user actors.
func NewRegistry(actorCount int) *Registry {
	registry := &Registry{
		Governor: vault.DeriveAddress("charybdis/governor"),
		Operator: vault.DeriveAddress("charybdis/operator"),
		Treasury: vault.DeriveAddress("charybdis/treasury"),
		Dead:     vault.DeriveAddress("charybdis/dead"),
	}
	for i := 0; i < actorCount; i++ {
		registry.actors = append(registry.actors, vault.DeriveAddress(fmt.Sprintf("charybdis/actor/%d", i)))
	}
	return registry
}

// Len returns the number of user actors in the pool.
func (r *Registry) Len() int {
	return len(r.actors)
}

// ActorAt returns the user actor at the provided index, wrapping around the pool size.
func (r *Registry) ActorAt(index int) vault.Address {
	return r.actors[index%len(r.actors)]
}

// All returns the user actor pool. Callers must not mutate the returned slice.
func (r *Registry) All() []vault.Address {
	return r.actors
}

// ScanFrom walks the actor pool cyclically starting at offset and returns the first actor satisfying the
// predicate. The boolean result reports whether any actor matched.
func (r *Registry) ScanFrom(offset int, predicate func(vault.Address) bool) (vault.Address, bool) {
	for i := 0; i < len(r.actors); i++ {
		actor := r.ActorAt(offset + i)
		if predicate(actor) {
			return actor, true
		}
	}
	return vault.Address{}, false
}
