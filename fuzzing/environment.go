package fuzzing

import (
	"math/rand"

	"github.com/crytic/charybdis/clock"
	"github.com/crytic/charybdis/fuzzing/actors"
	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/config"
	"github.com/crytic/charybdis/fuzzing/ghost"
	"github.com/crytic/charybdis/fuzzing/handlers"
	"github.com/crytic/charybdis/fuzzing/properties"
	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// environment is one isolated, deterministic world a call sequence runs in: a freshly deployed vault, its
// funded actor cast, ghost bookkeeping, and the oracle context. Building the same configuration always yields
// the identical starting state, which is what makes sequence replay and shrinking possible.
type environment struct {
	vault       *vault.Vault
	asset       *vault.Token
	registry    *actors.Registry
	ghostStore  *ghost.Store
	clk         *clock.Clock
	handlerCtx  *handlers.Context
	propertyCtx *properties.Context
}

// newEnvironment deploys a fresh vault world from the campaign configuration.
func newEnvironment(projectConfig *config.ProjectConfig) (*environment, error) {
	vaultConfig := projectConfig.Fuzzing.Vault
	clk := clock.NewClock(vaultConfig.GenesisTimestamp)
	asset := vault.NewToken("USDC", 6)
	registry := actors.NewRegistry(projectConfig.Fuzzing.ActorCount)

	v, err := vault.NewVault(vault.Params{
		Asset:          asset,
		Clock:          clk,
		Governor:       registry.Governor,
		Operator:       registry.Operator,
		Treasury:       registry.Treasury,
		Dead:           registry.Dead,
		StrategyCount:  vaultConfig.StrategyCount,
		InitialDeposit: uint256.NewInt(vaultConfig.InitialDeposit),
		Config: vault.Config{
			AutoAllocateThreshold: uint256.NewInt(vaultConfig.AutoAllocateThreshold),
			DripDuration:          vaultConfig.DripDuration,
			MaxSupplyDiff:         uint256.NewInt(vaultConfig.MaxSupplyDiff),
			RebaseRateCeiling:     uint256.NewInt(vaultConfig.RebaseRateCeiling),
			RebaseThreshold:       uint256.NewInt(vaultConfig.RebaseThreshold),
			TrusteeFeeBps:         vaultConfig.TrusteeFeeBps,
			VaultBuffer:           uint256.NewInt(vaultConfig.VaultBuffer),
			WithdrawClaimDelay:    vaultConfig.WithdrawClaimDelay,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not deploy vault for campaign environment")
	}

	for _, actor := range registry.All() {
		asset.Mint(actor, uint256.NewInt(projectConfig.Fuzzing.InitialActorBalance))
	}

	ghostStore := ghost.NewStore()
	return &environment{
		vault:      v,
		asset:      asset,
		registry:   registry,
		ghostStore: ghostStore,
		clk:        clk,
		handlerCtx: &handlers.Context{
			SUT:          v,
			VaultAddress: v.Address(),
			Underlying:   asset,
			Actors:       registry,
			Ghost:        ghostStore,
			Clock:        clk,
		},
		propertyCtx: &properties.Context{
			State:  v,
			Clock:  clk,
			Actors: registry,
		},
	}, nil
}

// executeCall runs one handler with a dedicated random source derived from the provided seed and records the
// executed call. The same handler and seed against the same state reproduce the call exactly.
func (e *environment) executeCall(handler *handlers.Handler, seed int64) (*calls.HandlerCall, error) {
	result, err := handler.Run(e.handlerCtx, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, errors.Wrapf(err, "handler %s failed", handler.ID)
	}
	return &calls.HandlerCall{
		HandlerID: handler.ID,
		Seed:      seed,
		Actor:     result.Actor,
		Summary:   result.Summary,
		Outcome:   result.Outcome,
	}, nil
}

// checkProperties evaluates the oracle and refreshes the monotonicity snapshot for the next pass.
func (e *environment) checkProperties(checker *properties.Checker) []*properties.Failure {
	failures := checker.CheckAll(e.propertyCtx)
	meta := e.vault.QueueMetadata()
	e.propertyCtx.PreviousQueue = &meta
	return failures
}
