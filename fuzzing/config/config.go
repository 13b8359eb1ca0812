package config

import (
	"encoding/json"
	"os"

	"github.com/crytic/charybdis/vault"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ProjectConfig describes a fuzzing campaign: driver settings, the vault's deployment parameters, and logging.
type ProjectConfig struct {
	// Fuzzing describes the campaign driver configuration.
	Fuzzing FuzzingConfig `json:"fuzzing"`

	// Logging describes logger configuration.
	Logging LoggingConfig `json:"logging"`
}

// FuzzingConfig describes the sequence driver and the harness environment.
type FuzzingConfig struct {
	// Workers is the number of concurrent campaign workers.
	Workers int `json:"workers"`

	// Seed is the campaign's base random seed. Zero selects a time-derived seed.
	Seed int64 `json:"seed"`

	// SequenceLength is the number of handler calls per sequence.
	SequenceLength int `json:"sequenceLength"`

	// TestLimit is the number of handler calls after which the campaign stops. Zero means unlimited.
	TestLimit uint64 `json:"testLimit"`

	// Timeout is the number of seconds after which the campaign stops. Zero means no timeout.
	Timeout int `json:"timeout"`

	// CorpusDirectory is the path failure records are persisted under. Empty disables persistence.
	CorpusDirectory string `json:"corpusDirectory"`

	// StopOnFailedTest stops the campaign on the first property failure.
	StopOnFailedTest bool `json:"stopOnFailedTest"`

	// ShrinkLimit is the maximum number of shrink replays per failure.
	ShrinkLimit uint64 `json:"shrinkLimit"`

	// ActorCount is the number of unprivileged user actors.
	ActorCount int `json:"actorCount"`

	// InitialActorBalance is each actor's starting asset balance in base units (6 decimals).
	InitialActorBalance uint64 `json:"initialActorBalance"`

	// HandlerWeights overrides the default selection weight per handler ID. Zero removes a handler.
	HandlerWeights map[string]uint64 `json:"handlerWeights,omitempty"`

	// Vault describes the vault deployment the campaign runs against.
	Vault VaultConfig `json:"vault"`
}

// VaultConfig describes the vault deployment parameters. Fraction-valued fields are wads (1e18 = 1.0).
type VaultConfig struct {
	// StrategyCount is the number of yield strategies. Must be positive.
	StrategyCount int `json:"strategyCount"`

	// InitialDeposit is the genesis deposit in asset base units.
	InitialDeposit uint64 `json:"initialDeposit"`

	// AutoAllocateThreshold is the initial auto-allocate threshold in asset base units.
	AutoAllocateThreshold uint64 `json:"autoAllocateThreshold"`

	// DripDuration is the initial drip duration in seconds. Range [1, 7 days].
	DripDuration uint64 `json:"dripDuration"`

	// MaxSupplyDiff is the initial max supply diff wad fraction. Range [0, 1e18].
	MaxSupplyDiff uint64 `json:"maxSupplyDiff"`

	// RebaseRateCeiling is the initial per-day rebase rate ceiling wad fraction. Range [0, 1e18].
	RebaseRateCeiling uint64 `json:"rebaseRateCeiling"`

	// RebaseThreshold is the initial rebase threshold in claim token base units.
	RebaseThreshold uint64 `json:"rebaseThreshold"`

	// TrusteeFeeBps is the initial trustee fee in basis points. Range [0, 5000].
	TrusteeFeeBps uint64 `json:"trusteeFeeBps"`

	// VaultBuffer is the initial vault buffer wad fraction. Range [0, 1e18].
	VaultBuffer uint64 `json:"vaultBuffer"`

	// WithdrawClaimDelay is the initial withdrawal claim delay in seconds. Range [0, 30 days].
	WithdrawClaimDelay uint64 `json:"withdrawClaimDelay"`

	// GenesisTimestamp is the simulated clock's starting timestamp.
	GenesisTimestamp uint64 `json:"genesisTimestamp"`
}

// LoggingConfig describes logger configuration.
type LoggingConfig struct {
	// Level is the global log level.
	Level zerolog.Level `json:"level"`

	// LogDirectory is the directory file logs are written to. Empty disables file logging.
	LogDirectory string `json:"logDirectory"`

	// NoColor disables terminal colors on console output.
	NoColor bool `json:"noColor"`
}

// ReadProjectConfigFromFile reads a ProjectConfig from the provided file path.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}

	projectConfig := GetDefaultProjectConfig()
	if err = json.Unmarshal(b, projectConfig); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", path)
	}
	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to the provided file path as indented JSON.
func (p *ProjectConfig) WriteToFile(path string) error {
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.Wrap(err, "could not marshal config")
	}
	if err = os.WriteFile(path, b, 0644); err != nil {
		return errors.Wrapf(err, "could not write config file %s", path)
	}
	return nil
}

// Validate checks the configuration for errors before a campaign starts.
func (p *ProjectConfig) Validate() error {
	if p.Fuzzing.Workers <= 0 {
		return errors.New("invalid config: workers must be positive")
	}
	if p.Fuzzing.SequenceLength <= 0 {
		return errors.New("invalid config: sequence length must be positive")
	}
	if p.Fuzzing.ActorCount <= 0 {
		return errors.New("invalid config: actor count must be positive")
	}
	if p.Fuzzing.InitialActorBalance == 0 {
		return errors.New("invalid config: initial actor balance must be positive")
	}
	if p.Fuzzing.Vault.StrategyCount <= 0 {
		return errors.New("invalid config: strategy count must be positive")
	}
	if p.Fuzzing.Vault.InitialDeposit == 0 {
		return errors.New("invalid config: initial deposit must be positive so supply never reaches zero")
	}
	if d := p.Fuzzing.Vault.DripDuration; d < vault.MinDripDuration || d > vault.MaxDripDuration {
		return errors.Errorf("invalid config: drip duration %d outside [%d, %d]", d, vault.MinDripDuration, vault.MaxDripDuration)
	}
	wad := vault.Wad().Uint64()
	if p.Fuzzing.Vault.MaxSupplyDiff > wad {
		return errors.New("invalid config: max supply diff exceeds 1e18")
	}
	if p.Fuzzing.Vault.RebaseRateCeiling > wad {
		return errors.New("invalid config: rebase rate ceiling exceeds 1e18")
	}
	if p.Fuzzing.Vault.VaultBuffer > wad {
		return errors.New("invalid config: vault buffer exceeds 1e18")
	}
	if p.Fuzzing.Vault.TrusteeFeeBps > vault.MaxTrusteeFeeBps {
		return errors.Errorf("invalid config: trustee fee exceeds %d bps", vault.MaxTrusteeFeeBps)
	}
	if p.Fuzzing.Vault.WithdrawClaimDelay > vault.MaxWithdrawClaimDelay {
		return errors.Errorf("invalid config: withdraw claim delay exceeds %d seconds", vault.MaxWithdrawClaimDelay)
	}
	return nil
}
