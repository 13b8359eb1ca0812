package config

import "github.com/rs/zerolog"

// GetDefaultProjectConfig obtains a default campaign configuration.
func GetDefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Fuzzing: FuzzingConfig{
			Workers:             10,
			Seed:                0,
			SequenceLength:      100,
			TestLimit:           0,
			Timeout:             0,
			CorpusDirectory:     "",
			StopOnFailedTest:    true,
			ShrinkLimit:         5_000,
			ActorCount:          8,
			InitialActorBalance: 1_000_000_000_000, // 1M assets at 6 decimals
			Vault: VaultConfig{
				StrategyCount:         3,
				InitialDeposit:        100_000_000, // 100 assets
				AutoAllocateThreshold: 10_000_000,  // 10 assets
				DripDuration:          24 * 3600,
				MaxSupplyDiff:         100_000_000_000_000_000, // 10%
				RebaseRateCeiling:     1_000_000_000_000_000_000,
				RebaseThreshold:       1_000_000_000_000, // 0.000001 claim tokens
				TrusteeFeeBps:         1_000,
				VaultBuffer:           0,
				WithdrawClaimDelay:    3_600,
				GenesisTimestamp:      1_700_000_000,
			},
		},
		Logging: LoggingConfig{
			Level:        zerolog.InfoLevel,
			LogDirectory: "",
			NoColor:      false,
		},
	}
}
