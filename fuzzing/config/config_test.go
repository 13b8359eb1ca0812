package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, GetDefaultProjectConfig().Validate())
}

func TestConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charybdis.json")

	written := GetDefaultProjectConfig()
	written.Fuzzing.Seed = 1234
	written.Fuzzing.HandlerWeights = map[string]uint64{"deposit": 200}
	require.NoError(t, written.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, read)
	require.NoError(t, read.Validate())
}

func TestReadMissingFileFails(t *testing.T) {
	_, err := ReadProjectConfigFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProjectConfig)
	}{
		{"zero workers", func(p *ProjectConfig) { p.Fuzzing.Workers = 0 }},
		{"zero sequence length", func(p *ProjectConfig) { p.Fuzzing.SequenceLength = 0 }},
		{"zero actors", func(p *ProjectConfig) { p.Fuzzing.ActorCount = 0 }},
		{"zero actor balance", func(p *ProjectConfig) { p.Fuzzing.InitialActorBalance = 0 }},
		{"zero strategies", func(p *ProjectConfig) { p.Fuzzing.Vault.StrategyCount = 0 }},
		{"zero genesis deposit", func(p *ProjectConfig) { p.Fuzzing.Vault.InitialDeposit = 0 }},
		{"zero drip", func(p *ProjectConfig) { p.Fuzzing.Vault.DripDuration = 0 }},
		{"fee too high", func(p *ProjectConfig) { p.Fuzzing.Vault.TrusteeFeeBps = 5_001 }},
		{"buffer too high", func(p *ProjectConfig) { p.Fuzzing.Vault.VaultBuffer = 2_000_000_000_000_000_000 }},
		{"claim delay too long", func(p *ProjectConfig) { p.Fuzzing.Vault.WithdrawClaimDelay = 31 * 24 * 3600 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectConfig := GetDefaultProjectConfig()
			tt.mutate(projectConfig)
			assert.Error(t, projectConfig.Validate())
		})
	}
}
