package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agora.yaml")

	cfg := DefaultConfig()
	cfg.Solana.Network = "localnet"
	cfg.Program.PollInterval = 250 * time.Millisecond
	cfg.Audit = AuditConfig{Enabled: true, Type: "postgres", DSN: "postgres://localhost/agora"}
	require.NoError(t, cfg.WriteFile(path, false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "poll_interval: 250ms")
	assert.NotContains(t, string(raw), "keypair_base58")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "http://localhost:8899", loaded.Solana.GetRPCEndpoint())

	assert.Error(t, cfg.WriteFile(path, false))
	assert.NoError(t, cfg.WriteFile(path, true))
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agora.yaml")
	require.NoError(t, DefaultConfig().WriteFile(path, false))

	t.Setenv("AGORA_SOLANA_COMMITMENT", "finalized")
	t.Setenv("AGORA_SOLANA_KEYPAIR_BASE58", "secret")
	t.Setenv("AGORA_PROGRAM_CONFIRMATION_TIMEOUT", "5s")
	t.Setenv("AGORA_PROGRAM_ID", LocalProgramID)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "finalized", cfg.Solana.Commitment)
	assert.Equal(t, "secret", cfg.Solana.KeypairBase58)

	ic, err := cfg.Initializer()
	require.NoError(t, err)
	assert.Equal(t, rpc.CommitmentFinalized, ic.Commitment)
	assert.Equal(t, 5*time.Second, ic.ConfirmationTimeout)
	assert.Equal(t, LocalProgramID, ic.ProgramID.String())
}

func TestDefaultHasNoProgramID(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Program.ID)
	require.NoError(t, cfg.Validate())

	_, err := cfg.ProgramID()
	assert.ErrorIs(t, err, ErrProgramIDNotSet)
	_, err = cfg.Initializer()
	assert.ErrorIs(t, err, ErrProgramIDNotSet)

	cfg.Program.ID = LocalProgramID
	programID, err := cfg.ProgramID()
	require.NoError(t, err)
	assert.Equal(t, LocalProgramID, programID.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"program id", func(c *Config) { c.Program.ID = "not-a-key" }},
		{"commitment", func(c *Config) { c.Solana.Commitment = "max" }},
		{"audit type", func(c *Config) { c.Audit = AuditConfig{Enabled: true} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestGetRPCEndpoint(t *testing.T) {
	tests := map[string]string{
		"mainnet":  "https://api.mainnet-beta.solana.com",
		"testnet":  "https://api.testnet.solana.com",
		"devnet":   "https://api.devnet.solana.com",
		"":         "https://api.devnet.solana.com",
		"localnet": "http://localhost:8899",
	}
	for network, expected := range tests {
		c := SolanaConfig{Network: network}
		assert.Equal(t, expected, c.GetRPCEndpoint(), network)
	}

	c := SolanaConfig{RPC: "http://rpc.example", Network: "mainnet"}
	assert.Equal(t, "http://rpc.example", c.GetRPCEndpoint())
}

func TestKeypairPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := SolanaConfig{Keypair: "~/.config/solana/id.json"}
	path, err := c.KeypairPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/solana/id.json"), path)

	c.Keypair = "/tmp/id.json"
	path, err = c.KeypairPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/id.json", path)
}
