package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lugondev/go-agora/internal/initializer"
)

// LocalProgramID is the address the in-process ledger serves the governor
// program at when no program id is configured.
const LocalProgramID = "4pUwRrB9eVJLfYboBV4Xj6dB7HSuaGJri39B14bYxhVX"

// ErrProgramIDNotSet is returned when a cluster operation needs program.id.
var ErrProgramIDNotSet = errors.New("program.id is not set")

// EnvPrefix prefixes environment overrides, e.g. AGORA_SOLANA_NETWORK.
const EnvPrefix = "AGORA"

// Config holds all configuration for the application
type Config struct {
	Solana  SolanaConfig  `mapstructure:"solana" yaml:"solana"`
	Program ProgramConfig `mapstructure:"program" yaml:"program"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Audit   AuditConfig   `mapstructure:"audit" yaml:"audit"`
}

// SolanaConfig holds Solana-specific configuration
type SolanaConfig struct {
	RPC        string `mapstructure:"rpc" yaml:"rpc"`
	Network    string `mapstructure:"network" yaml:"network"`
	Timeout    int    `mapstructure:"timeout" yaml:"timeout"` // in seconds
	Commitment string `mapstructure:"commitment" yaml:"commitment"`

	// Keypair is a keypair file in Solana CLI format.
	Keypair string `mapstructure:"keypair" yaml:"keypair"`

	// KeypairBase58 overrides Keypair. Set it through the environment only.
	KeypairBase58 string `mapstructure:"keypair_base58" yaml:"-"`
}

// ProgramConfig holds the governor program settings.
type ProgramConfig struct {
	ID                  string        `mapstructure:"id" yaml:"id"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout" yaml:"confirmation_timeout"`
	PollInterval        time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// MarshalYAML writes durations in their string form.
func (p ProgramConfig) MarshalYAML() (any, error) {
	return struct {
		ID                  string `yaml:"id"`
		ConfirmationTimeout string `yaml:"confirmation_timeout"`
		PollInterval        string `yaml:"poll_interval"`
	}{p.ID, p.ConfirmationTimeout.String(), p.PollInterval.String()}, nil
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

// AuditConfig selects the store submissions are recorded in.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Type is a registered storage type: memory, postgres or mongo.
	Type     string `mapstructure:"type" yaml:"type"`
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Database string `mapstructure:"database" yaml:"database"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			Network:    "devnet",
			Timeout:    30,
			Commitment: string(rpc.CommitmentConfirmed),
			Keypair:    "~/.config/solana/id.json",
		},
		Program: ProgramConfig{
			ConfirmationTimeout: 60 * time.Second,
			PollInterval:        500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Audit: AuditConfig{
			Type: "memory",
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".agora")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables can override keys
// that are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("solana.rpc", d.Solana.RPC)
	v.SetDefault("solana.network", d.Solana.Network)
	v.SetDefault("solana.timeout", d.Solana.Timeout)
	v.SetDefault("solana.commitment", d.Solana.Commitment)
	v.SetDefault("solana.keypair", d.Solana.Keypair)
	v.SetDefault("solana.keypair_base58", d.Solana.KeypairBase58)
	v.SetDefault("program.id", d.Program.ID)
	v.SetDefault("program.confirmation_timeout", d.Program.ConfirmationTimeout)
	v.SetDefault("program.poll_interval", d.Program.PollInterval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.type", d.Audit.Type)
	v.SetDefault("audit.dsn", d.Audit.DSN)
	v.SetDefault("audit.database", d.Audit.Database)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Program.ID != "" {
		if _, err := solana.PublicKeyFromBase58(c.Program.ID); err != nil {
			return fmt.Errorf("invalid program id %q: %w", c.Program.ID, err)
		}
	}
	switch rpc.CommitmentType(c.Solana.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", c.Solana.Commitment)
	}
	if c.Audit.Enabled && c.Audit.Type == "" {
		return errors.New("audit.type is required when audit is enabled")
	}
	return nil
}

// ProgramID parses program.id. There is no default deployment, so an unset
// id yields ErrProgramIDNotSet.
func (c *Config) ProgramID() (solana.PublicKey, error) {
	if c.Program.ID == "" {
		return solana.PublicKey{}, ErrProgramIDNotSet
	}
	programID, err := solana.PublicKeyFromBase58(c.Program.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", c.Program.ID, err)
	}
	return programID, nil
}

// Initializer returns the adapter configuration.
func (c *Config) Initializer() (initializer.Config, error) {
	programID, err := c.ProgramID()
	if err != nil {
		return initializer.Config{}, err
	}
	return initializer.Config{
		ProgramID:           programID,
		Commitment:          rpc.CommitmentType(c.Solana.Commitment),
		ConfirmationTimeout: c.Program.ConfirmationTimeout,
		PollInterval:        c.Program.PollInterval,
	}, nil
}

// WriteFile writes c as YAML. Existing files are kept unless overwrite is set.
func (c *Config) WriteFile(path string, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	return f.Close()
}

// GetRPCEndpoint returns the RPC endpoint for the configured network
func (c *SolanaConfig) GetRPCEndpoint() string {
	if c.RPC != "" {
		return c.RPC
	}

	switch c.Network {
	case "mainnet", "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet", "localhost":
		return "http://localhost:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}

// KeypairPath returns Keypair with a leading ~ expanded.
func (c *SolanaConfig) KeypairPath() (string, error) {
	path, ok := strings.CutPrefix(c.Keypair, "~/")
	if !ok {
		return c.Keypair, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, path), nil
}
