// Package portalconfig loads the daemon configuration: defaults first, then
// an optional YAML file, then environment overrides. Loading never fails;
// Validate decides whether the result is runnable.
package portalconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/chain"
	"github.com/filippo-ma/SolanaPortalFin/internal/storage"
)

// EnvRPCEndpoint overrides the node endpoint, the one knob switching a
// deployment between devnet and a local validator without editing files.
const EnvRPCEndpoint = "SOLPORTAL_RPC_ENDPOINT"

const (
	defaultEndpoint   = "https://api.devnet.solana.com"
	defaultCommitment = "processed"
	defaultListen     = "127.0.0.1:8790"

	defaultRateLimitRPS   = 10
	defaultRateLimitBurst = 20
	defaultStreamClients  = 8
)

type Config struct {
	Chain  ChainConfig  `yaml:"chain"`
	Wallet WalletConfig `yaml:"wallet"`
	RPC    RPCConfig    `yaml:"rpc"`
	Log    LogConfig    `yaml:"log"`
}

type ChainConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Commitment     string `yaml:"commitment"`
	ProgramID      string `yaml:"programId"`
	BaseAccountKey string `yaml:"baseAccountKey"`
}

type WalletConfig struct {
	Provider     string `yaml:"provider"`
	KeystorePath string `yaml:"keystorePath"`
}

type RPCConfig struct {
	Listen         string  `yaml:"listen"`
	AuthToken      string  `yaml:"authToken"`
	RateLimitRPS   float64 `yaml:"rateLimitRps"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`
	StreamClients  int     `yaml:"streamClients"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Chain: ChainConfig{
			Endpoint:       defaultEndpoint,
			Commitment:     defaultCommitment,
			BaseAccountKey: storage.DefaultBaseAccountKeyPath(),
		},
		Wallet: WalletConfig{
			Provider:     "keystore",
			KeystorePath: storage.DefaultKeystorePath(),
		},
		RPC: RPCConfig{
			Listen:         defaultListen,
			RateLimitRPS:   defaultRateLimitRPS,
			RateLimitBurst: defaultRateLimitBurst,
			StreamClients:  defaultStreamClients,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFromPath reads the first parseable candidate file over the defaults.
// An explicit path narrows the candidates to exactly that file.
func LoadFromPath(configPath string) Config {
	cfg := DefaultConfig()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/config.yaml",
			"config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		merged.normalize()
		return merged
	}

	ApplyEnvOverrides(&cfg)
	cfg.normalize()
	return cfg
}

// Merge copies the fields src actually sets onto dst.
func Merge(dst *Config, src Config) {
	if src.Chain.Endpoint != "" {
		dst.Chain.Endpoint = src.Chain.Endpoint
	}
	if src.Chain.Commitment != "" {
		dst.Chain.Commitment = src.Chain.Commitment
	}
	if src.Chain.ProgramID != "" {
		dst.Chain.ProgramID = src.Chain.ProgramID
	}
	if src.Chain.BaseAccountKey != "" {
		dst.Chain.BaseAccountKey = src.Chain.BaseAccountKey
	}
	if src.Wallet.Provider != "" {
		dst.Wallet.Provider = src.Wallet.Provider
	}
	if src.Wallet.KeystorePath != "" {
		dst.Wallet.KeystorePath = src.Wallet.KeystorePath
	}
	if src.RPC.Listen != "" {
		dst.RPC.Listen = src.RPC.Listen
	}
	if src.RPC.AuthToken != "" {
		dst.RPC.AuthToken = src.RPC.AuthToken
	}
	if src.RPC.RateLimitRPS != 0 {
		dst.RPC.RateLimitRPS = src.RPC.RateLimitRPS
	}
	if src.RPC.RateLimitBurst != 0 {
		dst.RPC.RateLimitBurst = src.RPC.RateLimitBurst
	}
	if src.RPC.StreamClients != 0 {
		dst.RPC.StreamClients = src.RPC.StreamClients
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if endpoint := strings.TrimSpace(os.Getenv(EnvRPCEndpoint)); endpoint != "" {
		cfg.Chain.Endpoint = endpoint
	}
}

func (c *Config) normalize() {
	c.Chain.Endpoint = strings.TrimSpace(c.Chain.Endpoint)
	c.Chain.Commitment = strings.ToLower(strings.TrimSpace(c.Chain.Commitment))
	c.Chain.ProgramID = strings.TrimSpace(c.Chain.ProgramID)
	c.Wallet.Provider = strings.ToLower(strings.TrimSpace(c.Wallet.Provider))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))

	if c.Chain.Commitment == "" {
		c.Chain.Commitment = defaultCommitment
	}
	if c.RPC.RateLimitRPS <= 0 {
		c.RPC.RateLimitRPS = defaultRateLimitRPS
	}
	if c.RPC.RateLimitBurst < 1 {
		c.RPC.RateLimitBurst = defaultRateLimitBurst
	}
	if c.RPC.StreamClients < 1 {
		c.RPC.StreamClients = defaultStreamClients
	}
}

// Validate reports the first reason the configuration cannot run.
func (c Config) Validate() error {
	if c.Chain.Endpoint == "" {
		return fmt.Errorf("config: chain.endpoint is required")
	}
	if _, err := chain.ParseCommitment(c.Chain.Commitment); err != nil {
		return fmt.Errorf("config: chain.commitment: %w", err)
	}
	if c.Chain.ProgramID == "" {
		return fmt.Errorf("config: chain.programId is required")
	}
	if _, err := solana.PublicKeyFromBase58(c.Chain.ProgramID); err != nil {
		return fmt.Errorf("config: chain.programId: %w", err)
	}
	if c.Chain.BaseAccountKey == "" {
		return fmt.Errorf("config: chain.baseAccountKey is required")
	}
	if c.Wallet.Provider == "" {
		return fmt.Errorf("config: wallet.provider is required")
	}
	if c.RPC.Listen == "" {
		return fmt.Errorf("config: rpc.listen is required")
	}
	return nil
}
