package portalconfig

import (
	"os"
	"path/filepath"
	"testing"
)

const testProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Chain.ProgramID = testProgramID
	return cfg
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))

	if cfg.Chain.Endpoint != "https://api.devnet.solana.com" {
		t.Fatalf("expected devnet endpoint, got %q", cfg.Chain.Endpoint)
	}
	if cfg.Chain.Commitment != "processed" {
		t.Fatalf("expected processed commitment, got %q", cfg.Chain.Commitment)
	}
	if cfg.RPC.Listen != "127.0.0.1:8790" {
		t.Fatalf("expected loopback listen, got %q", cfg.RPC.Listen)
	}
	if cfg.Wallet.Provider != "keystore" {
		t.Fatalf("expected keystore provider, got %q", cfg.Wallet.Provider)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
chain:
  endpoint: http://127.0.0.1:8899
  commitment: Confirmed
  programId: ` + testProgramID + `
rpc:
  listen: 127.0.0.1:9999
log:
  level: DEBUG
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.Chain.Endpoint != "http://127.0.0.1:8899" {
		t.Fatalf("expected file endpoint, got %q", cfg.Chain.Endpoint)
	}
	if cfg.Chain.Commitment != "confirmed" {
		t.Fatalf("expected lowercased commitment, got %q", cfg.Chain.Commitment)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.Log.Level)
	}
	// Fields the file does not set keep their defaults.
	if cfg.Wallet.Provider != "keystore" {
		t.Fatalf("expected default provider preserved, got %q", cfg.Wallet.Provider)
	}
	if cfg.RPC.RateLimitRPS != 10 {
		t.Fatalf("expected default rate limit preserved, got %v", cfg.RPC.RateLimitRPS)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("merged config must validate: %v", err)
	}
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	t.Setenv(EnvRPCEndpoint, "http://127.0.0.1:8899")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chain:\n  endpoint: https://elsewhere.example\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.Chain.Endpoint != "http://127.0.0.1:8899" {
		t.Fatalf("expected env endpoint to win, got %q", cfg.Chain.Endpoint)
	}
}

func TestLoadIgnoresMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":: not yaml ::"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.Chain.Endpoint != "https://api.devnet.solana.com" {
		t.Fatalf("malformed file must fall back to defaults, got %q", cfg.Chain.Endpoint)
	}
}

func TestNormalizeClampsLimits(t *testing.T) {
	cfg := validConfig()
	cfg.RPC.RateLimitRPS = -3
	cfg.RPC.RateLimitBurst = 0
	cfg.RPC.StreamClients = -1
	cfg.normalize()

	if cfg.RPC.RateLimitRPS != 10 {
		t.Fatalf("expected clamped rps, got %v", cfg.RPC.RateLimitRPS)
	}
	if cfg.RPC.RateLimitBurst != 20 {
		t.Fatalf("expected clamped burst, got %d", cfg.RPC.RateLimitBurst)
	}
	if cfg.RPC.StreamClients != 8 {
		t.Fatalf("expected clamped stream clients, got %d", cfg.RPC.StreamClients)
	}
}

func TestValidateRejectsUnknownCommitment(t *testing.T) {
	cfg := validConfig()
	cfg.Chain.Commitment = "recent"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown commitment must not validate")
	}
}

func TestValidateRequiresProgramID(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing programId must not validate")
	}

	cfg.Chain.ProgramID = "not-base58!"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unparseable programId must not validate")
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
