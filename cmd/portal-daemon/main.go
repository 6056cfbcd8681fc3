package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	rpcadapter "github.com/filippo-ma/SolanaPortalFin/internal/adapters/rpc"
	"github.com/filippo-ma/SolanaPortalFin/internal/app"
	"github.com/filippo-ma/SolanaPortalFin/internal/bootstrap/portalconfig"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/chain"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/portal"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/wallet"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/privacylog"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/telemetry"
	"github.com/filippo-ma/SolanaPortalFin/internal/storage"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	listen := flag.String("listen", "", "JSON-RPC listen address override")
	rpcToken := flag.String("rpc-token", "", "RPC auth token override")
	flag.Parse()
	if *showVersion {
		fmt.Printf("portal-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg := portalconfig.LoadFromPath(*configPath)
	if strings.TrimSpace(*listen) != "" {
		cfg.RPC.Listen = strings.TrimSpace(*listen)
	}
	if strings.TrimSpace(*rpcToken) != "" {
		cfg.RPC.AuthToken = strings.TrimSpace(*rpcToken)
	}
	if err := cfg.Validate(); err != nil {
		failf("invalid configuration: %v", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	metrics := telemetry.New()

	baseKey, err := storage.LoadKeyPair(cfg.Chain.BaseAccountKey)
	if err != nil {
		failf("load base account key: %v (generate one with baseaccount-keygen)", err)
	}
	programID, err := solana.PublicKeyFromBase58(cfg.Chain.ProgramID)
	if err != nil {
		failf("parse program id: %v", err)
	}
	commitment, err := chain.ParseCommitment(cfg.Chain.Commitment)
	if err != nil {
		failf("parse commitment: %v", err)
	}

	client, err := chain.New(chain.Options{
		Backend:    solanarpc.New(cfg.Chain.Endpoint),
		Endpoint:   cfg.Chain.Endpoint,
		Commitment: commitment,
		ProgramID:  programID,
		BaseKey:    baseKey,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		failf("build chain client: %v", err)
	}

	provider := wallet.NewProvider(cfg.Wallet.Provider, wallet.ProviderDeps{
		KeystorePath: cfg.Wallet.KeystorePath,
		Logger:       logger,
	})
	session := wallet.NewSession(provider, logger, metrics)
	hub := app.NewNotificationHub(256)
	service := portal.NewService(client, session, hub, logger, metrics)

	server := rpcadapter.NewServer(service, rpcadapter.Options{
		Listen:         cfg.RPC.Listen,
		AuthToken:      cfg.RPC.AuthToken,
		RateLimitRPS:   cfg.RPC.RateLimitRPS,
		RateLimitBurst: cfg.RPC.RateLimitBurst,
		StreamClients:  cfg.RPC.StreamClients,
		Logger:         logger,
		Metrics:        metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("portal daemon starting",
		"version", version,
		"endpoint", cfg.Chain.Endpoint,
		"commitment", cfg.Chain.Commitment,
		"listen", cfg.RPC.Listen,
	)
	if err := server.Run(ctx); err != nil {
		failf("portal daemon failed: %v", err)
	}
	logger.Info("portal daemon stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(privacylog.WrapHandler(handler))
}

func failf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format+"\n", args...); err != nil {
		os.Exit(1)
	}
	os.Exit(1)
}
