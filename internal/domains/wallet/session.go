package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/telemetry"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// Session tracks the one wallet connection of the daemon. It is the only
// writer of the connected address; everything else reads snapshots. A
// session never downgrades: once connected it stays connected for the
// process lifetime.
type Session struct {
	provider Provider
	logger   *slog.Logger
	metrics  *telemetry.Metrics

	mu        sync.Mutex
	signer    contracts.TransactionSigner
	onConnect func(solana.PublicKey)
}

func NewSession(provider Provider, logger *slog.Logger, metrics *telemetry.Metrics) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		provider: provider,
		logger:   logger.With(slog.String("component", "wallet")),
		metrics:  metrics,
	}
}

// OnConnect registers the hook fired exactly once, when the session first
// obtains a signer. Set it during wiring, before any connect runs.
func (s *Session) OnConnect(fn func(solana.PublicKey)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = fn
}

func (s *Session) Status() models.WalletStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Signer returns the connected signer, or nil before any connect succeeds.
func (s *Session) Signer() contracts.TransactionSigner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signer
}

// CheckExisting attempts a silent reconnect. Refusals come back classified
// alongside the unchanged status: no wallet capability vs present but not
// yet trusted. Both are expected on a fresh start, never fatal.
func (s *Session) CheckExisting(ctx context.Context) (models.WalletStatus, error) {
	s.mu.Lock()
	if s.signer != nil {
		status := s.statusLocked()
		s.mu.Unlock()
		return status, nil
	}
	s.mu.Unlock()

	signer, err := s.provider.Connect(ctx, ConnectOptions{OnlyIfTrusted: true})
	if err != nil {
		kind := contracts.Kind(err)
		s.metrics.RecordWalletConnect("silent", kind)
		s.logger.Debug("silent connect refused", slog.String("kind", kind))
		return s.Status(), err
	}
	s.metrics.RecordWalletConnect("silent", telemetry.OutcomeOK)
	return s.adopt(signer), nil
}

// Connect performs an interactive connect. Calling it while already
// connected is a no-op returning the current status.
func (s *Session) Connect(ctx context.Context, passphrase string) (models.WalletStatus, error) {
	s.mu.Lock()
	if s.signer != nil {
		status := s.statusLocked()
		s.mu.Unlock()
		return status, nil
	}
	s.mu.Unlock()

	signer, err := s.provider.Connect(ctx, ConnectOptions{Passphrase: passphrase})
	if err != nil {
		kind := contracts.Kind(err)
		s.metrics.RecordWalletConnect("interactive", kind)
		s.logger.Warn("wallet connect failed", slog.String("kind", kind))
		return s.Status(), err
	}
	s.metrics.RecordWalletConnect("interactive", telemetry.OutcomeOK)
	return s.adopt(signer), nil
}

func (s *Session) CreateWallet(passphrase string) (models.WalletKeys, error) {
	lc, ok := s.provider.(Lifecycle)
	if !ok {
		return models.WalletKeys{}, fmt.Errorf("provider %q cannot create wallets: %w", s.provider.Name(), contracts.ErrWalletUnavailable)
	}
	return lc.Create(passphrase)
}

func (s *Session) ImportWallet(mnemonic, passphrase string) (models.WalletKeys, error) {
	lc, ok := s.provider.(Lifecycle)
	if !ok {
		return models.WalletKeys{}, fmt.Errorf("provider %q cannot import wallets: %w", s.provider.Name(), contracts.ErrWalletUnavailable)
	}
	return lc.Import(mnemonic, passphrase)
}

// adopt installs the signer on first success and fires the connect hook
// outside the lock. Later successes for the same session are no-ops.
func (s *Session) adopt(signer contracts.TransactionSigner) models.WalletStatus {
	s.mu.Lock()
	first := s.signer == nil
	if first {
		s.signer = signer
	}
	status := s.statusLocked()
	hook := s.onConnect
	s.mu.Unlock()

	if first {
		s.logger.Info("wallet connected", slog.String("provider", s.provider.Name()))
		if hook != nil {
			hook(signer.PublicKey())
		}
	}
	return status
}

func (s *Session) statusLocked() models.WalletStatus {
	status := models.WalletStatus{Provider: s.provider.Name(), Connected: s.signer != nil}
	if s.signer != nil {
		status.Address = s.signer.PublicKey().String()
	}
	return status
}
