package portal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/app"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/wallet"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/telemetry"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// Budget for the account fetch triggered by a wallet connect. It runs in the
// background; the connect call itself never waits on it.
const initialFetchTimeout = 30 * time.Second

// Service glues the wallet session, the account state machine and the
// notification hub into the one surface the RPC adapter serves. After Close
// no further notifications are published; operations still in flight run to
// completion and their outcomes are dropped.
type Service struct {
	chain     ChainClient
	session   *wallet.Session
	machine   *StateMachine
	submitter *Submitter
	hub       *app.NotificationHub
	logger    *slog.Logger
	metrics   *telemetry.Metrics

	closeMu sync.Mutex
	closed  bool
	bg      sync.WaitGroup
}

var _ contracts.PortalService = (*Service)(nil)

func NewService(client ChainClient, session *wallet.Session, hub *app.NotificationHub, logger *slog.Logger, metrics *telemetry.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	machine := NewStateMachine(client, logger, metrics)
	svc := &Service{
		chain:   client,
		session: session,
		machine: machine,
		hub:     hub,
		logger:  logger.With(slog.String("component", "service")),
		metrics: metrics,
	}
	svc.submitter = NewSubmitter(machine, session.Signer, logger, metrics)
	machine.OnChange(func(view models.AccountView) {
		svc.publish(app.NotifyAccountState, view)
	})
	session.OnConnect(svc.handleConnected)
	return svc
}

func (s *Service) ChainInfo() models.ChainInfo {
	return s.chain.Info()
}

func (s *Service) WalletStatus() models.WalletStatus {
	return s.session.Status()
}

func (s *Service) CheckExisting(ctx context.Context) (models.WalletStatus, error) {
	return s.session.CheckExisting(ctx)
}

func (s *Service) Connect(ctx context.Context, passphrase string) (models.WalletStatus, error) {
	return s.session.Connect(ctx, passphrase)
}

func (s *Service) CreateWallet(_ context.Context, passphrase string) (models.WalletKeys, error) {
	return s.session.CreateWallet(passphrase)
}

func (s *Service) ImportWallet(_ context.Context, mnemonic, passphrase string) (models.WalletKeys, error) {
	return s.session.ImportWallet(mnemonic, passphrase)
}

func (s *Service) AccountView() models.AccountView {
	return s.machine.View()
}

func (s *Service) Fetch(ctx context.Context) (models.AccountView, error) {
	return s.machine.Refresh(ctx)
}

func (s *Service) Initialize(ctx context.Context) (models.AccountView, error) {
	user := s.session.Signer()
	if user == nil {
		return s.machine.View(), fmt.Errorf("initialize: %w", contracts.ErrNotConnected)
	}
	return s.machine.Initialize(ctx, user)
}

func (s *Service) Submit(ctx context.Context, link string) (models.SubmitReceipt, error) {
	receipt, err := s.submitter.Submit(ctx, link)
	if err != nil {
		return models.SubmitReceipt{}, err
	}
	s.publish(app.NotifyGifSubmitted, receipt)
	return receipt, nil
}

func (s *Service) SubscribeNotifications(fromSeq int64) ([]app.NotificationEvent, <-chan app.NotificationEvent, func()) {
	return s.hub.Subscribe(fromSeq)
}

func (s *Service) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	s.closeMu.Unlock()

	s.bg.Wait()
	s.logger.Info("portal service closed")
}

// handleConnected runs when the session first obtains a signer: announce the
// connection and warm the account replica off the caller's path.
func (s *Service) handleConnected(solana.PublicKey) {
	s.publish(app.NotifyWalletConnected, s.session.Status())
	s.spawn(s.initialFetch)
}

func (s *Service) initialFetch() {
	ctx, cancel := context.WithTimeout(context.Background(), initialFetchTimeout)
	defer cancel()
	if _, err := s.machine.Refresh(ctx); err != nil {
		s.logger.Warn("initial account fetch failed", slog.String("kind", contracts.Kind(err)))
	}
}

func (s *Service) publish(method string, payload any) {
	s.closeMu.Lock()
	closed := s.closed
	s.closeMu.Unlock()
	if closed {
		s.logger.Debug("notification dropped after close", slog.String("method", method))
		return
	}
	s.hub.Publish(method, payload)
	s.metrics.RecordNotification()
}

func (s *Service) spawn(fn func()) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn()
	}()
}
