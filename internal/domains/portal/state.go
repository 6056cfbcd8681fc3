// Package portal holds the daemon's replica of the on-chain portal account
// and the rules for mutating it.
package portal

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/chain"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/telemetry"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// ChainClient is the slice of the chain layer the portal consumes.
type ChainClient interface {
	Info() models.ChainInfo
	FetchAccount(ctx context.Context) (*chain.AccountData, error)
	InitializeAccount(ctx context.Context, user contracts.TransactionSigner) (solana.Signature, error)
	AppendEntry(ctx context.Context, user contracts.TransactionSigner, link string) (solana.Signature, error)
}

// StateMachine tracks what the daemon believes about the single program
// account: unknown until the first fetch resolves, then ready or awaiting
// initialization. All chain operations funnel through one guard so exactly
// one fetch, initialize or append is in flight at a time.
type StateMachine struct {
	chain   ChainClient
	logger  *slog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time

	opMu sync.Mutex

	mu       sync.RWMutex
	status   models.AccountStatus
	total    uint64
	entries  []models.GifEntry
	syncedAt time.Time
	onChange func(models.AccountView)
}

func NewStateMachine(client ChainClient, logger *slog.Logger, metrics *telemetry.Metrics) *StateMachine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateMachine{
		chain:   client,
		logger:  logger.With(slog.String("component", "portal")),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
		status:  models.AccountUnknown,
	}
}

// OnChange registers the hook fired after every applied transition that
// altered the view. Set it during wiring, before operations run.
func (m *StateMachine) OnChange(fn func(models.AccountView)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// View returns the current snapshot. The entry slice is a copy; callers may
// keep it.
func (m *StateMachine) View() models.AccountView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewLocked()
}

// Refresh fetches the account and applies the outcome. Expected absence
// (missing account, foreign data) moves the state to uninitialized and is
// not an error; only transport failures are, and they leave the state as it
// was.
func (m *StateMachine) Refresh(ctx context.Context) (models.AccountView, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.refresh(ctx)
}

// Initialize creates the program account. Calling it while the account is
// already ready is a no-op. On success the replica becomes an empty ready
// list without refetching: the freshly created account is empty by
// construction, and an immediate refetch could still miss it at low
// commitment levels.
func (m *StateMachine) Initialize(ctx context.Context, user contracts.TransactionSigner) (models.AccountView, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if view := m.View(); view.Status == models.AccountReady {
		return view, nil
	}
	if _, err := m.chain.InitializeAccount(ctx, user); err != nil {
		return m.View(), err
	}
	return m.applyReady(&chain.AccountData{}), nil
}

// Append submits one entry and, on success, refreshes the whole replica from
// chain. A failed refresh after a successful append keeps the receipt: the
// submission happened, the replica is merely stale until the next fetch.
func (m *StateMachine) Append(ctx context.Context, user contracts.TransactionSigner, link string) (models.SubmitReceipt, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	sig, err := m.chain.AppendEntry(ctx, user, link)
	if err != nil {
		return models.SubmitReceipt{}, err
	}
	receipt := models.SubmitReceipt{
		Signature:   sig.String(),
		Link:        link,
		SubmittedAt: m.now(),
	}
	if _, err := m.refresh(ctx); err != nil {
		m.logger.Warn("refresh after append failed", slog.String("kind", contracts.Kind(err)))
	}
	return receipt, nil
}

func (m *StateMachine) refresh(ctx context.Context) (models.AccountView, error) {
	data, err := m.chain.FetchAccount(ctx)
	switch {
	case err == nil:
		return m.applyReady(data), nil
	case contracts.NeedsInitialization(err):
		m.logger.Info("account awaits initialization", slog.String("kind", contracts.Kind(err)))
		return m.applyUninitialized(), nil
	default:
		return m.View(), err
	}
}

func (m *StateMachine) applyReady(data *chain.AccountData) models.AccountView {
	entries := data.Entries
	if entries == nil {
		entries = []models.GifEntry{}
	}

	m.mu.Lock()
	changed := m.status != models.AccountReady ||
		m.total != data.TotalGifs ||
		!slices.Equal(m.entries, entries)
	m.status = models.AccountReady
	m.total = data.TotalGifs
	m.entries = slices.Clone(entries)
	m.syncedAt = m.now()
	view := m.viewLocked()
	hook := m.onChange
	m.mu.Unlock()

	m.metrics.SetAccountStatus(statusLevel(models.AccountReady))
	if changed && hook != nil {
		hook(view)
	}
	return view
}

func (m *StateMachine) applyUninitialized() models.AccountView {
	m.mu.Lock()
	changed := m.status != models.AccountUninitialized
	m.status = models.AccountUninitialized
	m.total = 0
	m.entries = nil
	m.syncedAt = m.now()
	view := m.viewLocked()
	hook := m.onChange
	m.mu.Unlock()

	m.metrics.SetAccountStatus(statusLevel(models.AccountUninitialized))
	if changed && hook != nil {
		hook(view)
	}
	return view
}

func (m *StateMachine) viewLocked() models.AccountView {
	return models.AccountView{
		Status:    m.status,
		TotalGifs: m.total,
		Gifs:      slices.Clone(m.entries),
		SyncedAt:  m.syncedAt,
	}
}

func statusLevel(status models.AccountStatus) float64 {
	switch status {
	case models.AccountReady:
		return 2
	case models.AccountUninitialized:
		return 1
	default:
		return 0
	}
}
