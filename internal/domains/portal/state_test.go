package portal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/chain"
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// fakeChain acts like a tiny in-memory rendition of the deployed program:
// fetch fails until initialized, appends grow the list. Scripted errors take
// precedence so failure paths stay easy to stage.
type fakeChain struct {
	mu          sync.Mutex
	initialized bool
	total       uint64
	entries     []models.GifEntry

	fetchErr  error
	initErr   error
	appendErr error

	fetchCalls  int
	initCalls   int
	appendCalls int

	opDelay     time.Duration
	inFlight    int
	maxInFlight int
}

func (f *fakeChain) Info() models.ChainInfo {
	return models.ChainInfo{
		Endpoint:    "http://127.0.0.1:8899",
		Commitment:  "processed",
		ProgramID:   "program",
		BaseAccount: "base",
	}
}

func (f *fakeChain) FetchAccount(context.Context) (*chain.AccountData, error) {
	exit := f.enter()
	defer exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if !f.initialized {
		return nil, fmt.Errorf("base account: %w", contracts.ErrAccountNotFound)
	}
	return &chain.AccountData{TotalGifs: f.total, Entries: slices.Clone(f.entries)}, nil
}

func (f *fakeChain) InitializeAccount(context.Context, contracts.TransactionSigner) (solana.Signature, error) {
	exit := f.enter()
	defer exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.initErr != nil {
		return solana.Signature{}, f.initErr
	}
	f.initialized = true
	f.total = 0
	f.entries = nil
	return solana.Signature{1}, nil
}

func (f *fakeChain) AppendEntry(_ context.Context, user contracts.TransactionSigner, link string) (solana.Signature, error) {
	exit := f.enter()
	defer exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	if f.appendErr != nil {
		return solana.Signature{}, f.appendErr
	}
	f.entries = append(f.entries, models.GifEntry{Link: link, SubmittedBy: user.PublicKey().String()})
	f.total++
	return solana.Signature{byte(f.total)}, nil
}

func (f *fakeChain) enter() func() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.opDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

type stubSigner struct {
	pub solana.PublicKey
}

func (s stubSigner) PublicKey() solana.PublicKey { return s.pub }

func (s stubSigner) SignTransaction(context.Context, *solana.Transaction) error { return nil }

func newStubSigner(t *testing.T) stubSigner {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return stubSigner{pub: key.PublicKey()}
}

func TestViewStartsUnknown(t *testing.T) {
	m := NewStateMachine(&fakeChain{}, nil, nil)
	view := m.View()
	if view.Status != models.AccountUnknown {
		t.Errorf("status = %q, want unknown", view.Status)
	}
	if !view.SyncedAt.IsZero() {
		t.Error("synced_at set before any fetch")
	}
}

func TestRefreshMovesReady(t *testing.T) {
	fake := &fakeChain{initialized: true, total: 1, entries: []models.GifEntry{{Link: "https://a.gif", SubmittedBy: "addr"}}}
	m := NewStateMachine(fake, nil, nil)

	view, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if view.Status != models.AccountReady || view.TotalGifs != 1 || len(view.Gifs) != 1 {
		t.Errorf("view = %+v", view)
	}
	if view.SyncedAt.IsZero() {
		t.Error("synced_at not stamped")
	}

	// Mutating a returned snapshot must not leak into the replica.
	view.Gifs[0].Link = "tampered"
	if got := m.View().Gifs[0].Link; got != "https://a.gif" {
		t.Errorf("replica entry = %q after snapshot mutation", got)
	}
}

func TestRefreshMissingMovesUninitialized(t *testing.T) {
	m := NewStateMachine(&fakeChain{}, nil, nil)

	view, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected absence must not error, got %v", err)
	}
	if view.Status != models.AccountUninitialized {
		t.Errorf("status = %q, want uninitialized", view.Status)
	}
}

func TestRefreshTransportErrorKeepsState(t *testing.T) {
	fake := &fakeChain{initialized: true, total: 1, entries: []models.GifEntry{{Link: "https://a.gif"}}}
	m := NewStateMachine(fake, nil, nil)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	fake.mu.Lock()
	fake.fetchErr = fmt.Errorf("fetch: %w", contracts.ErrRPCFailure)
	fake.mu.Unlock()

	view, err := m.Refresh(context.Background())
	if !errors.Is(err, contracts.ErrRPCFailure) {
		t.Fatalf("err = %v, want ErrRPCFailure", err)
	}
	if view.Status != models.AccountReady || len(view.Gifs) != 1 {
		t.Errorf("transport failure clobbered the replica: %+v", view)
	}
}

func TestInitializeMovesReadyWithoutRefetch(t *testing.T) {
	fake := &fakeChain{}
	m := NewStateMachine(fake, nil, nil)

	view, err := m.Initialize(context.Background(), newStubSigner(t))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if view.Status != models.AccountReady {
		t.Errorf("status = %q, want ready", view.Status)
	}
	if view.TotalGifs != 0 || len(view.Gifs) != 0 {
		t.Errorf("view = %+v, want empty ready state", view)
	}
	if view.Gifs == nil {
		t.Error("ready state must carry an empty list, not none")
	}
	if fake.fetchCalls != 0 {
		t.Errorf("fetch calls = %d, want 0", fake.fetchCalls)
	}
	if fake.initCalls != 1 {
		t.Errorf("init calls = %d, want 1", fake.initCalls)
	}
}

func TestInitializeNoopWhenReady(t *testing.T) {
	fake := &fakeChain{initialized: true}
	m := NewStateMachine(fake, nil, nil)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := m.Initialize(context.Background(), newStubSigner(t)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if fake.initCalls != 0 {
		t.Errorf("init calls = %d, want 0 on ready account", fake.initCalls)
	}
}

func TestInitializeFailureKeepsState(t *testing.T) {
	fake := &fakeChain{initErr: fmt.Errorf("node: %w", contracts.ErrSubmissionRejected)}
	m := NewStateMachine(fake, nil, nil)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	view, err := m.Initialize(context.Background(), newStubSigner(t))
	if !errors.Is(err, contracts.ErrSubmissionRejected) {
		t.Fatalf("err = %v, want ErrSubmissionRejected", err)
	}
	if view.Status != models.AccountUninitialized {
		t.Errorf("status = %q, want uninitialized preserved", view.Status)
	}
}

func TestAppendRefetchesWholesale(t *testing.T) {
	fake := &fakeChain{initialized: true, total: 1, entries: []models.GifEntry{{Link: "https://a.gif", SubmittedBy: "x"}}}
	m := NewStateMachine(fake, nil, nil)
	user := newStubSigner(t)

	receipt, err := m.Append(context.Background(), user, "https://b.gif")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if receipt.Signature == "" || receipt.Link != "https://b.gif" {
		t.Errorf("receipt = %+v", receipt)
	}
	view := m.View()
	if view.TotalGifs != 2 || len(view.Gifs) != 2 {
		t.Fatalf("view = %+v, want both entries", view)
	}
	if view.Gifs[1].SubmittedBy != user.PublicKey().String() {
		t.Errorf("submitter = %q", view.Gifs[1].SubmittedBy)
	}
	if fake.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want exactly one refetch", fake.fetchCalls)
	}
}

func TestAppendFailureLeavesStateUntouched(t *testing.T) {
	fake := &fakeChain{initialized: true, appendErr: fmt.Errorf("node: %w", contracts.ErrSubmissionRejected)}
	m := NewStateMachine(fake, nil, nil)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := m.View()

	_, err := m.Append(context.Background(), newStubSigner(t), "https://b.gif")
	if !errors.Is(err, contracts.ErrSubmissionRejected) {
		t.Fatalf("err = %v, want ErrSubmissionRejected", err)
	}
	after := m.View()
	if after.Status != before.Status || after.TotalGifs != before.TotalGifs || len(after.Gifs) != len(before.Gifs) {
		t.Errorf("state changed on failed append: %+v -> %+v", before, after)
	}
	if fake.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want no refetch after failed append", fake.fetchCalls)
	}
}

func TestAppendKeepsReceiptWhenRefetchFails(t *testing.T) {
	fake := &fakeChain{initialized: true}
	m := NewStateMachine(fake, nil, nil)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fake.mu.Lock()
	fake.fetchErr = fmt.Errorf("fetch: %w", contracts.ErrRPCFailure)
	fake.mu.Unlock()

	receipt, err := m.Append(context.Background(), newStubSigner(t), "https://b.gif")
	if err != nil {
		t.Fatalf("append must stand when only the refetch fails, got %v", err)
	}
	if receipt.Signature == "" {
		t.Error("receipt missing despite successful append")
	}
}

func TestChainOpsSingleFlight(t *testing.T) {
	fake := &fakeChain{initialized: true, opDelay: 2 * time.Millisecond}
	m := NewStateMachine(fake, nil, nil)
	user := newStubSigner(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = m.Refresh(context.Background())
		}()
		go func() {
			defer wg.Done()
			_, _ = m.Append(context.Background(), user, "https://x.gif")
		}()
	}
	wg.Wait()

	if fake.maxInFlight != 1 {
		t.Errorf("max concurrent chain ops = %d, want 1", fake.maxInFlight)
	}
}

func TestOnChangeFiresOnlyOnTransitions(t *testing.T) {
	fake := &fakeChain{}
	m := NewStateMachine(fake, nil, nil)
	var mu sync.Mutex
	var seen []models.AccountStatus
	m.OnChange(func(view models.AccountView) {
		mu.Lock()
		seen = append(seen, view.Status)
		mu.Unlock()
	})

	ctx := context.Background()
	m.Refresh(ctx)                                   // unknown -> uninitialized
	m.Refresh(ctx)                                   // uninitialized again: no event
	m.Initialize(ctx, newStubSigner(t))              // -> ready empty
	m.Refresh(ctx)                                   // same empty content: no event
	m.Append(ctx, newStubSigner(t), "https://a.gif") // content change

	want := []models.AccountStatus{
		models.AccountUninitialized,
		models.AccountReady,
		models.AccountReady,
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(seen, want) {
		t.Errorf("change events = %v, want %v", seen, want)
	}
}

func TestSubmitterValidation(t *testing.T) {
	fake := &fakeChain{initialized: true}
	m := NewStateMachine(fake, nil, nil)

	var signer contracts.TransactionSigner
	sub := NewSubmitter(m, func() contracts.TransactionSigner { return signer }, nil, nil)
	ctx := context.Background()

	if _, err := sub.Submit(ctx, "   "); !errors.Is(err, contracts.ErrEmptyInput) {
		t.Errorf("blank input err = %v, want ErrEmptyInput", err)
	}
	if _, err := sub.Submit(ctx, "https://a.gif"); !errors.Is(err, contracts.ErrNotConnected) {
		t.Errorf("no signer err = %v, want ErrNotConnected", err)
	}
	if fake.appendCalls != 0 {
		t.Fatalf("append calls = %d, chain reached on invalid submissions", fake.appendCalls)
	}

	signer = newStubSigner(t)
	receipt, err := sub.Submit(ctx, "  https://a.gif  ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Link != "https://a.gif" {
		t.Errorf("link = %q, want trimmed", receipt.Link)
	}
	if fake.appendCalls != 1 {
		t.Errorf("append calls = %d, want 1", fake.appendCalls)
	}
}
