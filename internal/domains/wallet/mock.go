package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
)

// mockProvider backs development setups without key material on disk. It
// mints a throwaway key on first interactive connect and mimics the trust
// gate: silent connects fail until one interactive connect succeeded.
type mockProvider struct {
	mu      sync.Mutex
	signer  contracts.TransactionSigner
	trusted bool
}

func NewMockProvider() Provider {
	return &mockProvider{}
}

func (p *mockProvider) Name() string { return ProviderMock }

func (p *mockProvider) Connect(_ context.Context, opts ConnectOptions) (contracts.TransactionSigner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.OnlyIfTrusted && !p.trusted {
		return nil, fmt.Errorf("mock wallet untrusted: %w", contracts.ErrSilentConnectFailed)
	}
	if p.signer == nil {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("mint mock key: %w", err)
		}
		p.signer = keySigner{key: key}
	}
	p.trusted = true
	return p.signer, nil
}
