// Package wallet manages the user key pair behind a provider abstraction:
// connect attempts, trust gating and transaction signing.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// Provider names accepted in configuration.
const (
	ProviderKeystore = "keystore"
	ProviderMock     = "mock"
)

var (
	ErrKeystoreExists  = errors.New("keystore already exists")
	ErrMnemonicInvalid = errors.New("mnemonic is not a valid recovery phrase")
)

// ConnectOptions carries the caller's intent for one connect attempt. A
// silent attempt must never prompt; it succeeds only when the provider
// already trusts this process.
type ConnectOptions struct {
	OnlyIfTrusted bool
	Passphrase    string
}

// Provider is one wallet backend. Connect returns a signer on success;
// failures wrap the shared taxonomy sentinels.
type Provider interface {
	Name() string
	Connect(ctx context.Context, opts ConnectOptions) (contracts.TransactionSigner, error)
}

// Lifecycle is implemented by providers that can create or import their key
// material. Callers type-assert; providers without it reject those requests.
type Lifecycle interface {
	Create(passphrase string) (models.WalletKeys, error)
	Import(mnemonic, passphrase string) (models.WalletKeys, error)
}

// ProviderDeps bundles what concrete providers need at construction.
type ProviderDeps struct {
	KeystorePath string
	Logger       *slog.Logger
}

// NewProvider resolves a configured provider name. Unrecognized names yield
// a provider whose every connect reports the wallet as unavailable, so the
// daemon still runs and read-only methods keep working.
func NewProvider(name string, deps ProviderDeps) Provider {
	switch name {
	case ProviderKeystore:
		return NewKeystoreProvider(deps.KeystorePath, deps.Logger)
	case ProviderMock:
		return NewMockProvider()
	default:
		return unavailableProvider{name: name}
	}
}

type unavailableProvider struct {
	name string
}

func (p unavailableProvider) Name() string { return p.name }

func (p unavailableProvider) Connect(context.Context, ConnectOptions) (contracts.TransactionSigner, error) {
	return nil, fmt.Errorf("provider %q: %w", p.name, contracts.ErrWalletUnavailable)
}

// keySigner signs with an in-memory ed25519 key. It fills only its own
// signature slot so it composes with other partial signers on the same
// transaction.
type keySigner struct {
	key solana.PrivateKey
}

func (s keySigner) PublicKey() solana.PublicKey { return s.key.PublicKey() }

func (s keySigner) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	return err
}
