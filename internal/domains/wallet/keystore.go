package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/privacylog"
	"github.com/filippo-ma/SolanaPortalFin/internal/securestore"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// keystoreRecord is the JSON payload sealed inside the securestore envelope.
type keystoreRecord struct {
	Mnemonic  string    `json:"mnemonic"`
	CreatedAt time.Time `json:"created_at"`
}

// keystoreProvider keeps the recovery phrase encrypted on disk and grants
// trust per process: silent connects succeed only after one interactive
// unlock. Creating or importing a keystore does not grant trust by itself.
type keystoreProvider struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	signer contracts.TransactionSigner
}

func NewKeystoreProvider(path string, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &keystoreProvider{
		path:   path,
		logger: logger.With(slog.String("component", "keystore")),
	}
}

func (p *keystoreProvider) Name() string { return ProviderKeystore }

func (p *keystoreProvider) Connect(_ context.Context, opts ConnectOptions) (contracts.TransactionSigner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.OnlyIfTrusted {
		if p.signer != nil {
			return p.signer, nil
		}
		if _, err := os.Stat(p.path); err != nil {
			return nil, fmt.Errorf("no keystore: %w", contracts.ErrWalletUnavailable)
		}
		return nil, fmt.Errorf("keystore locked: %w", contracts.ErrSilentConnectFailed)
	}

	if opts.Passphrase == "" {
		return nil, fmt.Errorf("empty passphrase: %w", contracts.ErrConnectionRejected)
	}
	raw, err := securestore.ReadDecryptedFile(p.path, opts.Passphrase)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("no keystore: %w", contracts.ErrWalletUnavailable)
		case errors.Is(err, securestore.ErrAuthFailed):
			return nil, fmt.Errorf("keystore unlock: %w", contracts.ErrConnectionRejected)
		default:
			return nil, fmt.Errorf("keystore unreadable: %w", contracts.ErrWalletUnavailable)
		}
	}

	var rec keystoreRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("keystore record malformed: %w", contracts.ErrWalletUnavailable)
	}
	signer, err := signerFromMnemonic(rec.Mnemonic)
	if err != nil {
		return nil, fmt.Errorf("keystore key derivation: %w", contracts.ErrWalletUnavailable)
	}

	p.signer = signer
	p.logger.Info("keystore unlocked", slog.String("key_fingerprint", privacylog.Fingerprint(signer.PublicKey().Bytes())))
	return signer, nil
}

func (p *keystoreProvider) Create(passphrase string) (models.WalletKeys, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if passphrase == "" {
		return models.WalletKeys{}, errors.New("passphrase must not be empty")
	}
	if _, err := os.Stat(p.path); err == nil {
		return models.WalletKeys{}, ErrKeystoreExists
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return models.WalletKeys{}, fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return models.WalletKeys{}, fmt.Errorf("derive mnemonic: %w", err)
	}

	keys, signer, err := p.writeRecord(mnemonic, passphrase)
	if err != nil {
		return models.WalletKeys{}, err
	}
	// The phrase is shown exactly once, at creation.
	keys.Mnemonic = mnemonic
	p.logger.Info("keystore created", slog.String("key_fingerprint", privacylog.Fingerprint(signer.PublicKey().Bytes())))
	return keys, nil
}

func (p *keystoreProvider) Import(mnemonic, passphrase string) (models.WalletKeys, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if passphrase == "" {
		return models.WalletKeys{}, errors.New("passphrase must not be empty")
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return models.WalletKeys{}, ErrMnemonicInvalid
	}
	if _, err := os.Stat(p.path); err == nil {
		return models.WalletKeys{}, ErrKeystoreExists
	}

	keys, signer, err := p.writeRecord(mnemonic, passphrase)
	if err != nil {
		return models.WalletKeys{}, err
	}
	p.logger.Info("keystore imported", slog.String("key_fingerprint", privacylog.Fingerprint(signer.PublicKey().Bytes())))
	return keys, nil
}

func (p *keystoreProvider) writeRecord(mnemonic, passphrase string) (models.WalletKeys, contracts.TransactionSigner, error) {
	signer, err := signerFromMnemonic(mnemonic)
	if err != nil {
		return models.WalletKeys{}, nil, err
	}
	rec := keystoreRecord{Mnemonic: mnemonic, CreatedAt: time.Now().UTC()}
	if err := securestore.WriteEncryptedJSON(p.path, passphrase, rec); err != nil {
		return models.WalletKeys{}, nil, fmt.Errorf("write keystore: %w", err)
	}
	return models.WalletKeys{Address: signer.PublicKey().String()}, signer, nil
}

func signerFromMnemonic(mnemonic string) (contracts.TransactionSigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrMnemonicInvalid
	}
	seed := bip39.NewSeed(mnemonic, "")
	key := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	return keySigner{key: solana.PrivateKey(key)}, nil
}
