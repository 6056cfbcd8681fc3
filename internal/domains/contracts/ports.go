package contracts

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/app"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// TransactionSigner is the slice of a connected wallet the chain client
// needs: the public key that pays and authorizes, and a partial-sign over a
// prepared transaction. The private key never crosses this boundary.
type TransactionSigner interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// PortalService is the surface the RPC adapter serves. Implementations must
// be safe for concurrent use; every blocking method takes a context but is
// never cancelled by UI teardown (in-flight chain calls run to completion,
// late resolutions are dropped after Close).
type PortalService interface {
	ChainInfo() models.ChainInfo
	WalletStatus() models.WalletStatus
	CheckExisting(ctx context.Context) (models.WalletStatus, error)
	Connect(ctx context.Context, passphrase string) (models.WalletStatus, error)
	CreateWallet(ctx context.Context, passphrase string) (models.WalletKeys, error)
	ImportWallet(ctx context.Context, mnemonic, passphrase string) (models.WalletKeys, error)
	AccountView() models.AccountView
	Fetch(ctx context.Context) (models.AccountView, error)
	Initialize(ctx context.Context) (models.AccountView, error)
	Submit(ctx context.Context, link string) (models.SubmitReceipt, error)
	SubscribeNotifications(fromSeq int64) ([]app.NotificationEvent, <-chan app.NotificationEvent, func())
	Close()
}
