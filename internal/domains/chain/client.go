package chain

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/telemetry"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// Backend is the node RPC surface the client depends on. *rpc.Client
// satisfies it; tests substitute a scripted fake.
type Backend interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

type Options struct {
	Backend    Backend
	Endpoint   string
	Commitment rpc.CommitmentType
	ProgramID  solana.PublicKey
	BaseKey    solana.PrivateKey
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
}

// Client talks to the deployed GIF program through a single node endpoint.
// It holds the base account key pair so it can co-sign the account creation
// instruction; user signatures always come from the caller's signer.
type Client struct {
	backend     Backend
	endpoint    string
	commitment  rpc.CommitmentType
	programID   solana.PublicKey
	baseKey     solana.PrivateKey
	baseAccount solana.PublicKey
	idl         *IDL
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

func New(opts Options) (*Client, error) {
	if opts.Backend == nil {
		return nil, errors.New("chain: backend is required")
	}
	if opts.ProgramID.IsZero() {
		return nil, errors.New("chain: program id is required")
	}
	if len(opts.BaseKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("chain: base account key must be %d bytes", ed25519.PrivateKeySize)
	}
	idl, err := loadIDL()
	if err != nil {
		return nil, err
	}
	commitment := opts.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentProcessed
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backend:     opts.Backend,
		endpoint:    opts.Endpoint,
		commitment:  commitment,
		programID:   opts.ProgramID,
		baseKey:     opts.BaseKey,
		baseAccount: opts.BaseKey.PublicKey(),
		idl:         idl,
		logger:      logger.With(slog.String("component", "chain")),
		metrics:     opts.Metrics,
	}, nil
}

func (c *Client) Info() models.ChainInfo {
	return models.ChainInfo{
		Endpoint:    c.endpoint,
		Commitment:  string(c.commitment),
		ProgramID:   c.programID.String(),
		BaseAccount: c.baseAccount.String(),
	}
}

func (c *Client) BaseAccount() solana.PublicKey { return c.baseAccount }

// FetchAccount reads and decodes the program account at the configured
// commitment. A missing account maps to ErrAccountNotFound and undecodable
// data to ErrDeserializationFailure; both mean the account needs to be
// created before it can serve entries.
func (c *Client) FetchAccount(ctx context.Context) (out *AccountData, err error) {
	defer c.observe("fetch_account", time.Now(), &err)

	res, err := c.backend.GetAccountInfoWithOpts(ctx, c.baseAccount, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("base account: %w", contracts.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("get account info: %v: %w", err, contracts.ErrRPCFailure)
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("base account: %w", contracts.ErrAccountNotFound)
	}

	decoded, err := decodeBaseAccount(c.idl, res.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("account fetched", slog.Uint64("total_gifs", decoded.TotalGifs), slog.Int("entries", len(decoded.Entries)))
	return decoded, nil
}

// InitializeAccount sends the account creation instruction. The transaction
// carries two signatures: the user pays, the base key proves ownership of
// the address being created.
func (c *Client) InitializeAccount(ctx context.Context, user contracts.TransactionSigner) (sig solana.Signature, err error) {
	defer c.observe("initialize", time.Now(), &err)

	data, err := encodeInstructionData(c.idl.InstructionDiscriminator(instructionStartStuffOff))
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err = c.sendInstruction(ctx, user, instructionStartStuffOff, data)
	if err != nil {
		return solana.Signature{}, err
	}
	c.logger.Info("base account initialized", slog.String("signature", sig.String()))
	return sig, nil
}

// AppendEntry submits one gif link. Validation of the link happens upstream;
// here the string only has to survive Borsh encoding.
func (c *Client) AppendEntry(ctx context.Context, user contracts.TransactionSigner, gifLink string) (sig solana.Signature, err error) {
	defer c.observe("append_entry", time.Now(), &err)

	data, err := encodeInstructionData(c.idl.InstructionDiscriminator(instructionAddGif), gifLink)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err = c.sendInstruction(ctx, user, instructionAddGif, data)
	if err != nil {
		return solana.Signature{}, err
	}
	c.logger.Info("entry appended", slog.String("signature", sig.String()))
	return sig, nil
}

func (c *Client) sendInstruction(ctx context.Context, user contracts.TransactionSigner, name string, data []byte) (solana.Signature, error) {
	inst, ok := c.idl.Instruction(name)
	if !ok {
		return solana.Signature{}, fmt.Errorf("instruction %q not in idl", name)
	}
	metas, err := c.instructionMetas(inst, user.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}

	latest, err := c.backend.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %v: %w", err, contracts.ErrRPCFailure)
	}
	if latest == nil || latest.Value == nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: empty response: %w", contracts.ErrRPCFailure)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(c.programID, metas, data)},
		latest.Value.Blockhash,
		solana.TransactionPayer(user.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	// Partial signing composes: the base key fills its slot when the
	// instruction requires it, the user signer fills the fee payer slot.
	if _, err := tx.PartialSign(c.baseKeyGetter); err != nil {
		return solana.Signature{}, fmt.Errorf("sign with base key: %w", err)
	}
	if err := user.SignTransaction(ctx, tx); err != nil {
		return solana.Signature{}, err
	}

	sig, err := c.backend.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			return solana.Signature{}, fmt.Errorf("node rejected %s: %s: %w", name, rpcErr.Message, contracts.ErrSubmissionRejected)
		}
		return solana.Signature{}, fmt.Errorf("send %s: %v: %w", name, err, contracts.ErrRPCFailure)
	}
	return sig, nil
}

// instructionMetas resolves the IDL account list against the fixed bindings
// this client knows about. The order and flags come from the IDL so a
// program upgrade that reorders accounts only needs a new IDL blob.
func (c *Client) instructionMetas(inst IDLInstruction, user solana.PublicKey) (solana.AccountMetaSlice, error) {
	bindings := map[string]solana.PublicKey{
		"baseAccount":   c.baseAccount,
		"user":          user,
		"systemProgram": solana.SystemProgramID,
	}
	metas := make(solana.AccountMetaSlice, 0, len(inst.Accounts))
	for _, acc := range inst.Accounts {
		pub, ok := bindings[acc.Name]
		if !ok {
			return nil, fmt.Errorf("no binding for instruction account %q", acc.Name)
		}
		metas = append(metas, solana.NewAccountMeta(pub, acc.IsMut, acc.IsSigner))
	}
	return metas, nil
}

func (c *Client) baseKeyGetter(key solana.PublicKey) *solana.PrivateKey {
	if key.Equals(c.baseAccount) {
		return &c.baseKey
	}
	return nil
}

func (c *Client) observe(op string, started time.Time, err *error) {
	outcome := telemetry.OutcomeOK
	if *err != nil {
		outcome = contracts.Kind(*err)
		c.logger.Warn("chain op failed", slog.String("op", op), slog.String("kind", outcome))
	}
	c.metrics.RecordChainOp(op, outcome, time.Since(started))
}

func encodeInstructionData(disc [8]byte, args ...any) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(disc[:], false); err != nil {
		return nil, fmt.Errorf("encode discriminator: %w", err)
	}
	for _, arg := range args {
		if err := enc.Encode(arg); err != nil {
			return nil, fmt.Errorf("encode instruction arg: %w", err)
		}
	}
	return buf.Bytes(), nil
}
