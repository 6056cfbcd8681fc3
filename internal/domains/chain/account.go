package chain

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// baseAccountState mirrors the Borsh layout the program serializes after the
// 8-byte account discriminator: a u64 counter followed by a length-prefixed
// vector of items.
type baseAccountState struct {
	TotalGifs uint64
	GifList   []gifItem
}

type gifItem struct {
	GifLink     string
	UserAddress solana.PublicKey
}

// AccountData is the decoded portal state handed to callers.
type AccountData struct {
	TotalGifs uint64
	Entries   []models.GifEntry
}

// decodeBaseAccount verifies the account discriminator and decodes the
// remaining bytes. Any shape mismatch maps to ErrDeserializationFailure so
// callers can treat the account as needing initialization.
func decodeBaseAccount(idl *IDL, data []byte) (*AccountData, error) {
	disc := idl.AccountDiscriminator(accountBaseAccount)
	if len(data) < len(disc) {
		return nil, fmt.Errorf("account data %d bytes, want at least %d: %w", len(data), len(disc), contracts.ErrDeserializationFailure)
	}
	if !bytes.Equal(data[:len(disc)], disc[:]) {
		return nil, fmt.Errorf("account discriminator mismatch: %w", contracts.ErrDeserializationFailure)
	}

	var state baseAccountState
	if err := bin.NewBorshDecoder(data[len(disc):]).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode base account: %v: %w", err, contracts.ErrDeserializationFailure)
	}

	entries := make([]models.GifEntry, 0, len(state.GifList))
	for _, item := range state.GifList {
		entries = append(entries, models.GifEntry{
			Link:        item.GifLink,
			SubmittedBy: item.UserAddress.String(),
		})
	}
	return &AccountData{TotalGifs: state.TotalGifs, Entries: entries}, nil
}
