package storage

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrKeyFileExists  = errors.New("key file already exists")
	ErrKeyFileInvalid = errors.New("key file is not a valid solana key pair")
)

// LoadKeyPair reads a Solana CLI key file (JSON array of 64 bytes) and
// validates that it holds a complete ed25519 key pair.
func LoadKeyPair(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrKeyFileInvalid, len(key), ed25519.PrivateKeySize)
	}
	return key, nil
}

// WriteKeyPair persists a key pair in the Solana CLI format so the same file
// works with solana-keygen and anchor deploy tooling. The write is atomic and
// the file is owner-only; an existing file is never overwritten unless force
// is set.
func WriteKeyPair(path string, key solana.PrivateKey, force bool) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrKeyFileInvalid, len(key), ed25519.PrivateKeySize)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	// json.Marshal on []byte emits base64; the CLI format is a number array.
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".keypair-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
