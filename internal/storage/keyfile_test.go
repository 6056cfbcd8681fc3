package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/testutil/fsperm"
)

func TestWriteLoadKeyPairRoundtrip(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "base-account.json")

	if err := WriteKeyPair(path, key, false); err != nil {
		t.Fatalf("write key pair failed: %v", err)
	}
	fsperm.AssertPrivateFilePerm(t, path)
	fsperm.AssertPrivateDirPerm(t, filepath.Dir(path))

	loaded, err := LoadKeyPair(path)
	if err != nil {
		t.Fatalf("load key pair failed: %v", err)
	}
	if !loaded.PublicKey().Equals(key.PublicKey()) {
		t.Fatalf("loaded key %s does not match written key %s", loaded.PublicKey(), key.PublicKey())
	}
}

func TestWriteKeyPairRefusesOverwrite(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "base-account.json")
	if err := WriteKeyPair(path, key, false); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	other, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate second key failed: %v", err)
	}
	if err := WriteKeyPair(path, other, false); !errors.Is(err, ErrKeyFileExists) {
		t.Fatalf("expected ErrKeyFileExists, got %v", err)
	}

	// Same write with force must replace the pair.
	if err := WriteKeyPair(path, other, true); err != nil {
		t.Fatalf("forced write failed: %v", err)
	}
	loaded, err := LoadKeyPair(path)
	if err != nil {
		t.Fatalf("load after force failed: %v", err)
	}
	if !loaded.PublicKey().Equals(other.PublicKey()) {
		t.Fatal("forced write did not replace the key pair")
	}
}

func TestWriteKeyPairRejectsTruncatedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base-account.json")
	if err := WriteKeyPair(path, solana.PrivateKey(make([]byte, 31)), false); !errors.Is(err, ErrKeyFileInvalid) {
		t.Fatalf("expected ErrKeyFileInvalid, got %v", err)
	}
}

func TestLoadKeyPairRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.json")
	if err := os.WriteFile(path, []byte(`[1,2,3]`), 0o600); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	if _, err := LoadKeyPair(path); err == nil {
		t.Fatal("expected an error for a truncated key file")
	}
}

func TestLoadKeyPairMissingFile(t *testing.T) {
	if _, err := LoadKeyPair(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing key file")
	}
}
