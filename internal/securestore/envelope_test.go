package securestore

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/filippo-ma/SolanaPortalFin/internal/testutil/fsperm"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	plain, err := Decrypt("pass", data)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(plain) != "secret" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
}

func TestDecryptWrongPassphraseFails(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := Decrypt("wrong", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptTamperedFailsDeterministically(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if len(data) < 10 {
		t.Fatalf("unexpected encrypted payload size: %d", len(data))
	}
	data[len(data)-2] ^= 0xFF
	_, err = Decrypt("pass", data)
	if !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptRejectsForeignData(t *testing.T) {
	if _, err := Decrypt("pass", []byte(`{"plain":"json"}`)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unprefixed data, got %v", err)
	}
}

func TestDecryptRejectsTruncatedNonce(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		t.Fatalf("reopen envelope: %v", err)
	}
	env.Nonce = env.Nonce[:4]
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("remarshal envelope: %v", err)
	}
	if _, err := Decrypt("pass", append([]byte(filePrefix), raw...)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for truncated nonce, got %v", err)
	}
}

func TestWriteEncryptedJSONReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault", "keystore.enc")
	record := map[string]string{"mnemonic": "abandon ability able"}

	if err := WriteEncryptedJSON(path, "pw", record); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	fsperm.AssertPrivateDirPerm(t, filepath.Dir(path))

	raw, err := ReadDecryptedFile(path, "pw")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if want := `{"mnemonic":"abandon ability able"}`; string(raw) != want {
		t.Fatalf("unexpected payload: %s", raw)
	}
}
