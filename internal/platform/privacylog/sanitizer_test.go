package privacylog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSanitizingHandlerRedactsWalletSecrets(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))
	logger.Info("wallet import",
		"mnemonic", "crawl dune exhibit ...",
		"passphrase", "hunter2",
		"provider", "keystore",
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if got, _ := payload["mnemonic"].(string); got != redactedValue {
		t.Fatalf("expected redacted mnemonic, got %q", got)
	}
	if got, _ := payload["passphrase"].(string); got != redactedValue {
		t.Fatalf("expected redacted passphrase, got %q", got)
	}
	if got, _ := payload["provider"].(string); got != "keystore" {
		t.Fatalf("expected untouched provider, got %q", got)
	}
}

func TestSanitizingHandlerShortensChainIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil)))
	addr := "4Nd1mY5jN7dFj9yGqLpZxWvTqQbR8sKc3eUuH2aP6VXL"
	logger.Info("connected", "address", addr, "count", 3)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	got, _ := payload["address"].(string)
	if got != "4Nd1"+".."+"6VXL" {
		t.Fatalf("unexpected shortened address: %q", got)
	}
	if got, _ := payload["count"].(float64); got != 3 {
		t.Fatalf("expected untouched count, got %v", got)
	}
}

func TestShortenIDKeepsShortValues(t *testing.T) {
	if got := ShortenID("abc"); got != "abc" {
		t.Fatalf("short value must pass through, got %q", got)
	}
}

func TestFingerprintIsStableAndOneWay(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	first := Fingerprint(key)
	if first != Fingerprint(key) {
		t.Fatal("fingerprint must be stable for the same key")
	}
	if !strings.HasPrefix(first, "wfp1") {
		t.Fatalf("expected wfp1 prefix, got %q", first)
	}
	if other := Fingerprint(bytes.Repeat([]byte{0x43}, 32)); other == first {
		t.Fatal("distinct keys must not share a fingerprint")
	}
}

func TestSanitizingHandlerImplementsSlogHandlerContract(t *testing.T) {
	var buf bytes.Buffer
	h := WrapHandler(slog.NewJSONHandler(&buf, nil))
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected handler enabled for info")
	}
	rec := slog.NewRecord(time.Now().UTC(), slog.LevelInfo, "msg", 0)
	rec.AddAttrs(slog.String("auth_token", "abc123"))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(buf.String(), redactedValue) {
		t.Fatalf("expected redacted auth_token, got %s", buf.String())
	}
}
