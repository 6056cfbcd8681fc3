// baseaccount-keygen mints the key pair for the program's base account and
// writes it in the Solana CLI format, so the same file works with
// solana-keygen and the daemon. Run once per deployment; the daemon creates
// the on-chain account from this key the first time account.initialize runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/filippo-ma/SolanaPortalFin/internal/storage"
)

func main() {
	var (
		out   = flag.String("out", storage.DefaultBaseAccountKeyPath(), "output path for the key pair file")
		force = flag.Bool("force", false, "overwrite an existing key file")
	)
	flag.Parse()

	path := strings.TrimSpace(*out)
	if path == "" {
		fail("out is required")
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		failf("generate key pair: %v", err)
	}
	if err := storage.WriteKeyPair(path, key, *force); err != nil {
		failf("write key pair: %v", err)
	}

	writeStdoutf("wrote %s\n", path)
	writeStdoutf("base account public key: %s\n", key.PublicKey().String())
}

func fail(msg string) {
	if _, err := fmt.Fprintln(os.Stderr, msg); err != nil {
		os.Exit(1)
	}
	os.Exit(1)
}

func failf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format+"\n", args...); err != nil {
		os.Exit(1)
	}
	os.Exit(1)
}

func writeStdoutf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stdout, format, args...); err != nil {
		os.Exit(1)
	}
}
