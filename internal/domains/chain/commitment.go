package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// ParseCommitment maps a config string to the node commitment level. Unknown
// values are rejected rather than silently downgraded.
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "confirmed":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("unknown commitment level %q", s)
	}
}
