package contracts

import "errors"

// Failure taxonomy shared by the wallet, chain and portal domains. Every
// failure a caller can observe wraps exactly one of these sentinels; none of
// them is retried automatically and none of them terminates the daemon.
var (
	ErrWalletUnavailable      = errors.New("wallet capability unavailable")
	ErrConnectionRejected     = errors.New("wallet connection rejected")
	ErrSilentConnectFailed    = errors.New("silent wallet connect failed")
	ErrAccountNotFound        = errors.New("program account not found")
	ErrDeserializationFailure = errors.New("program account data does not match expected schema")
	ErrRPCFailure             = errors.New("chain rpc request failed")
	ErrSubmissionRejected     = errors.New("program rejected submission")
	ErrEmptyInput             = errors.New("submission input is empty")
	ErrNotConnected           = errors.New("wallet not connected")
)

// Kind names for log fields and metric labels.
const (
	KindWalletUnavailable      = "wallet_unavailable"
	KindConnectionRejected     = "connection_rejected"
	KindSilentConnectFailed    = "silent_connect_failed"
	KindAccountNotFound        = "account_not_found"
	KindDeserializationFailure = "deserialization_failure"
	KindRPCFailure             = "rpc_failure"
	KindSubmissionRejected     = "submission_rejected"
	KindEmptyInput             = "empty_input"
	KindNotConnected           = "not_connected"
	KindInternal               = "internal"
)

func Kind(err error) string {
	switch {
	case errors.Is(err, ErrWalletUnavailable):
		return KindWalletUnavailable
	case errors.Is(err, ErrConnectionRejected):
		return KindConnectionRejected
	case errors.Is(err, ErrSilentConnectFailed):
		return KindSilentConnectFailed
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrDeserializationFailure):
		return KindDeserializationFailure
	case errors.Is(err, ErrRPCFailure):
		return KindRPCFailure
	case errors.Is(err, ErrSubmissionRejected):
		return KindSubmissionRejected
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrNotConnected):
		return KindNotConnected
	default:
		return KindInternal
	}
}

// NeedsInitialization reports whether a fetch failure proves the program
// account has to be created before it can hold entries. Not-found and
// schema-mismatch results are expected first-run conditions, not true errors.
func NeedsInitialization(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrDeserializationFailure)
}
