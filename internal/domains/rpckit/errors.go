package rpckit

import (
	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
)

// JSON-RPC application error codes, one per taxonomy sentinel. Protocol
// codes (-32700, -32600, -32601, -32602) stay with the transport layer.
const (
	CodeWalletUnavailable      = -32001
	CodeConnectionRejected     = -32002
	CodeSilentConnectFailed    = -32003
	CodeAccountNotFound        = -32004
	CodeDeserializationFailure = -32005
	CodeRPCFailure             = -32006
	CodeSubmissionRejected     = -32007
	CodeEmptyInput             = -32008
	CodeNotConnected           = -32009
	CodeInternal               = -32000
)

// Error is a transport-level RPC error that can be mapped by the caller
// to a concrete wire format (e.g. JSON-RPC error object).
type Error struct {
	Code    int
	Message string
}

func InvalidParams() *Error {
	return &Error{Code: -32602, Message: "invalid params"}
}

// FromDomainError converts a wallet/chain/portal failure into its wire
// error. Unclassified errors become CodeInternal rather than leaking a
// protocol code.
func FromDomainError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: codeForKind(contracts.Kind(err)), Message: err.Error()}
}

func codeForKind(kind string) int {
	switch kind {
	case contracts.KindWalletUnavailable:
		return CodeWalletUnavailable
	case contracts.KindConnectionRejected:
		return CodeConnectionRejected
	case contracts.KindSilentConnectFailed:
		return CodeSilentConnectFailed
	case contracts.KindAccountNotFound:
		return CodeAccountNotFound
	case contracts.KindDeserializationFailure:
		return CodeDeserializationFailure
	case contracts.KindRPCFailure:
		return CodeRPCFailure
	case contracts.KindSubmissionRejected:
		return CodeSubmissionRejected
	case contracts.KindEmptyInput:
		return CodeEmptyInput
	case contracts.KindNotConnected:
		return CodeNotConnected
	default:
		return CodeInternal
	}
}
