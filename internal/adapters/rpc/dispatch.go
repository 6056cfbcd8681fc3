package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/rpckit"
)

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case "health_check":
		return map[string]string{"status": "ok"}, nil
	case "chain.info":
		return s.service.ChainInfo(), nil
	case "wallet.status":
		return s.service.WalletStatus(), nil
	case "wallet.check_existing":
		return callService(func() (any, error) {
			return s.service.CheckExisting(ctx)
		})
	case "wallet.connect":
		// The mock provider takes no passphrase, so params may be absent.
		passphrase, err := decodeOptionalStringParam(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		return callService(func() (any, error) {
			return s.service.Connect(ctx, passphrase)
		})
	case "wallet.create":
		return callWithSingleStringParam(rawParams, func(passphrase string) (any, error) {
			return s.service.CreateWallet(ctx, passphrase)
		})
	case "wallet.import":
		return callWithTwoStringParams(rawParams, func(mnemonic, passphrase string) (any, error) {
			return s.service.ImportWallet(ctx, mnemonic, passphrase)
		})
	case "account.state":
		return s.service.AccountView(), nil
	case "account.fetch":
		return callService(func() (any, error) {
			return s.service.Fetch(ctx)
		})
	case "account.initialize":
		return callService(func() (any, error) {
			return s.service.Initialize(ctx)
		})
	case "gif.submit":
		// An empty link is a domain refusal, not a params error, so the
		// decoder only checks shape here.
		link, err := decodeSubmitLinkParam(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		return callService(func() (any, error) {
			return s.service.Submit(ctx, link)
		})
	default:
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	}
}

func callService(call func() (any, error)) (any, *rpcError) {
	result, err := call()
	if err != nil {
		return nil, fromDomainError(err)
	}
	return result, nil
}

func callWithSingleStringParam(rawParams json.RawMessage, call func(string) (any, error)) (any, *rpcError) {
	param, err := decodeSingleStringParam(rawParams)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	return callService(func() (any, error) {
		return call(param)
	})
}

func callWithTwoStringParams(rawParams json.RawMessage, call func(string, string) (any, error)) (any, *rpcError) {
	a, b, err := decodeTwoStringParams(rawParams)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	return callService(func() (any, error) {
		return call(a, b)
	})
}

func fromDomainError(err error) *rpcError {
	mapped := rpckit.FromDomainError(err)
	return &rpcError{Code: mapped.Code, Message: mapped.Message}
}

func rpcInvalidParams() *rpcError {
	mapped := rpckit.InvalidParams()
	return &rpcError{Code: mapped.Code, Message: mapped.Message}
}

var errInvalidParams = errors.New("invalid params")

func decodeSingleStringParam(raw json.RawMessage) (string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 && arr[0] != "" {
		return arr[0], nil
	}
	return "", errInvalidParams
}

func decodeTwoStringParams(raw json.RawMessage) (string, string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 2 && arr[0] != "" && arr[1] != "" {
		return arr[0], arr[1], nil
	}
	return "", "", errInvalidParams
}

func decodeOptionalStringParam(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) > 1 {
		return "", errInvalidParams
	}
	if len(arr) == 0 {
		return "", nil
	}
	return arr[0], nil
}

func decodeSubmitLinkParam(raw json.RawMessage) (string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) != 1 {
		return "", errInvalidParams
	}
	return arr[0], nil
}
