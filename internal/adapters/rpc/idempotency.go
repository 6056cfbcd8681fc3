package rpc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const (
	idempotencyKeyHeader  = "Idempotency-Key"
	idempotencyTTL        = 10 * time.Minute
	idempotencyMaxEntries = 1024
)

// isMutatingMethod reports whether a method goes through the replay cache.
// Reads are harmless to retry. wallet.create and wallet.import stay out on
// purpose: a cached response would keep a mnemonic in memory for the TTL.
func isMutatingMethod(method string) bool {
	switch method {
	case "wallet.connect", "account.initialize", "gif.submit":
		return true
	default:
		return false
	}
}

type idempotencyEntry struct {
	requestHash string
	response    rpcResponse
	createdAt   time.Time
}

type idempotencyCache struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
}

func newIdempotencyCache() *idempotencyCache {
	return &idempotencyCache{
		entries: make(map[string]idempotencyEntry),
	}
}

// get returns (cached response, found, conflict). A conflict means the key
// was already used for a different request body and must not be replayed.
func (c *idempotencyCache) get(cacheKey, requestHash string, now time.Time) (rpcResponse, bool, bool) {
	if c == nil {
		return rpcResponse{}, false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(now)
	entry, ok := c.entries[cacheKey]
	if !ok {
		return rpcResponse{}, false, false
	}
	if entry.requestHash != requestHash {
		return rpcResponse{}, false, true
	}
	return entry.response, true, false
}

func (c *idempotencyCache) set(cacheKey, requestHash string, resp rpcResponse, now time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(now)
	c.entries[cacheKey] = idempotencyEntry{
		requestHash: requestHash,
		response:    resp,
		createdAt:   now,
	}
	if len(c.entries) <= idempotencyMaxEntries {
		return
	}
	// Bounded memory: drop oldest entry when over limit.
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *idempotencyCache) pruneLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) > idempotencyTTL {
			delete(c.entries, key)
		}
	}
}

// Keys are scoped by auth token so two clients cannot collide on a key or
// read each other's cached responses.
func requestIdempotencyKey(raw string, authToken string) string {
	key := strings.TrimSpace(raw)
	if key == "" {
		return ""
	}
	return authToken + "|" + key
}

func requestHash(req rpcRequest) string {
	payload := struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}{
		Method: req.Method,
		Params: req.Params,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(req.Method + "|" + string(req.Params))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
