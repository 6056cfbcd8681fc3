package rpc

import "sync"

type streamLimitConfig struct {
	MaxGlobal    int
	MaxPerClient int
}

// streamLimiter caps concurrent SSE subscriptions. A UI only needs one
// stream; the per-client cap tolerates reconnect overlap and a few extra
// tabs, the global cap keeps a misbehaving client from pinning goroutines.
type streamLimiter struct {
	maxGlobal    int
	maxPerClient int

	mu       sync.Mutex
	global   int
	byClient map[string]int
}

func newStreamLimiter(cfg streamLimitConfig) *streamLimiter {
	if cfg.MaxPerClient <= 0 {
		cfg.MaxPerClient = 8
	}
	if cfg.MaxGlobal <= 0 {
		cfg.MaxGlobal = cfg.MaxPerClient * 16
	}
	return &streamLimiter{
		maxGlobal:    cfg.MaxGlobal,
		maxPerClient: cfg.MaxPerClient,
		byClient:     make(map[string]int),
	}
}

func (l *streamLimiter) acquire(clientKey string) (func(), bool) {
	if l == nil {
		return func() {}, true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.global >= l.maxGlobal {
		return nil, false
	}
	if l.byClient[clientKey] >= l.maxPerClient {
		return nil, false
	}
	l.global++
	l.byClient[clientKey]++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.global > 0 {
			l.global--
		}
		next := l.byClient[clientKey] - 1
		if next <= 0 {
			delete(l.byClient, clientKey)
			return
		}
		l.byClient[clientKey] = next
	}, true
}
