package utils

import (
	"context"
	"sync"
	"time"
)

// The manual admin session flag is the server-side half of the legacy bypass:
// the client keeps the token, Redis keeps a durable marker keyed by its jti so
// the flag survives process restarts. Without Redis the flag lives in memory
// for the lifetime of the process.

var (
	manualSessions   = map[string]time.Time{}
	manualSessionsMu sync.Mutex
)

// SetManualSession marks a manual admin session active for ttl.
func SetManualSession(jti string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if rc.Set(ctx, "session:manual:"+jti, "1", ttl).Err() == nil {
			return
		}
	}
	manualSessionsMu.Lock()
	manualSessions[jti] = time.Now().Add(ttl)
	manualSessionsMu.Unlock()
}

// ClearManualSession removes the durable flag. Best-effort on both backends
// so logout is always locally effective.
func ClearManualSession(jti string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Del(ctx, "session:manual:"+jti).Err()
	}
	manualSessionsMu.Lock()
	delete(manualSessions, jti)
	manualSessionsMu.Unlock()
}

// ManualSessionActive reports whether the flag for jti is still set, checking
// Redis first and falling back to the in-memory map.
func ManualSessionActive(jti string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, "session:manual:"+jti).Result(); err == nil {
			if n > 0 {
				return true
			}
			// Fall through: the flag may only exist in memory.
		}
	}
	manualSessionsMu.Lock()
	defer manualSessionsMu.Unlock()
	exp, ok := manualSessions[jti]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(manualSessions, jti)
		return false
	}
	return true
}
