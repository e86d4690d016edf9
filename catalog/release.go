package catalog

import (
	"sync"
	"time"
)

// ReleaseGate is the per-view countdown in front of the final download
// control. It is pure presentation state: one gate per view instance, armed on
// entry, permanently open once the delay elapses, and cancellable when the
// owning view is torn down before expiry. It grants no authorization.
type ReleaseGate struct {
	mu       sync.Mutex
	timer    *time.Timer
	ready    chan struct{}
	released bool
	stopped  bool
}

// NewReleaseGate arms a gate that opens after d. A non-positive delay opens
// the gate immediately.
func NewReleaseGate(d time.Duration) *ReleaseGate {
	g := &ReleaseGate{ready: make(chan struct{})}
	if d <= 0 {
		g.released = true
		close(g.ready)
		return g
	}
	g.timer = time.AfterFunc(d, g.release)
	return g
}

func (g *ReleaseGate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released || g.stopped {
		return
	}
	g.released = true
	close(g.ready)
}

// Ready is closed once the countdown has elapsed. A cancelled gate never
// becomes ready.
func (g *ReleaseGate) Ready() <-chan struct{} {
	return g.ready
}

// Released reports whether the download control is unlocked.
func (g *ReleaseGate) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// Cancel disarms a pending countdown when the owning view goes away. It has
// no effect on a gate that already opened.
func (g *ReleaseGate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released || g.stopped {
		return
	}
	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
	}
}
