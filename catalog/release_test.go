package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReleaseGateOpensAfterDelay(t *testing.T) {
	g := NewReleaseGate(20 * time.Millisecond)
	assert.False(t, g.Released())

	select {
	case <-g.Ready():
	case <-time.After(time.Second):
		t.Fatal("gate never opened")
	}
	assert.True(t, g.Released())
}

func TestReleaseGateZeroDelayOpensImmediately(t *testing.T) {
	g := NewReleaseGate(0)
	assert.True(t, g.Released())

	select {
	case <-g.Ready():
	default:
		t.Fatal("zero-delay gate must be open on creation")
	}
}

func TestReleaseGateCancelPreventsRelease(t *testing.T) {
	g := NewReleaseGate(20 * time.Millisecond)
	g.Cancel()

	select {
	case <-g.Ready():
		t.Fatal("cancelled gate must never open")
	case <-time.After(60 * time.Millisecond):
	}
	assert.False(t, g.Released())
}

func TestReleaseGateCancelAfterReleaseIsNoop(t *testing.T) {
	g := NewReleaseGate(0)
	g.Cancel()
	assert.True(t, g.Released(), "release is permanent")
}
