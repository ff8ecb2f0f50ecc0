package ratelimit

import (
	"testing"
	"time"

	"github.com/mezonai/runtime/types"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(max int) (*SignerLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	sl := NewSignerLimiter(&Config{MaxPerWindow: max, WindowSize: time.Second})
	sl.now = clock.now
	return sl, clock
}

func TestSignerLimiterWindow(t *testing.T) {
	sl, clock := newTestLimiter(2)
	alice := types.AccountID{1}

	assert.True(t, sl.Allow(alice))
	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, sl.Allow(alice))
	assert.False(t, sl.Allow(alice))
	assert.Equal(t, 2, sl.Count(alice))

	// first stamp leaves the window
	clock.t = clock.t.Add(600 * time.Millisecond)
	assert.Equal(t, 1, sl.Count(alice))
	assert.True(t, sl.Allow(alice))
	assert.False(t, sl.Allow(alice))
}

func TestSignerLimiterIsPerSigner(t *testing.T) {
	sl, _ := newTestLimiter(1)
	alice, bob := types.AccountID{1}, types.AccountID{2}

	assert.True(t, sl.Allow(alice))
	assert.False(t, sl.Allow(alice))
	assert.True(t, sl.Allow(bob))

	sl.Reset(alice)
	assert.True(t, sl.Allow(alice))
}

func TestSignerLimiterDisabled(t *testing.T) {
	sl, _ := newTestLimiter(0)
	for i := 0; i < 10; i++ {
		assert.True(t, sl.Allow(types.AccountID{}))
	}
}

func TestSignerLimiterCleanup(t *testing.T) {
	sl, clock := newTestLimiter(5)
	alice := types.AccountID{1}
	sl.Allow(alice)

	clock.t = clock.t.Add(2 * time.Second)
	sl.cleanup()
	sl.mu.Lock()
	defer sl.mu.Unlock()
	assert.Empty(t, sl.requests)
}

func TestRateLimitError(t *testing.T) {
	sl, _ := newTestLimiter(3)
	err := sl.Err(types.AccountID{})
	assert.Contains(t, err.Error(), "3 extrinsics per 1s")
}
