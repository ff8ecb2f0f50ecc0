package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/mezonai/runtime/exception"
	"github.com/mezonai/runtime/types"
)

// Config bounds how many extrinsics one signer may submit per window
type Config struct {
	MaxPerWindow    int           // 0 disables the limit
	WindowSize      time.Duration // sliding window length
	CleanupInterval time.Duration // how often idle signers are forgotten, 0 disables the sweeper
}

func DefaultConfig() *Config {
	return &Config{
		MaxPerWindow:    100,
		WindowSize:      time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// SignerLimiter is a sliding-window limiter keyed by signer
type SignerLimiter struct {
	config   *Config
	mu       sync.Mutex
	requests map[types.AccountID][]time.Time
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSignerLimiter(config *Config) *SignerLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	sl := &SignerLimiter{
		config:   config,
		requests: make(map[types.AccountID][]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		exception.SafeGo("SignerLimiterCleanup", sl.cleanupLoop)
	}
	return sl
}

// Allow records one submission by signer and reports whether it fits in the window
func (sl *SignerLimiter) Allow(signer types.AccountID) bool {
	if sl.config.MaxPerWindow <= 0 {
		return true
	}
	now := sl.now()

	sl.mu.Lock()
	defer sl.mu.Unlock()

	recent := sl.prune(sl.requests[signer], now)
	if len(recent) >= sl.config.MaxPerWindow {
		sl.requests[signer] = recent
		return false
	}
	sl.requests[signer] = append(recent, now)
	return true
}

// Count returns how many submissions of signer are inside the current window
func (sl *SignerLimiter) Count(signer types.AccountID) int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.prune(sl.requests[signer], sl.now()))
}

func (sl *SignerLimiter) Reset(signer types.AccountID) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	delete(sl.requests, signer)
}

// prune drops timestamps that fell out of the window. Timestamps are appended in order.
func (sl *SignerLimiter) prune(stamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-sl.config.WindowSize)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

func (sl *SignerLimiter) cleanupLoop() {
	ticker := time.NewTicker(sl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sl.cleanup()
		case <-sl.stop:
			return
		}
	}
}

func (sl *SignerLimiter) cleanup() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := sl.now()
	for signer, stamps := range sl.requests {
		if recent := sl.prune(stamps, now); len(recent) == 0 {
			delete(sl.requests, signer)
		} else {
			sl.requests[signer] = recent
		}
	}
}

// Stop ends the cleanup goroutine
func (sl *SignerLimiter) Stop() {
	sl.stopOnce.Do(func() { close(sl.stop) })
}

type RateLimitError struct {
	Signer types.AccountID
	Limit  int
	Window time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d extrinsics per %s", e.Signer, e.Limit, e.Window)
}

func (sl *SignerLimiter) Err(signer types.AccountID) error {
	return &RateLimitError{Signer: signer, Limit: sl.config.MaxPerWindow, Window: sl.config.WindowSize}
}
