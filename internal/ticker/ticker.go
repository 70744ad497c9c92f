// Package ticker implements a monotonic-clock pacing utility for clockless
// consumers, grounded directly on original_source/ticker.h: ratio_ =
// freq/Second, a single start() that panics if called twice, and
// elapsed()/wait() that both auto-start on first use.
package ticker

import "time"

// Ticker paces a caller to a fixed frequency using the monotonic clock.
// Not safe for concurrent use from multiple goroutines; it is meant to be
// driven by exactly one loop, matching the original's single-consumer
// assumption.
type Ticker struct {
	ratio   float64 // ticks per nanosecond
	started bool
	start   time.Time
}

// New returns a Ticker for freq ticks per second. freq must be positive.
func New(freq float64) *Ticker {
	return &Ticker{ratio: freq / float64(time.Second)}
}

// Start begins the ticker's clock. Panics if called more than once, per
// original_source/ticker.h's own contract ("roc_panic" on double-start) —
// callers are expected to own a Ticker for exactly one pacing loop.
func (t *Ticker) Start() {
	if t.started {
		panic("ticker: Start called twice")
	}
	t.started = true
	t.start = time.Now()
}

// Elapsed returns the number of ticks that have passed since Start, or
// since the first call to Elapsed/Wait if Start was never called
// explicitly.
func (t *Ticker) Elapsed() uint64 {
	t.ensureStarted()
	return uint64(float64(time.Since(t.start)) * t.ratio)
}

// Wait blocks until the ticker's clock reaches the given tick count,
// auto-starting on first call just like Elapsed.
func (t *Ticker) Wait(ticks uint64) {
	t.ensureStarted()
	target := t.start.Add(time.Duration(float64(ticks) / t.ratio))
	d := time.Until(target)
	if d > 0 {
		time.Sleep(d)
	}
}

func (t *Ticker) ensureStarted() {
	if !t.started {
		t.started = true
		t.start = time.Now()
	}
}
