// Package watchdog implements Watchdog and LatencyMonitor: the
// no-playback and broken-playback deadlines that mark a session terminal,
// and the PI controller driving the resampler's scaling factor to hold
// buffer fill within a target band.
//
// The PI-controller shape is grounded on the adaptive bitrate ladder in
// client/internal/adapt/adapt.go, which smooths a measured signal (loss)
// with an EWMA and steps a control output (bitrate) toward a target — the
// same "measure, smooth, nudge toward target" structure, generalized here
// from a discrete ladder to a continuous proportional-integral loop over a
// continuous scaling factor.
package watchdog

import (
	"time"

	"bken/receiver/internal/rerr"
)

// Config bounds the watchdog's deadlines and the latency monitor's target
// band and gains.
type Config struct {
	NoPlaybackTimeout     time.Duration // Starvation deadline
	BrokenPlaybackTimeout time.Duration // sustained drop-rate deadline
	DropRateThreshold     float64       // fraction of frames flagged drops that counts as "broken"

	TargetLatency  time.Duration // center of the safety band
	SafetyBand     time.Duration // +/- around TargetLatency considered healthy
	OutOfBandGrace time.Duration // how long the band may be exceeded before terminal

	KP float64 // proportional gain
	KI float64 // integral gain
}

// DefaultConfig returns reasonable values for a 48kHz voice-grade session.
func DefaultConfig() Config {
	return Config{
		NoPlaybackTimeout:     2 * time.Second,
		BrokenPlaybackTimeout: 3 * time.Second,
		DropRateThreshold:     0.2,
		TargetLatency:         60 * time.Millisecond,
		SafetyBand:            40 * time.Millisecond,
		OutOfBandGrace:        1500 * time.Millisecond,
		KP:                    0.15,
		KI:                    0.02,
	}
}

// Watchdog tracks one session's health and reports when it should be
// reaped.
type Watchdog struct {
	cfg Config

	lastPlayback time.Time
	dropWindow   []bool // recent frames' drop flags, ring-like via index
	dropIdx      int
}

// New constructs a Watchdog with the given config, starting its clocks at
// now.
func New(cfg Config, now time.Time) *Watchdog {
	return &Watchdog{
		cfg:          cfg,
		lastPlayback: now,
		dropWindow:   make([]bool, 50),
	}
}

// Observe records one produced frame's outcome at time now. If the session
// should be torn down, it returns the reason error (rerr.ErrStarvation or
// rerr.ErrBrokenPlayback; latency-band violations are reported by
// LatencyMonitor.Update instead); otherwise nil.
func (w *Watchdog) Observe(now time.Time, dropped bool, starved bool) error {
	if !starved {
		w.lastPlayback = now
	} else if now.Sub(w.lastPlayback) >= w.cfg.NoPlaybackTimeout {
		return rerr.ErrStarvation
	}

	w.dropWindow[w.dropIdx%len(w.dropWindow)] = dropped
	w.dropIdx++

	if w.dropIdx >= len(w.dropWindow) && w.dropRate() >= w.cfg.DropRateThreshold {
		if now.Sub(w.lastPlayback) >= w.cfg.BrokenPlaybackTimeout {
			return rerr.ErrBrokenPlayback
		}
	}
	return nil
}

func (w *Watchdog) dropRate() float64 {
	n := 0
	for _, d := range w.dropWindow {
		if d {
			n++
		}
	}
	return float64(n) / float64(len(w.dropWindow))
}

// LatencyMonitor drives the resampler's scaling factor to hold the
// session's buffered latency within the configured safety band.
type LatencyMonitor struct {
	cfg Config

	outOfBandSince time.Time
	outOfBand      bool
	integral       float64
}

// NewLatencyMonitor constructs a LatencyMonitor with the given config.
func NewLatencyMonitor(cfg Config) *LatencyMonitor {
	return &LatencyMonitor{cfg: cfg}
}

// Update reports the current buffered latency and returns the resampler
// scaling factor to apply (1.0 == no correction) plus ErrLatencyOutOfBand
// if the safety band has been exceeded for longer than OutOfBandGrace.
func (m *LatencyMonitor) Update(now time.Time, bufferedLatency time.Duration) (float64, error) {
	errSignal := (m.cfg.TargetLatency - bufferedLatency).Seconds()
	m.integral += errSignal

	scale := 1.0 + m.cfg.KP*errSignal + m.cfg.KI*m.integral
	scale = clamp(scale, 0.9, 1.1)

	deviation := bufferedLatency - m.cfg.TargetLatency
	if deviation < 0 {
		deviation = -deviation
	}

	if deviation > m.cfg.SafetyBand {
		if !m.outOfBand {
			m.outOfBand = true
			m.outOfBandSince = now
		} else if now.Sub(m.outOfBandSince) >= m.cfg.OutOfBandGrace {
			return scale, rerr.ErrLatencyOutOfBand
		}
	} else {
		m.outOfBand = false
	}

	return scale, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
