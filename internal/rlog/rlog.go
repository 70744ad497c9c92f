// Package rlog is the receiver's process-wide logger.
//
// It follows the "[area] message" tag convention used in client/audio.go
// but dispatches through charmbracelet/log so the level can be read
// lock-free on the hot path and configuration changes (level, output,
// area) are the only thing behind a mutex.
package rlog

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var (
	initOnce sync.Once
	mu       sync.Mutex // guards configuration writes and base construction
	base     *log.Logger

	// level is read atomically on the hot path (Debugf/Warnf etc. check it
	// before formatting anything); writes go through SetLevel, which also
	// pushes the value into the underlying charmbracelet logger.
	level atomic.Int32
)

func init() {
	level.Store(int32(log.InfoLevel))
}

func ensure() *log.Logger {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		base = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           log.Level(level.Load()),
		})
	})
	return base
}

// SetLevel changes the process-wide log level. Safe to call concurrently;
// takes the configuration mutex, never the hot-path atomic alone.
func SetLevel(l log.Level) {
	// ensure takes mu itself on first use, so it must run before mu is held.
	b := ensure()
	mu.Lock()
	defer mu.Unlock()
	level.Store(int32(l))
	b.SetLevel(l)
}

// currentLevel reads the level lock-free; used to short-circuit formatting
// of messages that would be discarded anyway.
func currentLevel() log.Level {
	return log.Level(level.Load())
}

// Area returns a sub-logger tagged with the given component name, carrying
// forward the "[audio]"/"[transport]" style prefixes as a structured field
// instead of a string prefix.
func Area(name string) *log.Logger {
	return ensure().With("area", name)
}

func Debugf(format string, args ...any) {
	if currentLevel() > log.DebugLevel {
		return
	}
	ensure().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	if currentLevel() > log.InfoLevel {
		return
	}
	ensure().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	if currentLevel() > log.WarnLevel {
		return
	}
	ensure().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	ensure().Errorf(format, args...)
}
