package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/fec"
	"bken/receiver/internal/packet"
	"bken/receiver/internal/rerr"
	"bken/receiver/internal/watchdog"
)

type passthroughResampler struct{ scale float64 }

func (p *passthroughResampler) SetScale(s float64)            { p.scale = s }
func (p *passthroughResampler) Process(f audio.Frame) audio.Frame { return f }

type silenceDecoder struct{ n int }

func (d *silenceDecoder) FrameSamples() int { return d.n }
func (d *silenceDecoder) Decode(payload []byte, out []float32) (int, error) {
	return d.n, nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := Config{
		SenderID:  packet.SenderID{Addr: "127.0.0.1:1234", SSRC: 1},
		Spec:      audio.NewMonoSpec(48000),
		FECScheme: fec.Scheme{N: 4, K: 2},
		FECMaxAge: 200 * time.Millisecond,
		Watchdog:  watchdog.DefaultConfig(),
	}
	dec := &silenceDecoder{n: 960}
	resamp := &passthroughResampler{scale: 1.0}
	sess, err := New(cfg, dec, resamp, time.Now())
	require.NoError(t, err)
	return sess
}

func TestSessionStartsWaitingAndIdle(t *testing.T) {
	sess := newTestSession(t)
	require.Equal(t, StateWaiting, sess.State())
	require.True(t, sess.Idle())
}

func TestSessionTransitionsToRunningOnPacket(t *testing.T) {
	sess := newTestSession(t)
	now := time.Now()

	for i := 0; i < 4; i++ {
		sess.SourceWriter().Write(&packet.Packet{
			SeqNum:  uint16(i),
			Payload: []byte{byte(i)},
		})
	}

	sess.Advance(now)
	require.Equal(t, StateRunning, sess.State())
	require.False(t, sess.Idle())
}

func TestSessionBrokenByWatchdogStopsAdvancing(t *testing.T) {
	sess := newTestSession(t)
	sess.wd = watchdog.New(watchdog.Config{NoPlaybackTimeout: time.Nanosecond}, time.Now().Add(-time.Hour))

	frame := sess.Advance(time.Now())
	require.Equal(t, StateBroken, sess.State())
	require.Error(t, sess.Err())
	require.NotNil(t, frame.Samples)

	// Further Advance calls return silence without panicking.
	frame2 := sess.Advance(time.Now())
	require.Equal(t, StateBroken, sess.State())
	require.NotNil(t, frame2.Samples)
}

func TestBufferedLatencyReflectsQueueDepth(t *testing.T) {
	sess := newTestSession(t)
	require.Zero(t, sess.BufferedLatency())

	for i := 0; i < 4; i++ {
		sess.SourceWriter().Write(&packet.Packet{SeqNum: uint16(i), Payload: []byte{byte(i)}})
	}
	require.Positive(t, sess.BufferedLatency())
}

func TestBufferedLatencyDrainsAsPacketsAreConsumed(t *testing.T) {
	sess := newTestSession(t)
	now := time.Now()

	for i := 0; i < 4; i++ {
		sess.SourceWriter().Write(&packet.Packet{SeqNum: uint16(i), Payload: []byte{byte(i)}})
	}
	sess.Advance(now)
	before := sess.BufferedLatency()

	sess.Advance(now)
	after := sess.BufferedLatency()
	require.LessOrEqual(t, after, before)
}

func TestBrokenSessionKeepsDrainingBufferedAudioUntilEmpty(t *testing.T) {
	sess := newTestSession(t)
	now := time.Now()

	for i := 0; i < 4; i++ {
		sess.SourceWriter().Write(&packet.Packet{SeqNum: uint16(i), Payload: []byte{byte(i)}})
	}
	// Simulate the watchdog having already declared this session terminal,
	// with audio still sitting in its queues from before the failure.
	sess.terminal(rerr.ErrLatencyOutOfBand)
	require.Positive(t, sess.BufferedLatency())

	// Queued audio still drains after the session goes Broken, instead of
	// being silently discarded the instant the watchdog trips.
	for sess.BufferedLatency() > 0 {
		sess.Advance(now)
	}
	require.Zero(t, sess.BufferedLatency())
}
