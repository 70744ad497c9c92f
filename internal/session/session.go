// Package session implements ReceiverSession: one
// remote sender's full decode chain — source/repair queues, FEC decode,
// depacketizer, watchdog/latency monitor, and resampler — plus the
// Waiting/Running/Broken state machine.
package session

import (
	"time"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/codec"
	"bken/receiver/internal/depacketizer"
	"bken/receiver/internal/fec"
	"bken/receiver/internal/packet"
	"bken/receiver/internal/watchdog"
)

// State is the session's lifecycle state.
type State uint8

const (
	// StateWaiting: created, no packets have arrived yet.
	StateWaiting State = iota
	// StateRunning: producing audio.
	StateRunning
	// StateBroken: the watchdog declared this session terminal. No
	// recovery; the slot must create a fresh session for new packets from
	// this identity.
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRunning:
		return "running"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Config bundles everything needed to construct one session's chain. The
// decoder itself (already bound to the sender's RTP payload type by the
// caller) is passed separately to New, not carried here.
type Config struct {
	SenderID  packet.SenderID
	Spec      audio.SampleSpec
	FECScheme fec.Scheme
	FECMaxAge time.Duration
	Watchdog  watchdog.Config
}

// Session is one remote sender's decode chain, from raw packet queues down
// to resampled output frames.
type Session struct {
	id     packet.SenderID
	spec   audio.SampleSpec
	state  State

	sourceQ *packet.Queue
	repairQ *packet.Queue

	fecReader *fec.Reader
	depkt     *depacketizer.Depacketizer

	wd      *watchdog.Watchdog
	latency *watchdog.LatencyMonitor
	resamp  scaler

	frameSamples int

	lastReclock time.Time
	terminalErr error
}

// scaler is the narrow slice of *resampler.Resampler this package depends
// on, so session doesn't force every caller to construct a real resampler
// in tests.
type scaler interface {
	SetScale(float64)
	Process(audio.Frame) audio.Frame
}

// New constructs a Session in StateWaiting.
func New(cfg Config, dec codec.Decoder, resamp scaler, now time.Time) (*Session, error) {
	scheme := cfg.FECScheme
	scheme.FrameSamples = uint32(dec.FrameSamples())
	reader, err := fec.NewReader(scheme, cfg.FECMaxAge)
	if err != nil {
		return nil, err
	}

	sourceQ := packet.NewQueue(256)
	repairQ := packet.NewQueue(64)

	dpkt := depacketizer.New(reader, dec, cfg.Spec)

	return &Session{
		id:           cfg.SenderID,
		spec:         cfg.Spec,
		state:        StateWaiting,
		sourceQ:      sourceQ,
		repairQ:      repairQ,
		fecReader:    reader,
		depkt:        dpkt,
		wd:           watchdog.New(cfg.Watchdog, now),
		latency:      watchdog.NewLatencyMonitor(cfg.Watchdog),
		resamp:       resamp,
		frameSamples: dec.FrameSamples(),
	}, nil
}

// BufferedLatency estimates how much audio is sitting buffered between the
// network boundary and the resampler: packets still queued ahead of the FEC
// decoder plus source packets the FEC decoder has already resolved but the
// depacketizer hasn't consumed yet.
func (s *Session) BufferedLatency() time.Duration {
	if s.spec.Rate == 0 {
		return 0
	}
	queued := s.sourceQ.Len() + s.fecReader.QueueDepth()
	perFrame := time.Duration(s.frameSamples) * time.Second / time.Duration(s.spec.Rate)
	return time.Duration(queued) * perFrame
}

// ID returns the sender identity this session decodes for.
func (s *Session) ID() packet.SenderID { return s.id }

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// SourceWriter and RepairWriter expose the packet-writer contract for this
// session's two queues.
func (s *Session) SourceWriter() *packet.Writer { return packet.NewWriter(s.sourceQ) }
func (s *Session) RepairWriter() *packet.Writer { return packet.NewWriter(s.repairQ) }

// Advance drains any queued packets into the FEC decoder, then produces one
// frame of output, advancing the watchdog and latency monitor against this
// session's own buffered-latency estimate. Once the session has gone Broken
// it keeps draining and emitting whatever audio was already buffered ahead
// of the failure (skipping the watchdog/latency/resampler stages, which
// have no further business running), so the caller can keep pulling frames
// until BufferedLatency reaches zero before reaping it.
func (s *Session) Advance(now time.Time) audio.Frame {
	for _, p := range s.sourceQ.PopAll() {
		s.fecReader.PushSource(p)
	}
	for _, p := range s.repairQ.PopAll() {
		s.fecReader.PushRepair(p)
	}
	s.fecReader.Age()

	frame, ok := s.depkt.Next()
	starved := !ok
	if ok && s.state != StateBroken {
		s.state = StateRunning
	} else if !ok {
		frame = audio.NewSilentFrame(s.spec, s.spec.Rate/50, 0)
		frame.Flags |= audio.FlagIncomplete
	}

	if s.state == StateBroken {
		return frame
	}

	if err := s.wd.Observe(now, frame.Flags.Has(audio.FlagDrops), starved); err != nil {
		s.terminal(err)
		return frame
	}

	scale, err := s.latency.Update(now, s.BufferedLatency())
	if err != nil {
		s.terminal(err)
		return frame
	}
	s.resamp.SetScale(scale)

	return s.resamp.Process(frame)
}

// Reclock records the consumer clock at the tail of the frame just
// delivered. The recorded time is not read by the latency monitor or any
// other stage; the buffered-latency estimate comes from queue depths alone.
func (s *Session) Reclock(t time.Time) {
	s.lastReclock = t
}

// Err returns the reason this session became Broken, or nil if it hasn't.
func (s *Session) Err() error { return s.terminalErr }

func (s *Session) terminal(err error) {
	s.state = StateBroken
	s.terminalErr = err
}

// Idle reports whether this session is still Waiting (it has not produced
// a frame yet) and both of its input queues are empty.
func (s *Session) Idle() bool {
	return s.state == StateWaiting && s.sourceQ.Len() == 0 && s.repairQ.Len() == 0
}
