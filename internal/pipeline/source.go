package pipeline

import (
	"time"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/packet"
	"bken/receiver/internal/rerr"
	"bken/receiver/internal/session"
	"bken/receiver/internal/ticker"
)

// State is the frame-reader contract's playback state, grounded on
// original_source/isource.h's State{Playing,Idle,Paused}.
type State uint8

const (
	StatePlaying State = iota
	StateIdle
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateIdle:
		return "idle"
	default:
		return "paused"
	}
}

const defaultQuantumSamples = 960 // 20ms @ 48kHz, matching the session chain's default frame size

// Source is ReceiverSource: the top-level
// aggregate implementing the frame-reader contract. On each Read it routes
// pending packets into sessions, advances every live session, mixes their
// outputs, and reaps terminal sessions.
type Source struct {
	spec   audio.SampleSpec
	mixer  *audio.Mixer
	ticker *ticker.Ticker

	slots      map[SlotID]*Slot
	nextSlotID SlotID

	state    State
	streamTS uint64

	defaults SessionDefaults
}

// NewSource constructs a Source producing frames at spec, using defaults
// to configure any session created by a slot under it.
func NewSource(spec audio.SampleSpec, defaults SessionDefaults) *Source {
	return &Source{
		spec:     spec,
		mixer:    audio.NewMixer(spec),
		ticker:   ticker.New(float64(spec.Rate)),
		slots:    make(map[SlotID]*Slot),
		defaults: defaults,
	}
}

// SampleSpec returns the constant-after-construction output format.
func (s *Source) SampleSpec() audio.SampleSpec { return s.spec }

// HasClock reports false: the source is clockless and paces itself via the
// ticker, expecting the consumer to drive Read at its own rate if it has a
// hardware clock.
func (s *Source) HasClock() bool { return false }

// State reports Playing if any session is producing audio, Idle if all
// sessions are silent or none exist, or Paused after Pause.
func (s *Source) State() State { return s.state }

// Pause transitions to Paused; subsequent Read calls return silence
// without advancing any session.
func (s *Source) Pause() {
	s.state = StatePaused
}

// Resume leaves Paused, resuming normal frame production. Always succeeds.
func (s *Source) Resume() bool {
	s.state = StateIdle
	return true
}

// Restart clears every session and the ticker, returning to a fresh
// Waiting-equivalent state.
func (s *Source) Restart() bool {
	for _, slot := range s.slots {
		slot.sessions = make(map[packet.SenderID]*session.Session)
	}
	s.ticker = ticker.New(float64(s.spec.Rate))
	s.streamTS = 0
	s.state = StateIdle
	return true
}

// Reclock advises every live session of the consumer clock at the tail of
// the frame just delivered.
func (s *Source) Reclock(at time.Time) {
	for _, slot := range s.slots {
		for _, sess := range slot.sessions {
			sess.Reclock(at)
		}
	}
}

// Read populates frame with the next chunk of mixed audio. Always
// succeeds if the pipeline is valid; may return a frame flagged
// incomplete or silent.
func (s *Source) Read(frame *audio.Frame) bool {
	if s.state == StatePaused {
		*frame = audio.NewSilentFrame(s.spec, defaultQuantumSamples, s.streamTS)
		frame.Flags |= audio.FlagIncomplete
		return true
	}

	s.ticker.Wait(s.streamTS + uint64(defaultQuantumSamples))

	now := time.Now()
	for _, slot := range s.slots {
		slot.Route(now)
	}

	var perSession []audio.Frame
	anyRunning := false
	for _, slot := range s.slots {
		for _, f := range slot.Advance(now) {
			perSession = append(perSession, f)
			if !f.Flags.Has(audio.FlagIncomplete) {
				anyRunning = true
			}
		}
	}

	*frame = s.mixer.Mix(perSession, defaultQuantumSamples, s.streamTS)
	s.streamTS += uint64(defaultQuantumSamples)

	if anyRunning {
		s.state = StatePlaying
	} else {
		s.state = StateIdle
	}

	return true
}

// createSlot, createEndpoint, deleteEndpoint, and deleteSlot are called
// only from the pipeline loop's task dispatch (loop.go's execute), which
// already holds bodyMu for the duration — they never run concurrently with
// Read.
func (s *Source) createSlot() SlotID {
	id := s.nextSlotID
	s.nextSlotID++
	s.slots[id] = newSlot(id, s.defaults)
	return id
}

func (s *Source) createEndpoint(slotID SlotID, iface Interface) (*packet.Writer, error) {
	slot, ok := s.slots[slotID]
	if !ok {
		return nil, rerr.ErrSlotNotFound
	}
	w, err := slot.CreateEndpoint(iface)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Source) deleteEndpoint(slotID SlotID, iface Interface) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return nil // deleting from a nonexistent slot is a no-op, not an error
	}
	slot.DeleteEndpoint(iface)
	return nil
}

func (s *Source) deleteSlot(slotID SlotID) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return nil
	}
	slot.Close()
	delete(s.slots, slotID)
	return nil
}
