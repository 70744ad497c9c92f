package pipeline

import (
	"time"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/fec"
	"bken/receiver/internal/packet"
	"bken/receiver/internal/resampler"
	"bken/receiver/internal/rerr"
	"bken/receiver/internal/rlog"
	"bken/receiver/internal/session"
	"bken/receiver/internal/watchdog"
)

// SlotID is an opaque handle to a ReceiverSlot, returned by CreateSlot and
// passed to every subsequent task that targets it.
type SlotID uint64

// SessionDefaults bundles everything a slot needs to construct a fresh
// Session the first time a new sender identity is observed.
type SessionDefaults struct {
	Spec       audio.SampleSpec
	FECScheme  fec.Scheme
	FECMaxAge  time.Duration
	Watchdog   watchdog.Config
	NewDecoder func(payloadType uint8) (decoderLike, error)
}

// decoderLike mirrors codec.Decoder without importing it here by name,
// keeping this file's only hard dependency on the codec package funneled
// through the caller-supplied factory. It is an alias, so a factory outside
// this package can spell the same interface literal in its signature.
type decoderLike = interface {
	Decode(payload []byte, out []float32) (n int, err error)
	FrameSamples() int
}

// Slot groups related endpoints (source + repair for one logical
// connection family) and owns the sessions reachable through them.
type Slot struct {
	id        SlotID
	defaults  SessionDefaults
	endpoints map[Interface]*Endpoint
	sessions  map[packet.SenderID]*session.Session
}

func newSlot(id SlotID, defaults SessionDefaults) *Slot {
	return &Slot{
		id:        id,
		defaults:  defaults,
		endpoints: make(map[Interface]*Endpoint),
		sessions:  make(map[packet.SenderID]*session.Session),
	}
}

// CreateEndpoint adds an endpoint on the given interface. A slot may have
// at most one source and one repair endpoint; creating a second on the same interface is rejected.
func (s *Slot) CreateEndpoint(iface Interface) (*packet.Writer, error) {
	if _, exists := s.endpoints[iface]; exists {
		return nil, rerr.ErrEndpointExists
	}
	ep := NewEndpoint(iface)
	s.endpoints[iface] = ep
	return ep.Writer(), nil
}

// DeleteEndpoint removes the endpoint on iface if present. A no-op if it
// doesn't exist.
func (s *Slot) DeleteEndpoint(iface Interface) {
	ep, ok := s.endpoints[iface]
	if !ok {
		return
	}
	ep.Close()
	delete(s.endpoints, iface)
}

// Route pulls every packet queued on this slot's endpoints and dispatches
// it to the session for its sender identity, creating that session on
// first contact.
func (s *Slot) Route(now time.Time) {
	if ep, ok := s.endpoints[IfaceAudioSource]; ok {
		for _, p := range ep.PullPackets() {
			p.Kind = packet.KindSource
			sess, err := s.sessionFor(p.SenderID, now, p.PayloadType)
			if err != nil {
				rlog.Area("slot").Warnf("dropping source packet from %s: %v", p.SenderID.Addr, err)
				continue
			}
			sess.SourceWriter().Write(p)
		}
	}
	if ep, ok := s.endpoints[IfaceAudioRepair]; ok {
		for _, p := range ep.PullPackets() {
			p.Kind = packet.KindRepair
			// Repair packets carry parity, not a codec payload type, and
			// never establish which decoder a new sender needs — only a
			// source packet can do that. A repair packet for a sender this
			// slot hasn't seen a source packet from yet is dropped.
			sess, ok := s.sessions[p.SenderID]
			if !ok {
				rlog.Area("slot").Debugf("dropping repair packet from %s: no session yet", p.SenderID.Addr)
				continue
			}
			sess.RepairWriter().Write(p)
		}
	}
}

func (s *Slot) sessionFor(id packet.SenderID, now time.Time, payloadType uint8) (*session.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	dec, err := s.defaults.NewDecoder(payloadType)
	if err != nil {
		return nil, err
	}
	resamp, err := resampler.New(s.defaults.Spec)
	if err != nil {
		return nil, err
	}

	cfg := session.Config{
		SenderID:  id,
		Spec:      s.defaults.Spec,
		FECScheme: s.defaults.FECScheme,
		FECMaxAge: s.defaults.FECMaxAge,
		Watchdog:  s.defaults.Watchdog,
	}
	sess, err := session.New(cfg, dec, resamp, now)
	if err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	rlog.Area("slot").Infof("new session for %s", id.Addr)
	return sess, nil
}

// Advance steps every live session by one frame and returns their outputs
// for the mixer. A session that has gone Broken keeps being advanced (and
// its output kept) until its buffered audio drains to nothing, so listeners
// don't lose whatever was already decoded before the failure; only then is
// it reaped.
func (s *Slot) Advance(now time.Time) []audio.Frame {
	frames := make([]audio.Frame, 0, len(s.sessions))
	for id, sess := range s.sessions {
		frames = append(frames, sess.Advance(now))
		if sess.State() == session.StateBroken && sess.BufferedLatency() == 0 {
			delete(s.sessions, id)
			rlog.Area("slot").Warnf("reaped session for %s: %v", id.Addr, sess.Err())
		}
	}
	return frames
}

// Close tears down every endpoint this slot owns.
func (s *Slot) Close() {
	for iface := range s.endpoints {
		s.endpoints[iface].Close()
	}
	s.endpoints = make(map[Interface]*Endpoint)
}
