// Package depacketizer consumes source packets in sequence order and
// converts their payload, via a pluggable codec keyed by payload-type,
// into sample frames aligned to stream timestamps — filling gaps with
// silence and trimming or dropping packets that regress the timestamp.
package depacketizer

import (
	"bken/receiver/internal/audio"
	"bken/receiver/internal/codec"
	"bken/receiver/internal/packet"
)

// PacketSource is the upstream collaborator: anything that can hand back
// the next source packet in strict sequence order. Both *packet.SortedQueue
// and *fec.Reader satisfy this shape, so Depacketizer depends on neither
// concretely.
type PacketSource interface {
	Pop() (*packet.Packet, bool)
}

// Depacketizer turns a session's ordered source-packet stream into a
// continuous stream of sample frames.
type Depacketizer struct {
	src    PacketSource
	dec    codec.Decoder
	spec   audio.SampleSpec
	nextTS uint64
	primed bool

	// pending holds a packet that arrived ahead of nextTS: it has been
	// popped from src but not yet consumed, because the gap before it
	// must be silence-filled first, possibly across more than one Next()
	// call if the gap exceeds one frame.
	pending *packet.Packet
}

// New constructs a Depacketizer reading from src, decoding with dec, and
// producing frames at spec.
func New(src PacketSource, dec codec.Decoder, spec audio.SampleSpec) *Depacketizer {
	return &Depacketizer{src: src, dec: dec, spec: spec}
}

// Next produces the next frame. It returns (frame, true) once enough
// packets have arrived to make progress, or (zero, false) if the upstream
// has nothing more to offer right now — the caller (the session) decides
// whether that means "wait" or "starved", per the watchdog.
func (d *Depacketizer) Next() (audio.Frame, bool) {
	p := d.pending
	d.pending = nil
	if p == nil {
		var ok bool
		p, ok = d.src.Pop()
		if !ok {
			return audio.Frame{}, false
		}
	}

	frameSamples := d.dec.FrameSamples()

	if !d.primed {
		d.nextTS = uint64(p.StreamTS)
		d.primed = true
	}

	expected := d.nextTS
	actual := uint64(p.StreamTS)

	switch {
	case actual == expected:
		return d.decode(p, frameSamples, 0)

	case actual > expected:
		// Gap: fill with silence up to the packet's timestamp, flag the
		// frame, and hold the packet for a later call once nextTS catches
		// up.
		gap := actual - expected
		n := gap
		if n > uint64(frameSamples) {
			n = uint64(frameSamples)
		}
		frame := audio.NewSilentFrame(d.spec, int(n), expected)
		frame.Flags |= audio.FlagDrops
		d.nextTS += n
		d.pending = p
		return frame, true

	default:
		// Negative gap: trim leading samples from the packet to align it,
		// or drop it outright and move on to the next packet if the
		// regression exceeds its length.
		trim := expected - actual
		if trim >= uint64(frameSamples) {
			return d.Next()
		}
		return d.decode(p, frameSamples, int(trim))
	}
}

func (d *Depacketizer) decode(p *packet.Packet, frameSamples int, trimSamples int) (audio.Frame, bool) {
	ch := d.spec.ChannelCount
	out := make([]float32, frameSamples*ch)

	n, err := d.dec.Decode(p.Payload, out)
	if err != nil || n == 0 {
		frame := audio.NewSilentFrame(d.spec, frameSamples, d.nextTS)
		frame.Flags |= audio.FlagDrops
		d.nextTS += uint64(frameSamples)
		return frame, true
	}

	// n counts sample-groups; out holds interleaved values.
	end := n * ch
	if end > len(out) {
		end = len(out)
	}
	start := trimSamples * ch
	if start > end {
		start = end
	}
	samples := out[start:end]

	frame := audio.Frame{
		Samples:  samples,
		Spec:     d.spec,
		StreamTS: d.nextTS,
	}
	if p.Payload == nil {
		frame.Flags |= audio.FlagDrops
	}
	produced := len(samples) / maxInt(ch, 1)
	d.nextTS += uint64(produced)
	return frame, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
