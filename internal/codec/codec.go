// Package codec provides a pluggable payload-type codec registry: decoders
// are plug-in modules registered by RTP payload type rather than compiled
// in as a fixed switch.
package codec

import "fmt"

// Decoder turns one source packet's payload bytes into PCM float32 samples.
// Implementations are free to be stateful (Opus carries decoder state for
// packet-loss concealment) but must be owned by exactly one Session.
type Decoder interface {
	// Decode writes decoded samples into out and returns how many
	// sample-groups were produced. payload == nil requests packet-loss
	// concealment (no data arrived for this position).
	Decode(payload []byte, out []float32) (n int, err error)

	// FrameSamples returns the number of sample-groups one payload
	// packet is expected to decode to, used to size PLC output and to
	// compute expected stream-timestamp advances.
	FrameSamples() int
}

// Factory constructs a fresh Decoder for one session's stream.
type Factory func(sampleRate, channels int) (Decoder, error)

var registry = map[uint8]Factory{}

// Register binds payloadType to a decoder factory. Call from an init()
// in the codec's own file, keying Opus/G.711 processing by a fixed, known
// payload type rather than sniffing bytes.
func Register(payloadType uint8, f Factory) {
	registry[payloadType] = f
}

// New constructs a decoder for payloadType at the given sample rate and
// channel count. Returns an error (not a panic) if no codec is registered
// — an unrecognized payload type is a BadPacket, not
// a construction-time fatal.
func New(payloadType uint8, sampleRate, channels int) (Decoder, error) {
	f, ok := registry[payloadType]
	if !ok {
		return nil, fmt.Errorf("codec: no decoder registered for payload type %d", payloadType)
	}
	return f(sampleRate, channels)
}
