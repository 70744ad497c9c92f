package codec

import "github.com/zaf/g711"

// PayloadTypeG711U and PayloadTypeG711A are the RTP payload type numbers
// RFC 3551 assigns to G.711 u-law and A-law — static assignments, unlike
// Opus's dynamic one, so they need no out-of-band negotiation to register.
const (
	PayloadTypeG711U = 0
	PayloadTypeG711A = 8
)

const g711FrameSamples = 160 // 20 ms @ 8 kHz, the standard G.711 packetization interval

func init() {
	Register(PayloadTypeG711U, newG711Decoder(g711.DecodeUlaw))
	Register(PayloadTypeG711A, newG711Decoder(g711.DecodeAlaw))
}

type g711Decoder struct {
	decodeFn func([]byte) []byte
}

// newG711Decoder returns a Factory bound to the given raw decode function
// (g711.DecodeUlaw or g711.DecodeAlaw), ignoring sampleRate/channels since
// G.711 is fixed at 8 kHz mono. Both functions return 16-bit PCM as
// little-endian byte pairs, not samples, so Decode reassembles them.
func newG711Decoder(decodeFn func([]byte) []byte) Factory {
	return func(_ int, _ int) (Decoder, error) {
		return &g711Decoder{decodeFn: decodeFn}, nil
	}
}

func (g *g711Decoder) FrameSamples() int { return g711FrameSamples }

func (g *g711Decoder) Decode(payload []byte, out []float32) (int, error) {
	if payload == nil {
		// G.711 has no native PLC; fill with silence, matching the
		// depacketizer's own gap-fill path one layer up.
		n := g711FrameSamples
		if n > len(out) {
			n = len(out)
		}
		for i := 0; i < n; i++ {
			out[i] = 0
		}
		return n, nil
	}
	le := g.decodeFn(payload)
	n := len(le) / 2
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		sample := int16(le[2*i]) | int16(le[2*i+1])<<8
		out[i] = float32(sample) / 32768.0
	}
	return n, nil
}
