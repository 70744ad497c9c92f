package codec

import "gopkg.in/hraban/opus.v2"

// PayloadTypeOpus is the payload type this module registers its Opus
// decoder under. 111 is the dynamic payload type conventionally assumed
// for Opus by WebRTC-facing stacks.
const PayloadTypeOpus = 111

const opusFrameSamples = 960 // 20 ms @ 48 kHz

func init() {
	Register(PayloadTypeOpus, newOpusDecoder)
}

type opusDecoder struct {
	dec *opus.Decoder
	pcm []int16
}

func newOpusDecoder(sampleRate, channels int) (Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &opusDecoder{dec: dec, pcm: make([]int16, opusFrameSamples*channels)}, nil
}

func (o *opusDecoder) FrameSamples() int { return opusFrameSamples }

// Decode handles two cases, mirroring client/audio.go's playbackLoop:
//   - payload != nil: ordinary decode.
//   - payload == nil: packet-loss concealment (Opus extrapolates).
//
// Opus's own in-band FEC (recovering a lost frame from the redundancy in
// the *next* packet) is not used: the FECReader in this module operates at
// the block level, and this decoder has no in-band FEC entry point.
func (o *opusDecoder) Decode(payload []byte, out []float32) (int, error) {
	n, err := o.dec.Decode(payload, o.pcm)
	if err != nil {
		return 0, err
	}
	channels := len(o.pcm) / opusFrameSamples
	for i := 0; i < n*channels; i++ {
		out[i] = float32(o.pcm[i]) / 32768.0
	}
	return n, nil
}
