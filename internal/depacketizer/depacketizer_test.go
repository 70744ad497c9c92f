package depacketizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/packet"
)

// fakeSource hands back packets from a fixed slice, one per Pop call.
type fakeSource struct {
	packets []*packet.Packet
	i       int
}

func (f *fakeSource) Pop() (*packet.Packet, bool) {
	if f.i >= len(f.packets) {
		return nil, false
	}
	p := f.packets[f.i]
	f.i++
	return p, true
}

// fixedDecoder decodes any non-nil payload to a constant sample pattern
// sized frameSamples, and treats a nil payload as packet-loss concealment
// (silence), mirroring codec.Decoder's documented contract.
type fixedDecoder struct {
	frameSamples int
	fill         float32
}

func (d *fixedDecoder) FrameSamples() int { return d.frameSamples }

func (d *fixedDecoder) Decode(payload []byte, out []float32) (int, error) {
	n := d.frameSamples
	if payload == nil {
		for i := 0; i < n; i++ {
			out[i] = 0
		}
		return n, nil
	}
	for i := 0; i < n; i++ {
		out[i] = d.fill
	}
	return n, nil
}

func TestDepacketizerContiguousStream(t *testing.T) {
	spec := audio.NewMonoSpec(48000)
	dec := &fixedDecoder{frameSamples: 4, fill: 0.5}
	src := &fakeSource{packets: []*packet.Packet{
		{StreamTS: 0, Payload: []byte{1}},
		{StreamTS: 4, Payload: []byte{1}},
	}}
	d := New(src, dec, spec)

	f1, ok := d.Next()
	require.True(t, ok)
	require.False(t, f1.Flags.Has(audio.FlagDrops))
	require.EqualValues(t, 0, f1.StreamTS)

	f2, ok := d.Next()
	require.True(t, ok)
	require.False(t, f2.Flags.Has(audio.FlagDrops))
	require.EqualValues(t, 4, f2.StreamTS)
}

func TestDepacketizerFillsGapWithSilence(t *testing.T) {
	spec := audio.NewMonoSpec(48000)
	dec := &fixedDecoder{frameSamples: 4, fill: 0.5}
	// Packet at StreamTS 0, then a gap to StreamTS 8 (one frame's worth of
	// loss at position 4..7).
	src := &fakeSource{packets: []*packet.Packet{
		{StreamTS: 0, Payload: []byte{1}},
		{StreamTS: 8, Payload: []byte{1}},
	}}
	d := New(src, dec, spec)

	f1, ok := d.Next()
	require.True(t, ok)
	require.False(t, f1.Flags.Has(audio.FlagDrops))

	f2, ok := d.Next()
	require.True(t, ok)
	require.True(t, f2.Flags.Has(audio.FlagDrops), "gap frame should be flagged drops")
	require.EqualValues(t, 4, f2.StreamTS)

	f3, ok := d.Next()
	require.True(t, ok)
	require.False(t, f3.Flags.Has(audio.FlagDrops))
	require.EqualValues(t, 8, f3.StreamTS)
}
