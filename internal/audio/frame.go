// Package audio holds the receiver's frame data model
// and the mixer that sums per-session frames into one output frame.
package audio

// SampleSpec is the pair (sample rate, channel layout) governing a frame's
// interpretation. Immutable after construction.
type SampleSpec struct {
	Rate         int
	ChannelMask  uint32 // one bit per channel; popcount == ChannelCount
	ChannelCount int
}

// NewMonoSpec returns a single-channel sample spec at rate.
func NewMonoSpec(rate int) SampleSpec {
	return SampleSpec{Rate: rate, ChannelMask: 0b1, ChannelCount: 1}
}

// NewStereoSpec returns a two-channel sample spec at rate.
func NewStereoSpec(rate int) SampleSpec {
	return SampleSpec{Rate: rate, ChannelMask: 0b11, ChannelCount: 2}
}

// NumSamples returns the number of multi-channel sample groups that fit in
// a buffer of the given number of interleaved float32 values.
func (s SampleSpec) NumSamples(bufLen int) int {
	if s.ChannelCount == 0 {
		return 0
	}
	return bufLen / s.ChannelCount
}

// Flags describe quality degradation that occurred while a frame was
// produced.
type Flags uint8

const (
	// FlagIncomplete marks a frame that is shorter than requested or was
	// filled with silence because no session data was available yet.
	FlagIncomplete Flags = 1 << iota
	// FlagDrops marks a frame where the depacketizer or FEC decoder had to
	// insert silence to cover a gap or unrecoverable loss.
	FlagDrops
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Frame is an owned buffer of interleaved samples plus the metadata a
// frame carries end to end: sample spec, a monotonic stream timestamp
// (samples since session start), a capture time in the network-clock
// domain, and quality flags.
type Frame struct {
	Samples     []float32
	Spec        SampleSpec
	StreamTS    uint64 // samples since session start
	CaptureTime int64  // network-clock-domain nanoseconds; 0 if unknown
	Flags       Flags
}

// NewSilentFrame returns a frame of n sample-groups (n*Spec.ChannelCount
// values), all zero, with no flags set.
func NewSilentFrame(spec SampleSpec, n int, streamTS uint64) Frame {
	return Frame{
		Samples:  make([]float32, n*spec.ChannelCount),
		Spec:     spec,
		StreamTS: streamTS,
	}
}

// NumSamples returns the number of sample-groups held by the frame.
func (f *Frame) NumSamples() int {
	return f.Spec.NumSamples(len(f.Samples))
}

// Clamp clips every sample in the frame to [-1.0, 1.0] in place.
func (f *Frame) Clamp() {
	for i, s := range f.Samples {
		if s > 1.0 {
			f.Samples[i] = 1.0
		} else if s < -1.0 {
			f.Samples[i] = -1.0
		}
	}
}

// Zero clears every sample in the frame to silence without touching flags
// or the stream timestamp.
func (f *Frame) Zero() {
	for i := range f.Samples {
		f.Samples[i] = 0
	}
}
