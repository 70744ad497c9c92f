// Package resampler implements a variable-rate resampler: a sample-rate
// converter whose instantaneous scaling factor is
// updated continuously by the LatencyMonitor's PI controller, rather than
// fixed at construction like a conventional format-conversion resampler.
//
// Wraps github.com/tphakala/go-audio-resampler, an ecosystem library none
// of the example repos already depend on but the only one in reach that
// exposes a ratio that can be nudged per-frame instead of baked into a
// fixed input/output rate pair.
package resampler

import (
	resamp "github.com/tphakala/go-audio-resampler"

	"bken/receiver/internal/audio"
)

// Resampler converts frames at spec.Rate to a varying effective rate
// controlled by Scale, absorbing clock drift between the network and the
// output device.
type Resampler struct {
	spec  audio.SampleSpec
	scale float64
	conv  *resamp.Resampler
}

// New constructs a Resampler for spec, starting at unity scale.
func New(spec audio.SampleSpec) (*Resampler, error) {
	conv, err := resamp.New(spec.ChannelCount)
	if err != nil {
		return nil, err
	}
	return &Resampler{spec: spec, scale: 1.0, conv: conv}, nil
}

// SetScale sets the instantaneous scaling factor (1.0 == pass-through,
// >1.0 == speed up / consume input faster, <1.0 == slow down), as computed
// by the LatencyMonitor each control cycle.
func (r *Resampler) SetScale(scale float64) {
	r.scale = scale
}

// Process resamples in according to the current scale and returns the
// resulting samples. At unity scale it is a transparent pass-through, so a
// session never pays resampling cost while latency is within its safety
// band.
func (r *Resampler) Process(in audio.Frame) audio.Frame {
	if r.scale == 1.0 {
		return in
	}

	out, err := r.conv.Resample(in.Samples, r.scale)
	if err != nil {
		// A malformed ratio or buffer from the underlying library is not a
		// session-fatal condition; fall back to pass-through rather than
		// losing the frame.
		return in
	}

	return audio.Frame{
		Samples:     out,
		Spec:        in.Spec,
		StreamTS:    in.StreamTS,
		CaptureTime: in.CaptureTime,
		Flags:       in.Flags,
	}
}
