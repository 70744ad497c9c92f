package audio

// Mixer additively combines per-session frames into one output frame and
// clamps the result.
//
// Not safe for concurrent use; the pipeline's single audio-thread owner
// calls it from inside the serialized read path.
type Mixer struct {
	spec SampleSpec
}

// NewMixer returns a Mixer that produces frames in spec.
func NewMixer(spec SampleSpec) *Mixer {
	return &Mixer{spec: spec}
}

// Mix sums the samples of every input frame into a fresh output frame of
// length n sample-groups, stamped with streamTS. Flags are the union of all
// input frame flags — a mix is "incomplete" or "drops" if any contributor
// was.
func (m *Mixer) Mix(frames []Frame, n int, streamTS uint64) Frame {
	out := NewSilentFrame(m.spec, n, streamTS)
	for _, f := range frames {
		limit := len(f.Samples)
		if len(out.Samples) < limit {
			limit = len(out.Samples)
		}
		for i := 0; i < limit; i++ {
			out.Samples[i] += f.Samples[i]
		}
		out.Flags |= f.Flags
	}
	out.Clamp()
	return out
}
