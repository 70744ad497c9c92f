package resampler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bken/receiver/internal/audio"
)

func TestUnityScaleIsPassThrough(t *testing.T) {
	spec := audio.NewStereoSpec(48000)
	r, err := New(spec)
	require.NoError(t, err)

	in := audio.Frame{Samples: []float32{0.1, 0.2, 0.3, 0.4}, Spec: spec, StreamTS: 960}
	out := r.Process(in)

	require.Equal(t, in.Samples, out.Samples)
	require.Equal(t, in.StreamTS, out.StreamTS)
}

func TestNonUnityScalePreservesFrameMetadata(t *testing.T) {
	spec := audio.NewMonoSpec(48000)
	r, err := New(spec)
	require.NoError(t, err)

	r.SetScale(0.5)
	in := audio.Frame{
		Samples:  make([]float32, 960),
		Spec:     spec,
		StreamTS: 4800,
		Flags:    audio.FlagDrops,
	}
	out := r.Process(in)

	require.Equal(t, spec, out.Spec)
	require.Equal(t, in.StreamTS, out.StreamTS)
	require.Equal(t, in.Flags, out.Flags)
}
