package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/fec"
	"bken/receiver/internal/rerr"
	"bken/receiver/internal/watchdog"
)

type stubDecoder struct{ frameSamples int }

func (s *stubDecoder) FrameSamples() int { return s.frameSamples }
func (s *stubDecoder) Decode(payload []byte, out []float32) (int, error) {
	return s.frameSamples, nil
}

func testDefaults() SessionDefaults {
	return SessionDefaults{
		Spec:      audio.NewMonoSpec(48000),
		FECScheme: fec.Scheme{N: 4, K: 2},
		FECMaxAge: 500 * time.Millisecond,
		Watchdog:  watchdog.DefaultConfig(),
		NewDecoder: func(payloadType uint8) (decoderLike, error) {
			return &stubDecoder{frameSamples: 160}, nil
		},
	}
}

func TestReceiverLoopCreateAndDeleteSlot(t *testing.T) {
	r := NewReceiverLoop(audio.NewMonoSpec(48000), testDefaults())
	defer r.Close()

	slot := r.CreateSlot()
	w, err := r.CreateEndpoint(slot, IfaceAudioSource)
	require.NoError(t, err)
	require.NotNil(t, w)

	require.NoError(t, r.DeleteEndpoint(slot, IfaceAudioSource))
	require.NoError(t, r.DeleteSlot(slot))
}

func TestReceiverLoopCreateEndpointUnknownSlotErrors(t *testing.T) {
	r := NewReceiverLoop(audio.NewMonoSpec(48000), testDefaults())
	defer r.Close()

	_, err := r.CreateEndpoint(SlotID(9999), IfaceAudioSource)
	require.ErrorIs(t, err, rerr.ErrSlotNotFound)
}

func TestReceiverLoopDuplicateEndpointErrors(t *testing.T) {
	r := NewReceiverLoop(audio.NewMonoSpec(48000), testDefaults())
	defer r.Close()

	slot := r.CreateSlot()
	_, err := r.CreateEndpoint(slot, IfaceAudioSource)
	require.NoError(t, err)

	_, err = r.CreateEndpoint(slot, IfaceAudioSource)
	require.ErrorIs(t, err, rerr.ErrEndpointExists)
}

func TestReceiverLoopDeleteEndpointIsNoOpWhenMissing(t *testing.T) {
	r := NewReceiverLoop(audio.NewMonoSpec(48000), testDefaults())
	defer r.Close()

	slot := r.CreateSlot()
	require.NoError(t, r.DeleteEndpoint(slot, IfaceAudioRepair))
}

func TestReceiverLoopReadFrameProducesSilenceWithNoSessions(t *testing.T) {
	r := NewReceiverLoop(audio.NewMonoSpec(48000), testDefaults())
	defer r.Close()

	var frame audio.Frame
	ok := r.ReadFrame(&frame)
	require.True(t, ok)
	require.NotEmpty(t, frame.Samples)
}

func TestCloseCancelsPendingTasks(t *testing.T) {
	r := NewReceiverLoop(audio.NewMonoSpec(48000), testDefaults())
	r.Close()

	err := r.DeleteSlot(SlotID(0))
	require.ErrorIs(t, err, rerr.ErrCancelled)
}
