package pipeline

import (
	"time"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/packet"
)

const (
	defaultQuantumTaskLimit = 8
	defaultQuantumBudget    = 2 * time.Millisecond
)

// ReceiverLoop is the task-based facade over the receiver pipeline,
// grounded directly on
// original_source/receiver_loop.h's ReceiverLoop: it combines the
// frame-reader contract (here, *Source) with the generic task scheduler
// (*Loop) the way the original privately inherits both sndio::ISource and
// PipelineLoop.
type ReceiverLoop struct {
	loop   *Loop
	source *Source
}

// NewReceiverLoop constructs a ReceiverLoop producing frames at spec.
func NewReceiverLoop(spec audio.SampleSpec, defaults SessionDefaults) *ReceiverLoop {
	source := NewSource(spec, defaults)
	loop := NewLoop(source, defaultQuantumTaskLimit, defaultQuantumBudget)
	return &ReceiverLoop{loop: loop, source: source}
}

// Source returns the frame-reader contract implementation; samples
// received from remote peers become available through it.
func (r *ReceiverLoop) Source() *Source { return r.source }

// ReadFrame is the audio thread's entry point, draining one task quantum
// before producing a frame.
func (r *ReceiverLoop) ReadFrame(frame *audio.Frame) bool {
	return r.loop.ReadFrame(frame)
}

// CreateSlot schedules and waits for a CreateSlot task, returning the new
// slot's opaque handle.
func (r *ReceiverLoop) CreateSlot() SlotID {
	t := NewCreateSlot()
	r.loop.ScheduleAndWait(t)
	return t.CreatedSlot
}

// CreateEndpoint schedules and waits for a CreateEndpoint task, returning
// the writer handle network threads use to feed this endpoint.
func (r *ReceiverLoop) CreateEndpoint(slot SlotID, iface Interface) (*packet.Writer, error) {
	t := NewCreateEndpoint(slot, iface)
	if err := r.loop.ScheduleAndWait(t); err != nil {
		return nil, err
	}
	return t.Writer, nil
}

// DeleteEndpoint schedules and waits for a DeleteEndpoint task. A no-op if
// the endpoint doesn't exist.
func (r *ReceiverLoop) DeleteEndpoint(slot SlotID, iface Interface) error {
	t := NewDeleteEndpoint(slot, iface)
	return r.loop.ScheduleAndWait(t)
}

// DeleteSlot schedules and waits for a DeleteSlot task, tearing down every
// endpoint and session the slot owns.
func (r *ReceiverLoop) DeleteSlot(slot SlotID) error {
	t := NewDeleteSlot(slot)
	return r.loop.ScheduleAndWait(t)
}

// Close tears the loop down, cancelling any pending tasks.
func (r *ReceiverLoop) Close() {
	r.loop.Close()
}
