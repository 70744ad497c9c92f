package pipeline

import "bken/receiver/internal/packet"

// TaskKind tags a Task as one of the fixed set of control operations the
// loop accepts. A tagged sum plus an exhaustive switch in loop.go stands in
// for the member-function-pointer dispatch original_source/receiver_loop.h
// uses (func_ bool (ReceiverLoop::*)(Task&)), the idiomatic Go substitution
// for a vtable of task handlers.
type TaskKind uint8

const (
	TaskCreateSlot TaskKind = iota
	TaskCreateEndpoint
	TaskDeleteEndpoint
	TaskDeleteSlot
)

// Task is the single carrier type for every control-plane operation the
// loop can run. Only the fields relevant to Kind are populated by the
// caller; the rest are filled in as results once the task executes.
type Task struct {
	Kind TaskKind

	// Parameters.
	SlotID SlotID
	Iface  Interface

	// Results, valid only after the task has executed (schedule_and_wait
	// returned, or the done channel closed).
	CreatedSlot SlotID
	Writer      *packet.Writer
	Err         error

	done chan struct{}
}

func newTask(kind TaskKind) *Task {
	return &Task{Kind: kind, done: make(chan struct{})}
}

// NewCreateSlot builds a CreateSlot task.
func NewCreateSlot() *Task {
	return newTask(TaskCreateSlot)
}

// NewCreateEndpoint builds a CreateEndpoint task for the given slot and
// interface. Each slot accepts at most one endpoint per interface.
func NewCreateEndpoint(slot SlotID, iface Interface) *Task {
	t := newTask(TaskCreateEndpoint)
	t.SlotID = slot
	t.Iface = iface
	return t
}

// NewDeleteEndpoint builds a DeleteEndpoint task. Deleting an endpoint that
// doesn't exist is a no-op, not an error.
func NewDeleteEndpoint(slot SlotID, iface Interface) *Task {
	t := newTask(TaskDeleteEndpoint)
	t.SlotID = slot
	t.Iface = iface
	return t
}

// NewDeleteSlot builds a DeleteSlot task, tearing down every endpoint and
// session the slot owns. Not present in original_source/receiver_loop.h's
// task list, added because a control plane that can create slots but never
// delete them leaks a session's worth of state per dropped connection.
func NewDeleteSlot(slot SlotID) *Task {
	t := newTask(TaskDeleteSlot)
	t.SlotID = slot
	return t
}
