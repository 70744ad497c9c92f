// Package pipeline implements the receiver's PipelineLoop and
// ReceiverSource/Slot/Endpoint hierarchy, grounded on
// original_source/receiver_loop.h's ReceiverLoop (a facade combining
// sndio::ISource for frame production with a task scheduler for control).
package pipeline

import (
	"sync"
	"time"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/rerr"
)

// Loop is the generic task scheduler original_source/pipeline_loop.h
// describes: any thread may schedule() or schedule_and_wait() a task; the
// audio thread
// calls ReadFrame repeatedly, and between sub-frame quanta the loop drains
// pending tasks. A single mutex serializes entry to the pipeline body;
// submission never contends for it.
type Loop struct {
	quantumTasks int
	quantumDur   time.Duration

	qmu   sync.Mutex
	queue []*Task

	bodyMu sync.Mutex
	closed bool

	handle func(*Task)
	source *Source
}

// NewLoop constructs a Loop around source, draining at most quantumTasks
// tasks or quantumDur of wall time (whichever is reached first) at each
// ReadFrame call.
func NewLoop(source *Source, quantumTasks int, quantumDur time.Duration) *Loop {
	l := &Loop{
		quantumTasks: quantumTasks,
		quantumDur:   quantumDur,
		source:       source,
	}
	l.handle = l.execute
	return l
}

// Schedule enqueues t and returns immediately; it never blocks. The caller
// can wait on completion itself by reading from the channel ScheduleAndWait
// uses internally, but most callers should just call ScheduleAndWait.
func (l *Loop) Schedule(t *Task) {
	l.qmu.Lock()
	if l.closed {
		t.Err = rerr.ErrCancelled
		l.qmu.Unlock()
		close(t.done)
		return
	}
	l.queue = append(l.queue, t)
	l.qmu.Unlock()
}

// ScheduleAndWait enqueues t and blocks until it completes, returning its
// error. Fails with ErrCancelled if the loop was torn down first. If no
// ReadFrame call holds the pipeline at that moment, the caller runs every
// pending task in place, so tasks also complete while no audio thread is
// reading; otherwise t runs in the next ReadFrame's quantum.
func (l *Loop) ScheduleAndWait(t *Task) error {
	l.Schedule(t)
	if l.bodyMu.TryLock() {
		for nt := l.pop(); nt != nil; nt = l.pop() {
			l.handle(nt)
		}
		l.bodyMu.Unlock()
	}
	<-t.done
	return t.Err
}

// ReadFrame produces one frame,
// draining one quantum of pending tasks first. The pipeline mutex
// (bodyMu) is held for the duration, serializing this call against any
// concurrently-draining quantum but never against task submission.
func (l *Loop) ReadFrame(frame *audio.Frame) bool {
	l.bodyMu.Lock()
	defer l.bodyMu.Unlock()

	l.drainQuantum()
	return l.source.Read(frame)
}

// drainQuantum runs up to quantumTasks tasks or quantumDur of wall time,
// whichever limit is hit first, bounding both an unbounded task burst
// starving audio and an unbounded audio block starving control.
func (l *Loop) drainQuantum() {
	deadline := time.Now().Add(l.quantumDur)
	for i := 0; i < l.quantumTasks; i++ {
		if time.Now().After(deadline) {
			return
		}
		t := l.pop()
		if t == nil {
			return
		}
		l.handle(t)
	}
}

func (l *Loop) pop() *Task {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	t := l.queue[0]
	l.queue = l.queue[1:]
	return t
}

// execute dispatches t by Kind — a tagged switch standing in for the
// member-function-pointer dispatch the C++ original uses.
func (l *Loop) execute(t *Task) {
	switch t.Kind {
	case TaskCreateSlot:
		t.CreatedSlot = l.source.createSlot()
	case TaskCreateEndpoint:
		t.Writer, t.Err = l.source.createEndpoint(t.SlotID, t.Iface)
	case TaskDeleteEndpoint:
		t.Err = l.source.deleteEndpoint(t.SlotID, t.Iface)
	case TaskDeleteSlot:
		t.Err = l.source.deleteSlot(t.SlotID)
	}
	close(t.done)
}

// Close tears the loop down: any task already queued is cancelled, and any
// future Schedule call returns ErrCancelled immediately instead of
// enqueuing.
func (l *Loop) Close() {
	l.qmu.Lock()
	l.closed = true
	pending := l.queue
	l.queue = nil
	l.qmu.Unlock()

	for _, t := range pending {
		t.Err = rerr.ErrCancelled
		close(t.done)
	}
}
