package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedQueueInOrder(t *testing.T) {
	q := NewSortedQueue()
	require.True(t, q.Push(&Packet{SeqNum: 10}))
	require.True(t, q.Push(&Packet{SeqNum: 11}))

	p, ok := q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 10, p.SeqNum)

	p, ok = q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 11, p.SeqNum)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestSortedQueueReordersOutOfOrderArrivals(t *testing.T) {
	q := NewSortedQueue()
	require.True(t, q.Push(&Packet{SeqNum: 10}))
	require.True(t, q.Push(&Packet{SeqNum: 12}))
	require.True(t, q.Push(&Packet{SeqNum: 11}))

	for _, want := range []uint16{10, 11, 12} {
		p, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, p.SeqNum)
	}
}

func TestSortedQueueDropsDuplicatesAndLate(t *testing.T) {
	q := NewSortedQueue()
	require.True(t, q.Push(&Packet{SeqNum: 5}))
	p, ok := q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 5, p.SeqNum)

	// Duplicate of the already-emitted sequence number.
	require.False(t, q.Push(&Packet{SeqNum: 5}))

	require.True(t, q.Push(&Packet{SeqNum: 7}))
	require.False(t, q.Push(&Packet{SeqNum: 7})) // duplicate, not yet popped
}

func TestSortedQueueWayAheadResetsWindow(t *testing.T) {
	q := NewSortedQueue()
	require.True(t, q.Push(&Packet{SeqNum: 0}))

	// A packet far beyond the ring window (sender restart) re-anchors.
	farAhead := uint16(1) << (ringBits + 1)
	require.True(t, q.Push(&Packet{SeqNum: farAhead}))
	require.Equal(t, farAhead, q.NextSeq())

	p, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, farAhead, p.SeqNum)
}

func TestSortedQueueSkipGap(t *testing.T) {
	q := NewSortedQueue()
	require.True(t, q.Push(&Packet{SeqNum: 0}))
	_, _ = q.Pop()

	q.SkipGap() // position 1 never arrives; FEC gave up on it
	require.True(t, q.Push(&Packet{SeqNum: 2}))

	p, ok := q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 2, p.SeqNum)
}
