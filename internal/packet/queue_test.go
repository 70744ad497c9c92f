package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueuePushPopAll(t *testing.T) {
	q := NewQueue(4)
	for i := 0; i < 3; i++ {
		require.True(t, q.Push(&Packet{SeqNum: uint16(i)}))
	}
	require.Equal(t, 3, q.Len())

	got := q.PopAll()
	require.Len(t, got, 3)
	require.Equal(t, 0, q.Len())
}

func TestQueueOverflowDrops(t *testing.T) {
	q := NewQueue(2)
	require.True(t, q.Push(&Packet{SeqNum: 1}))
	require.True(t, q.Push(&Packet{SeqNum: 2}))
	require.False(t, q.Push(&Packet{SeqNum: 3}))
	require.EqualValues(t, 1, q.Dropped())
	require.Equal(t, 2, q.Len())
}

func TestQueueClosedDiscardsWrites(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	require.False(t, q.Push(&Packet{SeqNum: 1}))
	require.Equal(t, 0, q.Len())
}
