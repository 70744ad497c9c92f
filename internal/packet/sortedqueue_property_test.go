package packet

import (
	"testing"

	"pgregory.net/rapid"
)

// TestSortedQueueEmitsStrictlyIncreasingOrder checks, for arbitrary arrival
// permutations of a contiguous sequence range, that whatever SortedQueue
// does pop out never regresses or repeats a sequence number.
func TestSortedQueueEmitsStrictlyIncreasingOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		base := rapid.Uint16Range(0, 60000).Draw(t, "base")

		order := rapid.Permutation(seqRange(n)).Draw(t, "arrival order")

		q := NewSortedQueue()
		for _, off := range order {
			q.Push(&Packet{SeqNum: base + uint16(off)})
		}

		var lastSeq uint16
		havePrev := false
		for {
			p, ok := q.Pop()
			if !ok {
				break
			}
			if havePrev {
				if int16(p.SeqNum-lastSeq) <= 0 {
					t.Fatalf("sequence regressed or repeated: %d after %d", p.SeqNum, lastSeq)
				}
			}
			lastSeq = p.SeqNum
			havePrev = true
		}
	})
}

func seqRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
