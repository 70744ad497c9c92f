package fec

import (
	"testing"
	"time"

	"github.com/klauspost/reedsolomon"
	"github.com/stretchr/testify/require"

	"bken/receiver/internal/packet"
)

// encodeBlock builds N source shards of equal length plus K valid parity
// shards via the real Reed-Solomon encoder, so these tests exercise actual
// reconstruction rather than asserting against fabricated parity bytes.
func encodeBlock(t *testing.T, n, k, shardLen int) [][]byte {
	t.Helper()
	enc, err := reedsolomon.New(n, k)
	require.NoError(t, err)

	shards := make([][]byte, n+k)
	for i := 0; i < n; i++ {
		shards[i] = make([]byte, shardLen)
		for j := range shards[i] {
			shards[i][j] = byte(i*16 + j)
		}
	}
	for i := n; i < n+k; i++ {
		shards[i] = make([]byte, shardLen)
	}
	require.NoError(t, enc.Encode(shards))
	return shards
}

func TestReaderReconstructsSingleLoss(t *testing.T) {
	const n, k, shardLen = 4, 2, 8
	const frameSamples = 960
	shards := encodeBlock(t, n, k, shardLen)

	r, err := NewReader(Scheme{N: n, K: k, FrameSamples: frameSamples}, time.Second)
	require.NoError(t, err)

	const baseSeq = uint16(100) // a multiple of n, so it falls on a block boundary
	const baseTS = uint32(5000)
	const blockID = uint32(baseSeq) / uint32(n)

	for i := 0; i < n; i++ {
		if i == 2 {
			continue // simulate loss of source position 2
		}
		r.PushSource(&packet.Packet{
			Kind:     packet.KindSource,
			SeqNum:   baseSeq + uint16(i),
			StreamTS: baseTS + uint32(i)*frameSamples,
			Payload:  shards[i],
		})
	}
	for i := 0; i < k; i++ {
		r.PushRepair(&packet.Packet{
			Kind:     packet.KindRepair,
			BlockID:  blockID,
			BlockPos: i,
			ShardLen: shardLen,
			Payload:  shards[n+i],
		})
	}

	for i := 0; i < n; i++ {
		p, ok := r.Pop()
		require.True(t, ok, "position %d should have been resolved", i)
		require.Equal(t, baseSeq+uint16(i), p.SeqNum)
		require.Equal(t, baseTS+uint32(i)*frameSamples, p.StreamTS, "position %d should carry its derived stream timestamp", i)
		require.Equal(t, shards[i], p.Payload, "position %d should be reconstructed exactly", i)
	}
}

func TestReaderAgesOutUnrecoverableBlock(t *testing.T) {
	const n, k, shardLen = 4, 2, 8
	shards := encodeBlock(t, n, k, shardLen)

	r, err := NewReader(Scheme{N: n, K: k, FrameSamples: 960}, 10*time.Millisecond)
	require.NoError(t, err)

	const baseSeq = uint16(200) // a multiple of n, so it falls on a block boundary
	for i := 0; i < n; i++ {
		if i == 1 {
			continue // lost, and no repair shards arrive at all
		}
		r.PushSource(&packet.Packet{
			SeqNum:  baseSeq + uint16(i),
			Payload: shards[i],
		})
	}

	// Not enough shards yet (3 of 4, no repair): nothing emitted.
	_, ok := r.Pop()
	require.False(t, ok)

	time.Sleep(20 * time.Millisecond)
	r.Age()

	missing := false
	for i := 0; i < n; i++ {
		p, ok := r.Pop()
		require.True(t, ok)
		if p.Payload == nil {
			missing = true
			require.Equal(t, baseSeq+1, p.SeqNum)
		}
	}
	require.True(t, missing, "position 1 should be emitted as an unrecoverable placeholder")
}

func TestReaderDropsDuplicateSourcePackets(t *testing.T) {
	const n, k, shardLen = 4, 2, 8
	shards := encodeBlock(t, n, k, shardLen)

	r, err := NewReader(Scheme{N: n, K: k}, time.Second)
	require.NoError(t, err)

	push := func(i int) {
		r.PushSource(&packet.Packet{SeqNum: uint16(i), Payload: shards[i]})
	}
	push(0)
	push(0) // duplicate
	push(1)
	push(2)
	push(3)

	count := 0
	for {
		p, ok := r.Pop()
		if !ok {
			break
		}
		count++
		require.NotNil(t, p)
	}
	require.Equal(t, n, count, "each position should be emitted exactly once")
}

// TestPushSourceDerivesBlockFromSequenceNumber exercises the real ingress
// path: plain RTP framing carries no block id or position, so PushSource
// must recover block membership purely from the wire sequence number.
// Two consecutive blocks are fed with no BlockID/BlockPos set at all, and
// every position across both must still resolve and emit in order.
func TestPushSourceDerivesBlockFromSequenceNumber(t *testing.T) {
	const n, k, shardLen = 4, 2, 8
	block0 := encodeBlock(t, n, k, shardLen)
	block1 := encodeBlock(t, n, k, shardLen)

	r, err := NewReader(Scheme{N: n, K: k, FrameSamples: 160}, time.Second)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		r.PushSource(&packet.Packet{SeqNum: uint16(i), Payload: block0[i]})
	}
	for i := 0; i < n; i++ {
		r.PushSource(&packet.Packet{SeqNum: uint16(n + i), Payload: block1[i]})
	}

	for i := 0; i < n; i++ {
		p, ok := r.Pop()
		require.True(t, ok, "block 0 position %d", i)
		require.Equal(t, uint16(i), p.SeqNum)
		require.Equal(t, block0[i], p.Payload)
	}
	for i := 0; i < n; i++ {
		p, ok := r.Pop()
		require.True(t, ok, "block 1 position %d", i)
		require.Equal(t, uint16(n+i), p.SeqNum)
		require.Equal(t, block1[i], p.Payload)
	}
}

func TestParseRepairMarshalRoundTrip(t *testing.T) {
	in := &packet.Packet{
		SenderID: packet.SenderID{SSRC: 0xcafef00d},
		BlockID:  7,
		BlockPos: 1,
		ShardLen: 160,
		Payload:  []byte{9, 8, 7, 6},
	}

	raw := MarshalRepair(in)
	out, err := ParseRepair(raw, "198.51.100.4:9000", time.Now())
	require.NoError(t, err)

	require.Equal(t, packet.KindRepair, out.Kind)
	require.Equal(t, in.SenderID.SSRC, out.SenderID.SSRC)
	require.Equal(t, "198.51.100.4:9000", out.SenderID.Addr)
	require.Equal(t, in.BlockID, out.BlockID)
	require.Equal(t, in.BlockPos, out.BlockPos)
	require.Equal(t, in.ShardLen, out.ShardLen)
	require.Equal(t, in.Payload, out.Payload)
}

func TestParseRepairRejectsShortPacket(t *testing.T) {
	_, err := ParseRepair([]byte{1, 2, 3}, "198.51.100.4:9000", time.Now())
	require.Error(t, err)
}
