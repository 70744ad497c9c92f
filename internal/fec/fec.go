// Package fec implements a block-level forward error correction decoder:
// it groups source and repair packets by block, reconstructs missing
// source packets with Reed-Solomon once enough shards of a block have
// arrived, and emits source packets downstream in strict sequence order
// with missing (unrecoverable) positions marked so the depacketizer fills
// silence.
//
// Grounded on the block/parity shard shape client/transport.go's quality
// classifier assumes for its own loss metrics, generalized to an actual
// erasure code. No example repo implements block-level FEC directly;
// github.com/klauspost/reedsolomon is pulled in because a different pack
// repo's vendored KCP session file (xtaci-kcptun's vendored kcp-go)
// depends on it for the same dataShards/parityShards shape this decoder
// needs.
package fec

import (
	"time"

	"github.com/klauspost/reedsolomon"

	"bken/receiver/internal/packet"
	"bken/receiver/internal/rerr"
	"bken/receiver/internal/rlog"
)

// Scheme describes one FEC block's shape: N source positions protected by K
// repair shards. Loss of up to K positions within a block is recoverable.
// FrameSamples is the fixed stream-timestamp advance between consecutive
// positions, used to assign a reconstructed packet its stream timestamp
// without depending on a lost packet's own header having arrived.
type Scheme struct {
	N            int
	K            int
	FrameSamples uint32
}

type block struct {
	id         uint32
	baseSeq    uint16 // sequence number of position 0
	baseTS     uint32 // stream timestamp of position 0
	haveBaseTS bool
	shards     [][]byte
	lens       []int // original payload length per source position
	present    int
	firstSeen  time.Time
	resolved   bool
}

// Reader is the FEC decoder. It is not safe for concurrent use; like
// SortedQueue, it is owned solely by the audio thread under the pipeline
// mutex.
type Reader struct {
	scheme Scheme
	enc    reedsolomon.Encoder
	blocks map[uint32]*block
	out    *packet.SortedQueue
	maxAge time.Duration
}

// NewReader constructs a Reader for the given scheme. maxAge bounds how
// long an unresolved block is kept before it is aged out and its still-
// missing positions are emitted as silence markers.
func NewReader(scheme Scheme, maxAge time.Duration) (*Reader, error) {
	if scheme.N <= 0 || scheme.K <= 0 {
		return nil, ErrScheme
	}
	enc, err := reedsolomon.New(scheme.N, scheme.K)
	if err != nil {
		return nil, err
	}
	return &Reader{
		scheme: scheme,
		enc:    enc,
		blocks: make(map[uint32]*block),
		out:    packet.NewSortedQueue(),
		maxAge: maxAge,
	}, nil
}

// PushSource feeds one source packet into the decoder. Plain RTP framing
// carries no FEC block fields of its own, so block membership is derived
// from the packet's own sequence number: blockID = seq/N, position =
// seq%N. This is the only source of truth for source-packet block
// grouping; p.BlockID/p.BlockPos (populated for repair packets only) are
// not read here.
func (r *Reader) PushSource(p *packet.Packet) {
	blockID := uint32(p.SeqNum) / uint32(r.scheme.N)
	pos := int(p.SeqNum) % r.scheme.N
	b := r.blockFor(blockID, p.SeqNum, pos)
	if b == nil || b.resolved {
		return
	}
	if !b.haveBaseTS {
		b.baseTS = p.StreamTS - uint32(pos)*r.scheme.FrameSamples
		b.haveBaseTS = true
	}
	if b.shards[pos] != nil {
		return // duplicate
	}
	b.shards[pos] = p.Payload
	b.lens[pos] = len(p.Payload)
	b.present++
	r.tryResolve(b)
}

// PushRepair feeds one repair packet into the decoder.
func (r *Reader) PushRepair(p *packet.Packet) {
	pos := r.scheme.N + p.BlockPos
	b := r.blockForRepair(p.BlockID)
	if b == nil || b.resolved {
		return
	}
	if b.shards[pos] != nil {
		return
	}
	b.shards[pos] = p.Payload
	b.present++
	r.tryResolve(b)
}

// blockFor returns (creating if absent) the block for a source packet,
// inferring baseSeq from the packet's own sequence number and block
// position so a block created by a repair packet's earlier arrival can
// still line up.
func (r *Reader) blockFor(blockID uint32, seq uint16, pos int) *block {
	b, ok := r.blocks[blockID]
	if !ok {
		b = r.newBlock(blockID, seq-uint16(pos))
		r.blocks[blockID] = b
	} else if !b.haveBaseTS {
		// First source packet of a block a repair packet opened.
		b.baseSeq = seq - uint16(pos)
	}
	return b
}

func (r *Reader) blockForRepair(blockID uint32) *block {
	b, ok := r.blocks[blockID]
	if !ok {
		// baseSeq/baseTS are unknown until a source packet from this block
		// arrives; they read as 0 if a block is resolved from repair shards
		// alone before any source packet arrives, which only happens if
		// every position in the block was lost outright, in which case
		// there is no sequence number or timestamp to recover anyway.
		b = r.newBlock(blockID, 0)
		r.blocks[blockID] = b
	}
	return b
}

func (r *Reader) newBlock(id uint32, baseSeq uint16) *block {
	n := r.scheme.N + r.scheme.K
	return &block{
		id:        id,
		baseSeq:   baseSeq,
		shards:    make([][]byte, n),
		lens:      make([]int, n),
		firstSeen: time.Now(),
	}
}

// tryResolve reconstructs b once enough shards are present, then emits every
// source position (reconstructed or original) downstream in order.
func (r *Reader) tryResolve(b *block) {
	if b.resolved || b.present < r.scheme.N {
		return
	}
	r.resolveAndEmit(b, false)
}

// resolveAndEmit runs Reed-Solomon reconstruction (best-effort: partial is
// still useful when aging out) and pushes every source position into the
// output sorted queue. Missing positions that reconstruction could not fill
// are emitted as nil-payload placeholders — the depacketizer's caller reads
// this as "insert silence".
func (r *Reader) resolveAndEmit(b *block, aging bool) {
	b.resolved = true
	delete(r.blocks, b.id)

	shardLen := maxShardLen(b.shards)
	if shardLen > 0 && b.present >= r.scheme.N {
		padded := make([][]byte, len(b.shards))
		for i, s := range b.shards {
			if s == nil {
				continue // leave nil: Reconstruct treats nil as "missing, fill me in"
			}
			padded[i] = padTo(s, shardLen)
		}
		if err := r.enc.Reconstruct(padded); err == nil {
			for i := 0; i < r.scheme.N; i++ {
				if b.shards[i] == nil {
					n := b.lens[i]
					if n == 0 || n > shardLen {
						n = shardLen
					}
					b.shards[i] = padded[i][:n]
				}
			}
		} else if !aging {
			rlog.Area("fec").Debugf("block %d: reconstruct failed with %d/%d shards: %v", b.id, b.present, r.scheme.N, err)
		}
	}

	missing := 0
	for i := 0; i < r.scheme.N; i++ {
		seq := b.baseSeq + uint16(i)
		ts := b.baseTS + uint32(i)*r.scheme.FrameSamples
		if b.shards[i] == nil {
			missing++
			r.out.Push(&packet.Packet{Kind: packet.KindSource, SeqNum: seq, StreamTS: ts, Payload: nil})
			continue
		}
		r.out.Push(&packet.Packet{Kind: packet.KindSource, SeqNum: seq, StreamTS: ts, Payload: b.shards[i]})
	}
	if missing > 0 {
		rlog.Area("fec").Warnf("block %d unrecoverable: %d/%d positions missing", b.id, missing, r.scheme.N)
	}
}

// Age walks pending blocks and force-resolves any older than maxAge,
// emitting partial output for positions that never arrived.
func (r *Reader) Age() {
	now := time.Now()
	for _, b := range r.blocks {
		if now.Sub(b.firstSeen) >= r.maxAge {
			r.resolveAndEmit(b, true)
		}
	}
}

// Pop returns the next source packet in strict sequence order, or
// (nil, false) if it hasn't been resolved into the output queue yet.
// A returned packet with a nil Payload denotes an unrecoverable position.
func (r *Reader) Pop() (*packet.Packet, bool) {
	return r.out.Pop()
}

// QueueDepth reports how many resolved source packets are currently
// sitting in the output queue, waiting to be popped downstream.
func (r *Reader) QueueDepth() int {
	return r.out.Len()
}

func maxShardLen(shards [][]byte) int {
	max := 0
	for _, s := range shards {
		if len(s) > max {
			max = len(s)
		}
	}
	return max
}

func padTo(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ErrScheme is returned by NewReader when N or K is non-positive; kept as a
// named export so callers can match it alongside the rest of rerr's table
// rather than a bare reedsolomon error.
var ErrScheme = rerr.ErrInvalidArgument
