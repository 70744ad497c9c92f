package fec

import (
	"encoding/binary"
	"fmt"
	"time"

	"bken/receiver/internal/packet"
)

// repairHeaderLen is the fixed header every repair packet carries ahead of
// its parity payload: sender SSRC, block id, position within the repair
// group (0..K-1), and the original source shard length, which lands in the
// parsed packet's ShardLen. The decoder does not read ShardLen: a
// reconstructed source shard keeps the padded length of the block's
// longest shard. Repair packets use
// this header instead of RTP framing since their payload is Reed-Solomon
// parity, not audio — there is no reference wire format for this in the
// pack, so the layout here is this receiver's own, documented choice.
const repairHeaderLen = 4 + 4 + 2 + 2

// ParseRepair decodes a repair packet read from addr at recvTime.
func ParseRepair(raw []byte, addr string, recvTime time.Time) (*packet.Packet, error) {
	if len(raw) < repairHeaderLen {
		return nil, fmt.Errorf("fec: repair packet too short: %d bytes", len(raw))
	}

	ssrc := binary.BigEndian.Uint32(raw[0:4])
	blockID := binary.BigEndian.Uint32(raw[4:8])
	pos := binary.BigEndian.Uint16(raw[8:10])
	shardLen := binary.BigEndian.Uint16(raw[10:12])

	payload := make([]byte, len(raw)-repairHeaderLen)
	copy(payload, raw[repairHeaderLen:])

	return &packet.Packet{
		Kind:     packet.KindRepair,
		SenderID: packet.SenderID{Addr: addr, SSRC: ssrc},
		BlockID:  blockID,
		BlockPos: int(pos),
		ShardLen: int(shardLen),
		Payload:  payload,
		RecvTime: recvTime,
	}, nil
}

// MarshalRepair is the inverse of ParseRepair, used by tests to synthesize
// repair wire traffic without a live sender.
func MarshalRepair(p *packet.Packet) []byte {
	out := make([]byte, repairHeaderLen+len(p.Payload))
	binary.BigEndian.PutUint32(out[0:4], p.SenderID.SSRC)
	binary.BigEndian.PutUint32(out[4:8], p.BlockID)
	binary.BigEndian.PutUint16(out[8:10], uint16(p.BlockPos))
	binary.BigEndian.PutUint16(out[10:12], uint16(p.ShardLen))
	copy(out[repairHeaderLen:], p.Payload)
	return out
}
