// Package packet implements the receiver's packet carrier and the bounded
// queues that sit between network ingress and the decode chain.
package packet

import "time"

// Kind tags a Packet as carrying source audio or FEC repair data.
type Kind uint8

const (
	KindSource Kind = iota
	KindRepair
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindRepair:
		return "repair"
	default:
		return "unknown"
	}
}

// SenderID is a composite key that uniquely identifies one logical sender
// within one slot.
type SenderID struct {
	Addr string
	SSRC uint32
}

// Packet is an immutable carrier of parsed header fields plus a reference
// to a payload buffer. Packets are conceptually shared and reference
// counted as they move through the pipeline; in Go this is simply "don't
// mutate a Packet or its Payload after construction" — the garbage
// collector retires it once the last queue drops its reference.
type Packet struct {
	Kind Kind

	// Source-packet fields.
	SenderID    SenderID
	SeqNum      uint16 // RTP-style sequence number
	StreamTS    uint32 // stream timestamp in samples
	PayloadType uint8
	Payload     []byte

	// Repair-packet fields.
	BlockID  uint32
	BlockPos int // position within the FEC block
	ShardLen int // shard length in bytes (repair packets pad to this)

	RecvTime time.Time
}

// OrderKey returns the packet's sequence number, whatever its Kind. Repair
// packets carry no sequence number of their own, so for them this is
// whatever SeqNum holds (zero when parsed by the fec package).
func (p *Packet) OrderKey() uint16 {
	return p.SeqNum
}
