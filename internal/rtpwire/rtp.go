// Package rtpwire decodes the on-wire RTP header into the fields the
// pipeline needs for source packets: sequence number, stream timestamp,
// sender identity, and payload type. It never produces a repair packet —
// those carry parity, not RTP framing, and are parsed by the fec package's
// own wire format instead.
package rtpwire

import (
	"fmt"
	"time"

	"github.com/pion/rtp"

	"bken/receiver/internal/packet"
)

// Parse decodes an RTP packet read from addr at recvTime into the pipeline's
// internal Packet representation. Every source (non-FEC) packet on the wire
// is assumed to be plain RTP; repair packets use a distinct payload type and
// are parsed by the fec package instead, since their payload isn't RTP at
// all.
func Parse(raw []byte, addr string, recvTime time.Time) (*packet.Packet, error) {
	var p rtp.Packet
	if err := p.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("rtpwire: %w", err)
	}

	return &packet.Packet{
		Kind: packet.KindSource,
		SenderID: packet.SenderID{
			Addr: addr,
			SSRC: p.SSRC,
		},
		SeqNum:      p.SequenceNumber,
		StreamTS:    p.Timestamp,
		PayloadType: p.PayloadType,
		Payload:     p.Payload,
		RecvTime:    recvTime,
	}, nil
}

// Marshal is the inverse of Parse, used by tests and by the loopback demo in
// cmd/receiver to synthesize wire traffic without a live sender.
func Marshal(p *packet.Packet) ([]byte, error) {
	out := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    p.PayloadType,
			SequenceNumber: p.SeqNum,
			Timestamp:      p.StreamTS,
			SSRC:           p.SenderID.SSRC,
		},
		Payload: p.Payload,
	}
	return out.Marshal()
}
