package rtpwire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bken/receiver/internal/packet"
)

func TestMarshalParseRoundTrip(t *testing.T) {
	in := &packet.Packet{
		SenderID:    packet.SenderID{SSRC: 0xdeadbeef},
		SeqNum:      1234,
		StreamTS:    48960,
		PayloadType: 111,
		Payload:     []byte{1, 2, 3, 4, 5},
	}

	raw, err := Marshal(in)
	require.NoError(t, err)

	recvTime := time.Now()
	out, err := Parse(raw, "203.0.113.5:4000", recvTime)
	require.NoError(t, err)

	require.Equal(t, packet.KindSource, out.Kind)
	require.Equal(t, in.SenderID.SSRC, out.SenderID.SSRC)
	require.Equal(t, "203.0.113.5:4000", out.SenderID.Addr)
	require.Equal(t, in.SeqNum, out.SeqNum)
	require.Equal(t, in.StreamTS, out.StreamTS)
	require.Equal(t, in.PayloadType, out.PayloadType)
	require.Equal(t, in.Payload, out.Payload)
	require.Equal(t, recvTime, out.RecvTime)
}

func TestParseRejectsMalformedPacket(t *testing.T) {
	_, err := Parse([]byte{0x00}, "203.0.113.5:4000", time.Now())
	require.Error(t, err)
}
