package pipeline

import "bken/receiver/internal/packet"

// Interface identifies which of a slot's endpoints a packet arrived on.
// A slot has at most one endpoint per Interface.
type Interface uint8

const (
	// IfaceAudioSource carries source (audio payload) packets.
	IfaceAudioSource Interface = iota
	// IfaceAudioRepair carries FEC repair packets.
	IfaceAudioRepair
	// IfaceControl is reserved for a future control-protocol endpoint;
	// routing for it is not implemented, but the interface slot exists so
	// CreateEndpoint's "one endpoint per interface" rule has somewhere to
	// put it without a later breaking change.
	IfaceControl
)

func (i Interface) String() string {
	switch i {
	case IfaceAudioSource:
		return "audio-source"
	case IfaceAudioRepair:
		return "audio-repair"
	case IfaceControl:
		return "control"
	default:
		return "unknown"
	}
}

const endpointQueueCapacity = 512

// Endpoint is one network ingress point bound to one interface within a
// slot: it owns a bounded queue fed by a Writer
// handle published to network threads, and is drained into sessions during
// routing.
type Endpoint struct {
	iface Interface
	queue *packet.Queue
}

// NewEndpoint constructs an Endpoint for the given interface.
func NewEndpoint(iface Interface) *Endpoint {
	return &Endpoint{iface: iface, queue: packet.NewQueue(endpointQueueCapacity)}
}

// Writer returns the thread-safe, non-blocking handle network threads use
// to enqueue packets.
func (e *Endpoint) Writer() *packet.Writer {
	return packet.NewWriter(e.queue)
}

// PullPackets drains every packet currently queued. Any until_ts windowing
// is enforced one layer up, by the FEC decoder's own block-age and
// sequence-order logic, so this simply hands back everything that has
// arrived so far.
func (e *Endpoint) PullPackets() []*packet.Packet {
	return e.queue.PopAll()
}

// Close marks the endpoint deleted: writes from then on never panic (so a
// racing network thread is safe), but they are discarded and the writer
// reports WriteEndpointGone.
func (e *Endpoint) Close() {
	e.queue.Close()
}
