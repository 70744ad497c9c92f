// Package rerr defines the receiver's error taxonomy.
//
// Every sentinel below pairs with a fixed disposition; callers should not
// invent new dynamic error strings for these cases, so that collaborators
// can `errors.Is` against them regardless of which layer produced them.
package rerr

import "errors"

var (
	// ErrQueueOverflow: endpoint enqueue found the bounded queue full.
	// Disposition: drop the packet, increment a counter, continue.
	ErrQueueOverflow = errors.New("receiver: queue overflow")

	// ErrBadPacket: a decoder rejected a packet as malformed.
	// Disposition: drop the packet, continue.
	ErrBadPacket = errors.New("receiver: malformed packet")

	// ErrUnrecoverableBlock: FEC could not reconstruct every missing
	// position in a block. Disposition: emit silence for the missing
	// positions, flag the frame, continue.
	ErrUnrecoverableBlock = errors.New("receiver: unrecoverable FEC block")

	// ErrStarvation: watchdog no-playback timeout elapsed.
	// Disposition: mark the session terminal, reap it.
	ErrStarvation = errors.New("receiver: session starved")

	// ErrBrokenPlayback: watchdog drop-rate timeout elapsed.
	// Disposition: mark the session terminal, reap it.
	ErrBrokenPlayback = errors.New("receiver: playback broken")

	// ErrLatencyOutOfBand: latency monitor's safety band exceeded for the
	// configured duration. Disposition: mark the session terminal, reap it.
	ErrLatencyOutOfBand = errors.New("receiver: latency out of band")

	// ErrAllocFailure: a buffer pool was exhausted and the fallback policy
	// refused to allocate. Disposition: return to caller; terminate the
	// session for session-internal paths.
	ErrAllocFailure = errors.New("receiver: allocation failure")

	// ErrCancelled: the pipeline loop tore down before a task completed.
	ErrCancelled = errors.New("receiver: task cancelled")

	// ErrInvalidArgument: a task was constructed with invalid parameters.
	// Disposition: complete the task unsuccessfully, no side effect.
	ErrInvalidArgument = errors.New("receiver: invalid argument")

	// ErrConfigurationFatal: construction failed. Disposition: the
	// pipeline is marked invalid; read() returns false from then on.
	ErrConfigurationFatal = errors.New("receiver: configuration fatal")

	// ErrEndpointGone: a write or lookup targeted a deleted endpoint.
	ErrEndpointGone = errors.New("receiver: endpoint gone")

	// ErrSlotNotFound / ErrEndpointExists: control-plane task errors that
	// don't have their own dedicated row in the error table but share
	// ErrInvalidArgument's disposition.
	ErrSlotNotFound    = errors.New("receiver: slot not found")
	ErrEndpointExists  = errors.New("receiver: endpoint already exists on interface")
	ErrIdentityClash   = errors.New("receiver: sender identity already bound on a different interface")
)
