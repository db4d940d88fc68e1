// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "errors"

// Sentinel errors classifying the outcomes of §7 of the design.
//
// Callers should use [errors.Is] rather than comparing directly, since
// these may be wrapped with additional context before being logged.
var (
	// ErrInvalidAddress means an address fell outside [0, packet.MaxAddress)
	// or was [packet.Broadcast] where a concrete address was required.
	ErrInvalidAddress = errors.New("sim: invalid address")

	// ErrSendFromCrashed means a send was attempted from a node that is
	// not currently live. The caller should treat this as a silent no-op.
	ErrSendFromCrashed = errors.New("sim: send from crashed node")

	// ErrDeliverToCrashed means a packet's destination is not currently
	// live. The caller should drop the packet silently.
	ErrDeliverToCrashed = errors.New("sim: deliver to crashed node")

	// ErrBadPacket means a packet failed validation at the send boundary.
	ErrBadPacket = errors.New("sim: malformed packet")

	// ErrNodeCrash is the cooperative crash signal a [Node] method
	// returns to request that the simulator tear it down. It unwinds to
	// the event-dispatch boundary, where it is absorbed rather than
	// propagated further.
	ErrNodeCrash = errors.New("sim: node crash")

	// ErrFactoryFailure means a [Factory] failed to construct a node
	// during start_node; the node ends up crashed.
	ErrFactoryFailure = errors.New("sim: node factory failed")

	// ErrUserInputMalformed means an interactive prompt received input
	// that does not parse according to its expected grammar (e.g. a
	// non-permutation in EVERYTHING event ordering). The prompt re-asks.
	ErrUserInputMalformed = errors.New("sim: malformed user input")
)
