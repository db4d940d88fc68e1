// SPDX-License-Identifier: GPL-3.0-or-later

package sim

// Node is the capability set a user-supplied node program implements.
//
// Any method may return [ErrNodeCrash] (or an error wrapping it) to
// request self-termination. Bookkeeping for the crash — removing the
// node from the live set, cancelling its waiting timeouts — must
// already be complete by the time the method returns; the simulator
// only absorbs the signal at the event-dispatch boundary, it does not
// perform the teardown on the node's behalf beyond what [Simulator]'s
// own failNode does when it calls Stop.
//
// Construct instances through a [Factory], never directly.
type Node interface {
	// Start is called once, immediately after the node is bound to a
	// [*Runtime], each time the node becomes live (including restarts).
	Start() error

	// Stop is called when the node is about to be marked crashed,
	// whether due to RNG/interactive failure injection, a write-barrier
	// crash, or a voluntary crash signaled from one of the other
	// methods. Bookkeeping (removing from the live set, etc.) happens
	// in the simulator around this call, not inside it.
	Stop() error

	// OnReceive is called when a packet addressed to this node is
	// delivered. protocol and payload are the packet's Protocol and
	// Payload fields.
	OnReceive(src Address, protocol int, payload []byte) error

	// OnCommand is called when an operator-issued Command event
	// targets this node.
	OnCommand(s string) error
}

// Factory constructs a fresh [Node] bound to rt.
//
// A Factory is a plain callable rather than a reflective constructor:
// see the design notes on reflection-based construction. Returning a
// non-nil error causes start_node to leave the node crashed and is
// classified as [ErrFactoryFailure].
type Factory func(rt *Runtime) (Node, error)
