// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "fmt"

// Runtime is the handle a [Node] uses to re-enter its owning
// [*Simulator]. It is the only supported path by which node code may
// mutate simulator state (§3: "User code borrows a reference to the
// simulator through the NodeRuntime bridge and may only mutate
// simulator state through that bridge's methods").
//
// A cyclic node<->simulator reference is resolved the same way the
// design notes prescribe: the simulator owns the nodes, and each node
// holds a Runtime back-reference usable only for this narrow contract.
type Runtime struct {
	sim  *Simulator
	addr Address
}

// Addr returns the address of the node this runtime is bound to.
func (rt *Runtime) Addr() Address {
	return rt.addr
}

// Now returns the simulator's current tick.
func (rt *Runtime) Now() int {
	return rt.sim.clock.Now()
}

// Send enqueues a packet from this node to dest carrying protocol and
// payload. If dest is [Broadcast], it is expanded into one packet per
// other currently-live node (§4.6). If this node is not currently live
// (for example after [Runtime.Crash] or a firing [Runtime.WriteBarrier]
// earlier in the same callback), Send enqueues nothing and returns
// [ErrSendFromCrashed]. Stop runs while the node is still live, so
// packets sent from Stop are enqueued.
func (rt *Runtime) Send(dest Address, protocol int, payload []byte) error {
	return rt.sim.sendPkt(rt.addr, dest, protocol, payload)
}

// Broadcast is a convenience for Send(Broadcast, protocol, payload).
func (rt *Runtime) Broadcast(protocol int, payload []byte) error {
	return rt.Send(Broadcast, protocol, payload)
}

// SetTimeout registers callback to run no earlier than deltaTicks
// ticks from now, and returns a handle identifying it. deltaTicks must
// be >= 1; the simulator clamps 0 and negative values up to 1 so a
// timeout never fires in the tick it was registered.
func (rt *Runtime) SetTimeout(deltaTicks int, callback func() error) TimeoutID {
	if deltaTicks < 1 {
		deltaTicks = 1
	}
	return rt.sim.registerTimeout(rt.addr, rt.sim.clock.Now()+deltaTicks, callback)
}

// WriteBarrier is the cooperative hook a node calls immediately before
// an observable persistent write (§4.7). The simulator may inject a
// crash here, via a Bernoulli trial against failure_rate in RNG-driven
// crash modes, or an interactive y/n prompt in interactive crash
// modes. If the trial fires, WriteBarrier returns [ErrNodeCrash] after
// fail_node has already completed its bookkeeping; the node must
// propagate the error upward immediately without performing the write.
func (rt *Runtime) WriteBarrier() error {
	return rt.sim.writeBarrierCheck(rt.addr)
}

// Crash performs fail_node's bookkeeping for this node immediately,
// then returns [ErrNodeCrash] so the caller can propagate it upward
// to unwind its own call stack (§9's crash-signaling design note,
// option (a)). A [Node] method that wants to voluntarily crash itself
// should `return rt.Crash()` rather than returning [ErrNodeCrash]
// directly, since the contract in §4.3 requires the bookkeeping to be
// done before the signal is raised, not after it is absorbed.
func (rt *Runtime) Crash() error {
	rt.sim.failNode(rt.addr)
	return ErrNodeCrash
}

// String returns a short description, useful in log attributes.
func (rt *Runtime) String() string {
	return fmt.Sprintf("runtime(addr=%s)", rt.addr)
}
