// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "github.com/rbmk-project/common/runtimex"

// NodeTable tracks which addresses are live, which are crashed, and
// the [Node]/[*Runtime] bound to each live address.
//
// The invariant this type exists to enforce (§3) is that every address
// is in exactly one of {live, crashed, absent}. The zero value is
// ready to use.
type NodeTable struct {
	live    map[Address]Node
	runtime map[Address]*Runtime
	crashed map[Address]struct{}

	// created counts the nodes [Simulator.startNode] has brought up at
	// an address that was not in the crashed set, across the whole run;
	// restarts of a crashed address are not counted. The original
	// implementation tracks this as a counter on the node-program
	// factory; we thread it through the owning simulator instead of
	// reaching for a package-level global (see the design notes on
	// global mutable state).
	created int
}

// init lazily allocates the table's maps.
func (nt *NodeTable) init() {
	if nt.live == nil {
		nt.live = make(map[Address]Node)
		nt.runtime = make(map[Address]*Runtime)
		nt.crashed = make(map[Address]struct{})
	}
}

// IsLive reports whether addr currently names a live node.
func (nt *NodeTable) IsLive(addr Address) bool {
	nt.init()
	_, ok := nt.live[addr]
	return ok
}

// IsCrashed reports whether addr currently names a crashed node.
func (nt *NodeTable) IsCrashed(addr Address) bool {
	nt.init()
	_, ok := nt.crashed[addr]
	return ok
}

// Node returns the live node bound to addr, if any.
func (nt *NodeTable) Node(addr Address) (Node, bool) {
	nt.init()
	n, ok := nt.live[addr]
	return n, ok
}

// Runtime returns the [*Runtime] bound to addr, whether addr is
// currently live or crashed (a crashed node's own in-flight Stop call
// still needs its runtime).
func (nt *NodeTable) Runtime(addr Address) (*Runtime, bool) {
	nt.init()
	rt, ok := nt.runtime[addr]
	return rt, ok
}

// LiveAddresses returns the addresses currently live, in unspecified
// order; callers that need a stable order must sort the result.
func (nt *NodeTable) LiveAddresses() []Address {
	nt.init()
	out := make([]Address, 0, len(nt.live))
	for addr := range nt.live {
		out = append(out, addr)
	}
	return out
}

// CrashedAddresses returns the addresses currently crashed, in
// unspecified order.
func (nt *NodeTable) CrashedAddresses() []Address {
	nt.init()
	out := make([]Address, 0, len(nt.crashed))
	for addr := range nt.crashed {
		out = append(out, addr)
	}
	return out
}

// Created returns the "nodes ever created" counter: starts at an
// address that was not crashed, excluding restarts.
func (nt *NodeTable) Created() int {
	return nt.created
}

// markLive records addr as live, bound to node and rt. addr must not
// already be live; callers (startNode) are responsible for failing it
// first if it is. It does not touch the creation counter: startNode
// decides whether this is a fresh address or a restart and calls
// noteCreation itself (§4.5 step 4 only increments for the former).
func (nt *NodeTable) markLive(addr Address, node Node, rt *Runtime) {
	nt.init()
	runtimex.Assert(!nt.IsLive(addr), "nodetable: address already live")
	delete(nt.crashed, addr)
	nt.live[addr] = node
	nt.runtime[addr] = rt
}

// noteCreation increments the "nodes ever created" counter.
func (nt *NodeTable) noteCreation() {
	nt.created++
}

// markCrashed moves addr from live to crashed. It is a no-op if addr
// was not live, matching fail_node's "may or may not be live" contract
// (§4.4 step 1).
func (nt *NodeTable) markCrashed(addr Address) {
	nt.init()
	if _, ok := nt.live[addr]; !ok {
		return
	}
	delete(nt.live, addr)
	nt.crashed[addr] = struct{}{}
}

// forceCrashed records addr as crashed even if it was never live,
// used when a [Factory] fails during start_node (§4.5 step 3: "on
// factory error, ensure n ends up crashed").
func (nt *NodeTable) forceCrashed(addr Address) {
	nt.init()
	delete(nt.live, addr)
	nt.crashed[addr] = struct{}{}
}

// checkInvariant panics (via [runtimex.Assert]) if addr is ever found
// in both the live and crashed sets at once. Called defensively after
// bookkeeping, never on a hot path that would make it expensive.
func (nt *NodeTable) checkInvariant(addr Address) {
	_, l := nt.live[addr]
	_, c := nt.crashed[addr]
	runtimex.Assert(!(l && c), "nodetable: address both live and crashed")
}
