// SPDX-License-Identifier: GPL-3.0-or-later

package sim

// TimeoutID identifies a registered [Timeout] so a node can reason
// about (but never directly cancel) it. The only way a timeout is
// cancelled is by its owner failing; see [Simulator.failNode].
type TimeoutID uint64

// Timeout is a callback a node has asked to run at or after a future
// tick.
//
// When its Owner fails, a Timeout is cancelled: [Simulator.failNode]
// removes it from the waiting set and records it in the simulator's
// per-tick canceled set, so it never fires.
type Timeout struct {
	// ID uniquely identifies this timeout among all waiting timeouts.
	ID TimeoutID

	// Owner is the node that registered the timeout.
	Owner Address

	// FireTick is the first tick at which the timeout is eligible to
	// fire. It fires at the first resolve-timeouts phase for which
	// FireTick <= now.
	FireTick int

	// Callback runs when the timeout fires. It may return
	// [ErrNodeCrash] to request that Owner be torn down; bookkeeping
	// for that crash must already be complete by the time it returns.
	Callback func() error
}
