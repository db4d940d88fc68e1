// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package sim implements a discrete-event network simulator for
user-written node programs that communicate by message passing.

# Usage and Features

The [New] function creates a [*Simulator] given a [Config] and a
node-program [Factory]. Call [*Simulator.Run] to drive the simulation
to completion, consuming events from a [CommandSource] (either a
pre-parsed script, see the sim/command package's NewScriptSource, or
an interactive prompt, see NewInteractiveSource).

A node program implements the four-method [Node] interface. The
simulator binds each running node to a [*Runtime], which exposes the
narrow surface ([Runtime.Send], [Runtime.Broadcast],
[Runtime.SetTimeout], [Runtime.Now], [Runtime.Addr]) through which node
code may re-enter the simulator.

The simulator is single-threaded and cooperative: there is one logical
thread of execution, and node code runs synchronously inside
event-handler dispatch. It does not perform any I/O of its own beyond
what a [CommandSource] or the configured [io.Writer]/[*slog.Logger]
require.

# Failure Injection

A [*FailureController], configured via [Config.Mode], decides drops,
delays, crashes, recoveries, and the execution order of a tick's
events. See the Mode constants for the escalating levels of control
this hands from the simulator's RNG to an interactive operator.

# Design Documents

See SPEC_FULL.md at the root of this module for the full design.
*/
package sim
