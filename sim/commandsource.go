// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "io"

// CommandSource feeds the [Simulator] the events that are not
// generated internally by failure injection: TimeAdvance boundaries,
// Command, Echo, Failure (deprecated), Start, and Exit (§6).
//
// Two variants are expected: a pre-parsed sorted script and a
// line-oriented interactive prompt. Both live under sim/command; this
// interface is the only contract [Simulator] depends on, so parsing
// concerns never leak into the tick loop.
type CommandSource interface {
	// Next returns the next event. It returns an error wrapping
	// [io.EOF] once the source is permanently exhausted; a script
	// source does this after its last event, an interactive source
	// never does (it waits for more input, and once its input is
	// exhausted it returns a TimeAdvance event on every call).
	Next() (Event, error)

	// Interactive reports whether this source selects interactive-mode
	// tick-phase ordering (§4.2). Script sources return false.
	Interactive() bool

	io.Closer
}
