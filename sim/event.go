// SPDX-License-Identifier: GPL-3.0-or-later

package sim

// EventKind tags the variant carried by an [Event].
type EventKind int

const (
	// EventDelivery carries a [Packet] whose delivery decision (drop,
	// delay, deliver) has already been made; the tick loop invokes the
	// destination's on_receive.
	EventDelivery EventKind = iota

	// EventTimeout carries a [Timeout] whose FireTick has arrived.
	EventTimeout

	// EventFailure carries the address of a node to crash.
	EventFailure

	// EventStart carries the address of a node to (re)construct and start.
	EventStart

	// EventCommand carries an address and an operator-supplied string to
	// deliver to that node's on_command.
	EventCommand

	// EventEcho carries a message to emit on the log stream verbatim.
	EventEcho

	// EventExit terminates the simulation.
	EventExit

	// EventTimeAdvance is the tick boundary in script mode; the tick
	// loop never executes it as a handler, only uses it to stop
	// draining the script for the current tick.
	EventTimeAdvance
)

// String returns a human-readable name for the event kind, used in
// EVERYTHING mode's numbered event listing and in log records.
func (k EventKind) String() string {
	switch k {
	case EventDelivery:
		return "Delivery"
	case EventTimeout:
		return "Timeout"
	case EventFailure:
		return "Failure"
	case EventStart:
		return "Start"
	case EventCommand:
		return "Command"
	case EventEcho:
		return "Echo"
	case EventExit:
		return "Exit"
	case EventTimeAdvance:
		return "TimeAdvance"
	default:
		return "Unknown"
	}
}

// Event is a tagged variant of the things a tick can execute.
//
// Only the fields relevant to Kind are populated; the others keep their
// zero values. Like the original implementation's single event object,
// it is one struct with an enum tag and optional fields.
type Event struct {
	// Kind selects which field(s) below are meaningful.
	Kind EventKind

	// Addr is the node address for EventFailure, EventStart, and
	// EventCommand.
	Addr Address

	// Command is the operator-supplied string for EventCommand.
	Command string

	// Message is the text to emit for EventEcho.
	Message string

	// Pkt is the packet to deliver for EventDelivery.
	Pkt *Packet

	// TO is the timeout to fire for EventTimeout.
	TO *Timeout
}

// String returns a short description of the event, used for the
// numbered listing shown to the operator in EVERYTHING mode.
func (e Event) String() string {
	switch e.Kind {
	case EventDelivery:
		return e.Kind.String() + " " + e.Pkt.String()
	case EventTimeout:
		return e.Kind.String() + " owner=" + e.TO.Owner.String()
	case EventFailure, EventStart:
		return e.Kind.String() + " " + e.Addr.String()
	case EventCommand:
		return e.Kind.String() + " " + e.Addr.String() + " " + e.Command
	case EventEcho:
		return e.Kind.String() + " " + e.Message
	default:
		return e.Kind.String()
	}
}
