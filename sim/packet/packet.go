// SPDX-License-Identifier: GPL-3.0-or-later

// Package packet contains [Packet], [Address], and the related definitions.
package packet

import "fmt"

// Address identifies a node inside a simulation.
//
// Addresses are small non-negative integers in [0, MaxAddress). The
// distinguished [Broadcast] value is only ever valid as the destination
// argument of a send; it never appears on an in-transit [Packet].
type Address int

// MaxAddress is one past the largest address a simulation may use.
//
// Mirrors the original Java implementation's MAX_ADDRESS bound on the
// number of simulated nodes.
const MaxAddress Address = 1 << 16

// Broadcast is the sentinel destination meaning "every other live node".
const Broadcast Address = -1

// Valid reports whether addr is a concrete, in-range address.
//
// Broadcast is not Valid: it is a send-time-only sentinel.
func (addr Address) Valid() bool {
	return addr >= 0 && addr < MaxAddress
}

// String returns the string representation of addr.
func (addr Address) String() string {
	if addr == Broadcast {
		return "broadcast"
	}
	return fmt.Sprintf("%d", int(addr))
}

// Packet is an immutable message in transit between two nodes.
//
// Once enqueued on a simulator's in-transit queue, a Packet is never
// mutated; resend it as a new value instead.
type Packet struct {
	// Src is the sending node's address.
	Src Address

	// Dst is the receiving node's address. Dst is never [Broadcast]:
	// broadcasts are expanded into one concrete-destination Packet per
	// other live node at send time.
	Dst Address

	// Protocol is an opaque, node-program-defined protocol identifier.
	Protocol int

	// Payload is the opaque byte sequence carried by the packet.
	Payload []byte
}

// String returns the string representation of the packet.
func (p *Packet) String() string {
	return fmt.Sprintf("%s -> %s proto=%d length=%d", p.Src, p.Dst, p.Protocol, len(p.Payload))
}
