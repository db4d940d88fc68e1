// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "github.com/rbmk-project/nodesim/sim/packet"

// Address is an alias for [packet.Address].
type Address = packet.Address

// Packet is an alias for [packet.Packet].
type Packet = packet.Packet

// Broadcast is an alias for [packet.Broadcast].
const Broadcast = packet.Broadcast

// MaxAddress is an alias for [packet.MaxAddress].
const MaxAddress = packet.MaxAddress
