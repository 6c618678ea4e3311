// SPDX-License-Identifier: Apache-2.0

// Package wire implements the install protocol's wire format and the bus
// abstraction the protocol engine uses for IO_SEND and IO_SEND_AND_WAIT.
// Messages are JSON with 0x-prefixed hex binary fields; customData carries
// a protocol-specific payload as raw JSON so unknown fields round-trip.
package wire // import "perun.network/install-protocol/wire"
