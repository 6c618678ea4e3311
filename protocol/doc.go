// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the Install Protocol's two role-parameterized
// engines as explicit state machines: each Advance call consumes the
// host's response to the previous suspension point and returns the next
// Step, a tagged request for the host to service (sign, validate, send,
// send-and-wait, or persist). The engine never touches a network, a
// signing key, or a store directly; see the host package for the
// concrete implementations those Steps are serviced against.
package protocol // import "perun.network/install-protocol/protocol"
