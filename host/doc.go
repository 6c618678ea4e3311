// SPDX-License-Identifier: Apache-2.0

// Package host provides the concrete, in-process implementations the
// protocol engines' suspension points are serviced against: signing via a
// wallet keystore, validation via a pluggable allow-list, persistence via
// an in-memory store keyed by (multisigAddress, appIdentityHash,
// versionNumber), and delivery via a wire.Bus. A production host would
// swap the store for a database and the bus for a real transport without
// touching the protocol package at all.
package host // import "perun.network/install-protocol/host"
