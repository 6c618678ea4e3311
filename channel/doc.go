// SPDX-License-Identifier: Apache-2.0

// Package channel implements the state-channel transition algebra: the pure
// (preChannel, proposal) -> postChannel function that debits a channel's
// free balance and materializes a new app instance. It holds no I/O, no
// signing, and no persistence; those are the concerns of the protocol and
// host packages built on top of it.
package channel // import "perun.network/install-protocol/channel"
