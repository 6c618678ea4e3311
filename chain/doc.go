// SPDX-License-Identifier: Apache-2.0

// Package chain provides the on-chain connector interface the Install
// Protocol's middleware host delegates deposit and balance queries to. The
// protocol engine itself never calls this package directly: deposits are
// an out-of-scope concern (they fund the free balance before any install
// runs), but the host needs a concrete implementation to seed and observe
// a channel's free balance in a demo or test environment.
package chain // import "perun.network/install-protocol/chain"
