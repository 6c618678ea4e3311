// SPDX-License-Identifier: Apache-2.0

// Package setup provides minimal stand-ins for the Setup and Propose
// protocols, which the Install Protocol treats as external collaborators.
// Setup produces the pre-protocol state channel Install consumes; Propose
// inserts a candidate app instance into that channel's proposed set. Real
// deployments would negotiate both over the wire and fund deposits
// on-chain; here the free balance is seeded directly and deposits are
// recorded through a chain.Connector for bookkeeping only.
package setup // import "perun.network/install-protocol/setup"
