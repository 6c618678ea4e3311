// SPDX-License-Identifier: Apache-2.0

// Package commitment builds the canonical byte-strings that represent
// on-chain claims about a channel's state, hashes them, and aggregates
// counterparty signatures over those hashes in canonical channel-owner
// order.
package commitment // import "perun.network/install-protocol/commitment"
