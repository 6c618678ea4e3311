// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"encoding/json"
	"math/big"

	"perun.network/install-protocol/hashutil"
)

// AppInstance is a deterministic state machine instantiated within a
// channel. Its latest state and action are carried as raw JSON so this
// package never needs to interpret app-specific semantics: the Install
// Protocol only cares about an app instance's installation parameters and
// deposits, never the shape of its state.
type AppInstance struct {
	IdentityHash            IdentityHash
	InitiatorIdentifier      AppParty
	ResponderIdentifier      AppParty
	AppInterface             AppInterface
	DefaultTimeout           uint64
	LatestState              json.RawMessage
	LatestVersionNumber      uint64
	LatestAction             json.RawMessage // nil if no action is pending
	StateTimeout             uint64
	OutcomeType              OutcomeType
	InitiatorDeposit         *big.Int
	ResponderDeposit         *big.Int
	InitiatorDepositAssetID  AssetID
	ResponderDepositAssetID  AssetID
}

// Clone returns a deep copy, so callers can freely mutate the result without
// aliasing the receiver's maps or big.Int values.
func (a AppInstance) Clone() AppInstance {
	c := a
	if a.LatestState != nil {
		c.LatestState = append(json.RawMessage(nil), a.LatestState...)
	}
	if a.LatestAction != nil {
		c.LatestAction = append(json.RawMessage(nil), a.LatestAction...)
	}
	if a.InitiatorDeposit != nil {
		c.InitiatorDeposit = new(big.Int).Set(a.InitiatorDeposit)
	}
	if a.ResponderDeposit != nil {
		c.ResponderDeposit = new(big.Int).Set(a.ResponderDeposit)
	}
	return c
}

// ComputeIdentityHash derives an app instance's identity hash from its
// immutable installation parameters: the two parties, the app definition
// address, the default timeout, and a monotonic sequence number that
// distinguishes otherwise-identical proposals between the same two parties.
//
// The byte layout mirrors the commitment package's hashToSign scheme: each
// field is encoded and length-prefixed before concatenation, then hashed
// with Keccak-256, so an identity hash and a commitment hash are produced by
// the same canonical method throughout this module.
func ComputeIdentityHash(initiator, responder AppParty, appDefinition AppInterface, defaultTimeout, seq uint64) IdentityHash {
	initiatorAddr := initiator.Address()
	responderAddr := responder.Address()
	appAddr := appDefinition.Address
	return IdentityHash(hashutil.Fields(
		initiatorAddr[:],
		responderAddr[:],
		appAddr[:],
		hashutil.Uint64(defaultTimeout),
		hashutil.Uint64(seq),
	))
}
