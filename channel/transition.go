// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"math/big"

	"perun.network/install-protocol/wallet"
)

// ComputeInstallStateChannelTransition computes postChannel from preChannel
// and a candidate app instance proposal, without mutating preChannel. It
// resolves the free-balance deductions the install requires, then delegates
// to preChannel.InstallApp for the actual state move.
//
// The function is total on valid inputs: given the same (preChannel,
// proposal) it always produces the same postChannel, so both protocol
// roles, computing this independently, agree on the result before either
// one signs anything over it.
func ComputeInstallStateChannelTransition(preChannel *Channel, proposal AppInstance) (postChannel *Channel, newAppInstance AppInstance, err error) {
	appInitiator := proposal.InitiatorIdentifier.Address()
	appResponder := proposal.ResponderIdentifier.Address()

	decrement := NewTokenIndexedCoinTransferMap()

	if proposal.InitiatorDepositAssetID != proposal.ResponderDepositAssetID {
		// Different assets: two independent entries, each crediting the
		// app-order signer under its own asset with its nominal deposit.
		decrement.Set(proposal.InitiatorDepositAssetID, appInitiator, proposal.InitiatorDeposit)
		decrement.Set(proposal.ResponderDepositAssetID, appResponder, proposal.ResponderDeposit)
	} else {
		// Same asset: a single entry keyed by that asset, with both
		// channel owners listed, tie-broken against the channel's
		// canonical owner order so neither deposit is silently dropped by
		// a single-key map overwrite.
		asset := proposal.InitiatorDepositAssetID
		owner0 := preChannel.MultisigOwners[0].Address()
		owner1 := preChannel.MultisigOwners[1].Address()

		if appInitiator.Equal(owner0) {
			decrement.Set(asset, owner0, proposal.InitiatorDeposit)
			decrement.Set(asset, owner1, proposal.ResponderDeposit)
		} else {
			decrement.Set(asset, owner0, proposal.ResponderDeposit)
			decrement.Set(asset, owner1, proposal.InitiatorDeposit)
		}
	}

	postChannel, err = preChannel.InstallApp(proposal, decrement)
	if err != nil {
		return nil, AppInstance{}, err
	}
	return postChannel, postChannel.AppInstances[proposal.IdentityHash], nil
}

// CheckSufficiency verifies that party holds at least need of asset in the
// channel's free balance. It is performed independently for both deposit
// sides before ComputeInstallStateChannelTransition is invoked, because
// deposits may be denominated in different assets and InstallApp only
// checks the net decrement it is given as a single combined map.
func CheckSufficiency(c *Channel, party wallet.Address, asset AssetID, need *big.Int) error {
	have := c.FreeBalance.State.Get(asset, party)
	if have.Cmp(need) < 0 {
		return &InsufficientFundsError{Party: party, Asset: asset, Have: have, Need: need}
	}
	return nil
}
