// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"context"
	"math/big"

	"perun.network/install-protocol/chain"
	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/wallet"
)

// Deposit describes one owner's funding of a multisig's free balance in a
// single asset, as recorded by the chain connector during Setup.
type Deposit struct {
	Owner  wallet.Address
	Asset  channel.AssetID
	Amount *big.Int
}

// NewPreProtocolStateChannel runs the Setup stand-in: it records each
// deposit against conn, then returns a fresh Channel whose free balance
// reflects exactly those deposits, with no app instances installed or
// proposed. This is the pre-protocol state channel the Install Protocol
// consumes as its starting point.
func NewPreProtocolStateChannel(ctx context.Context, conn chain.Connector, multisig wallet.Address, owners [2]channel.ChannelOwner, deposits []Deposit) (*channel.Channel, error) {
	state := channel.NewTokenIndexedCoinTransferMap()
	for _, d := range deposits {
		if err := conn.Deposit(ctx, multisig, d.Asset, d.Owner, d.Amount); err != nil {
			return nil, err
		}
		state.Add(d.Asset, d.Owner, d.Amount)
	}
	return channel.NewChannel(multisig, owners, channel.NewFreeBalance(state)), nil
}

// ProposeAppInstance runs the Propose stand-in: it inserts proposal into
// preChannel's proposed set, satisfying Install's AppNotProposed
// precondition, and advances MonotonicNumProposedApps. It is a thin, named
// wrapper around channel.Channel.ProposeApp so callers assembling a
// setup-then-propose-then-install pipeline can read it off as one
// supplemental-protocol stand-in alongside NewPreProtocolStateChannel.
func ProposeAppInstance(preChannel *channel.Channel, proposal channel.AppInstance) (*channel.Channel, error) {
	return preChannel.ProposeApp(proposal)
}
