// SPDX-License-Identifier: Apache-2.0

package setup_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perun.network/install-protocol/chain"
	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/setup"
	"perun.network/install-protocol/wallet"
)

func addr(b byte) wallet.Address {
	var a wallet.Address
	a[wallet.AddressLen-1] = b
	return a
}

func TestNewPreProtocolStateChannel_SeedsFreeBalanceFromDeposits(t *testing.T) {
	conn := chain.NewInMemoryConnector()
	multisig := addr(0xFF)
	ownerA, ownerB := addr(1), addr(2)
	owners := [2]channel.ChannelOwner{channel.ChannelOwner(ownerA), channel.ChannelOwner(ownerB)}
	eth := addr(0x01)

	c, err := setup.NewPreProtocolStateChannel(context.Background(), conn, multisig, owners, []setup.Deposit{
		{Owner: ownerA, Asset: eth, Amount: big.NewInt(100)},
		{Owner: ownerB, Asset: eth, Amount: big.NewInt(50)},
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(100), c.FreeBalance.State.Get(eth, ownerA))
	assert.Equal(t, big.NewInt(50), c.FreeBalance.State.Get(eth, ownerB))
	assert.Empty(t, c.AppInstances)
	assert.Empty(t, c.ProposedAppInstances)

	held, err := conn.QueryHoldings(context.Background(), multisig, eth, ownerA)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), held)
}

func TestProposeAppInstance_InsertsIntoProposedSet(t *testing.T) {
	conn := chain.NewInMemoryConnector()
	multisig := addr(0xFF)
	ownerA, ownerB := addr(1), addr(2)
	owners := [2]channel.ChannelOwner{channel.ChannelOwner(ownerA), channel.ChannelOwner(ownerB)}

	c, err := setup.NewPreProtocolStateChannel(context.Background(), conn, multisig, owners, nil)
	require.NoError(t, err)

	proposal := channel.AppInstance{IdentityHash: channel.IdentityHash{0x7}}
	next, err := setup.ProposeAppInstance(c, proposal)
	require.NoError(t, err)

	assert.Contains(t, next.ProposedAppInstances, proposal.IdentityHash)
	assert.Equal(t, uint64(1), next.MonotonicNumProposedApps)
}
