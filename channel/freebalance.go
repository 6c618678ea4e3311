// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"math/big"

	"perun.network/install-protocol/wallet"
)

// CoinTransferMap gives each channel owner's balance of a single asset.
type CoinTransferMap map[wallet.Address]*big.Int

// Get returns the balance for owner, or zero if owner holds none.
func (m CoinTransferMap) Get(owner wallet.Address) *big.Int {
	if v, ok := m[owner]; ok {
		return v
	}
	return big.NewInt(0)
}

func (m CoinTransferMap) clone() CoinTransferMap {
	c := make(CoinTransferMap, len(m))
	for owner, amount := range m {
		c[owner] = new(big.Int).Set(amount)
	}
	return c
}

// TokenIndexedCoinTransferMap is a two-level mapping {tokenAddress ->
// {address -> amount}}, used to describe atomic deltas applied to the free
// balance.
type TokenIndexedCoinTransferMap map[AssetID]CoinTransferMap

// NewTokenIndexedCoinTransferMap returns an empty map.
func NewTokenIndexedCoinTransferMap() TokenIndexedCoinTransferMap {
	return make(TokenIndexedCoinTransferMap)
}

// Get returns the balance of owner in asset, or zero if either is absent.
func (m TokenIndexedCoinTransferMap) Get(asset AssetID, owner wallet.Address) *big.Int {
	byOwner, ok := m[asset]
	if !ok {
		return big.NewInt(0)
	}
	return byOwner.Get(owner)
}

// Set assigns owner's balance of asset, creating the asset entry if needed.
func (m TokenIndexedCoinTransferMap) Set(asset AssetID, owner wallet.Address, amount *big.Int) {
	byOwner, ok := m[asset]
	if !ok {
		byOwner = make(CoinTransferMap, 2)
		m[asset] = byOwner
	}
	byOwner[owner] = amount
}

// Add credits owner's balance of asset by amount (amount may be negative to
// debit).
func (m TokenIndexedCoinTransferMap) Add(asset AssetID, owner wallet.Address, amount *big.Int) {
	m.Set(asset, owner, new(big.Int).Add(m.Get(asset, owner), amount))
}

// Clone returns a deep copy.
func (m TokenIndexedCoinTransferMap) Clone() TokenIndexedCoinTransferMap {
	c := make(TokenIndexedCoinTransferMap, len(m))
	for asset, byOwner := range m {
		c[asset] = byOwner.clone()
	}
	return c
}

// ApplyDecrement returns a new map with every (asset, owner) entry of
// decrement subtracted from m. It never mutates m.
func (m TokenIndexedCoinTransferMap) ApplyDecrement(decrement TokenIndexedCoinTransferMap) TokenIndexedCoinTransferMap {
	out := m.Clone()
	for asset, byOwner := range decrement {
		for owner, amount := range byOwner {
			out.Add(asset, owner, new(big.Int).Neg(amount))
		}
	}
	return out
}

// FreeBalance is the distinguished app instance holding the token-indexed
// balances available for allocation into new app instances. It is never
// uninstalled during a channel's life, so unlike a regular AppInstance it
// carries no identity hash, app interface, or deposit fields.
type FreeBalance struct {
	VersionNumber uint64
	State         TokenIndexedCoinTransferMap
}

// NewFreeBalance seeds a free balance at version 0 with the given state. The
// caller retains no alias on state; NewFreeBalance clones it.
func NewFreeBalance(state TokenIndexedCoinTransferMap) FreeBalance {
	return FreeBalance{VersionNumber: 0, State: state.Clone()}
}

// Clone returns a deep copy.
func (fb FreeBalance) Clone() FreeBalance {
	return FreeBalance{VersionNumber: fb.VersionNumber, State: fb.State.Clone()}
}
