// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/wallet"
)

// ErrNoSuchHolding is returned by QueryHoldings when no deposit has been
// recorded for the requested multisig/asset/owner triple.
var ErrNoSuchHolding = errors.New("chain: no such holding")

// ErrNoSuchDispute is returned by LookupDispute when no commitment has been
// registered for the requested multisig/app pair.
var ErrNoSuchDispute = errors.New("chain: no such dispute")

// Connector is the on-chain interface the setup protocol and the
// middleware host use to fund a multisig's free balance, observe its
// holdings, and register a dispute claim when an app instance settles
// unilaterally. It is the boundary between the Install Protocol (which
// only ever reasons about FreeBalance snapshots already agreed off-chain)
// and whatever ledger actually custodies the funds and adjudicates
// disputes.
type Connector interface {
	// Deposit records amount of asset deposited by owner into multisig's
	// free balance.
	Deposit(ctx context.Context, multisig wallet.Address, asset channel.AssetID, owner wallet.Address, amount *big.Int) error

	// QueryHoldings returns the total amount of asset currently on deposit
	// for owner in multisig.
	QueryHoldings(ctx context.Context, multisig wallet.Address, asset channel.AssetID, owner wallet.Address) (*big.Int, error)

	// RegisterDispute records claim as the on-chain dispute claim for the
	// app instance it names, the entry point a party uses to force
	// settlement unilaterally when the counterparty stops cooperating.
	RegisterDispute(ctx context.Context, claim *commitment.ConditionalTransactionCommitment) error
}

type holdingKey struct {
	multisig wallet.Address
	asset    channel.AssetID
	owner    wallet.Address
}

type disputeKey struct {
	multisig        wallet.Address
	appIdentityHash channel.IdentityHash
}

// InMemoryConnector is a Connector backed by an in-process ledger,
// suitable for tests and the demo: it never touches a real chain, but
// preserves the accounting semantics a real Connector would enforce
// (deposits accumulate, queries read back exactly what was deposited,
// disputes are recorded keyed by the app they claim against).
type InMemoryConnector struct {
	mu       sync.Mutex
	holdings map[holdingKey]*big.Int
	disputes map[disputeKey]*commitment.ConditionalTransactionCommitment
}

// NewInMemoryConnector creates an empty InMemoryConnector.
func NewInMemoryConnector() *InMemoryConnector {
	return &InMemoryConnector{
		holdings: make(map[holdingKey]*big.Int),
		disputes: make(map[disputeKey]*commitment.ConditionalTransactionCommitment),
	}
}

// Deposit implements Connector.
func (c *InMemoryConnector) Deposit(_ context.Context, multisig wallet.Address, asset channel.AssetID, owner wallet.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("chain: negative deposit amount")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := holdingKey{multisig: multisig, asset: asset, owner: owner}
	have, ok := c.holdings[key]
	if !ok {
		have = big.NewInt(0)
	}
	c.holdings[key] = new(big.Int).Add(have, amount)
	return nil
}

// QueryHoldings implements Connector.
func (c *InMemoryConnector) QueryHoldings(_ context.Context, multisig wallet.Address, asset channel.AssetID, owner wallet.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := holdingKey{multisig: multisig, asset: asset, owner: owner}
	have, ok := c.holdings[key]
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchHolding, "multisig %s asset %s owner %s", multisig, asset, owner)
	}
	return new(big.Int).Set(have), nil
}

// RegisterDispute implements Connector.
func (c *InMemoryConnector) RegisterDispute(_ context.Context, claim *commitment.ConditionalTransactionCommitment) error {
	if !claim.FullySigned() {
		return errors.New("chain: dispute claim is not fully signed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := disputeKey{multisig: claim.MultisigAddress, appIdentityHash: claim.AppIdentityHash}
	c.disputes[key] = claim
	return nil
}

// LookupDispute returns the dispute claim registered for appIdentityHash in
// multisig, if any.
func (c *InMemoryConnector) LookupDispute(_ context.Context, multisig wallet.Address, appIdentityHash channel.IdentityHash) (*commitment.ConditionalTransactionCommitment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := disputeKey{multisig: multisig, appIdentityHash: appIdentityHash}
	claim, ok := c.disputes[key]
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchDispute, "multisig %s app %s", multisig, appIdentityHash)
	}
	return claim, nil
}
