// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"github.com/pkg/errors"

	"perun.network/install-protocol/wallet"
)

// Channel is an immutable value object: every transition below returns a
// new Channel rather than mutating the receiver. Callers that need to
// track a channel's evolution over time hold a pointer that they reassign
// after each successful transition, the same way the protocol engine holds
// preChannel and postChannel as two distinct values.
type Channel struct {
	MultisigAddress wallet.Address
	// MultisigOwners is in canonical channel-owner order: MultisigOwners[0]
	// is always stored first on every commitment signed for this channel,
	// independent of which owner happens to be an app's initiator.
	MultisigOwners [2]ChannelOwner

	FreeBalance              FreeBalance
	AppInstances             map[IdentityHash]AppInstance
	ProposedAppInstances     map[IdentityHash]AppInstance
	MonotonicNumProposedApps uint64
	SchemaVersion            uint32
}

// NewChannel creates a freshly set-up channel: no installed or proposed
// apps, the given free balance at its starting version. This stands in for
// the out-of-scope setup protocol (see the setup package).
func NewChannel(multisig wallet.Address, owners [2]ChannelOwner, freeBalance FreeBalance) *Channel {
	return &Channel{
		MultisigAddress:      multisig,
		MultisigOwners:       owners,
		FreeBalance:          freeBalance.Clone(),
		AppInstances:         make(map[IdentityHash]AppInstance),
		ProposedAppInstances: make(map[IdentityHash]AppInstance),
		SchemaVersion:        1,
	}
}

// Clone returns a deep copy, so the result can be handed to a transition
// without the caller's copy being mutated through shared maps.
func (c *Channel) Clone() *Channel {
	out := &Channel{
		MultisigAddress:          c.MultisigAddress,
		MultisigOwners:           c.MultisigOwners,
		FreeBalance:              c.FreeBalance.Clone(),
		AppInstances:             make(map[IdentityHash]AppInstance, len(c.AppInstances)),
		ProposedAppInstances:     make(map[IdentityHash]AppInstance, len(c.ProposedAppInstances)),
		MonotonicNumProposedApps: c.MonotonicNumProposedApps,
		SchemaVersion:            c.SchemaVersion,
	}
	for h, a := range c.AppInstances {
		out.AppInstances[h] = a.Clone()
	}
	for h, a := range c.ProposedAppInstances {
		out.ProposedAppInstances[h] = a.Clone()
	}
	return out
}

// IsOwner reports whether addr is one of the channel's two canonical
// owners.
func (c *Channel) IsOwner(addr wallet.Address) bool {
	return c.MultisigOwners[0].Address().Equal(addr) || c.MultisigOwners[1].Address().Equal(addr)
}

// OwnerIndex returns the canonical-order slot (0 or 1) of addr, or -1 if
// addr is not a channel owner.
func (c *Channel) OwnerIndex(addr wallet.Address) int {
	for i, owner := range c.MultisigOwners {
		if owner.Address().Equal(addr) {
			return i
		}
	}
	return -1
}

// ProposeApp is the minimal stand-in for the out-of-scope propose protocol:
// it records app as a pending candidate and returns the channel that
// results, with MonotonicNumProposedApps incremented. It does not validate
// app beyond rejecting an identity hash that is already installed; an
// identity hash that is already proposed returns the channel unchanged.
func (c *Channel) ProposeApp(app AppInstance) (*Channel, error) {
	if _, ok := c.AppInstances[app.IdentityHash]; ok {
		return nil, errors.Wrapf(ErrAlreadyInstalled, "identity hash %s", app.IdentityHash)
	}
	if _, ok := c.ProposedAppInstances[app.IdentityHash]; ok {
		return c, nil // idempotent: already proposed
	}

	next := c.Clone()
	next.ProposedAppInstances[app.IdentityHash] = app.Clone()
	next.MonotonicNumProposedApps++
	return next, nil
}

// InstallApp moves proposal from ProposedAppInstances to AppInstances and
// applies decrement to the free balance, incrementing its version number by
// exactly 1. It is the sole place the disjointness invariant between
// AppInstances and ProposedAppInstances, and the free-balance monotonicity
// invariant, are enforced.
func (c *Channel) InstallApp(proposal AppInstance, decrement TokenIndexedCoinTransferMap) (*Channel, error) {
	if _, ok := c.ProposedAppInstances[proposal.IdentityHash]; !ok {
		return nil, errors.Wrapf(ErrAppNotProposed, "identity hash %s", proposal.IdentityHash)
	}
	if _, ok := c.AppInstances[proposal.IdentityHash]; ok {
		return nil, errors.Wrapf(ErrAlreadyInstalled, "identity hash %s", proposal.IdentityHash)
	}

	for asset, byOwner := range decrement {
		for owner, need := range byOwner {
			have := c.FreeBalance.State.Get(asset, owner)
			if have.Cmp(need) < 0 {
				return nil, &InsufficientFundsError{Party: owner, Asset: asset, Have: have, Need: need}
			}
		}
	}

	next := c.Clone()
	delete(next.ProposedAppInstances, proposal.IdentityHash)
	next.AppInstances[proposal.IdentityHash] = proposal.Clone()
	next.FreeBalance.State = next.FreeBalance.State.ApplyDecrement(decrement)
	next.FreeBalance.VersionNumber = c.FreeBalance.VersionNumber + 1
	return next, nil
}

// AppSequenceNumber returns the channel's MonotonicNumProposedApps counter
// (the number of apps ever proposed in it), used to derive the next app's
// sequence number for identity hashing. It returns ErrNoInstalledApps when
// the channel has no installed app instances yet,
// rather than swallowing a sentinel error string; VerifyAppSequenceNumber
// below is the typed replacement for that historical string-match.
func (c *Channel) AppSequenceNumber() (uint64, error) {
	if len(c.AppInstances) == 0 {
		return 0, ErrNoInstalledApps
	}
	return c.MonotonicNumProposedApps, nil
}

// VerifyAppSequenceNumber checks that expected matches the channel's
// current app sequence number, treating ErrNoInstalledApps as sequence
// number 0 rather than propagating it as a failure.
func (c *Channel) VerifyAppSequenceNumber(expected uint64) error {
	actual, err := c.AppSequenceNumber()
	if err != nil {
		if !errors.Is(err, ErrNoInstalledApps) {
			return err
		}
		actual = 0
	}
	if actual != expected {
		return errors.Errorf("app sequence number mismatch: want %d, have %d", expected, actual)
	}
	return nil
}
