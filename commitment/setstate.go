// SPDX-License-Identifier: Apache-2.0

package commitment

import (
	"sort"

	"github.com/pkg/errors"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/hashutil"
	"perun.network/install-protocol/wallet"
)

// SetStateCommitment is a signed claim that (appIdentityHash, stateHash,
// versionNumber, timeout) is the latest state of an app instance. It holds
// up to two signatures, indexed in canonical channel-owner order.
type SetStateCommitment struct {
	MultisigAddress wallet.Address
	AppIdentityHash channel.IdentityHash
	StateHash       [32]byte
	VersionNumber   uint64
	Timeout         uint64
	ChainID         uint64

	signatures [2]*[65]byte
}

// NewSetStateCommitment builds an unsigned commitment over the given
// parameters.
func NewSetStateCommitment(multisig wallet.Address, appIdentityHash channel.IdentityHash, stateHash [32]byte, versionNumber, timeout, chainID uint64) *SetStateCommitment {
	return &SetStateCommitment{
		MultisigAddress: multisig,
		AppIdentityHash: appIdentityHash,
		StateHash:       stateHash,
		VersionNumber:   versionNumber,
		Timeout:         timeout,
		ChainID:         chainID,
	}
}

// HashToSign returns the digest that both parties must independently
// compute identically before either signs it. It is a deterministic
// function of (multisigAddress, appIdentityHash, stateHash, versionNumber,
// timeout, chainId): each field is length-prefixed and concatenated in
// that order, then hashed with Keccak-256 (see the hashutil package).
func (c *SetStateCommitment) HashToSign() [32]byte {
	return hashutil.Fields(
		c.MultisigAddress[:],
		c.AppIdentityHash[:],
		c.StateHash[:],
		hashutil.Uint64(c.VersionNumber),
		hashutil.Uint64(c.Timeout),
		hashutil.Uint64(c.ChainID),
	)
}

// SetSignature recovers sig's signer against HashToSign(), verifies it is
// one of owners (in canonical order), and stores it at that owner's index.
// A signature from an address outside owners is rejected with
// ErrInvalidSignature rather than silently ignored.
func (c *SetStateCommitment) SetSignature(owners [2]wallet.Address, sig [65]byte) error {
	hash := c.HashToSign()
	signer, err := wallet.RecoverSigner(hash, sig)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}

	for i, owner := range owners {
		if owner.Equal(signer) {
			sigCopy := sig
			c.signatures[i] = &sigCopy
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidSignature, "signature recovered to non-owner address %s", signer)
}

// AddSignatures stores sigA and sigB indexed in canonical channel-owner
// order, regardless of the order they are passed in: each is independently
// recovered and placed at its owner's slot.
func (c *SetStateCommitment) AddSignatures(owners [2]wallet.Address, sigA, sigB [65]byte) error {
	if err := c.SetSignature(owners, sigA); err != nil {
		return err
	}
	return c.SetSignature(owners, sigB)
}

// Signature returns the signature stored at canonical-order index i (0 or
// 1), or false if it has not been set yet.
func (c *SetStateCommitment) Signature(i int) ([65]byte, bool) {
	if c.signatures[i] == nil {
		return [65]byte{}, false
	}
	return *c.signatures[i], true
}

// FullySigned reports whether both canonical-order slots hold a signature.
func (c *SetStateCommitment) FullySigned() bool {
	return c.signatures[0] != nil && c.signatures[1] != nil
}

// HashFreeBalanceState hashes a free balance's token-indexed state into the
// stateHash a SetStateCommitment is built over. Assets and owners are
// visited in ascending byte order so the result does not depend on Go's
// unspecified map iteration order: two honest participants holding the same
// logical state always compute the same hash.
func HashFreeBalanceState(state channel.TokenIndexedCoinTransferMap) [32]byte {
	assets := make([]wallet.Address, 0, len(state))
	for asset := range state {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Cmp(assets[j]) < 0 })

	var fields [][]byte
	for _, asset := range assets {
		byOwner := state[asset]
		owners := make([]wallet.Address, 0, len(byOwner))
		for owner := range byOwner {
			owners = append(owners, owner)
		}
		sort.Slice(owners, func(i, j int) bool { return owners[i].Cmp(owners[j]) < 0 })

		assetCopy := asset
		fields = append(fields, assetCopy[:])
		for _, owner := range owners {
			ownerCopy := owner
			fields = append(fields, ownerCopy[:], byOwner[owner].Bytes())
		}
	}
	return hashutil.Fields(fields...)
}

// BuildFreeBalanceCommitment produces the SetStateCommitment over a
// channel's post-install free balance, the only commitment the install
// protocol itself needs to build and sign (see ConditionalTransactionCommitment
// for the structurally parallel, install-protocol-unused claim type).
func BuildFreeBalanceCommitment(c *channel.Channel, chainID uint64) *SetStateCommitment {
	stateHash := HashFreeBalanceState(c.FreeBalance.State)
	return NewSetStateCommitment(c.MultisigAddress, channel.IdentityHash{}, stateHash, c.FreeBalance.VersionNumber, 0, chainID)
}
