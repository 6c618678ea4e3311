// SPDX-License-Identifier: Apache-2.0

package commitment

import (
	"github.com/pkg/errors"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/hashutil"
	"perun.network/install-protocol/wallet"
)

// ConditionalTransactionCommitment is a signed claim that, on dispute, a
// conditional transfer derived from an app instance's outcome should
// execute. It is structurally parallel to SetStateCommitment for signing
// purposes; the install protocol itself never needs to build or sign one,
// but the dispute-registration path a connector exposes does.
type ConditionalTransactionCommitment struct {
	MultisigAddress wallet.Address
	AppIdentityHash channel.IdentityHash
	OutcomeHash     [32]byte
	ChainID         uint64

	signatures [2]*[65]byte
}

// NewConditionalTransactionCommitment builds an unsigned commitment over
// the given app instance's identity and outcome hash.
func NewConditionalTransactionCommitment(multisig wallet.Address, appIdentityHash channel.IdentityHash, outcomeHash [32]byte, chainID uint64) *ConditionalTransactionCommitment {
	return &ConditionalTransactionCommitment{
		MultisigAddress: multisig,
		AppIdentityHash: appIdentityHash,
		OutcomeHash:     outcomeHash,
		ChainID:         chainID,
	}
}

// HashToSign mirrors SetStateCommitment.HashToSign's scheme, over this
// commitment's own fields.
func (c *ConditionalTransactionCommitment) HashToSign() [32]byte {
	return hashutil.Fields(
		c.MultisigAddress[:],
		c.AppIdentityHash[:],
		c.OutcomeHash[:],
		hashutil.Uint64(c.ChainID),
	)
}

// SetSignature mirrors SetStateCommitment.SetSignature.
func (c *ConditionalTransactionCommitment) SetSignature(owners [2]wallet.Address, sig [65]byte) error {
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

// FullySigned reports whether both canonical-order slots hold a signature.
func (c *ConditionalTransactionCommitment) FullySigned() bool {
	return c.signatures[0] != nil && c.signatures[1] != nil
}
