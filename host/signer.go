// SPDX-License-Identifier: Apache-2.0

package host

import (
	"github.com/pkg/errors"

	"perun.network/install-protocol/wallet"
)

// Signer answers an OP_SIGN request for a given address, the free-balance
// signing key for whichever party this host is acting on behalf of. It is
// deliberately narrower than wallet.Keystore: a host only ever needs to
// sign on behalf of addresses it holds unlocked accounts for.
type Signer struct {
	keystore *wallet.Keystore
}

// NewSigner wraps a keystore.
func NewSigner(keystore *wallet.Keystore) *Signer {
	return &Signer{keystore: keystore}
}

// Sign produces a 65-byte recoverable ECDSA signature over hash using the
// account for signer.
func (s *Signer) Sign(signer wallet.Address, hash [32]byte) ([65]byte, error) {
	acc, err := s.keystore.Unlock(signer)
	if err != nil {
		return [65]byte{}, errors.Wrapf(err, "unlocking signer %s", signer)
	}
	return acc.SignHash(hash)
}
