// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a secp256k1 signing key. It signs the 32-byte commitment
// hashes produced by the commitment package on behalf of a channel owner
// or app party.
type Account struct {
	priv *ecdsa.PrivateKey
}

// NewAccount wraps an existing private key.
func NewAccount(priv *ecdsa.PrivateKey) *Account {
	return &Account{priv: priv}
}

// GenerateAccount creates a fresh, unpersisted account.
func GenerateAccount() (*Account, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewAccount(priv), nil
}

// Address returns the on-chain address derived from the account's public
// key, the same way an account-based chain derives addresses.
func (a *Account) Address() Address {
	return pubkeyToAddress(&a.priv.PublicKey)
}

// SignHash produces an OP_SIGN response: a 65-byte recoverable ECDSA
// signature (R || S || V) over a 32-byte digest. The caller is responsible
// for ensuring hash is itself the output of a collision-resistant hash
// function (commitment.SetStateCommitment.HashToSign and friends); this
// method does not hash its input again.
func (a *Account) SignHash(hash [32]byte) ([65]byte, error) {
	var sig [65]byte
	raw, err := crypto.Sign(hash[:], a.priv)
	if err != nil {
		return sig, err
	}
	copy(sig[:], raw)
	return sig, nil
}

func (a *Account) clear() {
	a.priv = nil
}

func pubkeyToAddress(pub *ecdsa.PublicKey) Address {
	ethAddr := crypto.PubkeyToAddress(*pub)
	var a Address
	copy(a[:], ethAddr.Bytes())
	return a
}
