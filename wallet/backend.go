// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// SigLen is the length in bytes of an OP_SIGN response: a recoverable
// ECDSA signature, R || S || V.
const SigLen = 65

// ErrInvalidSignature is returned by RecoverSigner and VerifySignature when
// the signature bytes cannot be interpreted as a recoverable ECDSA
// signature over the given digest (malformed, wrong length, or a bad
// recovery id).
var ErrInvalidSignature = errors.New("invalid signature")

// RecoverSigner recovers the address that produced sig over hash. This is
// the "recover(hash, σ) == address" operation referenced throughout the
// install protocol's signature-verification steps.
func RecoverSigner(hash [32]byte, sig [SigLen]byte) (Address, error) {
	pub, err := crypto.SigToPub(hash[:], sig[:])
	if err != nil {
		return Address{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return pubkeyToAddress(pub), nil
}

// VerifySignature reports whether sig is a valid signature over hash by
// expected. It never panics: a malformed signature is reported as a
// non-nil error, not a recovered address mismatch, so callers can tell
// "wrong signer" apart from "garbage signature".
func VerifySignature(hash [32]byte, sig [SigLen]byte, expected Address) (bool, error) {
	signer, err := RecoverSigner(hash, sig)
	if err != nil {
		return false, err
	}
	return signer.Equal(expected), nil
}

// SigString is a debug helper rendering a signature as 0x-prefixed hex.
func SigString(sig [SigLen]byte) string {
	return fmt.Sprintf("0x%x", sig[:])
}
