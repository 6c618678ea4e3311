// SPDX-License-Identifier: Apache-2.0

// Package wallet contains the signing-key handling for channel owners and
// app parties. It uses secp256k1 keys and produces recoverable ECDSA
// signatures, so a verifier can recover the signer's address from a
// signature and a digest without an out-of-band public key exchange.
package wallet // import "perun.network/install-protocol/wallet"
