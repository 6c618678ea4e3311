// SPDX-License-Identifier: Apache-2.0

package commitment_test

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/wallet"
)

// lengthPrefixed reimplements the documented hashutil.Fields byte layout
// independently of the hashutil package, so this test pins HashToSign's
// exact wire layout rather than merely checking it against itself.
func lengthPrefixed(parts ...[]byte) [32]byte {
	var buf []byte
	var prefix [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(p)))
		buf = append(buf, prefix[:]...)
		buf = append(buf, p...)
	}
	var digest [32]byte
	copy(digest[:], crypto.Keccak256(buf))
	return digest
}

func uint64Bytes(i uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return b[:]
}

func addr(b byte) wallet.Address {
	var a wallet.Address
	a[wallet.AddressLen-1] = b
	return a
}

// TestHashToSign_InteroperabilityVector pins the exact byte layout
// HashToSign is built on: a length-prefixed concatenation of
// (multisigAddress, appIdentityHash, stateHash, versionNumber, timeout,
// chainId) hashed with Keccak-256. Any change to field order, prefix width,
// or the hash function must be a deliberate, visible change to this vector.
func TestHashToSign_InteroperabilityVector(t *testing.T) {
	var multisig wallet.Address
	for i := range multisig {
		multisig[i] = byte(i)
	}
	var identityHash channel.IdentityHash
	for i := range identityHash {
		identityHash[i] = byte(0xA0 + i%16)
	}
	var stateHash [32]byte
	for i := range stateHash {
		stateHash[i] = byte(0x50 + i%8)
	}

	c := commitment.NewSetStateCommitment(multisig, identityHash, stateHash, 7, 100, 1337)
	got := c.HashToSign()

	// Independently derived: 4-byte big-endian length prefix before each of
	// the six fields (20 + 32 + 32 + 8 + 8 + 8 bytes), Keccak-256 of the
	// concatenation. Any other implementation of the same documented byte
	// layout must produce this digest.
	want := lengthPrefixed(
		multisig[:],
		identityHash[:],
		stateHash[:],
		uint64Bytes(7),
		uint64Bytes(100),
		uint64Bytes(1337),
	)
	assert.Equal(t, want, got)

	// Recomputing from the same fields must be deterministic.
	c2 := commitment.NewSetStateCommitment(multisig, identityHash, stateHash, 7, 100, 1337)
	got2 := c2.HashToSign()
	assert.Equal(t, got, got2)
}

func TestSetSignature_AggregatesInCanonicalOrder(t *testing.T) {
	ownerA, err := wallet.GenerateAccount()
	require.NoError(t, err)
	ownerB, err := wallet.GenerateAccount()
	require.NoError(t, err)
	owners := [2]wallet.Address{ownerA.Address(), ownerB.Address()}

	var identityHash channel.IdentityHash
	c := commitment.NewSetStateCommitment(owners[0], identityHash, [32]byte{1}, 1, 0, 1)
	hash := c.HashToSign()

	sigB, err := ownerB.SignHash(hash)
	require.NoError(t, err)
	sigA, err := ownerA.SignHash(hash)
	require.NoError(t, err)

	// Pass them in reverse order; SetSignature must still place each at its
	// owner's canonical slot, not the argument order.
	require.NoError(t, c.AddSignatures(owners, sigB, sigA))

	gotA, ok := c.Signature(0)
	require.True(t, ok)
	assert.Equal(t, sigA, gotA)

	gotB, ok := c.Signature(1)
	require.True(t, ok)
	assert.Equal(t, sigB, gotB)

	assert.True(t, c.FullySigned())
}

func TestSetSignature_RejectsNonOwnerSignature(t *testing.T) {
	ownerA, err := wallet.GenerateAccount()
	require.NoError(t, err)
	ownerB, err := wallet.GenerateAccount()
	require.NoError(t, err)
	stranger, err := wallet.GenerateAccount()
	require.NoError(t, err)
	owners := [2]wallet.Address{ownerA.Address(), ownerB.Address()}

	c := commitment.NewSetStateCommitment(owners[0], channel.IdentityHash{}, [32]byte{1}, 1, 0, 1)
	hash := c.HashToSign()

	sig, err := stranger.SignHash(hash)
	require.NoError(t, err)

	err = c.SetSignature(owners, sig)
	require.ErrorIs(t, err, commitment.ErrInvalidSignature)
	assert.False(t, c.FullySigned())
}

func TestHashFreeBalanceState_OrderIndependent(t *testing.T) {
	fb1 := channel.NewTokenIndexedCoinTransferMap()
	fb1.Set(addr(1), addr(0xA), big.NewInt(10))
	fb1.Set(addr(2), addr(0xB), big.NewInt(20))

	fb2 := channel.NewTokenIndexedCoinTransferMap()
	fb2.Set(addr(2), addr(0xB), big.NewInt(20))
	fb2.Set(addr(1), addr(0xA), big.NewInt(10))

	assert.Equal(t, commitment.HashFreeBalanceState(fb1), commitment.HashFreeBalanceState(fb2))
}
