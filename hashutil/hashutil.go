// SPDX-License-Identifier: Apache-2.0

// Package hashutil implements the single canonical byte-layout used
// throughout the install protocol to turn a tuple of fields into a 32-byte
// digest: each field is encoded to bytes, prefixed with its own big-endian
// uint32 length, concatenated in argument order, and hashed with
// Keccak-256. Both an app instance's identity hash (channel package) and a
// commitment's hashToSign (commitment package) are built on this scheme, so
// that the two independently-computed digests a protocol run relies on
// agreeing are demonstrably the same function applied to different fields.
package hashutil

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// Fields concatenates each part with a 4-byte big-endian length prefix and
// returns the Keccak-256 digest of the result.
func Fields(parts ...[]byte) [32]byte {
	var buf []byte
	var lenPrefix [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(p)))
		buf = append(buf, lenPrefix[:]...)
		buf = append(buf, p...)
	}
	var digest [32]byte
	copy(digest[:], crypto.Keccak256(buf))
	return digest
}

// Uint64 encodes i as 8 bytes, big-endian.
func Uint64(i uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return b[:]
}
