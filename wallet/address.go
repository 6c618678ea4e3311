// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AddressLen is the length of an Address in bytes: a secp256k1 public key
// collapsed to its on-chain account form the way an account-based chain
// derives addresses from a public key.
const AddressLen = 20

// Address identifies a signer on an account-based chain. It is the raw type
// shared by channel.ChannelOwner and channel.AppParty: those wrap an Address
// to keep the two independent orderings (canonical channel-owner order vs.
// app-initiator/responder order) from being conflated at the type level.
type Address [AddressLen]byte

// ZeroAddress is the additive identity; it never identifies a real signer.
var ZeroAddress = Address{}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a Address) MarshalBinary() ([]byte, error) {
	out := make([]byte, AddressLen)
	copy(out, a[:])
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *Address) UnmarshalBinary(data []byte) error {
	if len(data) != AddressLen {
		return fmt.Errorf("invalid address length: %d/%d", len(data), AddressLen)
	}
	copy(a[:], data)
	return nil
}

// String returns the 0x-prefixed lowercase hex encoding, the wire format
// mandated for binary fields.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Equal reports whether a and b identify the same signer.
func (a Address) Equal(b Address) bool {
	return bytes.Equal(a[:], b[:])
}

// Cmp compares the byte representation of two addresses. For a.Cmp(b),
// it returns -1 if a < b, 0 if a == b, 1 if a > b.
func (a Address) Cmp(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler, giving Address the same
// 0x-prefixed hex form in JSON that the wire format mandates for every
// other binary field.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a.Equal(ZeroAddress)
}

// ParseAddress decodes a 0x-prefixed hex address as produced by String.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decoding address %q: %w", s, err)
	}
	return a, a.UnmarshalBinary(data)
}
