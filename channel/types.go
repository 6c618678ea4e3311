// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"encoding/hex"
	"fmt"
	"strings"

	"perun.network/install-protocol/wallet"
)

// ChannelOwner is a signer address in canonical channel-owner order:
// multisigOwners[0], multisigOwners[1]. This is the order in which
// signatures are stored on every commitment for a channel, and it is
// independent of any app's initiator/responder order.
//
// ChannelOwner and AppParty wrap the same underlying wallet.Address, but are
// kept as distinct types so the compiler catches a value flowing from one
// ordering into the other by accident. The only sanctioned conversion is
// AppParty.AsChannelOwner. The transition and the protocol engines do not
// call it: they compare the underlying wallet.Address values directly.
type ChannelOwner wallet.Address

// Address returns the underlying signer address.
func (o ChannelOwner) Address() wallet.Address { return wallet.Address(o) }

// Equal reports whether two ChannelOwner values name the same address.
func (o ChannelOwner) Equal(other ChannelOwner) bool {
	return wallet.Address(o).Equal(wallet.Address(other))
}

func (o ChannelOwner) String() string { return wallet.Address(o).String() }

// MarshalText implements encoding.TextMarshaler, delegating to the
// underlying wallet.Address's 0x-hex form.
func (o ChannelOwner) MarshalText() ([]byte, error) { return wallet.Address(o).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *ChannelOwner) UnmarshalText(text []byte) error {
	return (*wallet.Address)(o).UnmarshalText(text)
}

// AppParty is a signer address in app-initiator/responder order. This order
// may differ from the channel's canonical owner order; see ChannelOwner.
type AppParty wallet.Address

// Address returns the underlying signer address.
func (p AppParty) Address() wallet.Address { return wallet.Address(p) }

// Equal reports whether two AppParty values name the same address.
func (p AppParty) Equal(other AppParty) bool {
	return wallet.Address(p).Equal(wallet.Address(other))
}

func (p AppParty) String() string { return wallet.Address(p).String() }

// MarshalText implements encoding.TextMarshaler, delegating to the
// underlying wallet.Address's 0x-hex form.
func (p AppParty) MarshalText() ([]byte, error) { return wallet.Address(p).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *AppParty) UnmarshalText(text []byte) error {
	return (*wallet.Address)(p).UnmarshalText(text)
}

// AsChannelOwner reinterprets an app-order signer as a channel-owner-order
// signer. Callers must only do this after confirming, via the channel's
// multisigOwners, which slot the address actually occupies.
func (p AppParty) AsChannelOwner() ChannelOwner { return ChannelOwner(p) }

// AssetID identifies a fungible token by its on-chain address. The native
// asset and every ERC20-style token share this representation.
type AssetID = wallet.Address

// OutcomeType enumerates how an app instance's terminal state redistributes
// its allocation between the two channel owners on settlement.
type OutcomeType uint8

const (
	// TwoPartyFixedOutcome resolves to one of a small fixed set of outcomes
	// agreed on at install time (e.g. a game's win/lose/draw payouts).
	TwoPartyFixedOutcome OutcomeType = iota
	// SingleAssetTwoPartyCoinTransfer resolves to a coin transfer in a
	// single asset between exactly two parties.
	SingleAssetTwoPartyCoinTransfer
	// MultiAssetMultiPartyCoinTransfer resolves to coin transfers across
	// multiple assets and potentially more than two parties.
	MultiAssetMultiPartyCoinTransfer
	// RefundOutcomeType resolves to returning each deposit to its
	// depositor unchanged.
	RefundOutcomeType
)

func (t OutcomeType) String() string {
	switch t {
	case TwoPartyFixedOutcome:
		return "TWO_PARTY_FIXED_OUTCOME"
	case SingleAssetTwoPartyCoinTransfer:
		return "SINGLE_ASSET_TWO_PARTY_COIN_TRANSFER"
	case MultiAssetMultiPartyCoinTransfer:
		return "MULTI_ASSET_MULTI_PARTY_COIN_TRANSFER"
	case RefundOutcomeType:
		return "REFUND_OUTCOME_TYPE"
	default:
		return "UNKNOWN_OUTCOME_TYPE"
	}
}

// IdentityHash is the content-addressed identifier of an app instance,
// deterministic from its immutable installation parameters.
type IdentityHash [32]byte

func (h IdentityHash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// MarshalText implements encoding.TextMarshaler.
func (h IdentityHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *IdentityHash) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimPrefix(string(text), "0x"), "0X")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(decoded) != len(h) {
		return fmt.Errorf("invalid identity hash length: %d/%d", len(decoded), len(h))
	}
	copy(h[:], decoded)
	return nil
}

// IsZero reports whether h is the zero hash, used as the free balance's
// well-known identity (the free balance is never looked up by hash).
func (h IdentityHash) IsZero() bool { return h == IdentityHash{} }

// AppInterface names the on-chain app definition and the encodings of its
// state, action and outcome types.
type AppInterface struct {
	Address         wallet.Address
	StateEncoding   string
	ActionEncoding  string
	OutcomeEncoding string
}
