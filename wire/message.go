// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"perun.network/install-protocol/wallet"
)

// HexBytes round-trips a byte slice as a 0x-prefixed lowercase hex string in
// JSON, the encoding the wire format mandates for every binary field that
// isn't itself a wallet.Address.
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimPrefix(string(text), "0x"), "0X")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Protocol tags which protocol a ProtocolMessageData belongs to.
type Protocol string

// ProtocolInstall is the only protocol tag this module's engine handles;
// others are named here because ProtocolMessageData is a shared envelope
// across all of a host's protocols.
const (
	ProtocolInstall   Protocol = "install"
	ProtocolPropose   Protocol = "propose"
	ProtocolUpdate    Protocol = "update"
	ProtocolUninstall Protocol = "uninstall"
	ProtocolTakeAction Protocol = "takeAction"
)

// UnassignedSeqNo is the sentinel seq value used on messages that do not
// correlate with a specific expected-response sequence number (e.g. the
// responder's fire-and-forget reply in the install protocol).
const UnassignedSeqNo uint64 = ^uint64(0)

// InstallCustomData is the install protocol's customData payload: a single
// recoverable signature over the free-balance set-state commitment hash.
type InstallCustomData struct {
	Signature HexBytes `json:"signature"`
}

// ProtocolMessageData is the fielded envelope exchanged between the two
// parties of a protocol run. Transport encoding is JSON; binary fields
// are 0x-prefixed lowercase hex, handled transparently by wallet.Address's
// and HexBytes's MarshalText/UnmarshalText.
type ProtocolMessageData struct {
	ProcessID string          `json:"processID"`
	Protocol  Protocol        `json:"protocol"`
	Params    json.RawMessage `json:"params,omitempty"`
	To        wallet.Address  `json:"to"`
	Seq       uint64          `json:"seq"`
	// CustomData is protocol-specific. Decoders must check Protocol before
	// projecting fields out of it, and must preserve any fields they don't
	// understand so the message round-trips forward-compatibly.
	CustomData json.RawMessage `json:"customData,omitempty"`
}

// DecodeInstallCustomData projects m.CustomData as an install protocol
// payload. Callers must have already checked m.Protocol == ProtocolInstall.
func (m ProtocolMessageData) DecodeInstallCustomData() (InstallCustomData, error) {
	var data InstallCustomData
	if len(m.CustomData) == 0 {
		return data, nil
	}
	err := json.Unmarshal(m.CustomData, &data)
	return data, err
}

// EncodeInstallCustomData renders an install protocol payload into raw JSON
// suitable for ProtocolMessageData.CustomData.
func EncodeInstallCustomData(sig [65]byte) (json.RawMessage, error) {
	return json.Marshal(InstallCustomData{Signature: HexBytes(sig[:])})
}
