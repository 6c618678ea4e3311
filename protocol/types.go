// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/wallet"
	"perun.network/install-protocol/wire"
)

// Role identifies which side of the Install Protocol an engine plays.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

func (r Role) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// PersistAppType tags a PERSIST_APP_INSTANCE request with the kind of
// change it records. The install engine only ever emits CreateInstance;
// the other tags exist because the persisted-record schema is shared with
// the update, uninstall, and propose-rejection protocols this module does
// not implement.
type PersistAppType int

const (
	CreateInstance PersistAppType = iota
	UpdateInstance
	RemoveInstance
	Reject
)

func (t PersistAppType) String() string {
	switch t {
	case CreateInstance:
		return "CreateInstance"
	case UpdateInstance:
		return "UpdateInstance"
	case RemoveInstance:
		return "RemoveInstance"
	case Reject:
		return "Reject"
	default:
		return "Unknown"
	}
}

// ParamsInstall is the Install Protocol's ProtocolParams: the immutable
// parameters agreed before the engine starts.
type ParamsInstall struct {
	InitiatorIdentifier channel.AppParty
	ResponderIdentifier channel.AppParty
	MultisigAddress     wallet.Address
	Proposal            channel.AppInstance
	AppIdentityHash     channel.IdentityHash
}

// ValidateRequest is the payload of an OP_VALIDATE step.
type ValidateRequest struct {
	Params         ParamsInstall
	PreChannel     *channel.Channel
	NewAppInstance channel.AppInstance
	Role           Role
}

// PersistRequest is the payload of a PERSIST_APP_INSTANCE step.
type PersistRequest struct {
	Type        PersistAppType
	Channel     *channel.Channel
	AppInstance channel.AppInstance
	Commitment  *commitment.SetStateCommitment
}

// Op discriminates a Step's kind, mirroring the five middleware opcodes
// plus the two terminal markers Done and Err.
type Op int

const (
	OpValidate Op = iota
	OpSign
	OpSend
	OpSendAndWait
	OpPersist
	OpDone
	OpErr
)

// Step is the tagged value an engine's Advance method returns: exactly one
// of the pointer/value fields matching Op is populated.
type Step struct {
	Op   Op
	Role Role

	// OpSign
	HashToSign [32]byte

	// OpValidate
	Validate *ValidateRequest

	// OpSend, OpSendAndWait
	Message wire.ProtocolMessageData

	// OpPersist
	Persist *PersistRequest

	// OpErr
	Err error
}

// Input is what the host supplies to resume an engine after the Step it
// last returned. Only the field matching the suspended Step's Op is read.
type Input struct {
	// Resumes OpValidate: empty string means accept.
	RejectReason string
	// Resumes OpSign.
	Signature [65]byte
	// Resumes OpSend: delivery error, if any.
	SendErr error
	// Resumes OpSendAndWait: the inbound reply.
	Reply wire.ProtocolMessageData
	// Resumes OpPersist: store error, if any.
	PersistErr error
}
