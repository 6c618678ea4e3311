// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/wallet"
	"perun.network/install-protocol/wire"
)

type initiatorState int

const (
	initInit initiatorState = iota
	initWaitValidate
	initWaitSign
	initWaitReply
	initWaitPersist
	initDone
	initErrored
)

// InitiatorEngine runs the Install Protocol's role-0 sequence: Init ->
// Validated -> Signed -> Waiting -> Verified -> Persisted -> Done. It signs
// before knowing the responder has agreed, but persists only after
// verifying the responder's countersignature, so a crash between those two
// points leaves a signed-but-unpersisted commitment that is safe to discard
// on retry.
type InitiatorEngine struct {
	processID string
	params    ParamsInstall
	chainID   uint64
	state     initiatorState

	postChannel    *channel.Channel
	newAppInstance channel.AppInstance
	commitment     *commitment.SetStateCommitment
	hash           [32]byte
	sigMe          [65]byte
}

// NewInitiatorEngine creates an engine ready for its first Advance call
// (with a zero Input).
func NewInitiatorEngine(processID string, params ParamsInstall, chainID uint64) *InitiatorEngine {
	return &InitiatorEngine{processID: processID, params: params, chainID: chainID}
}

// Advance consumes the host's response to the previously returned Step and
// returns the next one. Calling it again after OpDone or OpErr is a
// programming error.
func (e *InitiatorEngine) Advance(preChannel *channel.Channel, in Input) Step {
	switch e.state {
	case initInit:
		return e.advanceInit(preChannel)
	case initWaitValidate:
		return e.advanceWaitValidate(in)
	case initWaitSign:
		return e.advanceWaitSign(in)
	case initWaitReply:
		return e.advanceWaitReply(in)
	case initWaitPersist:
		return e.advanceWaitPersist(in)
	default:
		return e.fail(errProgramming("Advance called after terminal state"))
	}
}

func (e *InitiatorEngine) advanceInit(preChannel *channel.Channel) Step {
	if preChannel == nil {
		return e.fail(ErrNoStateChannel)
	}

	prop := e.params.Proposal
	if err := channel.CheckSufficiency(preChannel, prop.InitiatorIdentifier.Address(), prop.InitiatorDepositAssetID, prop.InitiatorDeposit); err != nil {
		return e.fail(err)
	}
	if err := channel.CheckSufficiency(preChannel, prop.ResponderIdentifier.Address(), prop.ResponderDepositAssetID, prop.ResponderDeposit); err != nil {
		return e.fail(err)
	}

	postChannel, newApp, err := channel.ComputeInstallStateChannelTransition(preChannel, prop)
	if err != nil {
		return e.fail(err)
	}
	e.postChannel = postChannel
	e.newAppInstance = newApp

	e.state = initWaitValidate
	return Step{
		Op:   OpValidate,
		Role: RoleInitiator,
		Validate: &ValidateRequest{
			Params:         e.params,
			PreChannel:     preChannel,
			NewAppInstance: newApp,
			Role:           RoleInitiator,
		},
	}
}

func (e *InitiatorEngine) advanceWaitValidate(in Input) Step {
	if in.RejectReason != "" {
		return e.fail(&HostRejectedError{Reason: in.RejectReason})
	}

	e.commitment = commitment.BuildFreeBalanceCommitment(e.postChannel, e.chainID)
	e.hash = e.commitment.HashToSign()

	e.state = initWaitSign
	return Step{Op: OpSign, Role: RoleInitiator, HashToSign: e.hash}
}

func (e *InitiatorEngine) advanceWaitSign(in Input) Step {
	e.sigMe = in.Signature

	customData, err := wire.EncodeInstallCustomData(e.sigMe)
	if err != nil {
		return e.fail(err)
	}
	paramsJSON, err := json.Marshal(e.params)
	if err != nil {
		return e.fail(err)
	}
	msg := wire.ProtocolMessageData{
		ProcessID:  e.processID,
		Protocol:   wire.ProtocolInstall,
		Params:     paramsJSON,
		To:         e.params.ResponderIdentifier.Address(),
		Seq:        1,
		CustomData: customData,
	}

	e.state = initWaitReply
	return Step{Op: OpSendAndWait, Role: RoleInitiator, Message: msg}
}

func (e *InitiatorEngine) advanceWaitReply(in Input) Step {
	if in.Reply.Protocol != wire.ProtocolInstall {
		return e.fail(errors.Errorf("protocol: unexpected reply protocol %q", in.Reply.Protocol))
	}
	replyData, err := in.Reply.DecodeInstallCustomData()
	if err != nil {
		return e.fail(err)
	}
	var sigThem [65]byte
	copy(sigThem[:], replyData.Signature)

	responderAddr := e.params.ResponderIdentifier.Address()
	ok, err := wallet.VerifySignature(e.hash, sigThem, responderAddr)
	if err != nil || !ok {
		return e.fail(ErrInvalidCounterpartySignature)
	}

	owners := [2]wallet.Address{
		e.postChannel.MultisigOwners[0].Address(),
		e.postChannel.MultisigOwners[1].Address(),
	}
	if err := e.commitment.AddSignatures(owners, e.sigMe, sigThem); err != nil {
		return e.fail(ErrInvalidCounterpartySignature)
	}

	e.state = initWaitPersist
	return Step{
		Op:   OpPersist,
		Role: RoleInitiator,
		Persist: &PersistRequest{
			Type:        CreateInstance,
			Channel:     e.postChannel,
			AppInstance: e.newAppInstance,
			Commitment:  e.commitment,
		},
	}
}

func (e *InitiatorEngine) advanceWaitPersist(in Input) Step {
	if in.PersistErr != nil {
		return e.fail(&PersistenceFailedError{Cause: in.PersistErr})
	}
	e.state = initDone
	return Step{Op: OpDone, Role: RoleInitiator}
}

func (e *InitiatorEngine) fail(err error) Step {
	e.state = initErrored
	return Step{Op: OpErr, Role: RoleInitiator, Err: err}
}
