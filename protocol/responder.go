// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/wallet"
	"perun.network/install-protocol/wire"
)

type responderState int

const (
	respInit responderState = iota
	respWaitValidate
	respWaitSign
	respWaitPersist
	respWaitSend
	respDone
	respErrored
)

// ResponderEngine runs the Install Protocol's role-1 sequence: Init ->
// Validated -> Verified -> Signed -> Persisted -> Sent -> Done. Unlike the
// initiator, it verifies the counterparty's signature before signing
// anything itself, and persists before replying, so a crash after
// persistence simply needs the reply re-emitted on reconnect.
type ResponderEngine struct {
	processID   string
	params      ParamsInstall
	chainID     uint64
	inbound     wire.ProtocolMessageData
	state       responderState

	postChannel    *channel.Channel
	newAppInstance channel.AppInstance
	commitment     *commitment.SetStateCommitment
	hash           [32]byte
	sigThem        [65]byte
}

// NewResponderEngine creates an engine for a run triggered by an inbound
// seq-1 install message. inbound carries the initiator's signature.
func NewResponderEngine(processID string, params ParamsInstall, chainID uint64, inbound wire.ProtocolMessageData) *ResponderEngine {
	return &ResponderEngine{processID: processID, params: params, chainID: chainID, inbound: inbound}
}

// Advance consumes the host's response to the previously returned Step and
// returns the next one.
func (e *ResponderEngine) Advance(preChannel *channel.Channel, in Input) Step {
	switch e.state {
	case respInit:
		return e.advanceInit(preChannel)
	case respWaitValidate:
		return e.advanceWaitValidate(in)
	case respWaitSign:
		return e.advanceWaitSign(in)
	case respWaitPersist:
		return e.advanceWaitPersist(in)
	case respWaitSend:
		return e.advanceWaitSend(in)
	default:
		return e.fail(errProgramming("Advance called after terminal state"))
	}
}

func (e *ResponderEngine) advanceInit(preChannel *channel.Channel) Step {
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

	e.state = respWaitValidate
	return Step{
		Op:   OpValidate,
		Role: RoleResponder,
		Validate: &ValidateRequest{
			Params:         e.params,
			PreChannel:     preChannel,
			NewAppInstance: newApp,
			Role:           RoleResponder,
		},
	}
}

func (e *ResponderEngine) advanceWaitValidate(in Input) Step {
	if in.RejectReason != "" {
		return e.fail(&HostRejectedError{Reason: in.RejectReason})
	}

	e.commitment = commitment.BuildFreeBalanceCommitment(e.postChannel, e.chainID)
	e.hash = e.commitment.HashToSign()

	replyData, err := e.inbound.DecodeInstallCustomData()
	if err != nil {
		return e.fail(err)
	}
	copy(e.sigThem[:], replyData.Signature)

	initiatorAddr := e.params.InitiatorIdentifier.Address()
	ok, err := wallet.VerifySignature(e.hash, e.sigThem, initiatorAddr)
	if err != nil || !ok {
		return e.fail(ErrInvalidCounterpartySignature)
	}

	e.state = respWaitSign
	return Step{Op: OpSign, Role: RoleResponder, HashToSign: e.hash}
}

func (e *ResponderEngine) advanceWaitSign(in Input) Step {
	sigMe := in.Signature

	owners := [2]wallet.Address{
		e.postChannel.MultisigOwners[0].Address(),
		e.postChannel.MultisigOwners[1].Address(),
	}
	if err := e.commitment.AddSignatures(owners, sigMe, e.sigThem); err != nil {
		return e.fail(ErrInvalidCounterpartySignature)
	}

	e.state = respWaitPersist
	return Step{
		Op:   OpPersist,
		Role: RoleResponder,
		Persist: &PersistRequest{
			Type:        CreateInstance,
			Channel:     e.postChannel,
			AppInstance: e.newAppInstance,
			Commitment:  e.commitment,
		},
	}
}

func (e *ResponderEngine) advanceWaitPersist(in Input) Step {
	if in.PersistErr != nil {
		return e.fail(&PersistenceFailedError{Cause: in.PersistErr})
	}

	sig, _ := e.commitment.Signature(ownerIndexOf(e.postChannel, e.params.ResponderIdentifier.Address()))
	customData, err := wire.EncodeInstallCustomData(sig)
	if err != nil {
		return e.fail(err)
	}
	msg := wire.ProtocolMessageData{
		ProcessID:  e.processID,
		Protocol:   wire.ProtocolInstall,
		To:         e.params.InitiatorIdentifier.Address(),
		Seq:        wire.UnassignedSeqNo,
		CustomData: customData,
	}

	e.state = respWaitSend
	return Step{Op: OpSend, Role: RoleResponder, Message: msg}
}

func (e *ResponderEngine) advanceWaitSend(in Input) Step {
	if in.SendErr != nil {
		return e.fail(in.SendErr)
	}
	e.state = respDone
	return Step{Op: OpDone, Role: RoleResponder}
}

func (e *ResponderEngine) fail(err error) Step {
	e.state = respErrored
	return Step{Op: OpErr, Role: RoleResponder, Err: err}
}

func ownerIndexOf(c *channel.Channel, addr wallet.Address) int {
	idx := c.OwnerIndex(addr)
	if idx < 0 {
		return 0
	}
	return idx
}
