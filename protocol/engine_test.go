// SPDX-License-Identifier: Apache-2.0

package protocol_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/protocol"
	"perun.network/install-protocol/wallet"
	"perun.network/install-protocol/wire"
)

func addr(b byte) wallet.Address {
	var a wallet.Address
	a[wallet.AddressLen-1] = b
	return a
}

func setupChannel(t *testing.T, initiatorAcc, responderAcc *wallet.Account) (*channel.Channel, channel.AppInstance) {
	t.Helper()
	owners := [2]channel.ChannelOwner{
		channel.ChannelOwner(initiatorAcc.Address()),
		channel.ChannelOwner(responderAcc.Address()),
	}
	fb := channel.NewTokenIndexedCoinTransferMap()
	fb.Set(addr(0x01), initiatorAcc.Address(), big.NewInt(100))
	fb.Set(addr(0x01), responderAcc.Address(), big.NewInt(100))

	c := channel.NewChannel(addr(0xFF), owners, channel.NewFreeBalance(fb))
	proposal := channel.AppInstance{
		IdentityHash:            channel.IdentityHash{9},
		InitiatorIdentifier:     channel.AppParty(initiatorAcc.Address()),
		ResponderIdentifier:     channel.AppParty(responderAcc.Address()),
		OutcomeType:             channel.SingleAssetTwoPartyCoinTransfer,
		InitiatorDeposit:        big.NewInt(30),
		ResponderDeposit:        big.NewInt(40),
		InitiatorDepositAssetID: addr(0x01),
		ResponderDepositAssetID: addr(0x01),
	}
	proposed, err := c.ProposeApp(proposal)
	require.NoError(t, err)
	return proposed, proposal
}

// recorder captures what a same-process test host observed from an engine:
// the last PERSIST_APP_INSTANCE request and every message it sent.
type recorder struct {
	persisted *protocol.PersistRequest
	sentMsgs  []wire.ProtocolMessageData
}

// runInitiator runs an InitiatorEngine to completion against a
// same-process "host" that always validates, signs with acc, and persists
// successfully. replyFn stands in for the responder: it receives the
// OpSendAndWait message and returns the reply the initiator resumes with.
func runInitiator(t *testing.T, eng *protocol.InitiatorEngine, preChannel *channel.Channel, acc *wallet.Account, rec *recorder, replyFn func(wire.ProtocolMessageData) wire.ProtocolMessageData) protocol.Step {
	t.Helper()
	step := eng.Advance(preChannel, protocol.Input{})
	for {
		switch step.Op {
		case protocol.OpValidate:
			step = eng.Advance(preChannel, protocol.Input{})
		case protocol.OpSign:
			sig, err := acc.SignHash(step.HashToSign)
			require.NoError(t, err)
			step = eng.Advance(preChannel, protocol.Input{Signature: sig})
		case protocol.OpSendAndWait:
			rec.sentMsgs = append(rec.sentMsgs, step.Message)
			reply := replyFn(step.Message)
			step = eng.Advance(preChannel, protocol.Input{Reply: reply})
		case protocol.OpPersist:
			rec.persisted = step.Persist
			step = eng.Advance(preChannel, protocol.Input{})
		case protocol.OpDone, protocol.OpErr:
			return step
		default:
			t.Fatalf("unexpected op %v", step.Op)
		}
	}
}

func runResponder(t *testing.T, eng *protocol.ResponderEngine, preChannel *channel.Channel, acc *wallet.Account, rec *recorder) protocol.Step {
	t.Helper()
	step := eng.Advance(preChannel, protocol.Input{})
	for {
		switch step.Op {
		case protocol.OpValidate:
			step = eng.Advance(preChannel, protocol.Input{})
		case protocol.OpSign:
			sig, err := acc.SignHash(step.HashToSign)
			require.NoError(t, err)
			step = eng.Advance(preChannel, protocol.Input{Signature: sig})
		case protocol.OpPersist:
			rec.persisted = step.Persist
			step = eng.Advance(preChannel, protocol.Input{})
		case protocol.OpSend:
			rec.sentMsgs = append(rec.sentMsgs, step.Message)
			step = eng.Advance(preChannel, protocol.Input{})
		case protocol.OpDone, protocol.OpErr:
			return step
		default:
			t.Fatalf("unexpected op %v", step.Op)
		}
	}
}

func TestInstall_HappyPath(t *testing.T) {
	initiatorAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)
	responderAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)

	preChannel, proposal := setupChannel(t, initiatorAcc, responderAcc)
	params := protocol.ParamsInstall{
		InitiatorIdentifier: proposal.InitiatorIdentifier,
		ResponderIdentifier: proposal.ResponderIdentifier,
		MultisigAddress:     preChannel.MultisigAddress,
		Proposal:            proposal,
		AppIdentityHash:     proposal.IdentityHash,
	}

	var responderRec recorder
	var responderStep protocol.Step

	initiatorRec := &recorder{}
	finalInitStep := runInitiator(t, protocol.NewInitiatorEngine("p1", params, 1), preChannel, initiatorAcc, initiatorRec,
		func(msg wire.ProtocolMessageData) wire.ProtocolMessageData {
			respEngine := protocol.NewResponderEngine("p1", params, 1, msg)
			responderStep = runResponder(t, respEngine, preChannel, responderAcc, &responderRec)
			require.Equal(t, protocol.OpDone, responderStep.Op)
			require.Len(t, responderRec.sentMsgs, 1)
			return responderRec.sentMsgs[0]
		})

	require.Equal(t, protocol.OpDone, finalInitStep.Op)
	require.NotNil(t, initiatorRec.persisted)
	require.NotNil(t, responderRec.persisted)

	assert.True(t, initiatorRec.persisted.Commitment.FullySigned())
	assert.True(t, responderRec.persisted.Commitment.FullySigned())

	postFB := initiatorRec.persisted.Channel.FreeBalance
	assert.Equal(t, big.NewInt(70), postFB.State.Get(addr(0x01), initiatorAcc.Address()))
	assert.Equal(t, big.NewInt(60), postFB.State.Get(addr(0x01), responderAcc.Address()))
	assert.Equal(t, preChannel.FreeBalance.VersionNumber+1, postFB.VersionNumber)
}

// The responder replies with a signature over the wrong hash; the
// initiator must fail with InvalidCounterpartySignature, never persist,
// never having sent anything past the original request.
func TestInstall_BadCounterpartySignature(t *testing.T) {
	initiatorAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)
	responderAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)
	attacker, err := wallet.GenerateAccount()
	require.NoError(t, err)

	preChannel, proposal := setupChannel(t, initiatorAcc, responderAcc)
	params := protocol.ParamsInstall{
		InitiatorIdentifier: proposal.InitiatorIdentifier,
		ResponderIdentifier: proposal.ResponderIdentifier,
		MultisigAddress:     preChannel.MultisigAddress,
		Proposal:            proposal,
		AppIdentityHash:     proposal.IdentityHash,
	}

	rec := &recorder{}
	finalStep := runInitiator(t, protocol.NewInitiatorEngine("p2", params, 1), preChannel, initiatorAcc, rec,
		func(msg wire.ProtocolMessageData) wire.ProtocolMessageData {
			var wrongHash [32]byte
			wrongHash[0] = 0xFF
			badSig, err := attacker.SignHash(wrongHash)
			require.NoError(t, err)
			customData, err := wire.EncodeInstallCustomData(badSig)
			require.NoError(t, err)
			return wire.ProtocolMessageData{ProcessID: "p2", Protocol: wire.ProtocolInstall, To: msg.To, CustomData: customData}
		})

	require.Equal(t, protocol.OpErr, finalStep.Op)
	assert.ErrorIs(t, finalStep.Err, protocol.ErrInvalidCounterpartySignature)
	assert.Nil(t, rec.persisted)
}

// The host rejects OP_VALIDATE; the initiator must abort with HostRejected
// before any signature is emitted.
func TestInstall_HostValidationRejects(t *testing.T) {
	initiatorAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)
	responderAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)

	preChannel, proposal := setupChannel(t, initiatorAcc, responderAcc)
	params := protocol.ParamsInstall{
		InitiatorIdentifier: proposal.InitiatorIdentifier,
		ResponderIdentifier: proposal.ResponderIdentifier,
		MultisigAddress:     preChannel.MultisigAddress,
		Proposal:            proposal,
		AppIdentityHash:     proposal.IdentityHash,
	}

	eng := protocol.NewInitiatorEngine("p3", params, 1)
	step := eng.Advance(preChannel, protocol.Input{})
	require.Equal(t, protocol.OpValidate, step.Op)

	step = eng.Advance(preChannel, protocol.Input{RejectReason: "app definition not whitelisted"})
	require.Equal(t, protocol.OpErr, step.Op)

	var rejected *protocol.HostRejectedError
	require.ErrorAs(t, step.Err, &rejected)
	assert.Equal(t, "app definition not whitelisted", rejected.Reason)
}

// Insufficient funds is caught before any OP_VALIDATE/OP_SIGN request.
func TestInstall_InsufficientFundsAbortsBeforeValidate(t *testing.T) {
	initiatorAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)
	responderAcc, err := wallet.GenerateAccount()
	require.NoError(t, err)

	owners := [2]channel.ChannelOwner{
		channel.ChannelOwner(initiatorAcc.Address()),
		channel.ChannelOwner(responderAcc.Address()),
	}
	fb := channel.NewTokenIndexedCoinTransferMap()
	fb.Set(addr(0x01), initiatorAcc.Address(), big.NewInt(10))
	preChannel := channel.NewChannel(addr(0xFE), owners, channel.NewFreeBalance(fb))

	proposal := channel.AppInstance{
		IdentityHash:            channel.IdentityHash{1},
		InitiatorIdentifier:     channel.AppParty(initiatorAcc.Address()),
		ResponderIdentifier:     channel.AppParty(responderAcc.Address()),
		InitiatorDeposit:        big.NewInt(30),
		ResponderDeposit:        big.NewInt(0),
		InitiatorDepositAssetID: addr(0x01),
		ResponderDepositAssetID: addr(0x01),
	}
	proposed, err := preChannel.ProposeApp(proposal)
	require.NoError(t, err)

	params := protocol.ParamsInstall{
		InitiatorIdentifier: proposal.InitiatorIdentifier,
		ResponderIdentifier: proposal.ResponderIdentifier,
		MultisigAddress:     proposed.MultisigAddress,
		Proposal:            proposal,
	}

	eng := protocol.NewInitiatorEngine("p4", params, 1)
	step := eng.Advance(proposed, protocol.Input{})
	require.Equal(t, protocol.OpErr, step.Op)

	var insufficient *channel.InsufficientFundsError
	require.ErrorAs(t, step.Err, &insufficient)
}
