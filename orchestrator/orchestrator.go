// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"perun.network/install-protocol/chain"
	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/host"
	"perun.network/install-protocol/protocol"
	"perun.network/install-protocol/wallet"
	"perun.network/install-protocol/wire"
)

// ErrUnknownChannel is returned when a requested multisig address has no
// registered channel.
var ErrUnknownChannel = errors.New("orchestrator: unknown channel")

// engine is satisfied by both protocol.InitiatorEngine and
// protocol.ResponderEngine.
type engine interface {
	Advance(preChannel *channel.Channel, in protocol.Input) protocol.Step
}

// Orchestrator is the host acting on behalf of a single party (self). It
// owns that party's view of every channel it participates in, serializing
// all protocol activity on a channel behind a per-multisig lock, enforcing
// that a channel is a single-writer resource.
type Orchestrator struct {
	self    wallet.Address
	chainID uint64

	signer    *host.Signer
	validator host.Validator
	store     *host.Store
	bus       wire.Bus
	conn      chain.Connector

	mu       sync.Mutex
	channels map[wallet.Address]*channel.Channel
	locks    map[wallet.Address]*sync.Mutex
}

// New creates an orchestrator acting on behalf of self. conn is the chain
// connector it registers disputes against when a counterparty stops
// cooperating after an app instance installs.
func New(self wallet.Address, signer *host.Signer, validator host.Validator, store *host.Store, bus wire.Bus, conn chain.Connector, chainID uint64) *Orchestrator {
	return &Orchestrator{
		self:      self,
		chainID:   chainID,
		signer:    signer,
		validator: validator,
		store:     store,
		bus:       bus,
		conn:      conn,
		channels:  make(map[wallet.Address]*channel.Channel),
		locks:     make(map[wallet.Address]*sync.Mutex),
	}
}

// RegisterChannel makes c known to the orchestrator, as the out-of-scope
// setup protocol would after creating it (see the setup package).
func (o *Orchestrator) RegisterChannel(c *channel.Channel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.channels[c.MultisigAddress] = c
}

// Channel returns the orchestrator's current view of a channel.
func (o *Orchestrator) Channel(multisig wallet.Address) (*channel.Channel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.channels[multisig]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChannel, "%s", multisig)
	}
	return c, nil
}

func (o *Orchestrator) setChannel(c *channel.Channel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.channels[c.MultisigAddress] = c
}

func (o *Orchestrator) lockFor(multisig wallet.Address) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[multisig]
	if !ok {
		l = &sync.Mutex{}
		o.locks[multisig] = l
	}
	return l
}

// ProposeAndInstall runs the propose stand-in followed by the full
// initiator side of the Install Protocol, blocking until the run completes,
// fails, or ctx is done.
func (o *Orchestrator) ProposeAndInstall(ctx context.Context, counterparty wallet.Address, proposal channel.AppInstance) (*channel.Channel, error) {
	multisig, err := o.multisigForOwners(o.self, counterparty)
	if err != nil {
		return nil, err
	}

	channelLock := o.lockFor(multisig)
	channelLock.Lock()
	defer channelLock.Unlock()

	preChannel, err := o.Channel(multisig)
	if err != nil {
		return nil, err
	}

	proposed, err := preChannel.ProposeApp(proposal)
	if err != nil {
		return nil, err
	}
	o.setChannel(proposed)

	params := protocol.ParamsInstall{
		InitiatorIdentifier: channel.AppParty(o.self),
		ResponderIdentifier: channel.AppParty(counterparty),
		MultisigAddress:     multisig,
		Proposal:            proposal,
		AppIdentityHash:     proposal.IdentityHash,
	}

	eng := protocol.NewInitiatorEngine(uuid.NewString(), params, o.chainID)
	post, err := o.run(ctx, eng, proposed)
	if err != nil {
		return nil, err
	}
	o.setChannel(post)
	return post, nil
}

// RegisterDispute builds a ConditionalTransactionCommitment claiming
// outcomeHash as the settlement for the app instance identified by
// appIdentityHash in multisig, signs it with self's own signature plus
// counterSig (the counterparty's signature over this claim's HashToSign,
// already handed over out of band), and registers it with the orchestrator's chain connector. This is the
// path a party uses to force settlement unilaterally once a counterparty
// has stopped responding to further protocol messages.
func (o *Orchestrator) RegisterDispute(ctx context.Context, multisig wallet.Address, appIdentityHash channel.IdentityHash, outcomeHash [32]byte, counterSig [65]byte) error {
	c, err := o.Channel(multisig)
	if err != nil {
		return err
	}

	claim := commitment.NewConditionalTransactionCommitment(multisig, appIdentityHash, outcomeHash, o.chainID)
	hash := claim.HashToSign()
	mySig, err := o.signer.Sign(o.self, hash)
	if err != nil {
		return err
	}

	owners := [2]wallet.Address{c.MultisigOwners[0].Address(), c.MultisigOwners[1].Address()}
	if err := claim.SetSignature(owners, mySig); err != nil {
		return err
	}
	if err := claim.SetSignature(owners, counterSig); err != nil {
		return err
	}

	return o.conn.RegisterDispute(ctx, claim)
}

// multisigForOwners is a convenience lookup over the orchestrator's
// registered channels; a production host would instead carry the multisig
// address explicitly alongside the counterparty identity.
func (o *Orchestrator) multisigForOwners(a, b wallet.Address) (wallet.Address, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for multisig, c := range o.channels {
		if c.IsOwner(a) && c.IsOwner(b) {
			return multisig, nil
		}
	}
	return wallet.Address{}, errors.Wrapf(ErrUnknownChannel, "no channel between %s and %s", a, b)
}

// Serve loops receiving inbound messages addressed to self and dispatching
// each to a fresh ResponderEngine, until ctx is done or an inbound message
// fails to be handled; it returns the first such error.
func (o *Orchestrator) Serve(ctx context.Context) error {
	for {
		msg, err := o.bus.Receive(ctx, o.self)
		if err != nil {
			return err
		}
		if err := o.handleInbound(ctx, msg); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) handleInbound(ctx context.Context, msg wire.ProtocolMessageData) error {
	if msg.Protocol != wire.ProtocolInstall {
		return errors.Errorf("orchestrator: unsupported protocol %q", msg.Protocol)
	}

	var params protocol.ParamsInstall
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return errors.Wrap(err, "decoding install params")
	}

	lock := o.lockFor(params.MultisigAddress)
	lock.Lock()
	defer lock.Unlock()

	preChannel, err := o.Channel(params.MultisigAddress)
	if err != nil {
		return err
	}

	proposed, err := preChannel.ProposeApp(params.Proposal)
	if err != nil {
		return err
	}
	o.setChannel(proposed)

	eng := protocol.NewResponderEngine(msg.ProcessID, params, o.chainID, msg)
	post, err := o.run(ctx, eng, proposed)
	if err != nil {
		return err
	}
	o.setChannel(post)
	return nil
}

// run drives eng to completion, servicing every suspension point against
// this orchestrator's signer, validator, store, and bus.
func (o *Orchestrator) run(ctx context.Context, eng engine, preChannel *channel.Channel) (*channel.Channel, error) {
	var result *channel.Channel

	step := eng.Advance(preChannel, protocol.Input{})
	for {
		switch step.Op {
		case protocol.OpValidate:
			reason := o.validator.Validate(*step.Validate)
			step = eng.Advance(preChannel, protocol.Input{RejectReason: reason})

		case protocol.OpSign:
			sig, err := o.signer.Sign(o.self, step.HashToSign)
			if err != nil {
				return nil, err
			}
			step = eng.Advance(preChannel, protocol.Input{Signature: sig})

		case protocol.OpSend:
			sendErr := o.bus.Send(ctx, step.Message)
			step = eng.Advance(preChannel, protocol.Input{SendErr: sendErr})

		case protocol.OpSendAndWait:
			if err := o.bus.Send(ctx, step.Message); err != nil {
				return nil, err
			}
			reply, err := o.bus.Receive(ctx, o.self)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, protocol.ErrProtocolTimeout
				}
				return nil, err
			}
			step = eng.Advance(preChannel, protocol.Input{Reply: reply})

		case protocol.OpPersist:
			result = step.Persist.Channel
			persistErr := o.store.Persist(step.Persist)
			step = eng.Advance(preChannel, protocol.Input{PersistErr: persistErr})

		case protocol.OpDone:
			if result == nil {
				return nil, errors.New("orchestrator: engine finished without persisting")
			}
			return result, nil

		case protocol.OpErr:
			return nil, step.Err

		default:
			return nil, errors.Errorf("orchestrator: unhandled step op %v", step.Op)
		}
	}
}
