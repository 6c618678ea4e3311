// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"perun.network/install-protocol/wallet"
)

// ErrBusClosed is returned by Bus operations performed after Close.
var ErrBusClosed = errors.New("wire: bus closed")

// Bus is the transport abstraction the IO_SEND and IO_SEND_AND_WAIT
// opcodes are implemented against. It knows nothing about protocol
// semantics; it only moves ProtocolMessageData envelopes between
// addresses.
type Bus interface {
	// Send delivers msg to msg.To without waiting for a reply
	// (IO_SEND).
	Send(ctx context.Context, msg ProtocolMessageData) error
	// Receive blocks until a message addressed to self arrives, or ctx is
	// done. It backs both a responder's inbound message and the
	// initiator's IO_SEND_AND_WAIT continuation.
	Receive(ctx context.Context, self wallet.Address) (ProtocolMessageData, error)
}

// LocalBus is an in-process loopback bus: every registered address gets its
// own inbox channel, and Send on one goroutine unblocks a Receive on
// another. It is the host-side transport used by the demo and by tests that
// exercise two protocol engines talking to each other without a real
// network, the same role connection.go's in-process dialing plays in the
// teacher's channel/connector package.
type LocalBus struct {
	mu      sync.Mutex
	inboxes map[wallet.Address]chan ProtocolMessageData
	closed  bool
}

// NewLocalBus creates an empty bus. Call Register for every participant
// before routing messages to it.
func NewLocalBus() *LocalBus {
	return &LocalBus{inboxes: make(map[wallet.Address]chan ProtocolMessageData)}
}

// Register creates an inbox for addr. It is idempotent.
func (b *LocalBus) Register(addr wallet.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.inboxes[addr]; !ok {
		b.inboxes[addr] = make(chan ProtocolMessageData, 16)
	}
}

// Send implements Bus.
func (b *LocalBus) Send(ctx context.Context, msg ProtocolMessageData) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	inbox, ok := b.inboxes[msg.To]
	b.mu.Unlock()
	if !ok {
		return errors.Errorf("wire: no registered inbox for %s", msg.To)
	}

	select {
	case inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements Bus.
func (b *LocalBus) Receive(ctx context.Context, self wallet.Address) (ProtocolMessageData, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ProtocolMessageData{}, ErrBusClosed
	}
	inbox, ok := b.inboxes[self]
	b.mu.Unlock()
	if !ok {
		return ProtocolMessageData{}, errors.Errorf("wire: no registered inbox for %s", self)
	}

	select {
	case msg := <-inbox:
		return msg, nil
	case <-ctx.Done():
		return ProtocolMessageData{}, ctx.Err()
	}
}

// Close marks the bus closed; further Send/Receive calls return
// ErrBusClosed.
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
