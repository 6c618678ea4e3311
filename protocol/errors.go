// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoStateChannel is returned when the pre-protocol channel handed to the
// engine is missing; fatal for this run.
var ErrNoStateChannel = errors.New("no state channel")

// ErrInvalidCounterpartySignature is returned when a counterparty's
// signature does not recover to its expected address; fatal, and possibly
// indicates an adversarial peer.
var ErrInvalidCounterpartySignature = errors.New("invalid counterparty signature")

// ErrProtocolTimeout is raised by the host (never by the engine itself) when
// an IO_SEND_AND_WAIT deadline expires. It is not fatal to the channel; the
// orchestrator may retry the run with a fresh process ID.
var ErrProtocolTimeout = errors.New("protocol timeout")

// HostRejectedError is returned when OP_VALIDATE rejects the proposed
// install. No signatures are emitted before this point.
type HostRejectedError struct {
	Reason string
}

func (e *HostRejectedError) Error() string {
	return fmt.Sprintf("host rejected: %s", e.Reason)
}

// PersistenceFailedError is returned when PERSIST_APP_INSTANCE reports a
// store failure. The channel state is not advanced: the post-channel was
// never committed.
type PersistenceFailedError struct {
	Cause error
}

func (e *PersistenceFailedError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Cause)
}

func (e *PersistenceFailedError) Unwrap() error { return e.Cause }

// errProgramming wraps a misuse of the engine API (e.g. calling Advance
// again after a terminal Step) distinctly from protocol-level errors.
func errProgramming(msg string) error {
	return errors.New("protocol: " + msg)
}
