// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"perun.network/install-protocol/wallet"
)

var (
	// ErrAppNotProposed is returned by InstallApp when the candidate's
	// identity hash is not present in proposedAppInstances: fatal,
	// indicates upstream protocol skew, or a replay of an already-completed
	// install (see ErrAlreadyInstalled).
	ErrAppNotProposed = errors.New("app not proposed")

	// ErrAlreadyInstalled is returned when a caller can positively identify
	// a replay of a completed install (the identity hash is already present
	// in appInstances) rather than genuine protocol skew. Callers that
	// cannot tell the two apart fall back to ErrAppNotProposed, per the
	// invariant that installing twice must never double-debit the free
	// balance.
	ErrAlreadyInstalled = errors.New("app instance already installed")

	// ErrNoInstalledApps is returned by AppSequenceNumber when a channel
	// has no installed app instances yet. This replaces matching a
	// specific error string to detect the same condition.
	ErrNoInstalledApps = errors.New("no installed app instances in this channel")
)

// InsufficientFundsError reports that party does not hold at least need of
// asset in the free balance.
type InsufficientFundsError struct {
	Party      wallet.Address
	Asset      AssetID
	Have, Need *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: party %s, asset %s, have %s, need %s",
		e.Party, e.Asset, e.Have, e.Need)
}
