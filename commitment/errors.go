// SPDX-License-Identifier: Apache-2.0

package commitment

import "github.com/pkg/errors"

// ErrInvalidSignature is returned when a signature passed to AddSignatures
// or SetSignature does not recover to one of the commitment's expected
// owner addresses.
var ErrInvalidSignature = errors.New("invalid signature")
