// SPDX-License-Identifier: Apache-2.0

package host

import (
	"perun.network/install-protocol/protocol"
)

// Validator answers an OP_VALIDATE request. An empty return string means
// accept; a non-empty one is the rejection reason carried into
// HostRejectedError.
type Validator interface {
	Validate(req protocol.ValidateRequest) string
}

// AllowListValidator rejects any proposed app instance whose app definition
// address is not on its allow-list. It is the minimal stand-in for an
// out-of-scope app registry; a production host would also check
// channel-specific policy here.
type AllowListValidator struct {
	allowed map[string]struct{}
}

// NewAllowListValidator builds a validator that accepts only the given app
// definition addresses (by their String form).
func NewAllowListValidator(allowedAppDefinitions ...string) *AllowListValidator {
	v := &AllowListValidator{allowed: make(map[string]struct{}, len(allowedAppDefinitions))}
	for _, a := range allowedAppDefinitions {
		v.allowed[a] = struct{}{}
	}
	return v
}

// Validate implements Validator.
func (v *AllowListValidator) Validate(req protocol.ValidateRequest) string {
	appAddr := req.NewAppInstance.AppInterface.Address.String()
	if _, ok := v.allowed[appAddr]; !ok {
		return "app definition not whitelisted"
	}
	return ""
}

// AcceptAllValidator accepts every proposal; useful for tests and demos
// that don't exercise the rejection path.
type AcceptAllValidator struct{}

// Validate implements Validator.
func (AcceptAllValidator) Validate(protocol.ValidateRequest) string { return "" }
