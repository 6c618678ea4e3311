// SPDX-License-Identifier: Apache-2.0

// Package config loads the host-level settings a deployment needs to run
// the Install Protocol: the chain ID signatures are bound to, the wall-clock
// timeout applied to IO_SEND_AND_WAIT, and the set of app definitions the
// validator allows.
package config // import "perun.network/install-protocol/config"
