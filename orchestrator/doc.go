// SPDX-License-Identifier: Apache-2.0

// Package orchestrator dispatches an incoming protocol message or a local
// initiation request to the correct protocol engine at the correct role,
// resumes it with host-returned values, and enforces that at most one
// protocol run is active per multisig address at a time.
package orchestrator // import "perun.network/install-protocol/orchestrator"
