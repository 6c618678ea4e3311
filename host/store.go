// SPDX-License-Identifier: Apache-2.0

package host

import (
	"sync"

	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/commitment"
	"perun.network/install-protocol/protocol"
	"perun.network/install-protocol/wallet"
)

// RecordKey identifies a persisted commitment record: one channel's one app
// instance at one version.
type RecordKey struct {
	MultisigAddress wallet.Address
	AppIdentityHash channel.IdentityHash
	VersionNumber   uint64
}

// Record is the persisted commitment record's value: the commitment and
// its two signatures in canonical owner order, alongside the channel and
// app instance snapshot it was computed over.
type Record struct {
	Channel     *channel.Channel
	AppInstance channel.AppInstance
	Commitment  *commitment.SetStateCommitment
}

// Store is an in-memory, mutex-guarded PERSIST_APP_INSTANCE sink. A
// production host would back this with a database; the locking discipline
// (single mutex serializing all writes) mirrors the requirement that a
// channel is a single-writer resource, generalized across all channels
// since this store is shared by every engine the host runs.
type Store struct {
	mu      sync.Mutex
	records map[RecordKey]Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[RecordKey]Record)}
}

// Persist implements the PERSIST_APP_INSTANCE opcode for the install
// engine's sole request type, CreateInstance.
func (s *Store) Persist(req *protocol.PersistRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := RecordKey{
		MultisigAddress: req.Channel.MultisigAddress,
		AppIdentityHash: req.AppInstance.IdentityHash,
		VersionNumber:   req.Channel.FreeBalance.VersionNumber,
	}
	s.records[key] = Record{
		Channel:     req.Channel,
		AppInstance: req.AppInstance,
		Commitment:  req.Commitment,
	}
	return nil
}

// Lookup retrieves a previously persisted record.
func (s *Store) Lookup(key RecordKey) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[key]
	return r, ok
}
