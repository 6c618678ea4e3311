// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// ErrNoSuchAccount is returned by Unlock when the requested address was
// never generated by this keystore.
var ErrNoSuchAccount = errors.New("no such account")

// Keystore is a garbage-collected key store, removing keys when they are no
// longer used. Generated keys are not persisted to permanent storage unless
// IncrementUsage() is called on them. Once a key is no longer used (as
// indicated by DecrementUsage()), it is deleted from storage. This mirrors
// the lifecycle of a channel's signing keys: needed while a multisig owner
// has open channels, discardable once it has none.
type Keystore struct {
	mutex sync.Mutex
	file  string

	seed      [32]byte            // the keystore's random seed.
	latestAcc uint64              // the next account's nonce.
	openAccs  map[Address]*openAcc // all currently tracked accounts.
}

type openAcc struct {
	nonce    uint64
	useCount uint32
	acc      *Account
}

var bo = binary.LittleEndian

// NewRAMKeystore creates an unpersisted Keystore seeded from gen.
func NewRAMKeystore(gen io.Reader) (*Keystore, error) {
	w := Keystore{
		openAccs: make(map[Address]*openAcc),
	}
	if _, err := io.ReadFull(gen, w.seed[:]); err != nil {
		return nil, fmt.Errorf("reading random seed: %w", err)
	}
	return &w, nil
}

// CreateOrLoadKeystore loads the keystore from path, or creates a new one
// seeded from gen and saves it to path.
func CreateOrLoadKeystore(path string, gen io.Reader) (*Keystore, error) {
	w := Keystore{
		file:     path,
		openAccs: make(map[Address]*openAcc),
	}

	if file, err := os.ReadFile(path); err == nil {
		if err := w.load(bytes.NewReader(file)); err != nil {
			return nil, err
		}
	} else {
		if _, err := io.ReadFull(gen, w.seed[:]); err != nil {
			return nil, err
		}
		if err := w.save(); err != nil {
			return nil, err
		}
	}
	return &w, nil
}

func (w *Keystore) load(r io.Reader) error {
	if _, err := io.ReadFull(r, w.seed[:]); err != nil {
		return err
	}
	if err := binary.Read(r, bo, &w.latestAcc); err != nil {
		return err
	}
	var n uint32
	if err := binary.Read(r, bo, &n); err != nil {
		return err
	}
	w.openAccs = make(map[Address]*openAcc, n)
	for i := uint32(0); i < n; i++ {
		var addr Address
		if _, err := io.ReadFull(r, addr[:]); err != nil {
			return err
		}
		acc := &openAcc{}
		if err := binary.Read(r, bo, &acc.nonce); err != nil {
			return err
		}
		if err := binary.Read(r, bo, &acc.useCount); err != nil {
			return err
		}
		w.openAccs[addr] = acc
	}
	return nil
}

func (w *Keystore) save() error {
	if w.file == "" {
		return nil
	}

	file := new(bytes.Buffer)
	file.Write(w.seed[:])

	if err := binary.Write(file, bo, w.latestAcc); err != nil {
		return fmt.Errorf("writing latestAcc: %w", err)
	}
	if err := binary.Write(file, bo, uint32(len(w.openAccs))); err != nil {
		return fmt.Errorf("writing openAccs length: %w", err)
	}
	for addr, acc := range w.openAccs {
		file.Write(addr[:])
		if err := binary.Write(file, bo, acc.nonce); err != nil {
			return fmt.Errorf("writing nonce for account %s: %w", addr, err)
		}
		if err := binary.Write(file, bo, acc.useCount); err != nil {
			return fmt.Errorf("writing useCount for account %s: %w", addr, err)
		}
	}

	return os.WriteFile(w.file, file.Bytes(), 0600)
}

// genAcc deterministically derives the secp256k1 key for nonce id from the
// keystore seed. Unlike ed25519, not every 32-byte digest is a valid
// secp256k1 scalar, so on the rare out-of-range digest an attempt counter
// hashed in after the nonce is incremented and the digest recomputed until
// crypto.ToECDSA accepts it.
func (w *Keystore) genAcc(id uint64) *Account {
	for attempt := uint64(0); ; attempt++ {
		h := sha256.New()
		h.Write(w.seed[:])
		_ = binary.Write(h, bo, id)
		_ = binary.Write(h, bo, attempt)
		digest := h.Sum(nil)

		if priv, err := crypto.ToECDSA(digest); err == nil {
			return NewAccount(priv)
		}
	}
}

// NewAccount creates a fresh unlocked account. It is not persisted until
// IncrementUsage is called on it.
func (w *Keystore) NewAccount() *Account {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	acc := w.genAcc(w.latestAcc)
	w.openAccs[acc.Address()] = &openAcc{
		nonce: w.latestAcc,
		acc:   acc,
	}
	w.latestAcc++
	return acc
}

// Unlock retrieves the account belonging to the requested address.
func (w *Keystore) Unlock(a Address) (*Account, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	acc, ok := w.openAccs[a]
	if !ok {
		return nil, ErrNoSuchAccount
	}
	if acc.acc == nil {
		acc.acc = w.genAcc(acc.nonce)
	}
	return acc.acc, nil
}

// LockAll disables all currently unlocked accounts.
func (w *Keystore) LockAll() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	for _, acc := range w.openAccs {
		if acc.acc != nil {
			acc.acc.clear()
		}
		acc.acc = nil
	}
}

// IncrementUsage tracks how many times an account is in use. Use
// DecrementUsage when an account is no longer used; once the counter
// reaches 0 the account is deleted.
func (w *Keystore) IncrementUsage(a Address) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	acc, ok := w.openAccs[a]
	if !ok {
		return
	}
	acc.useCount++
	_ = w.save()
}

// DecrementUsage complements IncrementUsage.
func (w *Keystore) DecrementUsage(a Address) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	acc, ok := w.openAccs[a]
	if !ok || acc.useCount == 0 {
		return
	}
	acc.useCount--
	if acc.useCount == 0 {
		if acc.acc != nil {
			acc.acc.clear()
		}
		delete(w.openAccs, a)
	}
	_ = w.save()
}
