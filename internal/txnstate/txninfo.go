// Package txnstate is the per-worker transaction-local state (C4): the
// not-alive and cascading-abort sets, the undo log and the epoch guard
// (the transaction-id counter lives in each Coordinator). Per spec.md §9's explicit restatement, this is a struct
// owned by one worker (one goroutine driving one transaction at a time),
// not thread-local process-wide state.
package txnstate

import (
	"github.com/dbcore/ccstore/internal/ccids"
	"github.com/dbcore/ccstore/internal/epoch"
	"github.com/dbcore/ccstore/internal/rowstate"
	"github.com/dbcore/ccstore/internal/storage"
)

// Kind distinguishes the two TxInfo variants spec.md §3 describes.
type Kind uint8

const (
	// KindRead marks an undo-log entry for a read access: enough to
	// unlink the access record, nothing to invert.
	KindRead Kind = iota
	// KindWrite marks an undo-log entry for a write access: carries the
	// old/new values needed to invert the change on abort.
	KindWrite
)

// TxInfo is one entry of a transaction's undo log, prepended in
// operation order. It carries what §4.5 needs to unlink an access record
// from its row and, for writes, to invert the storage change.
type TxInfo struct {
	Kind Kind
	Tx   ccids.TxID
	Cell ccids.Cell
	Row  *rowstate.Row
	Prv  rowstate.Ticket

	// Write-only fields.
	Column    storage.Column
	Old, New  storage.Value
	AbortFlag bool // set once undo replay has restored this entry's old value
}

// State is one worker's transaction-local bookkeeping, live between Start
// and the terminal call (Commit or Abort).
type State struct {
	NotAlive         map[ccids.TxID]struct{}
	AbortTransaction map[ccids.TxID]struct{}

	// AtomInfo is the undo log, in operation order (oldest first). Per
	// spec.md §3 "iteration from front = reverse chronological" means
	// walking AtomInfo from its end backward.
	AtomInfo []*TxInfo

	Guard *epoch.Guard
}

// New returns a fresh, empty State.
func New() *State {
	return &State{
		NotAlive:         make(map[ccids.TxID]struct{}),
		AbortTransaction: make(map[ccids.TxID]struct{}),
	}
}

// Reset reuses s's backing storage for a new transaction, the Go analog
// of the source's placement-reconstruction of atom_info (spec.md §9):
// amortized allocation via slab reuse instead of destroy/recreate.
func (s *State) Reset(guard *epoch.Guard) {
	for k := range s.AbortTransaction {
		delete(s.AbortTransaction, k)
	}
	s.AtomInfo = s.AtomInfo[:0]
	s.Guard = guard
}

// MarkDead records tx as no longer live.
func (s *State) MarkDead(tx ccids.TxID) {
	s.NotAlive[tx] = struct{}{}
}

// IsDead reports whether tx has already been marked not-alive.
func (s *State) IsDead(tx ccids.TxID) bool {
	_, dead := s.NotAlive[tx]
	return dead
}

// Push prepends a new undo entry to the log (appended internally; walked
// in reverse to get "front" order — see AtomInfo's doc comment).
func (s *State) Push(info *TxInfo) {
	s.AtomInfo = append(s.AtomInfo, info)
}

// Forward walks the undo log oldest-to-newest (chronological order),
// calling fn on each entry.
func (s *State) Forward(fn func(*TxInfo)) {
	for _, t := range s.AtomInfo {
		fn(t)
	}
}

// Reverse walks the undo log newest-to-oldest (reverse chronological,
// i.e. front-to-back per spec.md §3), calling fn on each entry.
func (s *State) Reverse(fn func(*TxInfo)) {
	for i := len(s.AtomInfo) - 1; i >= 0; i-- {
		fn(s.AtomInfo[i])
	}
}
