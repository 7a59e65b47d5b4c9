// Package ss2pl implements the strict two-phase locking strategy (C2):
// shared/exclusive locks at (column, offset) granularity with a wait-die
// deadlock-avoidance policy, plus the per-worker coordinator (part of C5)
// that drives C1 (internal/rowstate), C4 (internal/txnstate) and C6
// (internal/undo) against it.
//
// The lock wait list is grounded on the teacher's
// darleet-GraphDB/src/txns/txnqueue.go doubly-linked queue, but does not
// reproduce its channel/notifier batch-granting machinery: spec.md §4.3
// specifies busy-wait semantics ("the requester waits (spin + yield)"),
// the same discipline internal/rowstate already uses for the per-cell
// ticket protocol, so a waiting request here re-polls the holder set on
// that same cadence instead of blocking on a channel.
package ss2pl

import (
	"runtime"
	"sync"

	"github.com/dbcore/ccstore/internal/ccids"
)

// Mode is a lock's acquisition mode. SS2PL only ever needs two: unlike the
// teacher's five-level GranularLockMode hierarchy (intention locks for a
// page/file/catalog tree), a flat cell store has nothing to intend-lock
// above it.
type Mode uint8

const (
	SharedMode Mode = iota
	Exclusive
)

func compatible(a, b Mode) bool {
	return a == SharedMode && b == SharedMode
}

// cellLock is the per-(column,offset) lock word spec.md §4.3 calls
// `locked[offset]`: the holder set and, implicitly, the waiters spinning
// on it.
type cellLock struct {
	mu      sync.Mutex
	holders map[ccids.TxID]Mode
}

func newCellLock() *cellLock {
	return &cellLock{holders: make(map[ccids.TxID]Mode)}
}

// attempt reports whether tx's request for mode can be granted right now,
// and if not, whether the caller should keep spinning (conflicting
// holders are all older) or self-abort (some conflicting holder is
// younger). Must be called with cl.mu held.
func (cl *cellLock) attempt(tx ccids.TxID, mode Mode) (granted bool, shouldWait bool) {
	othersConflict := false
	youngerConflict := false

	for holder, holderMode := range cl.holders {
		if holder == tx {
			continue
		}
		if compatible(mode, holderMode) {
			continue
		}
		othersConflict = true
		if holder > tx {
			youngerConflict = true
		}
	}

	if !othersConflict {
		// Either no other holders at all, or every other holder's mode is
		// compatible: grant (this also covers self-upgrade, since a tx
		// already present with Shared upgrading to Exclusive while it is
		// the sole holder sees no "other" holders). An Exclusive hold is
		// never downgraded by a later Shared request from the same tx.
		if cur, held := cl.holders[tx]; !held || cur != Exclusive {
			cl.holders[tx] = mode
		}
		return true, false
	}

	if youngerConflict {
		// spec.md §4.3: "otherwise the request is denied and the
		// requester self-aborts".
		return false, false
	}

	// Every conflicting holder is older: wait-die says wait.
	return false, true
}

// release drops tx's hold on cl, if any.
func (cl *cellLock) release(tx ccids.TxID) {
	delete(cl.holders, tx)
}

// spinYieldEvery mirrors rowstate.SpinYieldEvery: the same busy-wait
// cadence spec.md §4.2 prescribes for the ticket protocol applies to lock
// waits per §4.3.
const spinYieldEvery = 10_000

func spinWait(i int) int {
	i++
	if i%spinYieldEvery == 0 {
		runtime.Gosched()
	}
	return i
}
