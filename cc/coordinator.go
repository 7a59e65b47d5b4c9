// Package cc defines the public surface spec.md §4.1 gives both
// conflict-resolution strategies: the same transactional verbs over a
// column-store data model, regardless of which strategy is backing them.
//
// Concrete coordinators live in internal/ss2pl and internal/sgt; this
// package only holds the shared interface and the metrics contract both
// of them report through, so callers (cmd/ccdemo, driven by
// internal/ccconfig's strategy setting, and tests) can select a strategy
// at construction time and
// otherwise treat the two identically.
package cc

import (
	"github.com/dbcore/ccstore/internal/ccids"
	"github.com/dbcore/ccstore/internal/storage"
)

// Coordinator is the transactional surface spec.md §4.1 describes:
// start, read, write, commit, abort. One Coordinator instance belongs to
// exactly one worker goroutine driving one transaction at a time — it is
// not safe for concurrent use by multiple goroutines, matching spec.md
// §9's restatement that per-thread state is strictly thread-local while
// the lock manager / serialization graph underneath it is shared.
type Coordinator interface {
	// Start begins a new transaction and returns its id.
	Start() ccids.TxID

	// Read returns the current value of cell and whether the read was
	// granted. A false result means the caller must cascade Abort(tx).
	Read(tx ccids.TxID, col storage.Column, cell ccids.Cell) (storage.Value, bool)

	// Write installs newVal at cell and returns whether the write was
	// granted. A false result means the caller must cascade Abort(tx).
	Write(tx ccids.TxID, col storage.Column, cell ccids.Cell, newVal storage.Value) bool

	// Commit attempts to commit tx. It reports whether the commit
	// succeeded and, for SGT, which other live transactions were
	// cascade-aborted as a side effect of the commit barrier; SS2PL never
	// cascades on commit and always returns a nil slice.
	Commit(tx ccids.TxID) (ok bool, cascaded []ccids.TxID)

	// Abort rolls back every effect of tx recorded so far.
	Abort(tx ccids.TxID)
}
