// Package undo implements the write-inversion / unlink / reclaim logic
// (C6) shared by both conflict-resolution strategies' abort and commit
// paths, per spec.md §4.5.
package undo

import (
	"github.com/dbcore/ccstore/internal/epoch"
	"github.com/dbcore/ccstore/internal/slab"
	"github.com/dbcore/ccstore/internal/txnstate"
)

// RestoreWrite inverts one write undo entry by swapping the column back
// to its recorded old value, bypassing any conflict control — the
// "restore_write" path spec.md §9 calls out, as opposed to the normal
// "apply_write" path a live transaction uses.
func RestoreWrite(info *txnstate.TxInfo) {
	if info.Kind != txnstate.KindWrite || info.AbortFlag {
		return
	}
	info.Column.Replace(info.Cell.Offset, info.Old)
	info.AbortFlag = true
}

// Unlink erases info's access record from its row's rw_table, satisfying
// spec.md invariant 2 ("if T holds an undo record for (cell, prv), then
// rw_table[cell] still contains T's access record, or T is terminal" —
// after Unlink, T is terminal for that cell).
func Unlink(info *txnstate.TxInfo) {
	info.Row.Erase(info.Prv)
}

// Reclaim returns info to pool once every guard pinned to the given
// epoch has closed, so a concurrent reader that grabbed a pointer to info
// before the unlink can never observe a reused slot mid-read (spec.md
// invariant 5).
func Reclaim(mgr *epoch.Manager, epochID uint64, pool *slab.Pool[txnstate.TxInfo], info *txnstate.TxInfo) {
	mgr.Defer(epochID, func() { pool.Free(info) })
}
