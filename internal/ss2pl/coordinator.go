package ss2pl

import (
	"runtime"

	"github.com/dbcore/ccstore/cc"
	"github.com/dbcore/ccstore/internal/ccids"
	"github.com/dbcore/ccstore/internal/rowstate"
	"github.com/dbcore/ccstore/internal/storage"
	"github.com/dbcore/ccstore/internal/txnstate"
	"github.com/dbcore/ccstore/internal/undo"
)

var _ cc.Coordinator = (*Coordinator)(nil)

// Coordinator is one worker's view of the SS2PL strategy: it owns a
// per-worker counter and txnstate.State, and drives the shared lock
// table, row bookkeeping and epoch manager on every call. Not safe for
// concurrent use — one Coordinator per worker goroutine, per spec.md §9.
type Coordinator struct {
	shared  *Shared
	core    uint8
	counter uint64
	state   *txnstate.State
}

// NewCoordinator returns a Coordinator for one worker, identified by
// core, backed by shared.
func NewCoordinator(shared *Shared, core uint8) *Coordinator {
	return &Coordinator{shared: shared, core: core, state: txnstate.New()}
}

// Start implements cc.Coordinator.
func (c *Coordinator) Start() ccids.TxID {
	c.counter++
	tx := ccids.NewTxID(c.core, c.counter)
	c.state.Reset(c.shared.Epoch.Enter())
	c.shared.Locks.Start(tx)
	return tx
}

// Read implements cc.Coordinator. A lock denial rolls back every effect
// tx has accumulated so far, not just this call — spec.md §7's
// "coordinator recovers locally... and surfaces one boolean" — so a
// denied request here self-aborts the whole transaction before
// returning false.
func (c *Coordinator) Read(tx ccids.TxID, col storage.Column, cell ccids.Cell) (storage.Value, bool) {
	if c.state.IsDead(tx) {
		return nil, false
	}
	row := c.shared.Rows.Get(cell)

	prv := row.PushFront(ccids.Access(tx, false))
	c.awaitTurn(row, prv)

	if !c.shared.Locks.Lock(tx, false, cell) {
		row.Erase(prv)
		row.ReleaseTo(prv + 1)
		c.Abort(tx)
		return nil, false
	}

	val := col.Load(cell.Offset)
	info := c.shared.Pool.Allocate()
	*info = txnstate.TxInfo{Kind: txnstate.KindRead, Tx: tx, Cell: cell, Row: row, Prv: prv}
	c.state.Push(info)
	row.ReleaseTo(prv + 1)
	return val, true
}

// Write implements cc.Coordinator. See Read's doc comment for the
// self-abort-on-denial rule.
func (c *Coordinator) Write(tx ccids.TxID, col storage.Column, cell ccids.Cell, newVal storage.Value) bool {
	if c.state.IsDead(tx) {
		return false
	}
	row := c.shared.Rows.Get(cell)

	prv := row.PushFront(ccids.Access(tx, true))
	c.awaitTurn(row, prv)

	if !c.shared.Locks.Lock(tx, true, cell) {
		row.Erase(prv)
		row.ReleaseTo(prv + 1)
		c.Abort(tx)
		return false
	}

	old := col.Replace(cell.Offset, newVal)
	info := c.shared.Pool.Allocate()
	*info = txnstate.TxInfo{
		Kind: txnstate.KindWrite, Tx: tx, Cell: cell, Row: row, Prv: prv,
		Column: col, Old: old, New: newVal,
	}
	c.state.Push(info)
	row.ReleaseTo(prv + 1)
	return true
}

// Commit implements cc.Coordinator. SS2PL's commit is unconditional once
// reached: every lock the transaction holds was validated at acquisition
// time, so there is nothing left to check (no cascaded aborts, unlike
// SGT's commit barrier).
func (c *Coordinator) Commit(tx ccids.TxID) (bool, []ccids.TxID) {
	if c.state.IsDead(tx) {
		return false, nil
	}
	c.state.Forward(func(info *txnstate.TxInfo) {
		undo.Unlink(info)
		c.shared.Locks.Unlock(tx, info.Cell)
		undo.Reclaim(c.shared.Epoch, c.state.Guard.Epoch(), c.shared.Pool, info)
	})
	c.finish(tx)
	c.shared.Metrics.Commit()
	return true, nil
}

// Abort implements cc.Coordinator: every undo-log entry is inverted
// newest-first, then unlinked, unlocked and reclaimed. Idempotent: a
// second call on an already-dead tx is a no-op.
func (c *Coordinator) Abort(tx ccids.TxID) {
	if c.state.IsDead(tx) {
		return
	}
	c.state.Reverse(func(info *txnstate.TxInfo) {
		if info.Kind == txnstate.KindWrite {
			undo.RestoreWrite(info)
		}
		undo.Unlink(info)
		c.shared.Locks.Unlock(tx, info.Cell)
		undo.Reclaim(c.shared.Epoch, c.state.Guard.Epoch(), c.shared.Pool, info)
	})
	c.finish(tx)
	c.shared.Metrics.Abort()
}

func (c *Coordinator) finish(tx ccids.TxID) {
	c.state.MarkDead(tx)
	c.shared.Locks.End(tx)
	c.state.Guard.Close()
}

func (c *Coordinator) awaitTurn(row *rowstate.Row, prv rowstate.Ticket) {
	i := 0
	rowstate.AwaitTurn(row, prv, func() {
		i++
		c.shared.Metrics.TicketSpin(i * rowstate.SpinYieldEvery)
		runtime.Gosched()
	})
}
