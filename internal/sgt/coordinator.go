package sgt

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

// Coordinator is one worker's view of the SGT strategy. Not safe for
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
	return tx
}

// Read implements cc.Coordinator, per spec.md §4.4's read algorithm. A
// prior uncommitted writer on the cell is tracked with a cascading edge:
// this coordinator's reading of that writer's not-yet-committed value is
// exactly the "observed uncommitted state" the glossary's cascading-abort
// entry describes, so if the writer aborts, this reader must too — see
// DESIGN.md for why that cascading=true diverges from §4.4's literal
// text.
func (c *Coordinator) Read(tx ccids.TxID, col storage.Column, cell ccids.Cell) (storage.Value, bool) {
	if c.state.IsDead(tx) {
		return nil, false
	}
	if c.shared.Graph.NeedsAbort(tx) {
		c.Abort(tx)
		return nil, false
	}

	row := c.shared.Rows.Get(cell)
	prv := row.PushFront(ccids.Access(tx, false))
	c.awaitTurn(row, prv)

	for _, a := range row.Iterate() {
		if a.Ticket >= prv {
			continue
		}
		other, isWrite := ccids.Find(a.Rec)
		if !isWrite || other == tx {
			continue
		}
		if !c.shared.Graph.InsertAndCheck(other, tx, true) {
			row.Erase(prv)
			row.ReleaseTo(prv + 1)
			c.Abort(tx)
			return nil, false
		}
	}

	val := col.Load(cell.Offset)
	info := c.shared.Pool.Allocate()
	*info = txnstate.TxInfo{Kind: txnstate.KindRead, Tx: tx, Cell: cell, Row: row, Prv: prv}
	c.state.Push(info)
	row.ReleaseTo(prv + 1)
	return val, true
}

// Write implements cc.Coordinator, per spec.md §4.4's write algorithm:
// a first pass that waits out any uncommitted prior writer (retrying
// from the top once that dependency is recorded, so the cell isn't held
// across the wait), then a second pass recording dependency edges
// against every other prior access before the value is replaced.
func (c *Coordinator) Write(tx ccids.TxID, col storage.Column, cell ccids.Cell, newVal storage.Value) bool {
	if c.state.IsDead(tx) {
		return false
	}
	if c.shared.Graph.NeedsAbort(tx) {
		c.Abort(tx)
		return false
	}

	for {
		row := c.shared.Rows.Get(cell)
		prv := row.PushFront(ccids.Access(tx, true))
		c.awaitTurn(row, prv)

		accesses := row.Iterate()

		retry, aborted := c.waitForPredecessorWriter(tx, row, prv, accesses)
		if aborted {
			return false
		}
		if retry {
			continue
		}

		for _, a := range accesses {
			if a.Ticket >= prv {
				continue
			}
			other, _ := ccids.Find(a.Rec)
			if other == tx {
				continue
			}
			// By this point any uncommitted prior writer has already
			// forced a retry above, so a writer seen here is committed:
			// its outcome is fixed, nothing to cascade. A prior reader
			// never needs to cascade from a later writer either.
			const cascading = false
			if !c.shared.Graph.InsertAndCheck(other, tx, cascading) {
				row.Erase(prv)
				row.ReleaseTo(prv + 1)
				c.Abort(tx)
				return false
			}
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
}

// waitForPredecessorWriter implements the write algorithm's first pass.
// It reports retry=true when the caller must drop its ticket and start
// the write over (the ww dependency was recorded but the cell itself
// wasn't touched), and aborted=true when that dependency was cyclic.
func (c *Coordinator) waitForPredecessorWriter(tx ccids.TxID, row *rowstate.Row, prv rowstate.Ticket, accesses []rowstate.Access) (retry, aborted bool) {
	for _, a := range accesses {
		if a.Ticket >= prv {
			continue
		}
		other, isWrite := ccids.Find(a.Rec)
		if !isWrite || other == tx {
			continue
		}

		// Nearest prior write found; only it matters for this pass.
		if c.shared.Graph.Committed(other) {
			return false, false
		}

		if !c.shared.Graph.InsertAndCheck(other, tx, true) {
			row.Erase(prv)
			row.ReleaseTo(prv + 1)
			c.Abort(tx)
			return false, true
		}
		row.Erase(prv)
		row.ReleaseTo(prv + 1)
		return true, false
	}
	return false, false
}

// Commit implements cc.Coordinator: it spins at the commit barrier
// (every incoming edge's source already committed), re-checking
// needsAbort on every pass, before unlinking and marking the node
// committed.
func (c *Coordinator) Commit(tx ccids.TxID) (bool, []ccids.TxID) {
	if c.state.IsDead(tx) {
		return false, nil
	}

	i := 0
	for {
		ready, mustAbort := c.shared.Graph.CanCommit(tx)
		if mustAbort {
			cascaded := c.abortLocked(tx)
			return false, cascaded
		}
		if ready {
			break
		}
		i++
		c.shared.Metrics.LockWait()
		if i%spinYieldEvery == 0 {
			runtime.Gosched()
		}
	}

	c.shared.Graph.MarkCommitted(tx)
	c.state.Forward(func(info *txnstate.TxInfo) {
		undo.Unlink(info)
		undo.Reclaim(c.shared.Epoch, c.state.Guard.Epoch(), c.shared.Pool, info)
	})
	c.state.MarkDead(tx)
	c.state.Guard.Close()
	c.shared.Metrics.Commit()
	return true, nil
}

// Abort implements cc.Coordinator. Idempotent: a second call on an
// already-dead tx is a no-op.
func (c *Coordinator) Abort(tx ccids.TxID) {
	if c.state.IsDead(tx) {
		return
	}
	c.abortLocked(tx)
}

// abortLocked performs the actual rollback (spec.md §4.5's abort
// procedure) and returns the set of transactions cascaded by the SGT
// graph walk.
func (c *Coordinator) abortLocked(tx ccids.TxID) []ccids.TxID {
	c.state.MarkDead(tx)

	c.state.Reverse(func(info *txnstate.TxInfo) {
		if info.Kind == txnstate.KindWrite {
			undo.RestoreWrite(info)
		}
	})

	cascaded := c.shared.Graph.Abort(tx)
	for _, v := range cascaded {
		c.state.AbortTransaction[v] = struct{}{}
	}

	c.state.Reverse(func(info *txnstate.TxInfo) {
		undo.Unlink(info)
		undo.Reclaim(c.shared.Epoch, c.state.Guard.Epoch(), c.shared.Pool, info)
	})

	c.state.Guard.Close()
	c.shared.Metrics.Abort()
	if len(cascaded) > 0 {
		c.shared.Metrics.Cascade(len(cascaded))
	}
	return cascaded
}

const spinYieldEvery = 10_000

func (c *Coordinator) awaitTurn(row *rowstate.Row, prv rowstate.Ticket) {
	i := 0
	rowstate.AwaitTurn(row, prv, func() {
		i++
		c.shared.Metrics.TicketSpin(i * rowstate.SpinYieldEvery)
		runtime.Gosched()
	})
}
