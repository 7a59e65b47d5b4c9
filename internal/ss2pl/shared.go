package ss2pl

import (
	"github.com/dbcore/ccstore/cc"
	"github.com/dbcore/ccstore/internal/epoch"
	"github.com/dbcore/ccstore/internal/rowstate"
	"github.com/dbcore/ccstore/internal/slab"
	"github.com/dbcore/ccstore/internal/txnstate"
)

// Shared is the process-wide state every SS2PL Coordinator on every
// worker goroutine reads and mutates concurrently: the lock table, the
// per-cell bookkeeping registry, the epoch manager and the TxInfo slab.
// Construct one Shared per store and hand each worker its own
// Coordinator over it.
type Shared struct {
	Locks   *Manager
	Rows    *rowstate.Rows
	Epoch   *epoch.Manager
	Pool    *slab.Pool[txnstate.TxInfo]
	Metrics cc.Metrics
}

// NewShared wires a fresh SS2PL backing store. Pass nil for metrics to
// get cc.Noop.
func NewShared(metrics cc.Metrics) *Shared {
	if metrics == nil {
		metrics = cc.Noop{}
	}
	return &Shared{
		Locks:   NewManager(),
		Rows:    rowstate.NewRows(),
		Epoch:   epoch.NewManager(),
		Pool:    slab.NewPool[txnstate.TxInfo](),
		Metrics: metrics,
	}
}
