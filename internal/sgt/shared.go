package sgt

import (
	"github.com/dbcore/ccstore/cc"
	"github.com/dbcore/ccstore/internal/epoch"
	"github.com/dbcore/ccstore/internal/rowstate"
	"github.com/dbcore/ccstore/internal/slab"
	"github.com/dbcore/ccstore/internal/txnstate"
)

// Shared is the process-wide state every SGT Coordinator reads and
// mutates concurrently: the serialization graph, the per-cell
// bookkeeping registry, the epoch manager and the TxInfo slab.
type Shared struct {
	Graph   *Graph
	Rows    *rowstate.Rows
	Epoch   *epoch.Manager
	Pool    *slab.Pool[txnstate.TxInfo]
	Metrics cc.Metrics
}

// NewShared wires a fresh SGT backing store. Pass nil for metrics to get
// cc.Noop.
func NewShared(metrics cc.Metrics) *Shared {
	if metrics == nil {
		metrics = cc.Noop{}
	}
	return &Shared{
		Graph:   NewGraph(),
		Rows:    rowstate.NewRows(),
		Epoch:   epoch.NewManager(),
		Pool:    slab.NewPool[txnstate.TxInfo](),
		Metrics: metrics,
	}
}
