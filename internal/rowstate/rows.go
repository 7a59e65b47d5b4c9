package rowstate

import (
	"sync"

	"github.com/dbcore/ccstore/internal/ccids"
)

// Rows is a lazily-populated registry of per-cell bookkeeping, one Row per
// (column, offset) ever touched. Grounded on the teacher's
// txns.Manager.qs map (qsGuard mutex over a map keyed by object id).
type Rows struct {
	mu   sync.Mutex
	rows map[ccids.Cell]*Row
}

// NewRows returns an empty registry.
func NewRows() *Rows {
	return &Rows{rows: make(map[ccids.Cell]*Row)}
}

// Get returns the Row for cell, creating it on first access.
func (rs *Rows) Get(cell ccids.Cell) *Row {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	r, ok := rs.rows[cell]
	if !ok {
		r = NewRow()
		rs.rows[cell] = r
	}
	return r
}
