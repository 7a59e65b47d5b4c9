// Package epoch implements the epoch-based reclamation discipline spec.md
// §1/§5/§6 treats as an external collaborator: reference-counted epochs
// with scoped guards, where bookkeeping freed inside an epoch stays
// observable until the last guard of that epoch closes.
//
// No teacher file implements epoch reclamation; this is grounded on the
// closest ref-counting shape in the pack,
// darleet-GraphDB/src/bufferpool/lrureplacer.go's Pin/Unpin (a
// mutex-guarded map tracking live references), adapted from per-page pin
// counts to per-epoch guard counts.
package epoch

import "sync"

// Manager tracks the current epoch and, for every still-referenced epoch,
// how many guards are pinned to it and which cleanup callbacks are
// waiting for the last of those guards to close.
type Manager struct {
	mu      sync.Mutex
	current uint64
	active  map[uint64]int64
	garbage map[uint64][]func()
}

// NewManager returns a Manager starting at epoch 0.
func NewManager() *Manager {
	return &Manager{
		active:  make(map[uint64]int64),
		garbage: make(map[uint64][]func()),
	}
}

// Guard is a scoped token: while it is open, the manager will not run any
// cleanup callback deferred against its epoch.
type Guard struct {
	mgr   *Manager
	epoch uint64
	// closed guards against a double Close; matches the source's
	// placement-reconstruction discipline (spec.md §9) where a guard slot
	// is reused across transactions rather than reallocated.
	closed bool
}

// Enter pins the caller to the current epoch and returns a Guard scoping
// its lifetime. Never fails.
func (m *Manager) Enter() *Guard {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.current
	m.active[e]++
	return &Guard{mgr: m, epoch: e}
}

// Epoch returns the epoch this guard pinned.
func (g *Guard) Epoch() uint64 {
	return g.epoch
}

// Close releases the guard's pin. If it was the last pin on its epoch,
// every callback deferred against that epoch runs now, in the order they
// were deferred.
func (g *Guard) Close() {
	if g == nil || g.closed {
		return
	}
	g.closed = true

	m := g.mgr
	m.mu.Lock()
	m.active[g.epoch]--
	var toRun []func()
	if m.active[g.epoch] <= 0 {
		delete(m.active, g.epoch)
		toRun = m.garbage[g.epoch]
		delete(m.garbage, g.epoch)
	}
	m.mu.Unlock()

	for _, fn := range toRun {
		fn()
	}
}

// Defer schedules fn to run once every guard pinned to the given epoch
// has closed. If no guard currently holds that epoch, fn runs
// immediately. Callers pass the epoch of their own currently-open guard,
// tagging the bookkeeping they are about to unlink with the epoch that
// must fully drain before it is safe to reuse.
func (m *Manager) Defer(epoch uint64, fn func()) {
	m.mu.Lock()
	if m.active[epoch] <= 0 {
		m.mu.Unlock()
		fn()
		return
	}
	m.garbage[epoch] = append(m.garbage[epoch], fn)
	m.mu.Unlock()
}

// Advance opens a new epoch. Guards already pinned to older epochs are
// unaffected; new calls to Enter observe the new epoch. A host typically
// calls Advance periodically (or after a batch of terminal calls) so that
// deferred garbage does not accumulate against a single epoch forever.
func (m *Manager) Advance() {
	m.mu.Lock()
	m.current++
	m.mu.Unlock()
}

// Current returns the manager's current epoch, mostly useful for tests
// and metrics.
func (m *Manager) Current() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
