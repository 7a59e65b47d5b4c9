// Package rowstate implements the per-cell bookkeeping (C1 in SPEC_FULL.md)
// shared by both conflict-resolution strategies: an ordered access-record
// log (rw_table) and a ticket counter (lsn). A Row holds no lock word;
// SS2PL keeps its per-cell locks in its own lock table.
//
// The access-record log is modeled on the teacher's txnqueue.go
// doubly-linked wait list (darleet-GraphDB/src/txns/txnqueue.go): a node
// per accessor, locked hand-over-hand during mutation. Unlike a wait
// queue, this list never blocks a pusher — it only orders accesses and
// lets an operation erase its own entry once it is done with the cell.
package rowstate

import (
	"sync"
	"sync/atomic"

	"github.com/dbcore/ccstore/internal/ccids"
)

// Ticket is the per-cell serialization point returned by PushFront. It
// determines the cell-local order of operations: an operation that
// obtained ticket t may proceed only once LSN() == t.
type Ticket uint64

type entry struct {
	ticket Ticket
	rec    ccids.AccessRecord
	prev   *entry
	next   *entry
}

// Row holds the bookkeeping for one (column, offset) cell.
type Row struct {
	mu       sync.Mutex
	head     *entry
	tail     *entry
	byTicket map[Ticket]*entry
	nextTkt  uint64

	lsn atomic.Uint64
}

// NewRow returns a Row with empty bookkeeping and lsn == 0.
func NewRow() *Row {
	return &Row{byTicket: make(map[Ticket]*entry)}
}

// PushFront records a new access and returns its ticket. Tickets are
// strictly increasing per Row.
func (r *Row) PushFront(rec ccids.AccessRecord) Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := Ticket(r.nextTkt)
	r.nextTkt++

	e := &entry{ticket: t, rec: rec, next: r.head}
	if r.head != nil {
		r.head.prev = e
	}
	r.head = e
	if r.tail == nil {
		r.tail = e
	}
	r.byTicket[t] = e
	return t
}

// Erase removes the access record for the given ticket, if present.
func (r *Row) Erase(t Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byTicket[t]
	if !ok {
		return
	}
	delete(r.byTicket, t)

	if e.prev != nil {
		e.prev.next = e.next
	} else {
		r.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		r.tail = e.prev
	}
}

// Access is one entry yielded by Iterate: a ticket paired with the
// access record issued for it.
type Access struct {
	Ticket Ticket
	Rec    ccids.AccessRecord
}

// Iterate returns a snapshot of the current access log, ordered from most
// recently pushed (front) to oldest (back) — the order spec.md §3
// describes as "iteration from front = reverse chronological".
func (r *Row) Iterate() []Access {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Access, 0, len(r.byTicket))
	for e := r.head; e != nil; e = e.next {
		out = append(out, Access{Ticket: e.ticket, Rec: e.rec})
	}
	return out
}

// LSN returns the current release ticket: the next ticket allowed to
// proceed.
func (r *Row) LSN() Ticket {
	return Ticket(r.lsn.Load())
}

// ReleaseTo sets lsn := t, unblocking whichever operation is spinning on
// ticket t.
func (r *Row) ReleaseTo(t Ticket) {
	r.lsn.Store(uint64(t))
}

// SpinYieldEvery is the iteration bound after which AwaitTurn yields the
// goroutine instead of busy-spinning, mirroring the reference
// implementation's 10,000-iteration threshold (spec.md §4.2).
const SpinYieldEvery = 10_000

// AwaitTurn blocks (cooperatively spinning, then yielding) until the
// row's lsn reaches the given ticket.
func AwaitTurn(r *Row, t Ticket, yield func()) {
	for i := 0; r.LSN() != t; i++ {
		if i != 0 && i%SpinYieldEvery == 0 {
			yield()
		}
	}
}
