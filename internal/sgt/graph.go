// Package sgt implements Serialization Graph Testing (C3): an on-line
// dependency graph over live transactions, with cycle detection on every
// edge insertion and a commit barrier that only lets a node commit once
// every predecessor has. No teacher file implements this — it is
// grounded on the corrected algorithm spec.md §4.4 restates from
// _examples/original_source/include/svcc/cc/nofalsenegatives/transaction_coordinator.hpp,
// whose shipped cycle-detection call was commented out and whose commit
// barrier loop was unreachable; this package implements the DFS and the
// barrier for real. The traversal shape (visited-set guarded walk over
// an adjacency map) follows
// darleet-GraphDB/src/query/sow.go's graph-search pattern, adapted from
// storage-page BFS to transaction-dependency DFS.
package sgt

import (
	"sync"

	"github.com/dbcore/ccstore/internal/ccids"
)

type edge struct {
	cascading bool
}

type node struct {
	tx          ccids.TxID
	incoming    map[ccids.TxID]edge
	outgoing    map[ccids.TxID]edge
	committed   bool
	abortNeeded bool
}

func newNode(tx ccids.TxID) *node {
	return &node{tx: tx, incoming: make(map[ccids.TxID]edge), outgoing: make(map[ccids.TxID]edge)}
}

// Graph is the shared (process-wide) serialization graph: one node per
// live transaction, edges recording read/write dependencies discovered
// by Read and Write. Safe for concurrent use.
type Graph struct {
	mu    sync.Mutex
	nodes map[ccids.TxID]*node
}

// NewGraph returns an empty serialization graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[ccids.TxID]*node)}
}

func (g *Graph) ensure(tx ccids.TxID) *node {
	n, ok := g.nodes[tx]
	if !ok {
		n = newNode(tx)
		g.nodes[tx] = n
	}
	return n
}

// InsertAndCheck implements spec.md §4.4's `insert_and_check(from_tx,
// cascading)`, called on the `self` node: it adds the edge from -> self
// and reports whether doing so keeps the graph acyclic among
// non-committed nodes. cascading marks the edge write-write (abort must
// propagate through it) versus read-write (it must not).
func (g *Graph) InsertAndCheck(from, self ccids.TxID, cascading bool) bool {
	if from == self {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fromNode := g.ensure(from)
	selfNode := g.ensure(self)
	fromNode.outgoing[self] = edge{cascading: cascading}
	selfNode.incoming[from] = edge{cascading: cascading}

	return !g.reachesThroughLive(self, from)
}

// reachesThroughLive reports whether target is reachable from start by
// following outgoing edges, never stepping past or onto an
// already-committed node (a committed target counts as unreachable) — a
// committed node's future is fixed, so it cannot be part of a cycle that
// would still need to be prevented. Bounded by a visited set, so the walk
// never revisits a node twice.
func (g *Graph) reachesThroughLive(start, target ccids.TxID) bool {
	visited := make(map[ccids.TxID]bool)
	var dfs func(cur ccids.TxID) bool
	dfs = func(cur ccids.TxID) bool {
		if visited[cur] {
			return false
		}
		visited[cur] = true

		n := g.nodes[cur]
		if n != nil && n.committed {
			return false
		}
		if cur == target {
			return true
		}
		if n == nil {
			return false
		}
		for to := range n.outgoing {
			if dfs(to) {
				return true
			}
		}
		return false
	}

	startNode := g.nodes[start]
	if startNode == nil {
		return false
	}
	for to := range startNode.outgoing {
		if dfs(to) {
			return true
		}
	}
	return false
}

// Committed reports whether tx's node has already passed the commit
// barrier. A transaction with no node yet has, by definition, not.
func (g *Graph) Committed(tx ccids.TxID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nodes[tx]
	return n != nil && n.committed
}

// NeedsAbort implements spec.md §4.4's `needsAbort(tx)`.
func (g *Graph) NeedsAbort(tx ccids.TxID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nodes[tx]
	return n != nil && n.abortNeeded
}

// Abort implements the SGT half of spec.md §4.5 step 3: it walks tx's
// outgoing cascading edges, marks each target's abort_needed, returns
// their ids (the coordinator accumulates these into its own
// AbortTransaction set), and removes tx's node from the graph.
func (g *Graph) Abort(tx ccids.TxID) []ccids.TxID {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nodes[tx]
	if n == nil {
		return nil
	}

	var victims []ccids.TxID
	for to, e := range n.outgoing {
		if !e.cascading {
			continue
		}
		if target := g.nodes[to]; target != nil {
			target.abortNeeded = true
		}
		victims = append(victims, to)
	}

	g.remove(tx)
	return victims
}

// remove deletes tx's node and every edge referencing it from its
// neighbors' adjacency maps.
func (g *Graph) remove(tx ccids.TxID) {
	n := g.nodes[tx]
	if n == nil {
		return
	}
	for from := range n.incoming {
		if fn := g.nodes[from]; fn != nil {
			delete(fn.outgoing, tx)
		}
	}
	for to := range n.outgoing {
		if tn := g.nodes[to]; tn != nil {
			delete(tn.incoming, tx)
		}
	}
	delete(g.nodes, tx)
}

// CanCommit implements spec.md §4.4's commit barrier predicate: ready is
// true once every incoming edge originates from an already-committed
// node; abort is true if a cascading predecessor has meanwhile set
// abort_needed, in which case the caller must abort instead of
// committing. A transaction that never touched the graph (no node) is
// trivially committable.
func (g *Graph) CanCommit(tx ccids.TxID) (ready bool, abort bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nodes[tx]
	if n == nil {
		return true, false
	}
	if n.abortNeeded {
		return false, true
	}
	for from := range n.incoming {
		fn := g.nodes[from]
		if fn == nil || !fn.committed {
			return false, false
		}
	}
	return true, false
}

// MarkCommitted implements spec.md §4.4's "on commit, the node is marked
// committed". Committed nodes are kept in the graph indefinitely (spec
// silence on eviction — see DESIGN.md) since a future committer's
// CanCommit walk needs to observe them.
func (g *Graph) MarkCommitted(tx ccids.TxID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(tx).committed = true
}
