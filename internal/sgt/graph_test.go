package sgt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbcore/ccstore/internal/ccids"
)

func TestInsertAndCheckAcyclic(t *testing.T) {
	g := NewGraph()
	t1, t2 := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)

	require.True(t, g.InsertAndCheck(t1, t2, true))
}

func TestInsertAndCheckDetectsDirectCycle(t *testing.T) {
	g := NewGraph()
	t1, t2 := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)

	require.True(t, g.InsertAndCheck(t1, t2, true)) // t1 -> t2
	require.False(t, g.InsertAndCheck(t2, t1, true), "t2 -> t1 closes a cycle with t1 -> t2")
}

func TestInsertAndCheckDetectsTransitiveCycle(t *testing.T) {
	g := NewGraph()
	t1, t2, t3 := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2), ccids.NewTxID(0, 3)

	require.True(t, g.InsertAndCheck(t1, t2, true)) // t1 -> t2
	require.True(t, g.InsertAndCheck(t2, t3, true)) // t2 -> t3
	require.False(t, g.InsertAndCheck(t3, t1, true), "t3 -> t1 closes a 3-cycle")
}

func TestCommittedNodeBreaksCycleDetection(t *testing.T) {
	g := NewGraph()
	t1, t2 := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)

	require.True(t, g.InsertAndCheck(t1, t2, true)) // t1 -> t2
	g.MarkCommitted(t2)

	// t2 -> t1 would close a cycle, but t2 is committed: its future is
	// fixed, so it is not treated as part of a live cycle.
	require.True(t, g.InsertAndCheck(t2, t1, true))
}

func TestAbortCascadesOnlyAlongCascadingEdges(t *testing.T) {
	g := NewGraph()
	writer, reader, other := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2), ccids.NewTxID(0, 3)

	require.True(t, g.InsertAndCheck(writer, reader, true))
	require.True(t, g.InsertAndCheck(writer, other, false))

	victims := g.Abort(writer)
	require.ElementsMatch(t, []ccids.TxID{reader}, victims)
	require.True(t, g.NeedsAbort(reader))
	require.False(t, g.NeedsAbort(other))
}

func TestCanCommitWaitsForIncomingPredecessors(t *testing.T) {
	g := NewGraph()
	t1, t2 := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)
	require.True(t, g.InsertAndCheck(t1, t2, false))

	ready, abort := g.CanCommit(t2)
	require.False(t, ready)
	require.False(t, abort)

	g.MarkCommitted(t1)
	ready, abort = g.CanCommit(t2)
	require.True(t, ready)
	require.False(t, abort)
}

func TestCanCommitReportsAbortWhenNeeded(t *testing.T) {
	g := NewGraph()
	writer, reader := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)
	require.True(t, g.InsertAndCheck(writer, reader, true))

	g.Abort(writer)

	ready, abort := g.CanCommit(reader)
	require.False(t, ready)
	require.True(t, abort)
}
