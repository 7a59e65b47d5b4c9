package ss2pl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbcore/ccstore/internal/ccids"
)

func withTimeout(t *testing.T, fn func() bool) bool {
	t.Helper()
	done := make(chan bool, 1)
	go func() { done <- fn() }()
	select {
	case got := <-done:
		return got
	case <-time.After(time.Second):
		t.Fatal("Lock call did not return")
		return false
	}
}

func TestSharedLocksAreCompatible(t *testing.T) {
	m := NewManager()
	cell := ccids.Cell{Column: 0, Offset: 0}
	tx1, tx2 := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)

	require.True(t, withTimeout(t, func() bool { return m.Lock(tx1, false, cell) }))
	require.True(t, withTimeout(t, func() bool { return m.Lock(tx2, false, cell) }))
}

func TestSelfUpgradeWhenSoleHolder(t *testing.T) {
	m := NewManager()
	cell := ccids.Cell{Column: 0, Offset: 0}
	tx := ccids.NewTxID(0, 1)

	require.True(t, withTimeout(t, func() bool { return m.Lock(tx, false, cell) }))
	require.True(t, withTimeout(t, func() bool { return m.Lock(tx, true, cell) }))
}

func TestOlderHolderMakesYoungerRequesterWait(t *testing.T) {
	m := NewManager()
	cell := ccids.Cell{Column: 0, Offset: 0}
	older, younger := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)

	require.True(t, withTimeout(t, func() bool { return m.Lock(older, true, cell) }))

	granted := make(chan bool, 1)
	go func() { granted <- m.Lock(younger, true, cell) }()

	select {
	case <-granted:
		t.Fatal("younger requester must wait for an older holder, not proceed immediately")
	case <-time.After(30 * time.Millisecond):
	}

	m.Unlock(older, cell)
	select {
	case ok := <-granted:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiting requester never woke after unlock")
	}
}

func TestYoungerHolderForcesOlderRequesterToAbort(t *testing.T) {
	m := NewManager()
	cell := ccids.Cell{Column: 0, Offset: 0}
	older, younger := ccids.NewTxID(0, 1), ccids.NewTxID(0, 2)

	require.True(t, withTimeout(t, func() bool { return m.Lock(younger, true, cell) }))
	require.False(t, withTimeout(t, func() bool { return m.Lock(older, true, cell) }),
		"spec.md §4.3: a conflicting holder younger than the requester denies the request")
}
