package sgt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbcore/ccstore/internal/ccids"
	"github.com/dbcore/ccstore/internal/storage"
)

func TestSelfUpgradeCommits(t *testing.T) {
	shared := NewShared(nil)
	col := storage.NewMemColumn(4, 0)
	c := NewCoordinator(shared, 1)

	tx := c.Start()
	_, ok := c.Read(tx, col, ccids.Cell{Offset: 2})
	require.True(t, ok)
	require.True(t, c.Write(tx, col, ccids.Cell{Offset: 2}, 3))
	committed, cascaded := c.Commit(tx)
	require.True(t, committed)
	require.Empty(t, cascaded)
	require.Equal(t, 3, col.Load(2))
}

func TestAbortRestoresOldValue(t *testing.T) {
	shared := NewShared(nil)
	col := storage.NewMemColumn(4, 0)
	c := NewCoordinator(shared, 1)

	tx := c.Start()
	require.True(t, c.Write(tx, col, ccids.Cell{Offset: 0}, 9))
	c.Abort(tx)
	require.Equal(t, 0, col.Load(0))
}

func TestCascadingAbortFailsDependentReader(t *testing.T) {
	shared := NewShared(nil)
	col := storage.NewMemColumn(4, 0)
	c1 := NewCoordinator(shared, 1)
	c2 := NewCoordinator(shared, 2)

	tx1 := c1.Start()
	require.True(t, c1.Write(tx1, col, ccids.Cell{Offset: 0}, 9))

	tx2 := c2.Start()
	_, ok := c2.Read(tx2, col, ccids.Cell{Offset: 0})
	require.True(t, ok, "SGT reads do not block on an uncommitted writer")

	c1.Abort(tx1)

	_, ok = c2.Read(tx2, col, ccids.Cell{Offset: 1})
	require.False(t, ok, "a reader of an aborted writer's uncommitted value must itself abort")
	require.Equal(t, 0, col.Load(0))
}

func TestWriteSkewAtLeastOneAborts(t *testing.T) {
	shared := NewShared(nil)
	col := storage.NewMemColumn(4, 0)
	c1 := NewCoordinator(shared, 1)
	c2 := NewCoordinator(shared, 2)

	// Force both transactions' reads to complete before either writes,
	// so the classic write-skew anti-dependency cycle (T1 reads cell1
	// before T2 writes it, T2 reads cell0 before T1 writes it) is
	// guaranteed to form, regardless of goroutine scheduling.
	var readsDone sync.WaitGroup
	readsDone.Add(2)

	var wg sync.WaitGroup
	var t1Committed, t2Committed bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		tx := c1.Start()
		if _, ok := c1.Read(tx, col, ccids.Cell{Offset: 0}); !ok {
			readsDone.Done()
			return
		}
		if _, ok := c1.Read(tx, col, ccids.Cell{Offset: 1}); !ok {
			readsDone.Done()
			return
		}
		readsDone.Done()
		readsDone.Wait()
		if !c1.Write(tx, col, ccids.Cell{Offset: 0}, 1) {
			return
		}
		t1Committed, _ = c1.Commit(tx)
	}()
	go func() {
		defer wg.Done()
		tx := c2.Start()
		if _, ok := c2.Read(tx, col, ccids.Cell{Offset: 0}); !ok {
			readsDone.Done()
			return
		}
		if _, ok := c2.Read(tx, col, ccids.Cell{Offset: 1}); !ok {
			readsDone.Done()
			return
		}
		readsDone.Done()
		readsDone.Wait()
		if !c2.Write(tx, col, ccids.Cell{Offset: 1}, 1) {
			return
		}
		t2Committed, _ = c2.Commit(tx)
	}()
	wg.Wait()

	require.False(t, t1Committed && t2Committed,
		"write skew must not let both transactions commit under SGT")
}

func TestDirtyWriteOnlyOneWriterSurvivesWwConflict(t *testing.T) {
	shared := NewShared(nil)
	col := storage.NewMemColumn(4, 0)
	c1 := NewCoordinator(shared, 1)
	c2 := NewCoordinator(shared, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		tx := c1.Start()
		if c1.Write(tx, col, ccids.Cell{Offset: 0}, 5) {
			c1.Commit(tx)
		}
	}()
	go func() {
		defer wg.Done()
		tx := c2.Start()
		if c2.Write(tx, col, ccids.Cell{Offset: 0}, 7) {
			c2.Commit(tx)
		}
	}()
	wg.Wait()

	require.Contains(t, []int{5, 7}, col.Load(0))
}
