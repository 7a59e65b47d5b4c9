package ccids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTxIDPacksCore(t *testing.T) {
	tx := NewTxID(7, 42)
	require.Equal(t, uint8(7), tx.Core())

	tx2 := NewTxID(7, 43)
	require.NotEqual(t, tx, tx2, "distinct counters must produce distinct ids")
}

func TestTxIDCounterOverflowDoesNotLeakIntoCore(t *testing.T) {
	tx := NewTxID(3, ^uint64(0))
	require.Equal(t, uint8(3), tx.Core())
}

func TestAccessRecordRoundTrip(t *testing.T) {
	tx := NewTxID(1, 5)

	rec := Access(tx, true)
	gotTx, isWrite := Find(rec)
	require.Equal(t, tx, gotTx)
	require.True(t, isWrite)

	rec2 := Access(tx, false)
	gotTx2, isWrite2 := Find(rec2)
	require.Equal(t, tx, gotTx2)
	require.False(t, isWrite2)
}
