package rowstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbcore/ccstore/internal/ccids"
)

func TestPushFrontTicketsAreMonotonic(t *testing.T) {
	r := NewRow()
	tx := ccids.NewTxID(0, 1)

	var tickets []Ticket
	for i := 0; i < 5; i++ {
		tickets = append(tickets, r.PushFront(ccids.Access(tx, false)))
	}
	for i := 1; i < len(tickets); i++ {
		require.Greater(t, tickets[i], tickets[i-1])
	}
}

func TestIterateOrdersFrontToBack(t *testing.T) {
	r := NewRow()
	tx := ccids.NewTxID(0, 1)

	t0 := r.PushFront(ccids.Access(tx, false))
	t1 := r.PushFront(ccids.Access(tx, true))
	t2 := r.PushFront(ccids.Access(tx, false))

	got := r.Iterate()
	require.Len(t, got, 3)
	require.Equal(t, []Ticket{t2, t1, t0}, []Ticket{got[0].Ticket, got[1].Ticket, got[2].Ticket})
}

func TestEraseRemovesEntry(t *testing.T) {
	r := NewRow()
	tx := ccids.NewTxID(0, 1)

	t0 := r.PushFront(ccids.Access(tx, false))
	t1 := r.PushFront(ccids.Access(tx, true))

	r.Erase(t0)

	got := r.Iterate()
	require.Len(t, got, 1)
	require.Equal(t, t1, got[0].Ticket)
}

func TestAwaitTurnUnblocksOnRelease(t *testing.T) {
	r := NewRow()
	tx := ccids.NewTxID(0, 1)
	// The first ticket (0) matches the initial lsn and proceeds at once;
	// wait on the second one instead.
	r.PushFront(ccids.Access(tx, false))
	prv := r.PushFront(ccids.Access(tx, false))

	unblocked := make(chan struct{})
	go func() {
		AwaitTurn(r, prv, func() {})
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("AwaitTurn returned before lsn reached prv")
	case <-time.After(20 * time.Millisecond):
	}

	r.ReleaseTo(prv)

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("AwaitTurn did not unblock after ReleaseTo")
	}
}
