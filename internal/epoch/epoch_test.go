package epoch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeferRunsImmediatelyWithNoGuards(t *testing.T) {
	m := NewManager()
	ran := false
	m.Defer(m.Current(), func() { ran = true })
	require.True(t, ran)
}

func TestDeferWaitsForOpenGuard(t *testing.T) {
	m := NewManager()
	g := m.Enter()

	ran := false
	m.Defer(g.Epoch(), func() { ran = true })
	require.False(t, ran, "garbage must not run while a guard is open")

	g.Close()
	require.True(t, ran, "garbage must run once the last guard closes")
}

func TestDeferWaitsForAllGuardsOnEpoch(t *testing.T) {
	m := NewManager()
	g1 := m.Enter()
	g2 := m.Enter()
	require.Equal(t, g1.Epoch(), g2.Epoch())

	ran := false
	m.Defer(g1.Epoch(), func() { ran = true })

	g1.Close()
	require.False(t, ran, "one of two guards closing must not release garbage")

	g2.Close()
	require.True(t, ran)
}

func TestCloseIsIdempotent(t *testing.T) {
	m := NewManager()
	g := m.Enter()
	calls := 0
	m.Defer(g.Epoch(), func() { calls++ })

	g.Close()
	g.Close()
	require.Equal(t, 1, calls)
}

func TestAdvanceIsolatesEpochs(t *testing.T) {
	m := NewManager()
	g := m.Enter()
	m.Advance()
	g2 := m.Enter()

	require.NotEqual(t, g.Epoch(), g2.Epoch())
}
