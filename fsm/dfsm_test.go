package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gromero/svafsm/circuit"
)

// checkPartitions asserts the determinism invariant: for every state and
// every ctrl valuation, exactly one classification applies (accept may
// coexist with an edge only when not in first-match mode).
func checkPartitions(t *testing.T, d *Dfsm) {
	t.Helper()
	for _, s := range d.Order {
		n := len(s.Ctrl)
		for v := 0; v < 1<<uint(n); v++ {
			edges := 0
			for _, e := range s.Edges {
				if e.Val == v {
					edges++
				}
			}
			accept := containsInt(s.Accept, v)
			reject := containsInt(s.Reject, v)

			require.LessOrEqual(t, edges, 1, "state %s valuation %d has multiple edges", s.Key(), v)
			if d.FirstMatch && accept {
				require.Zero(t, edges, "state %s valuation %d: first-match accept must suppress edges", s.Key(), v)
			}
			if accept {
				require.False(t, reject, "state %s valuation %d both accepts and rejects", s.Key(), v)
			} else if edges == 0 {
				require.True(t, reject, "state %s valuation %d unclassified", s.Key(), v)
			} else {
				require.False(t, reject, "state %s valuation %d rejects despite an edge", s.Key(), v)
			}
		}
	}
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// branchingFsm builds an NFSM whose start state sees a three-bit alphabet:
// two edge alternatives (a, b) and one same-cycle accept condition (c).
func branchingFsm(t *testing.T) (*Fsm, circuit.Signal, circuit.Signal, circuit.Signal) {
	t.Helper()
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	a := m.NewInput("a")
	b := m.NewInput("b")
	c := m.NewInput("c")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	p := f.CreateNode()
	q := f.CreateNode()
	f.CreateLink(f.StartNode, p, a)
	f.CreateLink(f.StartNode, q, b)
	f.CreateEdge(p, f.AcceptNode)
	f.CreateEdge(q, f.AcceptNode)
	f.CreateLink(f.StartNode, f.AcceptNode, c)
	return f, a, b, c
}

func TestDeterminismFirstMatch(t *testing.T) {
	f, _, _, c := branchingFsm(t)
	u := BuildUfsm(f)
	d, err := BuildDfsm(u, true)
	require.NoError(t, err)

	checkPartitions(t, d)

	// Every valuation with c set accepts, and first-match suppresses its
	// continuation.
	start := d.Start
	require.Len(t, start.Ctrl, 3)
	cBit := -1
	for i, sig := range start.Ctrl {
		if sig == c {
			cBit = i
		}
	}
	require.GreaterOrEqual(t, cBit, 0)
	for v := 0; v < 8; v++ {
		if v&(1<<uint(cBit)) == 0 {
			continue
		}
		assert.True(t, containsInt(start.Accept, v))
		for _, e := range start.Edges {
			assert.NotEqual(t, v, e.Val)
		}
	}
}

func TestDeterminismWithoutFirstMatch(t *testing.T) {
	f, a, _, c := branchingFsm(t)
	u := BuildUfsm(f)
	d, err := BuildDfsm(u, false)
	require.NoError(t, err)

	checkPartitions(t, d)

	// Without first-match, a valuation can accept and still continue.
	start := d.Start
	aBit, cBit := -1, -1
	for i, sig := range start.Ctrl {
		switch sig {
		case a:
			aBit = i
		case c:
			cBit = i
		}
	}
	require.GreaterOrEqual(t, aBit, 0)
	require.GreaterOrEqual(t, cBit, 0)

	v := 1<<uint(aBit) | 1<<uint(cBit)
	assert.True(t, containsInt(start.Accept, v))
	found := false
	for _, e := range start.Edges {
		if e.Val == v {
			found = true
		}
	}
	assert.True(t, found, "accepting valuation keeps its edge without first-match")
}

func TestCanonicalizeRoundTrip(t *testing.T) {
	ids := canonicalize([]NodeID{3, 1, 3, 2})
	assert.Equal(t, []NodeID{1, 2, 3}, ids)
	assert.Equal(t, ids, canonicalize(ids))
	assert.Equal(t, "1,2,3", stateKey(ids))
}

func TestStateExplosionGuard(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	for i := 0; i < maxCtrlBits+1; i++ {
		sig := m.NewInput("x")
		n := f.CreateNode()
		f.CreateLink(f.StartNode, n, sig)
		f.CreateEdge(n, f.AcceptNode)
	}

	u := BuildUfsm(f)
	_, err := BuildDfsm(u, true)
	require.ErrorIs(t, err, ErrStateExplosion)
}

func TestDfsmMemoization(t *testing.T) {
	f, _, _, _ := branchingFsm(t)
	u := BuildUfsm(f)
	d, err := BuildDfsm(u, true)
	require.NoError(t, err)

	// Both edge alternatives lead to the same successor set; the subset
	// construction must share one state for it.
	seen := map[string]int{}
	for _, s := range d.Order {
		seen[s.Key()]++
	}
	for key, count := range seen {
		assert.Equal(t, 1, count, "state %s created more than once", key)
	}
}
