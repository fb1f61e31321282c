package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gromero/svafsm/circuit"
)

func TestCtrlSetUnion(t *testing.T) {
	var s CtrlSet
	s = s.union(circuit.Signal(3))
	s = s.union(circuit.Signal(1))
	s = s.union(circuit.Signal(3))
	s = s.union(circuit.S1)

	assert.Equal(t, CtrlSet{1, 3}, s, "sorted, deduplicated, S1 dropped")
}

func TestLinkResolutionAccumulatesCtrl(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	a := m.NewInput("a")
	b := m.NewInput("b")
	c := m.NewInput("c")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	n1 := f.CreateNode()
	n2 := f.CreateNode()
	f.CreateLink(f.StartNode, n1, a)
	f.CreateLink(n1, n2, b)
	f.CreateEdgeWithCtrl(n2, f.AcceptNode, c)

	u := BuildUfsm(f)

	edges := u.Edges(f.StartNode)
	require.Len(t, edges, 1)
	assert.Equal(t, f.AcceptNode, edges[0].Target)
	assert.Equal(t, CtrlSet{a, b, c}, edges[0].Ctrl)
}

func TestLinkResolutionDeduplicates(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	a := m.NewInput("a")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	n1 := f.CreateNode()
	n2 := f.CreateNode()
	f.CreateLink(f.StartNode, n1, a)
	f.CreateLink(n1, n2, a)
	f.CreateEdge(n2, f.AcceptNode)

	u := BuildUfsm(f)

	edges := u.Edges(f.StartNode)
	require.Len(t, edges, 1)
	assert.Equal(t, CtrlSet{a}, edges[0].Ctrl)
}

func TestAcceptAccumulation(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	a := m.NewInput("a")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	n := f.CreateNode()
	f.CreateLink(f.StartNode, n, a)
	f.CreateLinkPlain(n, f.AcceptNode)

	u := BuildUfsm(f)

	accepts := u.Accepts(f.StartNode)
	require.Len(t, accepts, 1)
	assert.Equal(t, CtrlSet{a}, accepts[0])

	// The accept node itself trivially accepts with an empty condition.
	require.Len(t, u.Accepts(f.AcceptNode), 1)
	assert.Empty(t, u.Accepts(f.AcceptNode)[0])
}

func TestReachability(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	a := m.NewInput("a")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	island := f.CreateNode()
	n := f.CreateNode()
	f.CreateLink(f.StartNode, n, a)
	f.CreateEdge(n, f.AcceptNode)
	f.CreateEdge(island, f.AcceptNode)

	u := BuildUfsm(f)

	assert.True(t, u.Reachable(f.StartNode))
	assert.True(t, u.Reachable(f.AcceptNode))
	assert.False(t, u.Reachable(island))
}

func TestLinkCyclePanics(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	n1 := f.CreateNode()
	n2 := f.CreateNode()
	f.CreateLinkPlain(n1, n2)
	f.CreateLinkPlain(n2, n1)

	assert.Panics(t, func() { BuildUfsm(f) })
}
