package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gromero/svafsm/circuit"
)

func TestRejectSingleStep(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	tr := m.NewInput("tr")
	b := m.NewInput("b")

	f := New(m, clk, true, circuit.S0, tr)
	n := f.CreateNode()
	f.CreateLink(f.StartNode, n, b)
	f.CreateLinkPlain(n, f.AcceptNode)

	reject, accept, err := f.GetRejectAccept()
	require.NoError(t, err)

	// Triggered with b high: immediate accept, no reject.
	in := map[circuit.Signal]bool{tr: true, b: true}
	assert.False(t, m.Eval(reject, in))
	assert.True(t, m.Eval(accept, in))

	// Triggered with b low: the only path dies, reject fires.
	in = map[circuit.Signal]bool{tr: true, b: false}
	assert.True(t, m.Eval(reject, in))
	assert.False(t, m.Eval(accept, in))

	// Untriggered: idle.
	in = map[circuit.Signal]bool{tr: false, b: false}
	assert.False(t, m.Eval(reject, in))
	assert.False(t, m.Eval(accept, in))
}

func TestRejectTwoStepSequence(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	tr := m.NewInput("tr")
	b := m.NewInput("b")
	c := m.NewInput("c")

	// b this cycle, c next cycle.
	f := New(m, clk, true, circuit.S0, tr)
	nb := f.CreateNode()
	f.CreateLink(f.StartNode, nb, b)
	step := f.CreateNode()
	f.CreateEdge(nb, step)
	nc := f.CreateNode()
	f.CreateLink(step, nc, c)
	f.CreateLinkPlain(nc, f.AcceptNode)

	reject, accept, err := f.GetRejectAccept()
	require.NoError(t, err)

	// Complete match: b then c.
	in := map[circuit.Signal]bool{tr: true, b: true, c: false}
	assert.False(t, m.Eval(reject, in))
	assert.False(t, m.Eval(accept, in))
	m.Step(in)

	in = map[circuit.Signal]bool{tr: false, b: false, c: true}
	assert.False(t, m.Eval(reject, in))
	assert.True(t, m.Eval(accept, in))

	// Failed second step: b then not-c.
	m.Reset()
	in = map[circuit.Signal]bool{tr: true, b: true, c: false}
	m.Step(in)
	in = map[circuit.Signal]bool{tr: false, b: false, c: false}
	assert.True(t, m.Eval(reject, in))
	assert.False(t, m.Eval(accept, in))

	// Failed first step rejects immediately.
	m.Reset()
	in = map[circuit.Signal]bool{tr: true, b: false, c: false}
	assert.True(t, m.Eval(reject, in))
}

func TestRejectConstantWhenUnfailable(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")
	tr := m.NewInput("tr")

	// An unconditional single-step accept can never reject.
	f := New(m, clk, true, circuit.S0, tr)
	f.CreateLinkPlain(f.StartNode, f.AcceptNode)

	reject, err := f.GetReject()
	require.NoError(t, err)
	assert.Equal(t, circuit.S0, reject)
}

func TestRejectMaterializes(t *testing.T) {
	m := circuit.NewModule()
	clk := m.NewInput("clk")

	f := New(m, clk, true, circuit.S0, circuit.S1)
	f.CreateLinkPlain(f.StartNode, f.AcceptNode)
	_, err := f.GetReject()
	require.NoError(t, err)

	assert.Panics(t, func() { f.CreateNode() })

	_, ok := f.LastUfsm()
	assert.True(t, ok)
	_, ok = f.LastDfsm()
	assert.True(t, ok)
}
