package property_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/directive"
	"github.com/gromero/svafsm/property"
	"github.com/gromero/svafsm/svaop"
)

// harness drives an imported property cycle by cycle on the reference
// module, sampling the monitor cell before each clock edge.
type harness struct {
	t      *testing.T
	m      *circuit.Module
	script *directive.Script
	cell   circuit.Signal
}

func build(t *testing.T, src, propName string) *harness {
	t.Helper()
	m := circuit.NewModule()
	script, err := directive.Load(src, m)
	require.NoError(t, err)

	dr := &property.Driver{Builder: m, Netlist: script.Netlist, Namer: script.Netlist.Namer()}
	for _, p := range script.Props {
		opts := property.Options{
			Name:       p.Name,
			ModeAssert: p.Assert,
			ModeAssume: p.Assume,
			ModeCover:  p.Cover,
			ModeKeep:   p.Keep,
			Verbose:    p.Verbose,
		}
		cell, err := dr.Import(p.Root, opts)
		require.NoError(t, err)
		require.NotNil(t, cell)
	}

	sig, ok := m.CellSignal(propName)
	require.True(t, ok, "no cell named %s", propName)
	return &harness{t: t, m: m, script: script, cell: sig}
}

func (h *harness) inputs(vals map[string]bool) map[circuit.Signal]bool {
	in := map[circuit.Signal]bool{}
	for name, v := range vals {
		in[h.script.Netlist.Signal(name)] = v
	}
	return in
}

// cycle checks the monitor output under vals, then advances the clock.
func (h *harness) cycle(vals map[string]bool, want bool, msg string) {
	h.t.Helper()
	in := h.inputs(vals)
	assert.Equal(h.t, want, h.m.Eval(h.cell, in), msg)
	h.m.Step(in)
}

func TestOverlappedImplication(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    seq a
    |->
    seq b
`, "p1")

	h.cycle(map[string]bool{"a": true, "b": true}, true, "satisfied")
	h.cycle(map[string]bool{"a": true, "b": false}, true, "violation this cycle, not yet registered")
	h.cycle(map[string]bool{}, false, "violation visible after registration")
	h.cycle(map[string]bool{}, true, "recovers")
}

func TestOverlappedImplicationDisable(t *testing.T) {
	h := build(t, `
clock posedge clk
disable rst
assert p1
    seq a
    |->
    seq b
`, "p1")

	h.cycle(map[string]bool{"a": true, "b": false, "rst": true}, true, "disable pulse kills the match")
	h.cycle(map[string]bool{}, true, "no violation was registered")
	h.cycle(map[string]bool{"a": true, "b": false}, true, "real violation")
	h.cycle(map[string]bool{}, false, "registered")
}

func TestNonOverlappedImplication(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    seq a
    |=>
    seq b
`, "p1")

	h.cycle(map[string]bool{"a": true}, true, "antecedent matches")
	h.cycle(map[string]bool{}, true, "consequent due now and missing")
	h.cycle(map[string]bool{"a": true, "b": true}, false, "violation visible")
	h.cycle(map[string]bool{"b": true}, true, "second attempt satisfied")
}

func TestBoundedDelayImplication(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    seq a
    ## 1 3
    seq b
    |->
    seq c
`, "p1")

	h.cycle(map[string]bool{"a": true}, true, "window opens")
	h.cycle(map[string]bool{"b": true, "c": true}, true, "b at t+1 with c")
	h.cycle(map[string]bool{"b": true, "c": false}, true, "b at t+2 without c: violation")
	h.cycle(map[string]bool{}, false, "registered")
	h.cycle(map[string]bool{}, true, "no b, no obligation")
}

func TestCoverSequence(t *testing.T) {
	h := build(t, `
clock posedge clk
cover p1
    seq a
    ## 1
    seq b
    ## 1
    seq c
`, "p1")

	h.cycle(map[string]bool{"a": true}, false, "cover not yet hit")
	h.cycle(map[string]bool{"b": true}, false, "mid-sequence")
	h.cycle(map[string]bool{"c": true}, false, "accept this cycle")
	h.cycle(map[string]bool{}, true, "cover hit visible after registration")
	h.cycle(map[string]bool{}, false, "one-shot")
}

func TestUntilConsequent(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    seq a
    |->
    seq b
    until c
`, "p1")

	h.cycle(map[string]bool{"a": true, "b": true}, true, "match, b holds")
	h.cycle(map[string]bool{"b": true}, true, "latched, b holds")
	h.cycle(map[string]bool{"b": true, "c": true}, true, "until fires")
	h.cycle(map[string]bool{}, true, "obligation released")
	h.cycle(map[string]bool{}, true, "stays released")
}

func TestUntilConsequentViolation(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    seq a
    |->
    seq b
    until c
`, "p1")

	h.cycle(map[string]bool{"a": true, "b": true}, true, "match")
	h.cycle(map[string]bool{}, true, "b drops before c: violation now")
	h.cycle(map[string]bool{}, false, "registered")
}

func TestThroughoutSequence(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    throughout a
        seq b
        ## 1
        seq c
`, "p1")

	h.cycle(map[string]bool{"a": true, "b": true}, true, "body starts under guard")
	h.cycle(map[string]bool{"a": true, "b": true, "c": true}, true, "body completes under guard")
	h.cycle(map[string]bool{"a": true, "b": true, "c": true}, true, "still passing")
	h.cycle(map[string]bool{"b": true, "c": true}, true, "guard drops: violation now")
	h.cycle(map[string]bool{"a": true, "b": true, "c": true}, false, "registered")
}

func TestNotSequence(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    not
    seq a
`, "p1")

	h.cycle(map[string]bool{}, true, "sequence not matching")
	h.cycle(map[string]bool{"a": true}, true, "match this cycle violates the negation")
	h.cycle(map[string]bool{}, false, "registered")
}

func TestPlainExpressionProperty(t *testing.T) {
	h := build(t, `
clock posedge clk
assert p1
    seq ok
`, "p1")

	h.cycle(map[string]bool{"ok": true}, true, "holds")
	h.cycle(map[string]bool{"ok": false}, true, "fails this cycle")
	h.cycle(map[string]bool{"ok": true}, false, "registered")
}

func TestImmediateAssert(t *testing.T) {
	m := circuit.NewModule()
	script, err := directive.Load("immediate_assert p1 ok\n", m)
	require.NoError(t, err)

	dr := &property.Driver{Builder: m, Netlist: script.Netlist}
	p := script.Props[0]
	cell, err := dr.Import(p.Root, property.Options{Name: p.Name, ModeAssert: true})
	require.NoError(t, err)
	require.NotNil(t, cell)
	assert.Equal(t, circuit.CellAssert, cell.Kind)

	// Unregistered: the cell samples the expression combinationally.
	sig, ok := m.CellSignal("p1")
	require.True(t, ok)
	assert.True(t, m.Eval(sig, map[circuit.Signal]bool{script.Netlist.Signal("ok"): true}))
	assert.False(t, m.Eval(sig, map[circuit.Signal]bool{script.Netlist.Signal("ok"): false}))
}

func TestEventuallyUnsupported(t *testing.T) {
	m := circuit.NewModule()
	script, err := directive.Load(`
clock posedge clk
assert p1
    eventually
    seq a
`, m)
	require.NoError(t, err)

	dr := &property.Driver{Builder: m, Netlist: script.Netlist}
	p := script.Props[0]
	_, err = dr.Import(p.Root, property.Options{Name: p.Name, ModeAssert: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eventually")
}

// unsupportedProperty hand-builds a tree whose property position holds an
// operator the driver cannot translate.
func unsupportedProperty(m *circuit.Module) (*directive.Netlist, *svaop.Node) {
	nl := directive.NewNetlist(m)
	body := nl.NodeNet(&svaop.Node{
		Kind:   svaop.KindSeqOr,
		Input1: nl.SignalNet("a"),
		Input2: nl.SignalNet("b"),
	})
	clock := nl.NodeNet(&svaop.Node{Kind: svaop.KindPosedge, Input: nl.SignalNet("clk")})
	at := nl.NodeNet(&svaop.Node{Kind: svaop.KindAt, Input1: clock, Input2: body})
	return nl, &svaop.Node{Kind: svaop.KindAssert, Input: at}
}

func TestUnsupportedPropertyStrict(t *testing.T) {
	m := circuit.NewModule()
	nl, root := unsupportedProperty(m)

	dr := &property.Driver{Builder: m, Netlist: nl}
	_, err := dr.Import(root, property.Options{Name: "p1", ModeAssert: true})
	require.Error(t, err)

	var unsup *property.UnsupportedError
	require.ErrorAs(t, err, &unsup)
}

func TestUnsupportedPropertyKeep(t *testing.T) {
	m := circuit.NewModule()
	nl, root := unsupportedProperty(m)

	dr := &property.Driver{Builder: m, Netlist: nl}
	cell, err := dr.Import(root, property.Options{Name: "p1", ModeAssert: true, ModeKeep: true})
	require.NoError(t, err)
	assert.Nil(t, cell, "keep mode skips the property without a cell")

	_, ok := m.CellSignal("p1")
	assert.False(t, ok)
}

func TestVerboseDump(t *testing.T) {
	m := circuit.NewModule()
	script, err := directive.Load(`
clock posedge clk
assert p1
    seq a
    |->
    seq b
`, m)
	require.NoError(t, err)

	var buf bytes.Buffer
	dr := &property.Driver{
		Builder: m,
		Netlist: script.Netlist,
		DumpTo:  &buf,
		Namer:   script.Netlist.Namer(),
	}
	p := script.Props[0]
	_, err = dr.Import(p.Root, property.Options{Name: p.Name, ModeAssert: true, Verbose: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "p1/antecedent: non-deterministic encoding:")
	assert.Contains(t, out, "p1/consequent: deterministic encoding:")
	assert.Contains(t, out, "a ->")
}
