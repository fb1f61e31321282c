package circuit

import "fmt"

type gateKind int

const (
	gateAnd gateKind = iota
	gateOr
	gateNot
	gateReduceOr
	gateEq
)

type gate struct {
	kind gateKind
	in   []Signal
}

type dff struct {
	clock    Signal
	clockPol bool
	d        Signal
	q        Signal
	init     int
	cur      bool
	have     bool
}

// Module is a small in-memory reference implementation of Builder. It
// exists so the automaton pipeline can be driven and simulated without a
// real EDA host: every gate/wire it allocates is kept in a flat arena
// indexed by Signal, and Step evaluates one clock edge at a time.
type Module struct {
	next    Signal
	gates   map[Signal]*gate
	inputs  map[Signal]string
	ties    map[Signal]Signal
	dffs    []*dff
	dffOut  map[Signal]*dff
	cells   []Cell
	cellSig map[string]Signal
}

// NewModule creates an empty reference host module.
func NewModule() *Module {
	return &Module{
		gates:   map[Signal]*gate{},
		inputs:  map[Signal]string{},
		ties:    map[Signal]Signal{},
		dffOut:  map[Signal]*dff{},
		cellSig: map[string]Signal{},
	}
}

func (m *Module) alloc() Signal {
	s := m.next
	m.next++
	return s
}

// NewInput allocates a primary input bit named label, settable per-cycle
// with Step's inputVals argument.
func (m *Module) NewInput(label string) Signal {
	s := m.alloc()
	m.inputs[s] = label
	return s
}

func (m *Module) AddWire() Signal {
	return m.alloc()
}

func (m *Module) Not(a Signal) Signal {
	if a == S0 {
		return S1
	}
	if a == S1 {
		return S0
	}
	s := m.alloc()
	m.gates[s] = &gate{kind: gateNot, in: []Signal{a}}
	return s
}

func (m *Module) And(a, b Signal) Signal {
	if a == S0 || b == S0 {
		return S0
	}
	if a == S1 {
		return b
	}
	if b == S1 {
		return a
	}
	s := m.alloc()
	m.gates[s] = &gate{kind: gateAnd, in: []Signal{a, b}}
	return s
}

func (m *Module) Or(a, b Signal) Signal {
	if a == S1 || b == S1 {
		return S1
	}
	if a == S0 {
		return b
	}
	if b == S0 {
		return a
	}
	s := m.alloc()
	m.gates[s] = &gate{kind: gateOr, in: []Signal{a, b}}
	return s
}

// ReduceOr short-circuits the trivial fan-in cases: zero bits is the
// constant S0, one bit passes through unchanged, more than one gets an
// actual reduce-OR gate.
func (m *Module) ReduceOr(bits []Signal) Signal {
	switch len(bits) {
	case 0:
		return S0
	case 1:
		return bits[0]
	default:
		s := m.alloc()
		m.gates[s] = &gate{kind: gateReduceOr, in: append([]Signal(nil), bits...)}
		return s
	}
}

func (m *Module) Eq(a, b []Signal) Signal {
	if len(a) != len(b) {
		panic(fmt.Sprintf("circuit: Eq operands have different widths (%d vs %d)", len(a), len(b)))
	}
	s := m.alloc()
	in := make([]Signal, 0, len(a)+len(b))
	in = append(in, a...)
	in = append(in, b...)
	m.gates[s] = &gate{kind: gateEq, in: in}
	return s
}

func (m *Module) Dff(clock Signal, clockPol bool, d, q Signal, init int) {
	if _, driven := m.ties[q]; driven {
		panic("circuit: wire already connected")
	}
	if _, driven := m.dffOut[q]; driven {
		panic("circuit: wire already clocked")
	}
	ff := &dff{clock: clock, clockPol: clockPol, d: d, q: q, init: init}
	m.dffs = append(m.dffs, ff)
	m.dffOut[q] = ff
}

func (m *Module) Connect(wire, value Signal) {
	if _, driven := m.ties[wire]; driven {
		panic("circuit: wire already connected")
	}
	if _, driven := m.dffOut[wire]; driven {
		panic("circuit: wire already clocked")
	}
	m.ties[wire] = value
}

func (m *Module) addCell(kind CellKind, name string, prop, enable Signal) Cell {
	c := Cell{Kind: kind, Name: name}
	m.cells = append(m.cells, c)
	m.cellSig[name] = prop
	_ = enable
	return c
}

func (m *Module) AddAssert(name string, prop, enable Signal) Cell {
	return m.addCell(CellAssert, name, prop, enable)
}
func (m *Module) AddAssume(name string, prop, enable Signal) Cell {
	return m.addCell(CellAssume, name, prop, enable)
}
func (m *Module) AddCover(name string, prop, enable Signal) Cell {
	return m.addCell(CellCover, name, prop, enable)
}
func (m *Module) AddLive(name string, prop, enable Signal) Cell {
	return m.addCell(CellLive, name, prop, enable)
}
func (m *Module) AddFair(name string, prop, enable Signal) Cell {
	return m.addCell(CellFair, name, prop, enable)
}

// CellSignal returns the property signal wired into the named monitor cell,
// for test harnesses that want to sample it directly.
func (m *Module) CellSignal(name string) (Signal, bool) {
	s, ok := m.cellSig[name]
	return s, ok
}

// Eval computes the current combinational value of sig given the live
// register state and this cycle's primary-input values. It does not advance
// any register.
func (m *Module) Eval(sig Signal, inputVals map[Signal]bool) bool {
	memo := map[Signal]bool{}
	return m.eval(sig, inputVals, memo)
}

func (m *Module) eval(sig Signal, inputVals map[Signal]bool, memo map[Signal]bool) bool {
	switch sig {
	case S0:
		return false
	case S1:
		return true
	case Sx:
		return false
	}
	if v, ok := memo[sig]; ok {
		return v
	}
	var v bool
	switch {
	case m.inputs[sig] != "":
		v = inputVals[sig]
	case m.dffOut[sig] != nil:
		ff := m.dffOut[sig]
		if ff.have {
			v = ff.cur
		} else {
			v = ff.init != 0
		}
	case m.ties[sig] != 0 || func() bool { _, ok := m.ties[sig]; return ok }():
		tgt, ok := m.ties[sig]
		if ok {
			v = m.eval(tgt, inputVals, memo)
		}
	case m.gates[sig] != nil:
		g := m.gates[sig]
		switch g.kind {
		case gateNot:
			v = !m.eval(g.in[0], inputVals, memo)
		case gateAnd:
			v = m.eval(g.in[0], inputVals, memo) && m.eval(g.in[1], inputVals, memo)
		case gateOr:
			v = m.eval(g.in[0], inputVals, memo) || m.eval(g.in[1], inputVals, memo)
		case gateReduceOr:
			for _, in := range g.in {
				if m.eval(in, inputVals, memo) {
					v = true
					break
				}
			}
		case gateEq:
			n := len(g.in) / 2
			v = true
			for i := 0; i < n; i++ {
				if m.eval(g.in[i], inputVals, memo) != m.eval(g.in[n+i], inputVals, memo) {
					v = false
					break
				}
			}
		}
	default:
		// An AddWire()'d signal that was never Connect'd or Dff'd floats
		// at its zero value; real hosts would flag this as unused.
		v = false
	}
	memo[sig] = v
	return v
}

// Step advances every register one clock edge, using inputVals as this
// cycle's primary-input values for every combinational signal feeding a
// register's D input. Call Eval with the same inputVals beforehand to read
// this cycle's combinational outputs (e.g. a monitor cell's property
// signal) before the edge.
func (m *Module) Step(inputVals map[Signal]bool) {
	memo := map[Signal]bool{}
	next := make([]bool, len(m.dffs))
	for i, ff := range m.dffs {
		next[i] = m.eval(ff.d, inputVals, memo)
	}
	for i, ff := range m.dffs {
		ff.cur = next[i]
		ff.have = true
	}
}

// Reset restores every register to its declared init value.
func (m *Module) Reset() {
	for _, ff := range m.dffs {
		ff.have = false
	}
}
