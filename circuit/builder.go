package circuit

// Cell is a monitor or liveness primitive instantiated on the host module:
// assert, assume, cover, live or fair. The core treats it as an opaque
// handle returned by the corresponding Add* call, useful only for attribute
// copying, which is the host's concern.
type Cell struct {
	Kind CellKind
	Name string
}

// CellKind enumerates the five monitor/liveness primitives the host
// provides.
type CellKind int

const (
	CellAssert CellKind = iota
	CellAssume
	CellCover
	CellLive
	CellFair
)

// Builder is the host circuit-builder IR the core emits into:
// And/Or/Not/ReduceOr/Eq build combinational logic, Dff instantiates a
// single-bit registered state element, Connect ties a wire to a constant or
// another signal, and the Add* family instantiates the terminal
// monitor/liveness cells.
type Builder interface {
	// AddWire allocates a fresh, as-yet-undriven signal bit.
	AddWire() Signal

	Not(a Signal) Signal
	And(a, b Signal) Signal
	Or(a, b Signal) Signal
	// ReduceOr ORs together an arbitrary number of bits. Zero bits yields
	// the constant S0 and a single bit passes through unchanged, so no
	// degenerate gate is ever emitted.
	ReduceOr(bits []Signal) Signal
	// Eq compares two equal-length bit vectors for bitwise equality,
	// returning a single bit. a and b must have the same length.
	Eq(a, b []Signal) Signal

	// Dff instantiates a D flip-flop clocked on clock (rising edge when
	// clockPol is true, falling edge otherwise) that samples d and drives
	// q, which must be a wire previously returned by AddWire and not yet
	// driven by Connect or Dff. init is the initial value (0 or 1).
	Dff(clock Signal, clockPol bool, d, q Signal, init int)
	// Connect ties wire, a wire previously returned by AddWire and not yet
	// driven, permanently to value.
	Connect(wire, value Signal)

	AddAssert(name string, prop, enable Signal) Cell
	AddAssume(name string, prop, enable Signal) Cell
	AddCover(name string, prop, enable Signal) Cell
	AddLive(name string, prop, enable Signal) Cell
	AddFair(name string, prop, enable Signal) Cell
}
