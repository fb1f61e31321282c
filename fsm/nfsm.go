// Package fsm builds and materializes the automaton pipeline a lowered SVA
// sequence is expressed over: a non-deterministic state machine with
// epsilon-links (Fsm), resolved into a link-free automaton with set-valued
// ctrl edges (ufsm), determinized into a constant-ctrl-valuation automaton
// (dfsm), and finally emitted as a clocked circuit on a circuit.Builder.
package fsm

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gromero/svafsm/circuit"
)

// ErrPrecondition marks caller mistakes detectable before materialization,
// currently an unbalanced disable or throughout stack. Mistakes that can
// only come from a bug inside this package's own callers in the core
// (building after materialization, popping an empty stack) panic instead.
var ErrPrecondition = errors.New("fsm: precondition violated")

// NodeID indexes into Fsm.nodes. Node ids are stable for the lifetime of an
// Fsm: they are never reused or compacted, so a caller may hold one across
// further CreateNode/CreateEdge/CreateLink calls.
type NodeID int

type edge struct {
	target NodeID
	ctrl   circuit.Signal
}

type node struct {
	edges []edge
	links []edge
}

// Fsm is the NFSM container scoped to one property sub-automaton (an
// antecedent, an until, or a consequent). It is built incrementally, then
// frozen by exactly one call to GetAccept or GetReject; any further
// CreateNode/CreateEdge/CreateLink/PushDisable/PushThroughout call after
// that is a precondition violation and panics.
type Fsm struct {
	ID uuid.UUID

	b        circuit.Builder
	clock    circuit.Signal
	clockPol bool

	disable         circuit.Signal
	disableStack    []circuit.Signal
	throughoutStack []circuit.Signal
	trigger         circuit.Signal

	nodes []node

	StartNode  NodeID
	AcceptNode NodeID

	materialized bool

	// lastUfsm/lastDfsm retain the intermediate automata from GetReject so a
	// verbose dump can show all three encodings of one materialization.
	lastUfsm *Ufsm
	lastDfsm *Dfsm
}

// New creates an Fsm with its distinguished start and accept nodes. Pass
// circuit.S0 for no disable and circuit.S1 for an always-on trigger; there
// is no separate options type, since every call site already knows all four
// values up front.
func New(b circuit.Builder, clock circuit.Signal, clockPol bool, disable, trigger circuit.Signal) *Fsm {
	f := &Fsm{
		ID:       uuid.New(),
		b:        b,
		clock:    clock,
		clockPol: clockPol,
	}
	f.disable = disable
	f.trigger = trigger
	f.StartNode = f.CreateNode()
	f.AcceptNode = f.CreateNode()
	return f
}

func (f *Fsm) checkBuildable() {
	if f.materialized {
		panic("fsm: build operation called after materialization")
	}
}

// CreateNode allocates a fresh NFSM node and returns its id.
func (f *Fsm) CreateNode() NodeID {
	f.checkBuildable()
	id := NodeID(len(f.nodes))
	f.nodes = append(f.nodes, node{})
	return id
}

// disableSig ORs the constructor disable with the active disable stack, or
// S0 if there is neither.
func (f *Fsm) disableSig() circuit.Signal {
	sig := f.disable
	for _, s := range f.disableStack {
		sig = f.b.Or(sig, s)
	}
	return sig
}

// throughoutSig ANDs together the active throughout stack, or S1 if empty.
func (f *Fsm) throughoutSig() circuit.Signal {
	sig := circuit.S1
	for _, s := range f.throughoutStack {
		sig = f.b.And(sig, s)
	}
	return sig
}

// CreateEdge adds a clock-consuming transition from source to target. The
// ctrl bit is the active throughout scope, or unconditional outside one.
func (f *Fsm) CreateEdge(source, target NodeID) {
	f.checkBuildable()
	f.nodes[source].edges = append(f.nodes[source].edges, edge{target: target, ctrl: f.throughoutSig()})
}

// CreateEdgeWithCtrl is CreateEdge but combines an explicit ctrl condition
// (e.g. a leaf signal from a sequence lowerer) with the active throughout
// scope.
func (f *Fsm) CreateEdgeWithCtrl(source, target NodeID, ctrl circuit.Signal) {
	f.checkBuildable()
	f.nodes[source].edges = append(f.nodes[source].edges, edge{target: target, ctrl: f.b.And(ctrl, f.throughoutSig())})
}

// CreateLink adds a same-cycle epsilon transition, combining ctrl with the
// active throughout scope as CreateEdge does.
func (f *Fsm) CreateLink(source, target NodeID, ctrl circuit.Signal) {
	f.checkBuildable()
	f.nodes[source].links = append(f.nodes[source].links, edge{target: target, ctrl: f.b.And(ctrl, f.throughoutSig())})
}

// CreateLinkPlain adds a same-cycle epsilon transition with no extra ctrl
// condition beyond whatever throughout scope is active.
func (f *Fsm) CreateLinkPlain(source, target NodeID) {
	f.CreateLink(source, target, circuit.S1)
}

// PushDisable extends the disable scope; the combined disable signal is the
// OR of every pushed signal currently on the stack.
func (f *Fsm) PushDisable(sig circuit.Signal) {
	f.checkBuildable()
	f.disableStack = append(f.disableStack, sig)
}

// PopDisable removes the most recently pushed disable signal. It is a
// precondition violation to call this on an empty stack.
func (f *Fsm) PopDisable() {
	f.checkBuildable()
	if len(f.disableStack) == 0 {
		panic("fsm: PopDisable on empty disable stack")
	}
	f.disableStack = f.disableStack[:len(f.disableStack)-1]
}

// PushThroughout extends the throughout scope; the combined condition is
// the AND of every pushed signal currently on the stack.
func (f *Fsm) PushThroughout(sig circuit.Signal) {
	f.checkBuildable()
	f.throughoutStack = append(f.throughoutStack, sig)
}

// PopThroughout removes the most recently pushed throughout signal. It is a
// precondition violation to call this on an empty stack.
func (f *Fsm) PopThroughout() {
	f.checkBuildable()
	if len(f.throughoutStack) == 0 {
		panic("fsm: PopThroughout on empty throughout stack")
	}
	f.throughoutStack = f.throughoutStack[:len(f.throughoutStack)-1]
}

// CheckBalanced reports an error if the disable/throughout stacks still
// hold unpopped entries; both must be balanced before materialization.
func (f *Fsm) CheckBalanced() error {
	if len(f.disableStack) > 0 {
		return errors.Wrapf(ErrPrecondition, "fsm %s: disable stack unbalanced at materialization (depth %d)", f.ID, len(f.disableStack))
	}
	if len(f.throughoutStack) > 0 {
		return errors.Wrapf(ErrPrecondition, "fsm %s: throughout stack unbalanced at materialization (depth %d)", f.ID, len(f.throughoutStack))
	}
	return nil
}

// NumNodes reports the number of NFSM nodes currently allocated.
func (f *Fsm) NumNodes() int { return len(f.nodes) }

func (f *Fsm) edgesOf(n NodeID) []edge { return f.nodes[n].edges }
func (f *Fsm) linksOf(n NodeID) []edge { return f.nodes[n].links }

// Edge is the exported view of one NFSM edge or link, for diagnostics.
type Edge struct {
	Target NodeID
	Ctrl   circuit.Signal
}

// Edges returns the clock-consuming transitions out of n.
func (f *Fsm) Edges(n NodeID) []Edge { return exportEdges(f.nodes[n].edges) }

// Links returns the same-cycle epsilon transitions out of n.
func (f *Fsm) Links(n NodeID) []Edge { return exportEdges(f.nodes[n].links) }

func exportEdges(in []edge) []Edge {
	out := make([]Edge, len(in))
	for i, e := range in {
		out[i] = Edge{Target: e.target, Ctrl: e.ctrl}
	}
	return out
}

// LastUfsm returns the Ufsm built by the most recent GetReject, if any.
func (f *Fsm) LastUfsm() (*Ufsm, bool) { return f.lastUfsm, f.lastUfsm != nil }

// LastDfsm returns the Dfsm built by the most recent GetReject, if any.
func (f *Fsm) LastDfsm() (*Dfsm, bool) { return f.lastDfsm, f.lastDfsm != nil }

// markMaterialized freezes the Fsm; called once by GetAccept/GetReject.
func (f *Fsm) markMaterialized() {
	if f.materialized {
		panic("fsm: materialized twice")
	}
	f.materialized = true
}
