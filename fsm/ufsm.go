package fsm

import (
	"sort"

	"github.com/gromero/svafsm/circuit"
)

// CtrlSet is a sorted, deduplicated set of signal bits that must all be high
// for the edge or accept condition it annotates to apply. circuit.S1 is
// dropped on insertion since it never constrains anything.
type CtrlSet []circuit.Signal

func (s CtrlSet) union(sig circuit.Signal) CtrlSet {
	if sig == circuit.S1 {
		return s
	}
	for _, have := range s {
		if have == sig {
			return s
		}
	}
	out := append(append(CtrlSet(nil), s...), sig)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type uedge struct {
	target NodeID
	ctrl   CtrlSet
}

type unode struct {
	edges     []uedge
	accept    []CtrlSet
	reachable bool
}

// Ufsm is the link-eliminated automaton derived from an Fsm: one unode per
// NFSM node, edges annotated with a ctrl set rather than a single bit.
type Ufsm struct {
	fsm   *Fsm
	nodes []unode
}

// BuildUfsm resolves every NFSM node's links into its home unode's edge and
// accept lists, then marks reachability from fsm.StartNode by DFS over
// unode edges only (links have already been eliminated, so edges are the
// only transitions left to traverse).
func BuildUfsm(f *Fsm) *Ufsm {
	u := &Ufsm{fsm: f, nodes: make([]unode, len(f.nodes))}
	for i := range u.nodes {
		nodeToUnode(f, NodeID(i), NodeID(i), nil, u, 0)
	}
	u.markReachable()
	return u
}

// nodeToUnode walks zero or more links out of node, accumulating ctrlAccum
// by set union, and records every edge/accept reachable that way against
// homeUnode. depth guards against a link cycle slipping past construction,
// which never happens for sequences the lowerer produces; exceeding it is a
// precondition violation.
func nodeToUnode(f *Fsm, node, homeUnode NodeID, ctrlAccum CtrlSet, u *Ufsm, depth int) {
	if depth > len(f.nodes)+1 {
		panic("fsm: link cycle detected while resolving NFSM to UFSM")
	}
	if node == f.AcceptNode {
		u.nodes[homeUnode].accept = append(u.nodes[homeUnode].accept, ctrlAccum)
	}
	for _, e := range f.edgesOf(node) {
		u.nodes[homeUnode].edges = append(u.nodes[homeUnode].edges, uedge{target: e.target, ctrl: ctrlAccum.union(e.ctrl)})
	}
	for _, l := range f.linksOf(node) {
		nodeToUnode(f, l.target, homeUnode, ctrlAccum.union(l.ctrl), u, depth+1)
	}
}

func (u *Ufsm) markReachable() {
	var visit func(NodeID)
	visited := make([]bool, len(u.nodes))
	visit = func(n NodeID) {
		if visited[n] {
			return
		}
		visited[n] = true
		u.nodes[n].reachable = true
		for _, e := range u.nodes[n].edges {
			visit(e.target)
		}
	}
	visit(u.fsm.StartNode)
}

// Reachable reports whether unode n was reached from the start node.
func (u *Ufsm) Reachable(n NodeID) bool { return u.nodes[n].reachable }

// NumNodes reports the number of unodes (one per NFSM node).
func (u *Ufsm) NumNodes() int { return len(u.nodes) }

// UEdge is the exported view of one UFSM edge, for diagnostics.
type UEdge struct {
	Target NodeID
	Ctrl   CtrlSet
}

// Edges returns the set-ctrl transitions out of unode n.
func (u *Ufsm) Edges(n NodeID) []UEdge {
	out := make([]UEdge, len(u.nodes[n].edges))
	for i, e := range u.nodes[n].edges {
		out[i] = UEdge{Target: e.target, Ctrl: e.ctrl}
	}
	return out
}

// Accepts returns the accept conditions accumulated on unode n.
func (u *Ufsm) Accepts(n NodeID) []CtrlSet { return u.nodes[n].accept }
