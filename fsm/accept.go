package fsm

import "github.com/gromero/svafsm/circuit"

// GetAccept emits the NFSM accept circuit per-node flip-flop scheme and
// returns the accept-node's live signal. It materializes f: after this
// call, no further build operation may be performed on f.
func (f *Fsm) GetAccept() circuit.Signal {
	f.markMaterialized()
	b := f.b

	n := len(f.nodes)
	wire := make([]circuit.Signal, n)
	stateSig := make([]circuit.Signal, n)
	for i := range wire {
		wire[i] = b.AddWire()
		stateSig[i] = wire[i]
	}

	stateSig[f.StartNode] = b.Or(stateSig[f.StartNode], f.trigger)

	if dis := f.disableSig(); dis != circuit.S0 {
		notDis := b.Not(dis)
		for i := range stateSig {
			stateSig[i] = b.And(stateSig[i], notDis)
		}
	}

	order := f.linkOrder()
	processOrder := make([]NodeID, n)
	for i := 0; i < n; i++ {
		processOrder[i] = NodeID(i)
	}
	sortByOrder(processOrder, order)

	for _, src := range processOrder {
		for _, l := range f.linksOf(src) {
			contribution := b.And(stateSig[src], l.ctrl)
			stateSig[l.target] = b.Or(stateSig[l.target], contribution)
		}
	}

	activate := make([][]circuit.Signal, n)
	for i := 0; i < n; i++ {
		for _, e := range f.edgesOf(NodeID(i)) {
			activate[e.target] = append(activate[e.target], b.And(stateSig[i], e.ctrl))
		}
	}

	for i := 0; i < n; i++ {
		next := b.ReduceOr(activate[i])
		if next == circuit.S0 {
			b.Connect(wire[i], circuit.S0)
		} else {
			b.Dff(f.clock, f.clockPol, next, wire[i], 0)
		}
	}

	return stateSig[f.AcceptNode]
}

// linkOrder computes a topological order over the link graph by repeated
// max-relaxation: order[t] >= order[s]+1 for every link s->t. Links are
// acyclic by construction, so this terminates in at most len(nodes) passes.
func (f *Fsm) linkOrder() []int {
	n := len(f.nodes)
	order := make([]int, n)
	for pass := 0; pass < n; pass++ {
		changed := false
		for s := 0; s < n; s++ {
			for _, l := range f.linksOf(NodeID(s)) {
				if order[l.target] < order[s]+1 {
					order[l.target] = order[s] + 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return order
}

func sortByOrder(ids []NodeID, order []int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && order[ids[j-1]] > order[ids[j]]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
