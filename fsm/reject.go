package fsm

import "github.com/gromero/svafsm/circuit"

// GetReject emits the DFSM reject circuit and returns the reject signal: it
// resolves the NFSM's links into a Ufsm, determinizes in first-match mode,
// then encodes each DFSM state as a one-hot flip-flop whose transitions are
// equality matches of (ctrl, statesig) against (valuation, 1). It
// materializes f the same way GetAccept does.
func (f *Fsm) GetReject() (circuit.Signal, error) {
	reject, _, err := f.getReject(false)
	return reject, err
}

// GetRejectAccept is GetReject but additionally collects the accept signal
// in the same equality-match shape, for callers that need both outputs of
// one determinization.
func (f *Fsm) GetRejectAccept() (reject, accept circuit.Signal, err error) {
	return f.getReject(true)
}

func (f *Fsm) getReject(wantAccept bool) (circuit.Signal, circuit.Signal, error) {
	f.markMaterialized()
	b := f.b

	u := BuildUfsm(f)
	d, err := BuildDfsm(u, true)
	if err != nil {
		return circuit.S0, circuit.S0, err
	}
	f.lastUfsm, f.lastDfsm = u, d

	// State signals, with the trigger ORed into the start state.

	for _, s := range d.Order {
		s.ffoutwire = b.AddWire()
		s.statesig = s.ffoutwire
		if s == d.Start {
			s.statesig = b.Or(s.statesig, f.trigger)
		}
	}

	// Transition, accept and reject decoding. Each contribution is a single
	// equality of (ctrl, statesig) against (valuation, 1) so the backend can
	// fuse the decoding.

	var acceptSig, rejectSig []circuit.Signal

	for _, s := range d.Order {
		for _, e := range s.Edges {
			trig := b.Eq(ctrlStateVec(s), valStateVec(s, e.Val))
			e.Next.nextstate = append(e.Next.nextstate, trig)
		}

		if wantAccept {
			for _, v := range s.Accept {
				acceptSig = append(acceptSig, b.Eq(ctrlStateVec(s), valStateVec(s, v)))
			}
		}

		for _, v := range s.Reject {
			rejectSig = append(rejectSig, b.Eq(ctrlStateVec(s), valStateVec(s, v)))
		}
	}

	// State FFs, with the trivial fan-in cases short-circuited.

	for _, s := range d.Order {
		if len(s.nextstate) == 0 {
			b.Connect(s.ffoutwire, circuit.S0)
		} else {
			b.Dff(f.clock, f.clockPol, b.ReduceOr(s.nextstate), s.ffoutwire, 0)
		}
	}

	accept := circuit.S0
	if wantAccept && len(acceptSig) > 0 {
		accept = b.ReduceOr(acceptSig)
	}
	if len(rejectSig) == 0 {
		return circuit.S0, accept, nil
	}
	return b.ReduceOr(rejectSig), accept, nil
}

// ctrlStateVec is the left-hand side of a DFSM decode equality: the state's
// ctrl alphabet followed by its current-state signal.
func ctrlStateVec(s *DState) []circuit.Signal {
	vec := make([]circuit.Signal, 0, len(s.Ctrl)+1)
	vec = append(vec, s.Ctrl...)
	return append(vec, s.statesig)
}

// valStateVec is the matching right-hand side: the valuation's bits as
// constants, followed by constant 1.
func valStateVec(s *DState, v int) []circuit.Signal {
	vec := make([]circuit.Signal, 0, len(s.Ctrl)+1)
	for i := range s.Ctrl {
		if v&(1<<uint(i)) != 0 {
			vec = append(vec, circuit.S1)
		} else {
			vec = append(vec, circuit.S0)
		}
	}
	return append(vec, circuit.S1)
}
