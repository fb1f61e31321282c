package fsm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gromero/svafsm/circuit"
)

// ErrStateExplosion is returned when a reachable DFSM state's ctrl alphabet
// exceeds the 10-bit guard: continuing would enumerate more than 1024
// valuations for a single state.
var ErrStateExplosion = errors.New("fsm: dfsm state exceeds 10 ctrl bits")

const maxCtrlBits = 10

// DState is one DFSM state: a subset of unode ids, reached transitions and
// accept/reject valuations over its ctrl alphabet.
type DState struct {
	ids   []NodeID
	key   string
	Ctrl  CtrlSet
	Edges []DEdge
	// Accept/Reject hold the ctrl valuations (as v in [0, 2^|Ctrl|)) that
	// classify as accept or reject respectively.
	Accept []int
	Reject []int

	// Transient wiring state used by GetReject while emitting the circuit.
	ffoutwire circuit.Signal
	statesig  circuit.Signal
	nextstate []circuit.Signal
}

// IDs returns the sorted unique unode ids making up this state.
func (s *DState) IDs() []NodeID { return s.ids }

// Key returns the canonical comma-joined form of IDs, the map key the
// subset construction memoizes on.
func (s *DState) Key() string { return s.key }

// DEdge is one DFSM transition: a constant ctrl valuation leading to Next.
type DEdge struct {
	Next *DState
	Val  int
}

// Dfsm is the subset-construction automaton built from a Ufsm.
type Dfsm struct {
	u          *Ufsm
	FirstMatch bool
	states     map[string]*DState
	Start      *DState
	// Order lists every state in creation order, used by getReject to walk
	// states deterministically when wiring the circuit.
	Order []*DState
}

func stateKey(ids []NodeID) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}
	return sb.String()
}

func canonicalize(ids []NodeID) []NodeID {
	out := append([]NodeID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:0]
	for i, id := range out {
		if i == 0 || id != dedup[len(dedup)-1] {
			dedup = append(dedup, id)
		}
	}
	return dedup
}

// BuildDfsm determinizes u starting from the single-element state containing
// fsm.StartNode. It uses an explicit worklist rather than recursion, so the
// reachable state count, not call-stack depth, bounds memory.
func BuildDfsm(u *Ufsm, firstMatch bool) (*Dfsm, error) {
	d := &Dfsm{u: u, FirstMatch: firstMatch, states: map[string]*DState{}}
	start := canonicalize([]NodeID{u.fsm.StartNode})
	var err error
	d.Start, err = d.getOrCreate(start)
	if err != nil {
		return nil, err
	}

	worklist := []*DState{d.Start}
	seen := map[string]bool{d.Start.key: true}
	for len(worklist) > 0 {
		s := worklist[0]
		worklist = worklist[1:]
		next, err := d.expand(s)
		if err != nil {
			return nil, err
		}
		for _, ns := range next {
			if !seen[ns.key] {
				seen[ns.key] = true
				worklist = append(worklist, ns)
			}
		}
	}
	return d, nil
}

func (d *Dfsm) getOrCreate(ids []NodeID) (*DState, error) {
	key := stateKey(ids)
	if s, ok := d.states[key]; ok {
		return s, nil
	}
	s := &DState{ids: ids, key: key, Ctrl: ctrlAlphabet(d.u, ids)}
	if len(s.Ctrl) > maxCtrlBits {
		return nil, errors.Wrapf(ErrStateExplosion, "state %s has %d ctrl bits (limit %d)", key, len(s.Ctrl), maxCtrlBits)
	}
	d.states[key] = s
	d.Order = append(d.Order, s)
	return s, nil
}

func ctrlAlphabet(u *Ufsm, ids []NodeID) CtrlSet {
	var ctrl CtrlSet
	for _, id := range ids {
		un := u.nodes[id]
		for _, e := range un.edges {
			for _, c := range e.ctrl {
				ctrl = ctrl.union(c)
			}
		}
		for _, a := range un.accept {
			for _, c := range a {
				ctrl = ctrl.union(c)
			}
		}
	}
	return ctrl
}

// matches reports whether every bit in set is present in on.
func matches(set CtrlSet, on map[int]bool) bool {
	for _, bit := range set {
		if !on[int(bit)] {
			return false
		}
	}
	return true
}

// expand classifies every ctrl valuation of s as accepting, rejecting or
// transitioning, and returns the successor states so the caller can
// schedule them.
func (d *Dfsm) expand(s *DState) ([]*DState, error) {
	nBits := len(s.Ctrl)
	var fresh []*DState
	for v := 0; v < (1 << uint(nBits)); v++ {
		on := map[int]bool{}
		for i, bit := range s.Ctrl {
			if v&(1<<uint(i)) != 0 {
				on[int(bit)] = true
			}
		}

		acceptHit := false
		for _, id := range s.ids {
			for _, a := range d.u.nodes[id].accept {
				if matches(a, on) {
					acceptHit = true
					break
				}
			}
			if acceptHit {
				break
			}
		}

		var newStateIDs []NodeID
		if !(acceptHit && d.FirstMatch) {
			for _, id := range s.ids {
				for _, e := range d.u.nodes[id].edges {
					if matches(e.ctrl, on) {
						newStateIDs = append(newStateIDs, e.target)
					}
				}
			}
		}
		newStateIDs = canonicalize(newStateIDs)

		if acceptHit {
			s.Accept = append(s.Accept, v)
		}
		switch {
		case len(newStateIDs) == 0:
			if !acceptHit {
				s.Reject = append(s.Reject, v)
			}
		default:
			next, err := d.getOrCreate(newStateIDs)
			if err != nil {
				return nil, errors.WithMessage(err, fmt.Sprintf("expanding state %s valuation %d", s.key, v))
			}
			s.Edges = append(s.Edges, DEdge{Next: next, Val: v})
			fresh = append(fresh, next)
		}
	}
	return fresh, nil
}
