// Package lower walks SVA operator trees and extends an fsm.Fsm so that a
// path from a given start node to the returned end node exists iff the
// sequence matches. It supports the documented sequence subset: leaf
// expressions, ##[L:H] concatenation, [*L:H] consecutive repetition and
// throughout.
package lower

import (
	"fmt"
	"log/slog"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/fsm"
	"github.com/gromero/svafsm/svaop"
)

// UnsupportedOperatorError reports an SVA operator the sequence lowerer has
// no lowering for. In strict mode it aborts the property; in keep mode it is
// logged and lowering degrades to a no-op (the start node is returned
// unchanged).
type UnsupportedOperatorError struct {
	Kind svaop.Kind
	Pos  svaop.Pos
}

func (e *UnsupportedOperatorError) Error() string {
	if e.Pos.File != "" {
		return fmt.Sprintf("lower: SVA primitive %s is currently unsupported in sequence position at %s", e.Kind, e.Pos)
	}
	return fmt.Sprintf("lower: SVA primitive %s is currently unsupported in sequence position", e.Kind)
}

// Position returns the source location of the offending primitive, if the
// importer attached one.
func (e *UnsupportedOperatorError) Position() (string, int) { return e.Pos.File, e.Pos.Line }

// Lowerer binds the sequence lowerer to one FSM under construction. Keep
// selects warn-and-continue over fatal for unsupported operators.
type Lowerer struct {
	Fsm      *fsm.Fsm
	Importer circuit.Importer
	Keep     bool
	Log      *slog.Logger
}

// Sequence lowers the sequence driving net, extending the FSM from
// startNode, and returns the end node of the lowered path. It never touches
// the FSM's accept node; attaching the returned end to it is the caller's
// job.
func (l *Lowerer) Sequence(startNode fsm.NodeID, net svaop.Net) (fsm.NodeID, error) {
	inst, ok := circuit.AstDriver(l.Importer, net)
	if !ok {
		node := l.Fsm.CreateNode()
		l.Fsm.CreateLink(startNode, node, l.Importer.SigOf(net))
		return node, nil
	}

	switch inst.Kind {
	case svaop.KindSeqConcat:
		return l.seqConcat(startNode, inst)
	case svaop.KindConsecutiveRepeat:
		return l.consecutiveRepeat(startNode, inst)
	case svaop.KindThroughout:
		return l.throughout(startNode, inst)
	}

	err := &UnsupportedOperatorError{Kind: inst.Kind, Pos: inst.Pos}
	if !l.Keep {
		return startNode, err
	}
	l.logger().Warn("skipping unsupported SVA primitive in sequence position",
		"op", inst.Kind.String(), "pos", inst.Pos.String())
	return startNode, nil
}

// seqConcat lowers ##[L:H]: L mandatory delay edges after the left child,
// then either a self-edge (unbounded) or H-L optional steps, then the right
// child.
func (l *Lowerer) seqConcat(startNode fsm.NodeID, inst *svaop.Node) (fsm.NodeID, error) {
	node, err := l.Sequence(startNode, inst.Input1)
	if err != nil {
		return startNode, err
	}

	for i := 0; i < inst.Low; i++ {
		next := l.Fsm.CreateNode()
		l.Fsm.CreateEdge(node, next)
		node = next
	}

	if inst.HighInf {
		l.Fsm.CreateEdge(node, node)
	} else {
		for i := inst.Low; i < inst.High; i++ {
			next := l.Fsm.CreateNode()
			l.Fsm.CreateEdge(node, next)
			l.Fsm.CreateLinkPlain(node, next)
			node = next
		}
	}

	return l.Sequence(node, inst.Input2)
}

// consecutiveRepeat lowers [*L:H]: the body L times with delay edges between
// repetitions, then either a cycle back into the last body (unbounded) or
// H-L optional extra repetitions.
func (l *Lowerer) consecutiveRepeat(startNode fsm.NodeID, inst *svaop.Node) (fsm.NodeID, error) {
	node, err := l.Sequence(startNode, inst.Input)
	if err != nil {
		return startNode, err
	}

	for i := 1; i < inst.Low; i++ {
		next := l.Fsm.CreateNode()
		l.Fsm.CreateEdge(node, next)
		node, err = l.Sequence(next, inst.Input)
		if err != nil {
			return startNode, err
		}
	}

	if inst.HighInf {
		next := l.Fsm.CreateNode()
		l.Fsm.CreateEdge(node, next)
		next, err = l.Sequence(next, inst.Input)
		if err != nil {
			return startNode, err
		}
		l.Fsm.CreateLinkPlain(next, node)
	} else {
		for i := inst.Low; i < inst.High; i++ {
			next := l.Fsm.CreateNode()
			l.Fsm.CreateEdge(node, next)
			next, err = l.Sequence(next, inst.Input)
			if err != nil {
				return startNode, err
			}
			l.Fsm.CreateLinkPlain(node, next)
			node = next
		}
	}

	return node, nil
}

// throughout ANDs the left-child expression into every edge and link of the
// lowered right child via the FSM's throughout stack. The left child must be
// a plain expression, which the importer guarantees by construction.
func (l *Lowerer) throughout(startNode fsm.NodeID, inst *svaop.Node) (fsm.NodeID, error) {
	if _, ok := circuit.AstDriver(l.Importer, inst.Input1); ok {
		panic("lower: throughout condition has an SVA driver")
	}
	expr := l.Importer.SigOf(inst.Input1)

	l.Fsm.PushThroughout(expr)
	node, err := l.Sequence(startNode, inst.Input2)
	l.Fsm.PopThroughout()
	if err != nil {
		return startNode, err
	}
	return node, nil
}

func (l *Lowerer) logger() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}
