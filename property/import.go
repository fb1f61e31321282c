// Package property orchestrates the automaton pipeline for one SVA
// property: it peels the clock and disable prefixes off the operator tree,
// builds the antecedent/until/consequent FSMs, combines their accept and
// reject outputs, and registers the final monitor cell on the host module.
package property

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/diag"
	"github.com/gromero/svafsm/fsm"
	"github.com/gromero/svafsm/lower"
	"github.com/gromero/svafsm/svaop"
)

// UnsupportedError reports a property whose top-level shape the driver has
// no translation for.
type UnsupportedError struct {
	Msg string
	Pos svaop.Pos
}

func (e *UnsupportedError) Error() string {
	if e.Pos.File != "" {
		return fmt.Sprintf("property: %s at %s", e.Msg, e.Pos)
	}
	return "property: " + e.Msg
}

// Position returns the source location of the offending primitive, if the
// importer attached one.
func (e *UnsupportedError) Position() (string, int) { return e.Pos.File, e.Pos.Line }

// Driver imports SVA properties into a host module. It owns no state across
// Import calls; one Driver can process every property of a module in turn.
type Driver struct {
	Builder circuit.Builder
	Netlist circuit.Importer
	Log     *slog.Logger

	// DumpTo receives verbose automaton dumps. Nil suppresses them even when
	// a property requests Verbose.
	DumpTo io.Writer

	// Namer resolves signal bits to display names in verbose dumps.
	Namer func(circuit.Signal) string
}

func (dr *Driver) logger() *slog.Logger {
	if dr.Log != nil {
		return dr.Log
	}
	return slog.Default()
}

// Import translates the property rooted at root into monitor circuitry and
// one assert/assume/cover cell named opts.Name. A nil cell with a nil error
// means the property was skipped in keep mode.
func (dr *Driver) Import(root *svaop.Node, opts Options) (*circuit.Cell, error) {
	b := dr.Builder

	atNode, hasAt := circuit.AstDriver(dr.Netlist, root.Input)

	// Asynchronous immediate assertion/assumption/cover: no clock tree above
	// the expression, the monitor cell samples it directly.
	if !hasAt && (root.Kind == svaop.KindImmediateAssert ||
		root.Kind == svaop.KindImmediateAssume || root.Kind == svaop.KindImmediateCover) {
		sigA := dr.Netlist.SigOf(root.Input)
		var c circuit.Cell
		if opts.ModeAssert {
			c = b.AddAssert(opts.Name, sigA, circuit.S1)
		}
		if opts.ModeAssume {
			c = b.AddAssume(opts.Name, sigA, circuit.S1)
		}
		if opts.ModeCover {
			c = b.AddCover(opts.Name, sigA, circuit.S1)
		}
		return &c, nil
	}

	if !hasAt || atNode.Kind != svaop.KindAt {
		panic("property: root input is not an SVA clocking node")
	}

	clock, clockpol := dr.clockEdge(atNode.Input1)

	// Peel eventually/disable_iff prefixes off the clocked expression. The
	// loop shape leaves room for more one-input wrappers.

	disableIff := circuit.S0
	eventually := false
	net := atNode.Input2

	for {
		seqNode, ok := circuit.AstDriver(dr.Netlist, net)
		if !ok {
			break
		}

		if seqNode.Kind == svaop.KindSEventually {
			eventually = true
			net = seqNode.Input
			continue
		}

		if seqNode.Kind == svaop.KindDisableIff {
			disableIff = dr.Netlist.SigOf(seqNode.Input1)
			net = seqNode.Input2
			continue
		}

		break
	}

	var propOkay circuit.Signal
	inst, hasInst := circuit.AstDriver(dr.Netlist, net)

	switch {
	case !hasInst:
		propOkay = dr.Netlist.SigOf(net)

	case inst.Kind == svaop.KindOverlappedImplication ||
		inst.Kind == svaop.KindNonOverlappedImplication:
		var err error
		propOkay, err = dr.implication(inst, clock, clockpol, disableIff, opts)
		if err != nil {
			return nil, err
		}

	case inst.Kind == svaop.KindNot || opts.ModeCover:
		seqNet := net
		if !opts.ModeCover {
			seqNet = inst.Input
		}

		f := fsm.New(b, clock, clockpol, disableIff, circuit.S1)
		lw := dr.lowerer(f, opts)
		node, err := lw.Sequence(f.StartNode, seqNet)
		if err != nil {
			return nil, err
		}
		f.CreateLinkPlain(node, f.AcceptNode)
		accept := f.GetAccept()
		dr.dump(f, opts, "sequence")

		if opts.ModeCover {
			propOkay = accept
		} else {
			propOkay = b.Not(accept)
		}

	case inst.Kind == svaop.KindSeqConcat || inst.Kind == svaop.KindConsecutiveRepeat ||
		inst.Kind == svaop.KindThroughout:
		// Bare sequence under assert/assume: the property fails in any cycle
		// where a match starting there can no longer complete.
		f := fsm.New(b, clock, clockpol, disableIff, circuit.S1)
		lw := dr.lowerer(f, opts)
		node, err := lw.Sequence(f.StartNode, net)
		if err != nil {
			return nil, err
		}
		f.CreateLinkPlain(node, f.AcceptNode)
		reject, err := f.GetReject()
		if err != nil {
			return nil, err
		}
		dr.dump(f, opts, "sequence")
		propOkay = b.Not(reject)

	default:
		err := &UnsupportedError{
			Msg: fmt.Sprintf("SVA primitive %s is currently unsupported in property position", inst.Kind),
			Pos: inst.Pos,
		}
		if !opts.ModeKeep {
			return nil, err
		}
		dr.logger().Warn("skipping unsupported SVA property", "op", inst.Kind.String(), "pos", inst.Pos.String())
		return nil, nil
	}

	// Final FF stage: the monitor samples the registered property value, so
	// a single-cycle violation is held for the backend to observe.

	init := 1
	if opts.ModeCover {
		init = 0
	}
	propOkayQ := b.AddWire()
	b.Dff(clock, clockpol, propOkay, propOkayQ, init)

	if eventually {
		return nil, &UnsupportedError{Msg: "no support for eventually in clocked properties yet", Pos: root.Pos}
	}

	var c circuit.Cell
	if opts.ModeAssert {
		c = b.AddAssert(opts.Name, propOkayQ, circuit.S1)
	}
	if opts.ModeAssume {
		c = b.AddAssume(opts.Name, propOkayQ, circuit.S1)
	}
	if opts.ModeCover {
		c = b.AddCover(opts.Name, propOkayQ, circuit.S1)
	}
	return &c, nil
}

// implication builds the antecedent and consequent FSMs of |-> or |=>,
// extending the antecedent with the until latch when the consequent is an
// until-family operator, and returns the combined prop_okay signal.
func (dr *Driver) implication(inst *svaop.Node, clock circuit.Signal, clockpol bool, disableIff circuit.Signal, opts Options) (circuit.Signal, error) {
	b := dr.Builder
	antecedentNet := inst.Input1
	consequentNet := inst.Input2

	antecedentFsm := fsm.New(b, clock, clockpol, disableIff, circuit.S1)
	lw := dr.lowerer(antecedentFsm, opts)
	node, err := lw.Sequence(antecedentFsm.StartNode, antecedentNet)
	if err != nil {
		return circuit.S0, err
	}
	if inst.Kind == svaop.KindNonOverlappedImplication {
		next := antecedentFsm.CreateNode()
		antecedentFsm.CreateEdge(node, next)
		node = next
	}
	antecedentFsm.CreateLinkPlain(node, antecedentFsm.AcceptNode)

	antecedentMatch := antecedentFsm.GetAccept()
	dr.dump(antecedentFsm, opts, "antecedent")

	consequentNot := false
	consequentInst, hasConsequent := circuit.AstDriver(dr.Netlist, consequentNet)

	if hasConsequent && consequentInst.Kind == svaop.KindNot {
		consequentNot = true
		consequentNet = consequentInst.Input
		consequentInst, hasConsequent = circuit.AstDriver(dr.Netlist, consequentNet)
	}

	if hasConsequent && isUntilKind(consequentInst.Kind) {
		untilWith := consequentInst.Kind == svaop.KindUntilWith ||
			consequentInst.Kind == svaop.KindSUntilWith
		consequentNet = consequentInst.Input1
		untilNet := consequentInst.Input2

		untilFsm := fsm.New(b, clock, clockpol, disableIff, circuit.S1)
		ulw := dr.lowerer(untilFsm, opts)
		node, err = ulw.Sequence(untilFsm.StartNode, untilNet)
		if err != nil {
			return circuit.S0, err
		}
		if untilWith {
			next := untilFsm.CreateNode()
			untilFsm.CreateEdge(node, next)
			node = next
		}
		untilFsm.CreateLinkPlain(node, untilFsm.AcceptNode)

		untilMatch := untilFsm.GetAccept()
		dr.dump(untilFsm, opts, "until")
		notUntilMatch := b.Not(untilMatch)

		// Latch the antecedent match: it stays live until the until
		// condition fires.
		extendAntecedentMatchQ := b.AddWire()
		antecedentMatch = b.Or(antecedentMatch, extendAntecedentMatchQ)
		extendAntecedentMatch := b.And(notUntilMatch, antecedentMatch)
		b.Dff(clock, clockpol, extendAntecedentMatch, extendAntecedentMatchQ, 0)
	}

	consequentFsm := fsm.New(b, clock, clockpol, disableIff, antecedentMatch)
	clw := dr.lowerer(consequentFsm, opts)
	node, err = clw.Sequence(consequentFsm.StartNode, consequentNet)
	if err != nil {
		return circuit.S0, err
	}
	consequentFsm.CreateLinkPlain(node, consequentFsm.AcceptNode)

	var propOkay circuit.Signal
	if opts.ModeCover {
		if consequentNot {
			reject, err := consequentFsm.GetReject()
			if err != nil {
				return circuit.S0, err
			}
			propOkay = reject
		} else {
			propOkay = consequentFsm.GetAccept()
		}
	} else {
		var consequentMatch circuit.Signal
		if consequentNot {
			consequentMatch = consequentFsm.GetAccept()
		} else {
			var err error
			consequentMatch, err = consequentFsm.GetReject()
			if err != nil {
				return circuit.S0, err
			}
		}
		propOkay = b.Not(consequentMatch)
	}
	dr.dump(consequentFsm, opts, "consequent")

	return propOkay, nil
}

func isUntilKind(k svaop.Kind) bool {
	return k == svaop.KindUntil || k == svaop.KindSUntil ||
		k == svaop.KindUntilWith || k == svaop.KindSUntilWith
}

func (dr *Driver) lowerer(f *fsm.Fsm, opts Options) *lower.Lowerer {
	return &lower.Lowerer{Fsm: f, Importer: dr.Netlist, Keep: opts.ModeKeep, Log: dr.Log}
}

// dump writes the automaton state of one materialized sub-FSM when the
// property asked for verbose output.
func (dr *Driver) dump(f *fsm.Fsm, opts Options, role string) {
	if !opts.Verbose || dr.DumpTo == nil {
		return
	}
	dr.logger().Info("dumping FSM", "property", opts.Name, "role", role, "fsm", f.ID.String())
	diag.Dump(dr.DumpTo, f, diag.Options{Namer: dr.Namer, LineWidth: opts.LineWidth, Tag: opts.Name + "/" + role})
}

// clockEdge resolves the clock expression under an at node to a signal bit
// and edge polarity. A posedge wrapper selects the rising edge; a bare
// signal is taken as a rising-edge clock directly. Full clock-tree
// extraction is the upstream importer's job.
func (dr *Driver) clockEdge(net svaop.Net) (circuit.Signal, bool) {
	if inst, ok := circuit.AstDriver(dr.Netlist, net); ok && inst.Kind == svaop.KindPosedge {
		return dr.Netlist.SigOf(inst.Input), true
	}
	return dr.Netlist.SigOf(net), true
}
