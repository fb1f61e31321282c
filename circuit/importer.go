package circuit

import "github.com/gromero/svafsm/svaop"

// Importer is the upstream netlist importer's interface, consumed but never
// implemented by the core. DriverOf resolves a net to the SVA primitive node
// driving it, or reports that there is none — either because the net is a
// plain signal with no SVA driver, or because the netlist reports it as
// multiply-driven, which the importer treats identically to "no driver".
// SigOf maps a net to the host-module signal bit it corresponds to.
type Importer interface {
	DriverOf(net svaop.Net) (*svaop.Node, bool)
	SigOf(net svaop.Net) Signal
}

// AstDriver resolves net to its usable SVA driver: on top of whatever
// DriverOf already treats as "no driver", it additionally rejects the kinds
// that are never usable as a driver in sequence position (ROSE, FELL,
// STABLE, PAST), folding them into the same "no driver" leaf path used for
// genuinely undriven nets.
func AstDriver(imp Importer, net svaop.Net) (*svaop.Node, bool) {
	if net == svaop.NoNet {
		return nil, false
	}
	node, ok := imp.DriverOf(net)
	if !ok || node == nil {
		return nil, false
	}
	if svaop.IsLeaf(node.Kind) {
		return nil, false
	}
	return node, true
}
