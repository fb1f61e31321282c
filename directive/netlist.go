package directive

import (
	"fmt"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/svaop"
)

type netEntry struct {
	node *svaop.Node
	sig  circuit.Signal
}

// Netlist is the script-side stand-in for the upstream netlist importer:
// every net either carries a module input signal (a leaf expression named in
// the script) or is driven by one svaop node. It implements
// circuit.Importer.
type Netlist struct {
	module  *circuit.Module
	entries map[svaop.Net]netEntry
	signals map[string]svaop.Net
	names   map[circuit.Signal]string
	next    svaop.Net
}

// NewNetlist creates an empty netlist allocating its input signals on m.
func NewNetlist(m *circuit.Module) *Netlist {
	return &Netlist{
		module:  m,
		entries: map[svaop.Net]netEntry{},
		signals: map[string]svaop.Net{},
		names:   map[circuit.Signal]string{},
		next:    svaop.NoNet + 1,
	}
}

func (nl *Netlist) alloc(e netEntry) svaop.Net {
	net := nl.next
	nl.next++
	nl.entries[net] = e
	return net
}

// SignalNet returns the net carrying the module input named name, creating
// the input on first reference.
func (nl *Netlist) SignalNet(name string) svaop.Net {
	if net, ok := nl.signals[name]; ok {
		return net
	}
	sig := nl.module.NewInput(name)
	net := nl.alloc(netEntry{node: nil, sig: sig})
	nl.signals[name] = net
	nl.names[sig] = name
	return net
}

// NodeNet allocates a fresh net driven by node.
func (nl *Netlist) NodeNet(node *svaop.Node) svaop.Net {
	return nl.alloc(netEntry{node: node, sig: circuit.Sx})
}

// Signal returns the input signal behind name, creating it if needed.
func (nl *Netlist) Signal(name string) circuit.Signal {
	return nl.entries[nl.SignalNet(name)].sig
}

// Namer resolves signals back to their script names, for diagnostic dumps.
func (nl *Netlist) Namer() func(circuit.Signal) string {
	return func(s circuit.Signal) string {
		if name, ok := nl.names[s]; ok {
			return name
		}
		return s.String()
	}
}

// DriverOf implements circuit.Importer.
func (nl *Netlist) DriverOf(net svaop.Net) (*svaop.Node, bool) {
	e, ok := nl.entries[net]
	if !ok || e.node == nil {
		return nil, false
	}
	return e.node, true
}

// SigOf implements circuit.Importer. Asking for the signal of a node-driven
// net is a bug in the calling core code.
func (nl *Netlist) SigOf(net svaop.Net) circuit.Signal {
	e, ok := nl.entries[net]
	if !ok {
		panic(fmt.Sprintf("directive: unknown net %d", net))
	}
	if e.node != nil {
		panic(fmt.Sprintf("directive: net %d is driven by %s, not a signal", net, e.node.Kind))
	}
	return e.sig
}
