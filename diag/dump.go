package diag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/fsm"
)

// Options configures a dump. The zero value renders with Signal.String
// names, an 80-column wrap and a correlation tag derived from the FSM's id.
type Options struct {
	// Namer maps a signal bit to its display name. Names are NFC-normalized
	// before formatting so dumps are byte-stable across platforms that hand
	// the importer differently-normalized Unicode.
	Namer func(circuit.Signal) string

	// LineWidth is the wrap column for long control expressions.
	LineWidth int

	// Tag is the correlation tag prefixed to every line, so the antecedent,
	// until and consequent dumps of one property can be told apart in a log
	// stream. Empty means the first eight hex digits of the FSM's id.
	Tag string
}

func (o Options) namer() func(circuit.Signal) string {
	if o.Namer != nil {
		inner := o.Namer
		return func(s circuit.Signal) string {
			return norm.NFC.String(inner(s))
		}
	}
	return func(s circuit.Signal) string { return s.String() }
}

func (o Options) lineWidth() int {
	if o.LineWidth > 0 {
		return o.LineWidth
	}
	return 80
}

func (o Options) tag(f *fsm.Fsm) string {
	if o.Tag != "" {
		return o.Tag
	}
	return strings.ReplaceAll(f.ID.String(), "-", "")[:8]
}

// StateTag returns the short stable name of a DFSM state key, the first
// eight hex digits of its SHA-256. It only ever appears in dumps; subset
// construction itself keys on the sorted id vector.
func StateTag(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// Dump renders every encoding f has produced so far: the NFSM always, and
// the UFSM/DFSM when f was materialized through GetReject. One automaton
// per section, one node per indented block.
func Dump(w io.Writer, f *fsm.Fsm, opts Options) {
	name := opts.namer()
	width := opts.lineWidth()
	tag := opts.tag(f)

	emit := func(indent int, stream tokenStream) {
		prefix := tag + ": " + strings.Repeat(" ", indent*2)
		full := append(tokenStream{&nameToken{content: prefix}}, stream...)
		io.WriteString(w, formatStream(full, width))
	}
	text := func(indent int, s string) {
		emit(indent, tokenStream{&nameToken{content: s}})
	}

	text(0, "non-deterministic encoding:")
	for i := 0; i < f.NumNodes(); i++ {
		n := fsm.NodeID(i)
		text(1, fmt.Sprintf("node %d:%s", i, nodeMark(f, n)))

		for _, e := range f.Edges(n) {
			emit(2, transitionStream("edge", ctrlBitStream(e.Ctrl, name), fmt.Sprintf("%d", e.Target)))
		}
		for _, l := range f.Links(n) {
			emit(2, transitionStream("link", ctrlBitStream(l.Ctrl, name), fmt.Sprintf("%d", l.Target)))
		}
	}

	u, ok := f.LastUfsm()
	if !ok {
		return
	}

	text(0, "unlinked non-deterministic encoding:")
	for i := 0; i < u.NumNodes(); i++ {
		n := fsm.NodeID(i)
		if !u.Reachable(n) {
			continue
		}
		mark := ""
		if n == f.StartNode {
			mark = " [start]"
		}
		text(1, fmt.Sprintf("unode %d:%s", i, mark))

		for _, e := range u.Edges(n) {
			emit(2, transitionStream("edge", ctrlSetStream(e.Ctrl, name), fmt.Sprintf("%d", e.Target)))
		}
		for _, a := range u.Accepts(n) {
			stream := tokenStream{&nameToken{content: "accept"}}
			if len(a) > 0 {
				stream = append(stream, &whiteSpaceToken{}, braced(signalListStream(a, name)))
			}
			emit(2, stream)
		}
	}

	d, ok := f.LastDfsm()
	if !ok {
		return
	}

	text(0, "deterministic encoding:")
	for _, s := range d.Order {
		mark := ""
		if s == d.Start {
			mark = " [start]"
		}
		text(1, fmt.Sprintf("dnode %s {%s}:%s", StateTag(s.Key()), s.Key(), mark))

		if len(s.Ctrl) > 0 {
			emit(2, tokenStream{
				&nameToken{content: "ctrl"},
				&whiteSpaceToken{},
				braced(signalListStream(s.Ctrl, name)),
			})
		}

		valStream := func(v int) tokenStream {
			if len(s.Ctrl) == 0 {
				return nil
			}
			return tokenStream{&nameToken{content: constName(len(s.Ctrl), v)}}
		}
		valText := func(kind string, v int) string {
			if len(s.Ctrl) == 0 {
				return kind
			}
			return kind + " " + constName(len(s.Ctrl), v)
		}

		for _, e := range s.Edges {
			emit(2, transitionStream("edge", valStream(e.Val),
				fmt.Sprintf("%s {%s}", StateTag(e.Next.Key()), e.Next.Key())))
		}
		for _, v := range s.Accept {
			text(2, valText("accept", v))
		}
		for _, v := range s.Reject {
			text(2, valText("reject", v))
		}
	}
}

func nodeMark(f *fsm.Fsm, n fsm.NodeID) string {
	switch n {
	case f.StartNode:
		return " [start]"
	case f.AcceptNode:
		return " [accept]"
	}
	return ""
}

// transitionStream renders "kind [cond ]-> target" with the arrow as a
// breakable operator token.
func transitionStream(kind string, cond tokenStream, target string) tokenStream {
	stream := tokenStream{&nameToken{content: kind}}
	if len(cond) > 0 {
		stream = append(stream, &whiteSpaceToken{})
		stream = append(stream, cond...)
	}
	return append(stream,
		&whiteSpaceToken{},
		&operatorToken{operator: "->"},
		&whiteSpaceToken{},
		&nameToken{content: target},
	)
}

// ctrlBitStream renders a single NFSM ctrl bit, or nothing for the
// unconditional S1.
func ctrlBitStream(ctrl circuit.Signal, name func(circuit.Signal) string) tokenStream {
	if ctrl == circuit.S1 {
		return nil
	}
	return tokenStream{&nameToken{content: name(ctrl)}}
}

// ctrlSetStream renders a UFSM ctrl set as a braced conjunction, or nothing
// when the set is empty (unconditional).
func ctrlSetStream(ctrl fsm.CtrlSet, name func(circuit.Signal) string) tokenStream {
	if len(ctrl) == 0 {
		return nil
	}
	return tokenStream{braced(signalListStream(ctrl, name))}
}

func signalListStream(sigs []circuit.Signal, name func(circuit.Signal) string) tokenStream {
	var stream tokenStream
	for i, s := range sigs {
		if i > 0 {
			stream = append(stream, &operatorToken{operator: ","}, &whiteSpaceToken{})
		}
		stream = append(stream, &nameToken{content: name(s)})
	}
	return stream
}

// constName formats a ctrl valuation the way hardware people read them:
// width'b with the highest ctrl bit leftmost.
func constName(width, v int) string {
	if width == 0 {
		return "0'b"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d'b", width)
	for i := width - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
