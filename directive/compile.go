package directive

import (
	"fmt"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/svaop"
)

// Prop is one compiled property directive: the operator tree root plus the
// per-property mode flags for the driver.
type Prop struct {
	Name string
	Root *svaop.Node

	Assert bool
	Assume bool
	Cover  bool

	Keep    bool
	Verbose bool
}

// Script is a fully compiled directive script: the netlist all property
// trees hang off, and the properties in declaration order.
type Script struct {
	Netlist *Netlist
	Props   []Prop
}

// Load parses and compiles a directive script, allocating the input signals
// it names on m.
func Load(src string, m *circuit.Module) (*Script, error) {
	blocks, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Compile(blocks, m)
}

type compiler struct {
	nl *Netlist

	clock   string
	disable string
}

// Compile walks the top-level blocks: clock/disable set ambient state for
// the property directives that follow them.
func Compile(blocks []Block, m *circuit.Module) (*Script, error) {
	c := &compiler{nl: NewNetlist(m)}
	script := &Script{Netlist: c.nl}

	for _, block := range blocks {
		switch block.first.operator {
		case "clock":
			if err := c.setClock(&block.first); err != nil {
				return nil, err
			}

		case "disable":
			if len(block.first.inlineArgs) == 0 {
				c.disable = ""
				continue
			}
			sig, err := block.first.wordArg(0)
			if err != nil {
				return nil, err
			}
			c.disable = sig

		case "assert", "assume", "cover":
			prop, err := c.property(&block)
			if err != nil {
				return nil, err
			}
			script.Props = append(script.Props, prop)

		case "immediate_assert", "immediate_assume", "immediate_cover":
			prop, err := c.immediate(&block)
			if err != nil {
				return nil, err
			}
			script.Props = append(script.Props, prop)

		default:
			return nil, fmt.Errorf("directive: unknown operator %s", block.first.operator)
		}
	}

	return script, nil
}

func (c *compiler) setClock(cmd *Command) error {
	first, err := cmd.wordArg(0)
	if err != nil {
		return err
	}
	switch len(cmd.inlineArgs) {
	case 1:
		c.clock = first
		return nil
	case 2:
		if first != "posedge" {
			return fmt.Errorf("directive: unsupported clock edge %s", first)
		}
		c.clock, err = cmd.wordArg(1)
		return err
	default:
		return fmt.Errorf("directive: expecting clock [posedge] <signal>")
	}
}

func (c *compiler) immediate(block *Block) (Prop, error) {
	if err := block.first.fixArgs(2); err != nil {
		return Prop{}, err
	}
	name, err := block.first.wordArg(0)
	if err != nil {
		return Prop{}, err
	}
	sig, err := block.first.wordArg(1)
	if err != nil {
		return Prop{}, err
	}

	var kind svaop.Kind
	switch block.first.operator {
	case "immediate_assert":
		kind = svaop.KindImmediateAssert
	case "immediate_assume":
		kind = svaop.KindImmediateAssume
	case "immediate_cover":
		kind = svaop.KindImmediateCover
	}

	prop := Prop{
		Name: name,
		Root: &svaop.Node{Kind: kind, Input: c.nl.SignalNet(sig)},
	}
	c.modes(block, &prop)
	return prop, nil
}

func (c *compiler) property(block *Block) (Prop, error) {
	if c.clock == "" {
		return Prop{}, fmt.Errorf("directive: %s before any clock directive", block.first.operator)
	}
	name, err := block.first.wordArg(0)
	if err != nil {
		return Prop{}, err
	}

	body := block.body
	eventually := false
	if len(body) > 0 && body[0].first.operator == "eventually" {
		eventually = true
		body = body[1:]
	}

	propNet, err := c.propertyExpr(body)
	if err != nil {
		return Prop{}, fmt.Errorf("directive: in %s: %w", name, err)
	}

	if eventually {
		propNet = c.nl.NodeNet(&svaop.Node{Kind: svaop.KindSEventually, Input: propNet})
	}
	if c.disable != "" {
		propNet = c.nl.NodeNet(&svaop.Node{
			Kind:   svaop.KindDisableIff,
			Input1: c.nl.SignalNet(c.disable),
			Input2: propNet,
		})
	}

	clockNet := c.nl.NodeNet(&svaop.Node{Kind: svaop.KindPosedge, Input: c.nl.SignalNet(c.clock)})
	atNet := c.nl.NodeNet(&svaop.Node{Kind: svaop.KindAt, Input1: clockNet, Input2: propNet})

	var kind svaop.Kind
	switch block.first.operator {
	case "assert":
		kind = svaop.KindAssert
	case "assume":
		kind = svaop.KindAssume
	case "cover":
		kind = svaop.KindCover
	}

	prop := Prop{
		Name: name,
		Root: &svaop.Node{Kind: kind, Input: atNet},
	}
	c.modes(block, &prop)
	return prop, nil
}

func (c *compiler) modes(block *Block, prop *Prop) {
	switch block.first.operator {
	case "assert", "immediate_assert":
		prop.Assert = true
	case "assume", "immediate_assume":
		prop.Assume = true
	case "cover", "immediate_cover":
		prop.Cover = true
	}
	prop.Keep = block.first.hasFlag("keep")
	prop.Verbose = block.first.hasFlag("verbose")
}

// propertyExpr compiles a property body: an optional implication splitting
// antecedent from consequent, with not/until handled on the consequent side.
func (c *compiler) propertyExpr(blocks []Block) (svaop.Net, error) {
	arrow := -1
	var arrowKind svaop.Kind
	for i, block := range blocks {
		switch block.first.operator {
		case "|->":
			arrow, arrowKind = i, svaop.KindOverlappedImplication
		case "|=>":
			arrow, arrowKind = i, svaop.KindNonOverlappedImplication
		default:
			continue
		}
		if err := block.first.fixArgs(0); err != nil {
			return svaop.NoNet, err
		}
		break
	}

	if arrow < 0 {
		return c.consequentExpr(blocks)
	}

	antecedent, err := c.sequenceExpr(blocks[:arrow])
	if err != nil {
		return svaop.NoNet, err
	}
	consequent, err := c.consequentExpr(blocks[arrow+1:])
	if err != nil {
		return svaop.NoNet, err
	}

	return c.nl.NodeNet(&svaop.Node{Kind: arrowKind, Input1: antecedent, Input2: consequent}), nil
}

// consequentExpr compiles [not] seq... [until...], the shapes the driver
// strips off a consequent. The same grammar serves bare not-sequence bodies.
func (c *compiler) consequentExpr(blocks []Block) (svaop.Net, error) {
	not := false
	if len(blocks) > 0 && blocks[0].first.operator == "not" {
		if err := blocks[0].first.fixArgs(0); err != nil {
			return svaop.NoNet, err
		}
		not = true
		blocks = blocks[1:]
	}

	var untilBlock *Block
	if n := len(blocks); n > 0 {
		if _, ok := untilKind(blocks[n-1].first.operator); ok {
			untilBlock = &blocks[n-1]
			blocks = blocks[:n-1]
		}
	}

	net, err := c.sequenceExpr(blocks)
	if err != nil {
		return svaop.NoNet, err
	}

	if untilBlock != nil {
		kind, _ := untilKind(untilBlock.first.operator)
		untilNet, err := c.untilOperand(untilBlock)
		if err != nil {
			return svaop.NoNet, err
		}
		net = c.nl.NodeNet(&svaop.Node{Kind: kind, Input1: net, Input2: untilNet})
	}

	if not {
		net = c.nl.NodeNet(&svaop.Node{Kind: svaop.KindNot, Input: net})
	}
	return net, nil
}

func untilKind(op string) (svaop.Kind, bool) {
	switch op {
	case "until":
		return svaop.KindUntil, true
	case "s_until":
		return svaop.KindSUntil, true
	case "until_with":
		return svaop.KindUntilWith, true
	case "s_until_with":
		return svaop.KindSUntilWith, true
	}
	return svaop.KindUnknown, false
}

// untilOperand is either an inline signal word or an indented sub-sequence.
func (c *compiler) untilOperand(block *Block) (svaop.Net, error) {
	if len(block.body) > 0 {
		if err := block.first.fixArgs(0); err != nil {
			return svaop.NoNet, err
		}
		return c.sequenceExpr(block.body)
	}
	sig, err := block.first.wordArg(0)
	if err != nil {
		return svaop.NoNet, err
	}
	return c.nl.SignalNet(sig), nil
}

type pendingDelay struct {
	low     int
	high    int
	highInf bool
}

// sequenceExpr compiles a flat run of sequence blocks into a net: atoms
// (seq/repeat/throughout) joined left-to-right by ## delay nodes.
func (c *compiler) sequenceExpr(blocks []Block) (svaop.Net, error) {
	cur := svaop.NoNet
	var delay *pendingDelay

	attach := func(atom svaop.Net) error {
		if cur == svaop.NoNet {
			if delay != nil {
				return fmt.Errorf("## before first sequence element")
			}
			cur = atom
			return nil
		}
		if delay == nil {
			return fmt.Errorf("missing ## between sequence elements")
		}
		cur = c.nl.NodeNet(&svaop.Node{
			Kind:    svaop.KindSeqConcat,
			Input1:  cur,
			Input2:  atom,
			Low:     delay.low,
			High:    delay.high,
			HighInf: delay.highInf,
		})
		delay = nil
		return nil
	}

	for i := range blocks {
		block := &blocks[i]
		switch block.first.operator {
		case "seq":
			sig, err := block.first.wordArg(0)
			if err != nil {
				return svaop.NoNet, err
			}
			if err := attach(c.nl.SignalNet(sig)); err != nil {
				return svaop.NoNet, err
			}

		case "##":
			if delay != nil {
				return svaop.NoNet, fmt.Errorf("consecutive ## delays")
			}
			d, err := c.delay(&block.first)
			if err != nil {
				return svaop.NoNet, err
			}
			delay = d

		case "repeat":
			atom, err := c.repeat(block)
			if err != nil {
				return svaop.NoNet, err
			}
			if err := attach(atom); err != nil {
				return svaop.NoNet, err
			}

		case "throughout":
			sig, err := block.first.wordArg(0)
			if err != nil {
				return svaop.NoNet, err
			}
			body, err := c.sequenceExpr(block.body)
			if err != nil {
				return svaop.NoNet, err
			}
			atom := c.nl.NodeNet(&svaop.Node{
				Kind:   svaop.KindThroughout,
				Input1: c.nl.SignalNet(sig),
				Input2: body,
			})
			if err := attach(atom); err != nil {
				return svaop.NoNet, err
			}

		default:
			return svaop.NoNet, fmt.Errorf("unknown sequence operator %s", block.first.operator)
		}
	}

	if cur == svaop.NoNet {
		return svaop.NoNet, fmt.Errorf("empty sequence")
	}
	if delay != nil {
		return svaop.NoNet, fmt.Errorf("trailing ## delay")
	}
	return cur, nil
}

// delay parses "## L" or "## L H" with "$" as the unbounded high sentinel.
func (c *compiler) delay(cmd *Command) (*pendingDelay, error) {
	lowWord, err := cmd.wordArg(0)
	if err != nil {
		return nil, err
	}
	var low int
	if _, err := fmt.Sscanf(lowWord, "%d", &low); err != nil {
		return nil, fmt.Errorf("malformed ## low bound %q", lowWord)
	}

	highWord := lowWord
	if len(cmd.inlineArgs) > 1 {
		highWord, err = cmd.wordArg(1)
		if err != nil {
			return nil, err
		}
	}

	lo, hi, inf, err := svaop.Range(low, highWord)
	if err != nil {
		return nil, err
	}
	return &pendingDelay{low: lo, high: hi, highInf: inf}, nil
}

// repeat parses "repeat L H" with an indented body sequence.
func (c *compiler) repeat(block *Block) (svaop.Net, error) {
	if err := block.first.fixArgs(2); err != nil {
		return svaop.NoNet, err
	}
	lowWord, err := block.first.wordArg(0)
	if err != nil {
		return svaop.NoNet, err
	}
	var low int
	if _, err := fmt.Sscanf(lowWord, "%d", &low); err != nil {
		return svaop.NoNet, fmt.Errorf("malformed repeat low bound %q", lowWord)
	}
	highWord, err := block.first.wordArg(1)
	if err != nil {
		return svaop.NoNet, err
	}
	lo, hi, inf, err := svaop.Range(low, highWord)
	if err != nil {
		return svaop.NoNet, err
	}

	body, err := c.sequenceExpr(block.body)
	if err != nil {
		return svaop.NoNet, err
	}

	return c.nl.NodeNet(&svaop.Node{
		Kind:    svaop.KindConsecutiveRepeat,
		Input:   body,
		Low:     lo,
		High:    hi,
		HighInf: inf,
	}), nil
}

var _ circuit.Importer = (*Netlist)(nil)
