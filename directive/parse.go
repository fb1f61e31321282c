// Package directive parses the indentation-based block scripts the CLI and
// test-suite use to describe SVA properties, and compiles them into svaop
// operator trees over an in-memory netlist. It stands in for the real
// upstream netlist importer, which is an external collaborator.
package directive

import (
	"fmt"
	"strings"
)

// CommandArg is one inline argument of a command line: a bare word or a
// (...) verbatim group.
type CommandArg interface {
	toString() string
}

type WordArg struct {
	word string
}

func (self *WordArg) toString() string {
	return self.word
}

type VerbatimArg struct {
	content string
}

func (self *VerbatimArg) toString() string {
	return "(" + self.content + ")"
}

// Command is one parsed script line: an operator word, +flags, and inline
// arguments.
type Command struct {
	operator   string
	flags      []string
	inlineArgs []CommandArg
}

func (cmd *Command) hasFlag(flag string) bool {
	for _, name := range cmd.flags {
		if name == flag {
			return true
		}
	}
	return false
}

func (cmd *Command) arg(i int) (CommandArg, error) {
	if i >= len(cmd.inlineArgs) {
		return nil, fmt.Errorf("too few arguments, expecting at least %d arguments to %s", i+1, cmd.operator)
	}
	return cmd.inlineArgs[i], nil
}

func (cmd *Command) wordArg(i int) (string, error) {
	arg, err := cmd.arg(i)
	if err != nil {
		return "", err
	}
	word, ok := arg.(*WordArg)
	if !ok {
		return "", fmt.Errorf("malformed argument, expecting word at index %d to %s", i, cmd.operator)
	}
	return word.word, nil
}

func (cmd *Command) fixArgs(n int) error {
	if len(cmd.inlineArgs) != n {
		return fmt.Errorf("expecting %d arguments to %s, found %d", n, cmd.operator, len(cmd.inlineArgs))
	}
	return nil
}

func parseCommand(str string) (Command, error) {
	operatorRest := strings.SplitN(str, " ", 2)

	inlineArgs := make([]CommandArg, 0)
	flags := make([]string, 0)
	i := 0
	for len(operatorRest) > 1 && i < len(operatorRest[1]) {
		if operatorRest[1][i] == ' ' {
			i += 1
			continue
		}

		if operatorRest[1][i] == '(' {
			i += 1
			start := i
			depth := 1
			for i < len(operatorRest[1]) && (operatorRest[1][i] != ')' || depth > 1) {
				if operatorRest[1][i] == '(' {
					depth += 1
				} else if operatorRest[1][i] == ')' {
					depth -= 1
				}
				i += 1
			}
			if i >= len(operatorRest[1]) || depth != 1 || operatorRest[1][i] != ')' {
				return Command{}, fmt.Errorf("unclosed verbatim")
			}
			inlineArgs = append(inlineArgs, &VerbatimArg{
				content: operatorRest[1][start:i],
			})

			i += 1 // Closing ')'
		} else {
			start := i
			for i < len(operatorRest[1]) && operatorRest[1][i] != ' ' {
				i += 1
			}
			word := operatorRest[1][start:i]
			if strings.HasPrefix(word, "+") {
				flags = append(flags, word[1:])
			} else {
				inlineArgs = append(inlineArgs, &WordArg{
					word: word,
				})
			}
		}
	}

	return Command{
		operator:   operatorRest[0],
		inlineArgs: inlineArgs,
		flags:      flags,
	}, nil
}

// Block is one command plus its indented sub-blocks.
type Block struct {
	first Command
	body  []Block
}

func lineDepth(line string) int {
	for c, chr := range line {
		if chr != ' ' {
			return c / 4
		}
	}
	return -1
}

func parseBlocks(lines []string, depth int) (int, []Block, error) {
	blocks := make([]Block, 0)
	l := 0
	for l < len(lines) {
		line := lines[l]

		if len(strings.Trim(line, " \t")) == 0 {
			l += 1
			continue
		}

		lineDepth := lineDepth(line)
		if lineDepth < depth {
			return l, blocks, nil
		}

		if lineDepth > depth {
			return 0, nil, fmt.Errorf("unexpected indent on line %q", strings.Trim(line, " \t"))
		}

		incL, body, err := parseBlocks(lines[l+1:], depth+1)
		if err != nil {
			return 0, nil, err
		}

		first, err := parseCommand(strings.Trim(line, " \t"))
		if err != nil {
			return 0, nil, err
		}

		blocks = append(blocks, Block{
			first: first,
			body:  body,
		})

		l += 1 + incL
	}
	return l, blocks, nil
}

// Parse parses a whole script into its top-level blocks.
func Parse(src string) ([]Block, error) {
	_, blocks, err := parseBlocks(strings.Split(src, "\n"), 0)
	return blocks, err
}
