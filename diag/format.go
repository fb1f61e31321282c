// Package diag renders the NFSM/UFSM/DFSM state of a materialized property
// automaton as text, for the verbose mode and for golden tests. Long control
// expressions are wrapped by a small token-stream formatter.
package diag

import (
	"slices"
	"strings"
)

type breakLoc = int

const (
	breakReplace = iota
	breakBefore
	breakAfter
	breakAround
)

type breakMode struct {
	loc  breakLoc
	prio int
}

type token interface {
	breakMode() breakMode
	toString() string
}

type tokenStream = []token

type nameToken struct {
	content string
}

func (name *nameToken) breakMode() breakMode {
	return breakMode{prio: -1}
}

func (name *nameToken) toString() string {
	return name.content
}

type operatorToken struct {
	operator string
}

func (op *operatorToken) breakMode() breakMode {
	switch op.operator {
	case "->":
		return breakMode{loc: breakAround, prio: 5}
	case "&&", ",":
		return breakMode{loc: breakAfter, prio: 4}
	case "{", "}":
		return breakMode{prio: -1}
	default:
		return breakMode{loc: breakAfter, prio: 1}
	}
}

func (op *operatorToken) toString() string {
	return op.operator
}

type bracketedToken struct {
	openBracket  byte
	closeBracket byte
	content      tokenStream
}

func (brack *bracketedToken) breakMode() breakMode {
	return breakMode{prio: -1}
}

func (brack *bracketedToken) toString() string {
	return string(brack.openBracket) + streamToString(brack.content) + string(brack.closeBracket)
}

type whiteSpaceToken struct{}

func (ws *whiteSpaceToken) breakMode() breakMode {
	return breakMode{loc: breakReplace, prio: 2}
}

func (ws *whiteSpaceToken) toString() string {
	return " "
}

func streamToString(stream tokenStream) string {
	str := ""
	for _, tok := range stream {
		str += tok.toString()
	}
	return str
}

func braced(stream tokenStream) token {
	return &bracketedToken{
		openBracket:  '{',
		closeBracket: '}',
		content:      stream,
	}
}

// Every bracket is either broken or not. Every whitespace is either broken
// or not, and has a priority. Nothing inside a bracket can be broken unless
// the bracket is broken.
//
// Repeatedly, for every line over the width:
//  1. If any bracket on the line is over-long, break it
//  2. Break at the highest priority breakable token (operator or
//     whitespace) if it exists (not nested), the one closest to the centre
//  3. Otherwise find the longest bracket and break it
//  4. Otherwise ignore this line

type line struct {
	tokens          tokenStream
	breakRangeStart int
	breakRangeEnd   int
	indent          int
}

func (ln *line) breakBrackets(i int, newLines *[]line) {
	brack := ln.tokens[i].(*bracketedToken)

	line1 := line{tokens: slices.Clone(ln.tokens[:i]), indent: ln.indent, breakRangeStart: ln.breakRangeStart, breakRangeEnd: i + 1}
	line1.tokens = append(line1.tokens, &operatorToken{operator: string(brack.openBracket)})
	line2 := line{tokens: brack.content, indent: ln.indent + 1, breakRangeStart: 0, breakRangeEnd: len(brack.content)}
	line3 := line{tokens: slices.Clone(ln.tokens[i+1:]), indent: ln.indent, breakRangeStart: 0, breakRangeEnd: ln.breakRangeEnd - i}
	line3.tokens = slices.Insert[[]token, token](line3.tokens, 0, &operatorToken{operator: string(brack.closeBracket)})

	*newLines = append(*newLines, line1, line2, line3)
}

// If any bracket on the line contains more than lineWidth chars, break the
// bracket and continue.
func (ln *line) checkBrackets(newLines *[]line, lineWidth int) bool {
	for i, tok := range ln.tokens {
		brack, ok := tok.(*bracketedToken)
		if !ok || len(streamToString(brack.content)) <= lineWidth {
			continue
		}
		ln.breakBrackets(i, newLines)
		return true
	}
	return false
}

func (ln *line) highestPrio() int {
	highestPrio := -1
	for _, tok := range ln.tokens[ln.breakRangeStart:ln.breakRangeEnd] {
		mode := tok.breakMode()
		if mode.prio > highestPrio {
			highestPrio = mode.prio
		}
	}
	return highestPrio
}

// Break along the highest priority token closest to the line's center, if
// one exists outside any bracket.
func (ln *line) chooseBreak(lineLen int) int {
	highestPrio := ln.highestPrio()
	if highestPrio == -1 {
		return -1
	}

	col := 0
	highPrioCenterI := -1
	highPrioCenter := 999999
	for i, tok := range ln.tokens {
		mode := tok.breakMode()
		add := len(tok.toString())
		if i < ln.breakRangeStart || i >= ln.breakRangeEnd || mode.prio != highestPrio {
			col += add
			continue
		}

		abs := func(a int) int {
			if a < 0 {
				return -a
			}
			return a
		}

		var d int
		switch mode.loc {
		case breakBefore, breakAround, breakReplace:
			d = abs(lineLen/2 - col)
		case breakAfter:
			d = abs(lineLen/2 - (col + add))
		default:
			panic("bad loc")
		}

		if d < highPrioCenter {
			highPrioCenter = d
			highPrioCenterI = i
		}
		col += add
	}

	return highPrioCenterI
}

func (ln *line) breakAt(idx int, newLines *[]line) {
	tok := ln.tokens[idx]
	loc := tok.breakMode().loc
	line1 := line{tokens: slices.Clone(ln.tokens[:idx]), indent: ln.indent, breakRangeStart: ln.breakRangeStart, breakRangeEnd: idx}
	line2 := line{tokens: slices.Clone(ln.tokens[idx+1:]), indent: ln.indent, breakRangeStart: 0, breakRangeEnd: len(ln.tokens) - idx - 1}

	switch loc {
	case breakAfter:
		line1.tokens = append(line1.tokens, tok)
		*newLines = append(*newLines, line1, line2)
	case breakBefore:
		line2.tokens = slices.Insert(line2.tokens, 0, tok)
		line1.breakRangeStart += 1
		line1.breakRangeEnd += 1
		*newLines = append(*newLines, line1, line2)
	case breakAround:
		line3 := line{tokens: []token{tok}, indent: ln.indent, breakRangeStart: 0, breakRangeEnd: 0}
		*newLines = append(*newLines, line1, line3, line2)
	case breakReplace:
		*newLines = append(*newLines, line1, line2)
	default:
		panic("bad break")
	}
}

func (ln *line) longestBracket() int {
	longestI := -1
	longestW := 0
	for i, tok := range ln.tokens {
		if brack, ok := tok.(*bracketedToken); ok {
			w := len(brack.toString())
			if w >= longestW {
				longestW = w
				longestI = i
			}
		}
	}
	return longestI
}

func formatStream(stream tokenStream, lineWidth int) string {
	lines := []line{{tokens: stream, indent: 0, breakRangeStart: 0, breakRangeEnd: len(stream)}}

	allFit := false
	changed := true
	for !allFit && changed {
		newLines := []line{}
		allFit = true
		changed = false
		for _, ln := range lines {
			lineLen := ln.indent*4 + len(streamToString(ln.tokens))
			if lineLen <= lineWidth {
				newLines = append(newLines, ln)
				continue
			}
			allFit = false

			if ln.checkBrackets(&newLines, lineWidth) {
				changed = true
				continue
			}

			if brkI := ln.chooseBreak(lineLen); brkI != -1 {
				ln.breakAt(brkI, &newLines)
				changed = true
				continue
			}

			if longestI := ln.longestBracket(); longestI != -1 {
				ln.breakBrackets(longestI, &newLines)
				changed = true
				continue
			}

			newLines = append(newLines, ln)
		}

		lines = newLines
	}

	str := ""
	for _, ln := range lines {
		str += strings.Repeat(" ", ln.indent*4) + strings.Trim(streamToString(ln.tokens), " ") + "\n"
	}
	return str
}
