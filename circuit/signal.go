// Package circuit defines the host circuit-builder IR the core depends on
// and ships an in-memory reference implementation of it, so the automaton
// pipeline can be exercised and tested without a real EDA host.
package circuit

import "fmt"

// Signal is one bit of the host module: either a constant or a real,
// host-allocated bit. Negative values are reserved constants; non-negative
// values are opaque handles assigned by a Builder.
type Signal int

const (
	// S0 is the constant-false bit.
	S0 Signal = -1
	// S1 is the constant-true bit.
	S1 Signal = -2
	// Sx is the constant-unknown bit. The reference Module evaluates it
	// as 0.
	Sx Signal = -3
)

func (s Signal) String() string {
	switch s {
	case S0:
		return "1'b0"
	case S1:
		return "1'b1"
	case Sx:
		return "1'bx"
	default:
		return fmt.Sprintf("%%%d", int(s))
	}
}

// IsConst reports whether s is one of S0/S1/Sx rather than a real bit.
func (s Signal) IsConst() bool { return s < 0 }
