// Command svafsm compiles SVA property directive scripts into monitor
// circuits on an in-memory reference module, for demoing and debugging the
// automaton pipeline without an EDA host.
package main

import (
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
