// Command hooks drives the hook runtime's registry, security, approval,
// cost control, quality gates, and pipeline integration from a terminal:
// register and inspect hooks, work an approval queue, review cost and
// quality-gate state, and seed a fresh hooks directory with examples.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
