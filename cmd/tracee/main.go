// Tracee is the instrumented target binary. It runs a fixed
// checkpoint sequence with two breakpoint traps and exits with a
// fixed status; see the target package for the contract.
package main

import (
	"os"

	"github.com/trapfixture/trapfixture/target"
)

func main() {
	os.Exit(target.Run(os.Stdout))
}
