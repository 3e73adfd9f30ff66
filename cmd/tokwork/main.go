// Package main provides tokwork, a command that exercises the token
// registry and the parallel primitives and reports their timings.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd, err := newRootCommand()
	if err == nil {
		err = cmd.Execute()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
