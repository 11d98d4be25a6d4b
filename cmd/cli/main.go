// Package main is the entry point for the sqlagent CLI binary.
package main

import (
	"os"

	cli "sqlagent/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
