// Package main is the entry point for the cubectl binary.
package main

import (
	"os"

	cli "semcube/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
