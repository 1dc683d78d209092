package main

import (
	"os"

	"github.com/partsline/partsline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
