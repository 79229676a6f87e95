package main

import (
	"os"

	"github.com/dshills/flowdag/cmd/flowdag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
