package main

import (
	"os"

	"github.com/gcopy-dev/gcopy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
