package main

import (
	"os"

	"github.com/thiagokokada/gitk-graph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
