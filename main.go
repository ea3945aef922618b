package main

import (
	"os"

	"github.com/Encore7/codebase-explainer-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
