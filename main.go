package main

import (
	"os"

	"github.com/jardani1x/openchat-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
