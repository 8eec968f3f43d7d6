package main

import (
	"os"

	"github.com/rustyeddy/gridbot/cmd/gridbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
