package main

import (
	"os"

	"github.com/autopeer-io/rentfleet/cmd/rentfleetctl/app"
)

func main() {
	if err := app.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
