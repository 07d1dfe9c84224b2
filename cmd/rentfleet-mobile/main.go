package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/rentfleet/cmd/rentfleet-mobile/app"
)

func main() {
	app.NewApp().Run()
}
