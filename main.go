package main

import (
	"os"

	"github.com/rosterbase/rosterbase/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
