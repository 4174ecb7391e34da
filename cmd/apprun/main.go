package main

import (
	"os"

	"github.com/apprun/apprun/cmd/apprun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
