package main

import (
	"os"

	"github.com/mcupdater/mcupdater/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
