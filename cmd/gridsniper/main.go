package main

import (
	"os"

	"github.com/rustyeddy/gridsniper/cmd/gridsniper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
