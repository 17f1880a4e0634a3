package main

import (
	"os"

	"github.com/cwbudde/go-psh/cmd/psh/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
