package main

import (
	"os"

	"github.com/lifeband/edgeai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
