package main

import (
	"fmt"
	"os"

	"github.com/bnema/satellite/cmd/satellite"
)

const version = "0.1.0-dev"

func main() {
	if err := satellite.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
