// Package main is the entry point for the listing-herald service.
package main

import (
	"os"

	"github.com/gardenmarket/listing-herald/cmd/listing-herald/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
