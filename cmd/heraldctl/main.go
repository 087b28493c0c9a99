// Package main is the entry point for the heraldctl CLI client.
package main

import (
	"github.com/gardenmarket/listing-herald/cmd/heraldctl/cmd"
)

func main() {
	cmd.Execute()
}
