// Package main provides the entry point for the dbglue application
package main

import (
	"fmt"
	"os"

	"github.com/D3f0/dbglue/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
