// Package main provides the sqllineage CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sqllineage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
