// Package main is the entry point for moneysync CLI.
package main

import (
	"os"

	"github.com/darcoto/mymoney2/cmd/moneysync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
