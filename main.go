// Package main is the entry point for the prpulse CLI.
package main

import (
	"github.com/prpulse/prpulse/cmd"
	"github.com/prpulse/prpulse/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
