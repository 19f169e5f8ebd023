package main

import (
	"log"
	"os"

	"github.com/ramyad06/cautious-llm/internal/cli"
)

func main() {
	// stdout is reserved for command output and the MCP protocol.
	log.SetOutput(os.Stderr)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
