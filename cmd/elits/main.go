// Package main is the entry point for the elits CLI.
//
// Usage:
//
//	elits [flags] <command> [subcommand] [args]
//
// Commands:
//
//	call     - Voice training call with the agent trainer
//	chat     - Text chat with a persona
//	extract  - Extract personality insights from a chat history
//	avatar   - Generate an agent avatar from a photo
//	agent    - On-chain agent registry (create, verify, delegate, revoke)
//	history  - Inspect or clear stored conversations
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/elits-ai/elits/cmd/elits/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
