package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/rustypages/internal/config"
	"github.com/mrlokans/rustypages/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the sync backend
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		if err := entrypoint.Run(cfg, Version); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "read":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: rustypages read <file.epub|file.pdf>")
			os.Exit(2)
		}
		cfg := config.NewConfig()
		if err := entrypoint.RunReader(cfg, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version":
		fmt.Printf("rustypages %s (%s)\n", Version, Commit)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: rustypages [command] [options]

Commands:
  serve          Run the sync backend (default)
  read <file>    Open an EPUB or PDF in the terminal reader
  version        Print version information
  help           Show this help message

Configuration is read from environment variables, for example:
  PORT, DATABASE_PATH, JWT_SECRET, TASKS_ENABLED
  READER_STATE_DIR, READER_SYNC_URL, READER_SYNC_TOKEN, LOG_FILE`)
}
