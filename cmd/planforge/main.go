// Command planforge serves the PlanForge API and offers maintenance commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := dispatch(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func dispatch(args []string) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return runServe(args)
	case "generate":
		return runGenerate(args)
	case "migrate":
		return runMigrate(args)
	case "hash-key":
		return runHashKey(args)
	case "help":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: planforge <command> [options]

Commands:
  serve                       Run the HTTP API (default)
  generate "<idea>"           Generate a plan and print it
  migrate up|down|version     Manage the database schema
  hash-key                    Hash an API key for auth.keys
  help                        Show this help message

Examples:
  planforge generate -template api-backend "A REST API for a bike rental shop"
  planforge generate -json "A todo app for remote teams" > plan.json
  planforge migrate down -steps 1
  planforge hash-key
`)
}
