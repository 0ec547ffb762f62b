package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/middleware"
)

// runMigrate applies, rolls back or reports database migrations.
func runMigrate(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printMigrateHelp()
		return nil
	}

	fs := flag.NewFlagSet("migrate "+args[0], flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back (down only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	switch args[0] {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if *steps < 1 {
			return errors.New("--steps must be >= 1")
		}
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "version":
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}

	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Schema version: %d\n", v)
	return nil
}

func printMigrateHelp() {
	fmt.Fprintf(os.Stderr, `Usage: planforge migrate <command> [options]

Commands:
  up                 Apply all pending migrations
  down [-steps N]    Roll back the last N migrations (default 1)
  version            Print the current schema version
`)
}

// runHashKey prints the bcrypt hash of an API key for use in auth.keys.
func runHashKey(args []string) error {
	fs := flag.NewFlagSet("hash-key", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := readKey()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if key == "" {
		return errors.New("key must not be empty")
	}

	hash, err := middleware.HashKey(key)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}
	fmt.Println(hash)
	return nil
}

// readKey prompts without echo on a terminal and reads one line otherwise.
func readKey() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) { //nolint:unconvert // int conversion needed on some platforms
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	key, err := promptSecret("API key: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptSecret("Confirm API key: ")
	if err != nil {
		return "", err
	}
	if key != confirm {
		return "", errors.New("keys do not match")
	}
	return key, nil
}

// promptSecret reads a value from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
