package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/Strob0t/PlanForge/internal/domain/export"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/template"
	"github.com/Strob0t/PlanForge/internal/service"
)

// runGenerate generates one plan without the server and prints it to stdout.
func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	templateID := fs.String("template", "", "template id to guide generation")
	asJSON := fs.Bool("json", false, "print JSON even when stdout is a terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	idea := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(idea) == "" {
		return fmt.Errorf("an idea is required, e.g. planforge generate \"A todo app for remote teams\"")
	}

	cfg, vault, closeLog, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Generator.Timeout)
	defer cancel()

	gen := newGenerator(cfg.Generator, cfg.Breaker, vault)
	svc := service.NewGenerationService(gen, template.Default(), sampling(cfg.Generator))

	p, err := svc.GeneratePlan(ctx, generation.NewRequest(idea, *templateID, nil))
	if err != nil {
		if ge, ok := generation.AsError(err); ok {
			fmt.Fprintf(os.Stderr, "%s: %s\n", ge.Kind, ge.Message)
			if ge.Details != "" {
				fmt.Fprintf(os.Stderr, "  %s\n", ge.Details)
			}
		}
		return fmt.Errorf("generate plan: %w", err)
	}

	if !*asJSON && term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		doc, err := export.Render(p, export.FormatMarkdown, true)
		if err != nil {
			return fmt.Errorf("render plan: %w", err)
		}
		_, err = os.Stdout.Write(doc.Body)
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
