// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/ollama"
)

// RunModels implements `codechat models`.
func RunModels(args Args) error {
	parser := NewArgParser(args.Raw)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := newOllamaClient(cfg)
	ctx := context.Background()

	if err := client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("ollama is not reachable at %s (start it with: ollama serve): %w",
			cfg.Ollama.Endpoint, err)
	}

	switch {
	case parser.HasFlag("pull"):
		name := parser.Flag("pull")
		if name == "" {
			return fmt.Errorf("usage: models --pull <name>")
		}
		return pullModel(ctx, client, name)

	case parser.HasFlag("remove"):
		name := parser.Flag("remove")
		if name == "" {
			return fmt.Errorf("usage: models --remove <name>")
		}
		if err := client.DeleteModel(ctx, name); err != nil {
			return err
		}
		fmt.Printf("%s removed %s\n", SuccessStyle.Render("ok:"), name)
		return nil

	default:
		models, err := client.ListModels(ctx)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Println("no models installed (try: codechat models --pull " + cfg.Ollama.Model + ")")
			return nil
		}
		for _, m := range models {
			marker := "  "
			if m.Name == cfg.Ollama.Model {
				marker = SuccessStyle.Render("* ")
			}
			fmt.Printf("%s%-30s %8.1f GB  %s\n",
				marker, m.Name, float64(m.Size)/(1<<30), m.ModifiedAt.Format("2006-01-02"))
		}
		return nil
	}
}

// pullModel streams download progress on one line.
func pullModel(ctx context.Context, client *ollama.Client, name string) error {
	fmt.Printf("pulling %s...\n", name)
	start := time.Now()
	err := client.PullModel(ctx, name, func(p ollama.PullProgress) {
		if p.Total > 0 {
			fmt.Fprintf(os.Stderr, "\r%-20s %3.0f%%", p.Status, float64(p.Completed)*100/float64(p.Total))
		} else {
			fmt.Fprintf(os.Stderr, "\r%-20s", p.Status)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	fmt.Printf("%s pulled %s in %s\n", SuccessStyle.Render("ok:"), name, time.Since(start).Round(time.Second))
	return nil
}

// newOllamaClient builds a client from the config, narrowing the
// timeout to what the config asks for.
func newOllamaClient(cfg *config.Config) *ollama.Client {
	c := ollama.DefaultConfig()
	c.BaseURL = cfg.Ollama.Endpoint
	c.Timeout = time.Duration(cfg.Ollama.TimeoutSecs) * time.Second
	return ollama.NewClient(c)
}
