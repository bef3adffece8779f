// Package main is the entry point for the wpask CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quillstack-labs/wpask-cli/internal/adapters/driven/config"
	"github.com/quillstack-labs/wpask-cli/internal/adapters/driven/openrouter"
	"github.com/quillstack-labs/wpask-cli/internal/adapters/driven/wordpress"
	"github.com/quillstack-labs/wpask-cli/internal/adapters/driving/cli"
	"github.com/quillstack-labs/wpask-cli/internal/core/services"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	source, err := wordpress.NewClient(wordpress.Config{
		BaseURL:  cfg.WordPress.APIURL,
		Username: cfg.WordPress.Username,
		Password: cfg.WordPress.Password,
		Timeout:  cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	backend, err := openrouter.NewBackend(openrouter.Config{
		APIKey:  cfg.OpenRouter.APIKey,
		BaseURL: cfg.OpenRouter.BaseURL,
		Timeout: cfg.TurnTimeout,
	})
	if err != nil {
		return err
	}

	registry := services.NewRegistry(cfg.OpenRouter.Models)
	session := services.NewSession(source, backend, registry, services.SessionConfig{
		MaxResultsLimit: cfg.MaxResultsLimit,
		ToolRoundLimit:  cfg.ToolRoundLimit,
		BackendRetries:  cfg.BackendRetries,
	})
	search := services.NewSearchService(source, cfg.MaxResultsLimit)

	cli.SetServices(session, search)
	cli.SetPingers(source, backend)
	cli.SetLimits(cfg.MaxResults, cfg.MaxResultsLimit)
	cli.SetSiteInfo(cfg.WordPress.APIURL, cfg.OpenRouter.Models)
	cli.SetVersion(version)

	// Signal handling lives in the cli package: each query (and the MCP
	// server) arms its own interrupt-scoped context, so a cancelled query
	// leaves the interactive session usable.
	return cli.Execute(context.Background())
}
