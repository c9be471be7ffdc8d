package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/database"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/logging"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/services"
)

// CLI manages the OpenAPI specs stored in PostgreSQL. Specs stored here are
// served by the proxy through OPENAPI_SPEC_URL=db:<name>.
type CLI struct {
	DatabaseURL string `name:"database-url" env:"DATABASE_URL" required:"" help:"PostgreSQL connection string."`
	Debug       bool   `help:"Enable debug logging."`

	List       ListCmd       `cmd:"" help:"List all specs in the database."`
	Active     ActiveCmd     `cmd:"" help:"List only active specs."`
	Import     ImportCmd     `cmd:"" help:"Import a spec file into the database."`
	ImportDir  ImportDirCmd  `cmd:"" name:"import-dir" help:"Import every .yaml, .yml and .json file of a directory."`
	Seed       SeedCmd       `cmd:"" help:"Import the specs listed in a seed file."`
	Activate   ActivateCmd   `cmd:"" help:"Activate a spec by ID."`
	Deactivate DeactivateCmd `cmd:"" help:"Deactivate a spec by ID."`
	Delete     DeleteCmd     `cmd:"" help:"Delete a spec by ID."`
	Show       ShowCmd       `cmd:"" help:"Print the tool summary of a stored spec."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("spec-manager"),
		kong.Description("OpenAPI Spec Manager"),
		kong.UsageOnError(),
	)

	logger, err := logging.New(cli.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Open(ctx, cli.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	cfg, err := config.Load("", os.Environ())
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	rc := &runContext{
		ctx:   ctx,
		store: services.NewSpecLoaderService(db, logger),
		cfg:   cfg,
		out:   os.Stdout,
	}
	kctx.FatalIfErrorf(kctx.Run(rc))
}
