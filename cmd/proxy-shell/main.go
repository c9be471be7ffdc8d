package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/database"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/loader"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/logging"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/openapi2mcp"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/services"
)

// CLI is an interactive client for the proxy engine, configured exactly
// like the server.
type CLI struct {
	Config string `help:"YAML or TOML config file. Environment variables override its values." type:"existingfile" placeholder:"PATH"`
	EnvKey string `name:"env-key" help:"Configuration key selecting the spec (default OPENAPI_SPEC_URL)."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("proxy-shell"),
		kong.Description("Interactive shell for listing and calling OpenAPI functions."),
	)

	if err := run(context.Background(), cli); err != nil {
		fmt.Fprintf(os.Stderr, "proxy-shell: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli CLI) error {
	cfg, err := config.Load(cli.Config, os.Environ())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := loader.Options{
		Timeout:   cfg.HTTPTimeout,
		IgnoreSSL: cfg.IgnoreSSLSpec,
		CacheTTL:  cfg.SpecCacheTTL,
		Validate:  cfg.ValidateSpec,
		Logger:    logger,
	}
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Store = services.NewSpecLoaderService(db, logger)
	}

	engine := openapi2mcp.New(openapi2mcp.Options{
		Config: cfg,
		Specs:  loader.New(opts),
		Logger: logger,
	})

	sh := newShell(engine, os.Stdout)
	sh.selector = cli.EnvKey

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "openapi> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".proxy-shell-history"),
		AutoComplete:    sh.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()
	sh.out = rl.Stdout()

	fmt.Fprintln(sh.out, "Type 'help' for commands.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			logger.Error("readline failed", zap.Error(err))
			return err
		}
		if sh.exec(ctx, line) {
			return nil
		}
	}
}
