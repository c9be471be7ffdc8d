package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/database"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/loader"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/logging"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/metrics"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/openapi2mcp"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/server"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/services"
)

const serviceName = "mcp-openapi-proxy"

var version = "dev"

// CLI is the command line of the proxy server.
type CLI struct {
	Config      string           `help:"YAML or TOML config file. Environment variables override its values." type:"existingfile" placeholder:"PATH"`
	HTTP        string           `name:"http" help:"Serve MCP over streamable HTTP on this address instead of stdio." placeholder:":8080"`
	CORSOrigins []string         `name:"cors-origin" help:"Allowed CORS origin in HTTP mode (repeatable, default *)."`
	Version     kong.VersionFlag `help:"Print version and exit."`
}

// app holds the wired components of one proxy process.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	specs   *loader.SpecLoader
	store   *services.SpecLoaderService
	engine  *openapi2mcp.Engine
	mcp     *mcpserver.MCPServer
	db      *sql.DB
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name(serviceName),
		kong.Description("Expose any OpenAPI-described HTTP API to MCP clients through list_functions and call_function."),
		kong.Vars{"version": version},
	)

	if err := run(context.Background(), cli, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		kctx.Exit(1)
	}
}

func run(ctx context.Context, cli CLI, environ []string) error {
	cfg, err := config.Load(cli.Config, environ)
	if err != nil {
		return err
	}
	if cli.HTTP != "" {
		cfg.HTTPAddr = cli.HTTP
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	if cfg.HTTPAddr == "" {
		logger.Info("serving MCP over stdio")
		return mcpserver.ServeStdio(a.mcp)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.router(cli.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       240 * time.Second,
		WriteTimeout:      240 * time.Second,
	}
	logger.Info("available endpoints",
		zap.String("mcp", server.MCPEndpoint),
		zap.Strings("http", []string{"/health", "/tools", "/metrics", "/specs"}),
		zap.Bool("spec_admin", a.store != nil),
	)
	return server.ListenAndServe(srv, logger)
}

// newApp validates cfg, wires every component and fetches the default spec
// once. It fails if no spec location is configured or the fetch fails.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.LogConfiguration(logger)

	a := &app{cfg: cfg, logger: logger, metrics: metrics.NewCollector()}

	opts := loader.Options{
		Timeout:   cfg.HTTPTimeout,
		IgnoreSSL: cfg.IgnoreSSLSpec,
		CacheTTL:  cfg.SpecCacheTTL,
		Validate:  cfg.ValidateSpec,
		Metrics:   a.metrics,
		Logger:    logger,
	}
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.store = services.NewSpecLoaderService(db, logger)
		opts.Store = a.store
	}
	a.specs = loader.New(opts)

	a.engine = openapi2mcp.New(openapi2mcp.Options{
		Config:  cfg,
		Specs:   a.specs,
		Metrics: a.metrics,
		Logger:  logger,
	})

	doc, err := a.engine.Preflight(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	tools := a.engine.Describe(doc)
	logger.Info("openapi spec loaded",
		zap.String("title", doc.Title),
		zap.String("version", doc.Version),
		zap.Int("operations", doc.OperationCount()),
		zap.Int("tools", len(tools)),
	)

	a.mcp = server.NewMCPServer(serviceName, version, a.engine, logger)
	return a, nil
}

func (a *app) router(origins []string) http.Handler {
	var store server.SpecStore
	if a.store != nil {
		store = a.store
	}
	return server.NewRouter(server.RouterConfig{
		MCP:         a.mcp,
		Handlers:    server.NewHandlers(serviceName, a.engine, store, a.specs, a.logger),
		Metrics:     a.metrics.Handler(),
		CORSOrigins: origins,
		Logger:      a.logger,
	})
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
		a.db = nil
	}
}
