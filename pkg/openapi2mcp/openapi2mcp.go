// Package openapi2mcp exposes the operations of an OpenAPI document as a flat
// set of named tools and dispatches tool calls back to the described HTTP API.
//
// The Engine offers two capabilities. ListTools enumerates the document and
// returns one ToolDescriptor per eligible (path, method) pair. CallTool
// re-derives the same names, finds the matching operation, builds the HTTP
// request and returns the raw upstream response body.
//
// # Quick Start
//
//	cfg, _ := config.Load("", os.Environ())
//	engine := openapi2mcp.New(openapi2mcp.Options{Config: cfg, Logger: logger})
//
//	tools, err := engine.ListTools(ctx, "")
//	body, err := engine.CallTool(ctx, "get_pets_by_petId", map[string]any{"petId": 7}, "")
//
// # Naming
//
// Tool names are derived from "<METHOD> <path>" by NormalizeToolName, then
// prefixed and bounded to 64 characters. When two operations normalize to the
// same name, the one enumerated first wins and the later one is not exposed.
//
// # Errors
//
// CallTool failures are returned as *ProxyError. Callers facing an agent
// should send ProxyError.Payload() rather than the Go error text.
package openapi2mcp

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/auth"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/loader"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/metrics"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

// ToolDescriptor describes a single OpenAPI operation exposed as a tool.
type ToolDescriptor struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Path         string      `json:"path"`
	Method       string      `json:"method"`
	OperationID  *string     `json:"operationId"`
	OriginalName string      `json:"original_name"`
	InputSchema  InputSchema `json:"inputSchema"`

	Tags []string `json:"-"`
}

// Options wires the engine's collaborators. Only Config is required; the
// rest default to implementations built from it.
type Options struct {
	Config  *config.Config
	Specs   loader.Accessor
	Auth    auth.Resolver
	Client  *http.Client
	Filter  PathFilter
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Engine translates OpenAPI documents into tools and dispatches tool calls.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	cfg     *config.Config
	specs   loader.Accessor
	auth    auth.Resolver
	client  *http.Client
	filter  PathFilter
	namer   Namer
	metrics *metrics.Collector
	logger  *zap.Logger
	newID   func() string
}

// New creates an engine.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := opts.Auth
	if resolver == nil {
		resolver = auth.NewResolver(cfg.AuthPolicy())
	}

	specs := opts.Specs
	if specs == nil {
		specs = loader.New(loader.Options{
			Timeout:   cfg.HTTPTimeout,
			IgnoreSSL: cfg.IgnoreSSLSpec,
			CacheTTL:  cfg.SpecCacheTTL,
			Validate:  cfg.ValidateSpec,
			Metrics:   opts.Metrics,
			Logger:    logger,
		})
	}

	client := opts.Client
	if client == nil {
		client = NewUpstreamClient(cfg, resolver, logger)
	}

	filter := opts.Filter
	if filter == nil {
		filter = NewWhitelist(cfg.ToolWhitelist)
	}

	return &Engine{
		cfg:     cfg,
		specs:   specs,
		auth:    resolver,
		client:  client,
		filter:  filter,
		namer:   Namer{Prefix: cfg.ToolNamePrefix},
		metrics: opts.Metrics,
		logger:  logger.With(zap.String("component", "engine")),
		newID:   uuid.NewString,
	}
}

// NewUpstreamClient builds the HTTP client used for tool calls. With debug
// enabled every request is logged with credential headers redacted.
func NewUpstreamClient(cfg *config.Config, resolver auth.Resolver, logger *zap.Logger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.IgnoreSSLTools {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via IGNORE_SSL_TOOLS
	}

	var rt http.RoundTripper = transport
	if cfg.Debug {
		sensitive := []string{"Authorization"}
		if s, ok := resolver.(interface{ SensitiveHeaders() []string }); ok {
			sensitive = s.SensitiveHeaders()
		}
		rt = auth.NewDebugRoundTripper(transport, logger, sensitive)
	}
	return &http.Client{Timeout: cfg.HTTPTimeout, Transport: rt}
}

// Preflight fetches the default spec location once so that startup fails
// fast on a missing or unreadable document.
func (e *Engine) Preflight(ctx context.Context) (*spec.Document, error) {
	return e.fetch(ctx, "")
}

func (e *Engine) fetch(ctx context.Context, selector string) (*spec.Document, error) {
	location := e.cfg.SpecLocation(selector)
	if strings.TrimSpace(location) == "" {
		return nil, NewError(KindSpecUnavailable, config.DefaultSpecKey+" is not configured")
	}
	doc, err := e.specs.Fetch(ctx, location)
	if err != nil {
		return nil, Wrap(err, KindSpecUnavailable, "Failed to fetch or parse the OpenAPI specification")
	}
	return doc, nil
}
