package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// MCPEndpoint is the path of the streamable HTTP MCP transport.
const MCPEndpoint = "/mcp"

// ShutdownTimeout bounds how long in-flight requests may finish after a
// termination signal.
const ShutdownTimeout = 25 * time.Second

// RouterConfig holds what NewRouter mounts. Metrics and Handlers.store may be nil.
type RouterConfig struct {
	MCP         *mcpserver.MCPServer
	Handlers    *Handlers
	Metrics     http.Handler
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter builds the HTTP mode router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "X-Request-ID"},
		ExposedHeaders:   []string{"Mcp-Session-Id", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	streamable := mcpserver.NewStreamableHTTPServer(cfg.MCP,
		mcpserver.WithEndpointPath(MCPEndpoint),
		mcpserver.WithStateLess(true),
	)
	r.Handle(MCPEndpoint, streamable)

	h := cfg.Handlers
	r.Get("/health", h.HandleHealth)
	r.Get("/tools", h.HandleTools)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/specs", func(r chi.Router) {
		r.Get("/", h.HandleGetSpecs)
		r.Post("/", h.HandleCreateSpec)
		r.Post("/{id}/activate", h.HandleActivateSpec)
		r.Post("/{id}/deactivate", h.HandleDeactivateSpec)
		r.Delete("/{id}", h.HandleDeleteSpec)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// ListenAndServe runs srv until it fails or the process receives SIGINT or
// SIGTERM, then shuts it down within ShutdownTimeout.
func ListenAndServe(srv *http.Server, logger *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serveUntil(srv, quit, logger)
}

func serveUntil(srv *http.Server, quit <-chan os.Signal, logger *zap.Logger) error {
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()), zap.Duration("timeout", ShutdownTimeout))

		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("server shut down gracefully")
		return nil
	}
}
