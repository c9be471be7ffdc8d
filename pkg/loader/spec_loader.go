// Package loader fetches and parses OpenAPI documents from URLs, files and
// the spec store.
package loader

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/memory"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/metrics"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

// Source kinds, also used as metric labels.
const (
	SourceHTTP = "http"
	SourceFile = "file"
	SourceDB   = "db"
)

// DBPrefix marks a location that names a stored spec.
const DBPrefix = "db:"

const defaultMaxSpecBytes = 20 << 20

// Accessor fetches and parses the document at a location.
type Accessor interface {
	Fetch(ctx context.Context, location string) (*spec.Document, error)
}

// ContentStore returns stored document content by spec name.
type ContentStore interface {
	SpecContent(ctx context.Context, name string) ([]byte, error)
}

// LoadedSpec represents a loaded OpenAPI specification with metadata
type LoadedSpec struct {
	Location string
	Doc      *spec.Document
	Size     int
	LoadedAt time.Time
}

// Options configures a SpecLoader.
type Options struct {
	// Client is used for http(s) locations. Defaults to a client with
	// Timeout and, if IgnoreSSL is set, certificate checks disabled.
	Client    *http.Client
	Timeout   time.Duration
	IgnoreSSL bool

	Store    ContentStore
	MaxBytes int64
	CacheTTL time.Duration
	Validate bool

	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// SpecLoader handles loading of OpenAPI specifications
type SpecLoader struct {
	client   *http.Client
	store    ContentStore
	maxBytes int64
	ttl      time.Duration
	validate bool
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]*LoadedSpec
}

// New creates a new specification loader
func New(opts Options) *SpecLoader {
	client := opts.Client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.IgnoreSSL {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via IGNORE_SSL_SPEC
		}
		client = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxSpecBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SpecLoader{
		client:   client,
		store:    opts.Store,
		maxBytes: maxBytes,
		ttl:      opts.CacheTTL,
		validate: opts.Validate,
		metrics:  opts.Metrics,
		logger:   logger.With(zap.String("component", "spec_loader")),
		now:      time.Now,
		cache:    make(map[string]*LoadedSpec),
	}
}

// Fetch implements Accessor. With a positive cache TTL, a document fetched
// from the same location within the TTL is returned without refetching.
func (sl *SpecLoader) Fetch(ctx context.Context, location string) (*spec.Document, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("spec location is empty")
	}

	if cached := sl.cached(location); cached != nil {
		sl.logger.Debug("spec cache hit", zap.String("location", location))
		return cached.Doc, nil
	}

	loaded, err := sl.Load(ctx, location)
	if err != nil {
		return nil, err
	}

	if sl.ttl > 0 {
		sl.mu.Lock()
		sl.cache[location] = loaded
		sl.mu.Unlock()
	}
	return loaded.Doc, nil
}

func (sl *SpecLoader) cached(location string) *LoadedSpec {
	if sl.ttl <= 0 {
		return nil
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	entry, ok := sl.cache[location]
	if !ok {
		return nil
	}
	if sl.now().Sub(entry.LoadedAt) >= sl.ttl {
		delete(sl.cache, location)
		return nil
	}
	return entry
}

// Load fetches and parses a location, bypassing the cache.
func (sl *SpecLoader) Load(ctx context.Context, location string) (*LoadedSpec, error) {
	source := SourceKind(location)
	content, err := sl.read(ctx, source, location)
	sl.metrics.RecordSpecFetch(source, err == nil)
	if err != nil {
		sl.logger.Warn("spec fetch failed", zap.String("source", source), zap.Error(err))
		return nil, err
	}

	doc, err := spec.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse spec from %s: %w", source, err)
	}
	doc.Location = location

	if sl.validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, err
		}
	}

	sl.logger.Debug("spec loaded",
		zap.String("source", source),
		zap.Int("bytes", len(content)),
		zap.Int("operations", doc.OperationCount()),
	)
	return &LoadedSpec{
		Location: location,
		Doc:      doc,
		Size:     len(content),
		LoadedAt: sl.now(),
	}, nil
}

// SourceKind classifies a location as http, file or db.
func SourceKind(location string) string {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceHTTP
	case strings.HasPrefix(location, DBPrefix):
		return SourceDB
	default:
		return SourceFile
	}
}

func (sl *SpecLoader) read(ctx context.Context, source, location string) ([]byte, error) {
	switch source {
	case SourceHTTP:
		return sl.loadFromURL(ctx, location)
	case SourceDB:
		return sl.loadFromStore(ctx, strings.TrimPrefix(location, DBPrefix))
	default:
		return sl.loadFromLocalFile(location)
	}
}

// loadFromURL loads specification from a URL
func (sl *SpecLoader) loadFromURL(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := sl.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spec from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d when fetching spec", resp.StatusCode)
	}

	return memory.ReadLimited(resp.Body, sl.maxBytes)
}

// loadFromLocalFile loads specification from a file path or file:// URL
func (sl *SpecLoader) loadFromLocalFile(location string) ([]byte, error) {
	path := location
	if strings.HasPrefix(strings.ToLower(location), "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL: %w", err)
		}
		path = u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = u.Host + u.Path
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	defer f.Close()

	return memory.ReadLimited(f, sl.maxBytes)
}

func (sl *SpecLoader) loadFromStore(ctx context.Context, name string) ([]byte, error) {
	if sl.store == nil {
		return nil, fmt.Errorf("spec store is not configured for %s%s", DBPrefix, name)
	}
	content, err := sl.store.SpecContent(ctx, name)
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > sl.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", memory.ErrTooLarge, sl.maxBytes)
	}
	return content, nil
}

// Invalidate drops any cached document for location.
func (sl *SpecLoader) Invalidate(location string) {
	sl.mu.Lock()
	delete(sl.cache, location)
	sl.mu.Unlock()
}

// InvalidateStore drops every cached document read from the spec store.
func (sl *SpecLoader) InvalidateStore() {
	sl.mu.Lock()
	for loc := range sl.cache {
		if SourceKind(loc) == SourceDB {
			delete(sl.cache, loc)
		}
	}
	sl.mu.Unlock()
}
