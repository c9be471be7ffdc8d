// Package config builds the process-wide proxy configuration once at startup.
//
// Values come from an optional YAML or TOML file and are then overridden by
// environment variables. The resulting Config is passed by reference into the
// engine, the auth resolver and the spec loader; none of those read the
// environment themselves.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/auth"
)

// DefaultSpecKey is the configuration key holding the primary spec location.
const DefaultSpecKey = "OPENAPI_SPEC_URL"

const (
	defaultHTTPTimeout      = 30 * time.Second
	defaultMaxResponseBytes = 10 << 20
)

// Config holds proxy configuration
type Config struct {
	// SpecURL is the location of the OpenAPI document (URL, file path or db:<name>).
	SpecURL string
	// SpecURLs maps alternate env_key selectors to spec locations.
	SpecURLs map[string]string

	ToolWhitelist     string
	ServerURLOverride string

	APIKey        string
	APIAuthType   string
	APIAuthHeader string
	ExtraHeaders  map[string]string

	StripParam     string
	ToolNamePrefix string
	Debug          bool

	HTTPTimeout      time.Duration
	SpecCacheTTL     time.Duration
	MaxResponseBytes int64

	StrictParameters bool
	ValidateSpec     bool
	IgnoreSSLSpec    bool
	IgnoreSSLTools   bool

	DatabaseURL string
	HTTPAddr    string
}

// AuthPolicy converts the credential settings into an auth.Policy.
func (c *Config) AuthPolicy() auth.Policy {
	return auth.Policy{
		Type:         c.APIAuthType,
		Token:        c.APIKey,
		HeaderName:   c.APIAuthHeader,
		ExtraHeaders: c.ExtraHeaders,
	}
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		SpecURLs:         make(map[string]string),
		ExtraHeaders:     make(map[string]string),
		APIAuthType:      auth.TypeBearer,
		APIAuthHeader:    auth.DefaultAPIKeyHeader,
		HTTPTimeout:      defaultHTTPTimeout,
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

// Load builds the configuration from an optional file and an environment
// snapshot in os.Environ() form. Environment values win over file values.
func Load(path string, environ []string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := fc.apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(envMap(environ)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

func (c *Config) applyEnv(env map[string]string) error {
	str := func(key string, dst *string) {
		if v, ok := env[key]; ok && v != "" {
			*dst = v
		}
	}
	str(DefaultSpecKey, &c.SpecURL)
	str("TOOL_WHITELIST", &c.ToolWhitelist)
	str("SERVER_URL_OVERRIDE", &c.ServerURLOverride)
	str("API_KEY", &c.APIKey)
	str("API_AUTH_TYPE", &c.APIAuthType)
	str("API_AUTH_HEADER", &c.APIAuthHeader)
	str("STRIP_PARAM", &c.StripParam)
	str("TOOL_NAME_PREFIX", &c.ToolNamePrefix)
	str("DATABASE_URL", &c.DatabaseURL)

	for k, v := range env {
		if strings.HasPrefix(k, DefaultSpecKey+"_") && v != "" {
			c.SpecURLs[k] = v
		}
	}

	if v, ok := env["EXTRA_HEADERS"]; ok && v != "" {
		for name, value := range ParseHeaderLines(v) {
			c.ExtraHeaders[name] = value
		}
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"DEBUG", &c.Debug},
		{"STRICT_PARAMETERS", &c.StrictParameters},
		{"VALIDATE_SPEC", &c.ValidateSpec},
		{"IGNORE_SSL_SPEC", &c.IgnoreSSLSpec},
		{"IGNORE_SSL_TOOLS", &c.IgnoreSSLTools},
	}
	for _, f := range flags {
		if v, ok := env[f.key]; ok && v != "" {
			*f.dst = IsTruthy(v)
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", &c.HTTPTimeout},
		{"SPEC_CACHE_TTL", &c.SpecCacheTTL},
	}
	for _, d := range durations {
		v, ok := env[d.key]
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}

	if v, ok := env["MAX_RESPONSE_BYTES"]; ok && v != "" {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_RESPONSE_BYTES %q: %w", v, err)
		}
		c.MaxResponseBytes = n
	}

	c.APIAuthType = strings.ToLower(strings.TrimSpace(c.APIAuthType))
	return nil
}

// IsTruthy reports whether a flag value is one of true, 1 or yes.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// ParseHeaderLines parses "Name: value" pairs separated by newlines.
func ParseHeaderLines(s string) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}

// SpecLocation resolves an env_key selector to a spec location. Unknown or
// empty keys fall back to the primary location.
func (c *Config) SpecLocation(key string) string {
	if key != "" && key != DefaultSpecKey {
		if loc, ok := c.SpecURLs[key]; ok && loc != "" {
			return loc
		}
	}
	return c.SpecURL
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SpecURL == "" {
		return fmt.Errorf("%s is required", DefaultSpecKey)
	}

	switch c.APIAuthType {
	case auth.TypeBearer, auth.TypeAPIKey, auth.TypeBasic:
	default:
		return fmt.Errorf("unsupported API_AUTH_TYPE %q", c.APIAuthType)
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	if c.SpecCacheTTL < 0 {
		return fmt.Errorf("SPEC_CACHE_TTL must not be negative")
	}
	if c.MaxResponseBytes <= 0 {
		return fmt.Errorf("MAX_RESPONSE_BYTES must be positive")
	}

	if strings.HasPrefix(c.SpecURL, "db:") && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for db: spec locations")
	}

	return nil
}

// LogConfiguration logs the current configuration
func (c *Config) LogConfiguration(logger *zap.Logger) {
	keys := make([]string, 0, len(c.SpecURLs))
	for k := range c.SpecURLs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := []zap.Field{
		zap.String("spec_url", MaskSensitive(c.SpecURL)),
		zap.Strings("alternate_spec_keys", keys),
		zap.String("tool_whitelist", c.ToolWhitelist),
		zap.String("server_url_override", c.ServerURLOverride),
		zap.String("api_key", auth.Redact(c.APIKey)),
		zap.String("api_auth_type", c.APIAuthType),
		zap.Int("extra_headers", len(c.ExtraHeaders)),
		zap.String("strip_param", c.StripParam),
		zap.String("tool_name_prefix", c.ToolNamePrefix),
		zap.Duration("http_timeout", c.HTTPTimeout),
		zap.Duration("spec_cache_ttl", c.SpecCacheTTL),
		zap.Bool("strict_parameters", c.StrictParameters),
		zap.Bool("validate_spec", c.ValidateSpec),
	}
	if c.DatabaseURL != "" {
		fields = append(fields, zap.String("database_url", MaskSensitive(c.DatabaseURL)))
	}
	if c.HTTPAddr != "" {
		fields = append(fields, zap.String("http_addr", c.HTTPAddr))
	}
	logger.Info("configuration loaded", fields...)
}

// MaskSensitive masks sensitive parts of URLs for logging
func MaskSensitive(url string) string {
	if url == "" {
		return ""
	}
	if len(url) > 20 {
		return url[:8] + "***" + url[len(url)-8:]
	}
	return "***"
}
