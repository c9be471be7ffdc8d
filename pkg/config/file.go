package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML and TOML files. Durations are strings
// so both decoders accept "30s".
type fileConfig struct {
	SpecURL           string            `yaml:"spec_url" toml:"spec_url"`
	SpecURLs          map[string]string `yaml:"spec_urls" toml:"spec_urls"`
	ToolWhitelist     string            `yaml:"tool_whitelist" toml:"tool_whitelist"`
	ServerURLOverride string            `yaml:"server_url_override" toml:"server_url_override"`
	APIKey            string            `yaml:"api_key" toml:"api_key"`
	APIAuthType       string            `yaml:"api_auth_type" toml:"api_auth_type"`
	APIAuthHeader     string            `yaml:"api_auth_header" toml:"api_auth_header"`
	ExtraHeaders      map[string]string `yaml:"extra_headers" toml:"extra_headers"`
	StripParam        string            `yaml:"strip_param" toml:"strip_param"`
	ToolNamePrefix    string            `yaml:"tool_name_prefix" toml:"tool_name_prefix"`
	Debug             bool              `yaml:"debug" toml:"debug"`
	HTTPTimeout       string            `yaml:"http_timeout" toml:"http_timeout"`
	SpecCacheTTL      string            `yaml:"spec_cache_ttl" toml:"spec_cache_ttl"`
	MaxResponseBytes  int64             `yaml:"max_response_bytes" toml:"max_response_bytes"`
	StrictParameters  bool              `yaml:"strict_parameters" toml:"strict_parameters"`
	ValidateSpec      bool              `yaml:"validate_spec" toml:"validate_spec"`
	IgnoreSSLSpec     bool              `yaml:"ignore_ssl_spec" toml:"ignore_ssl_spec"`
	IgnoreSSLTools    bool              `yaml:"ignore_ssl_tools" toml:"ignore_ssl_tools"`
	DatabaseURL       string            `yaml:"database_url" toml:"database_url"`
	HTTPAddr          string            `yaml:"http_addr" toml:"http_addr"`
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml", ".json":
		err = yaml.Unmarshal(data, &fc)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(c *Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.SpecURL, fc.SpecURL)
	set(&c.ToolWhitelist, fc.ToolWhitelist)
	set(&c.ServerURLOverride, fc.ServerURLOverride)
	set(&c.APIKey, fc.APIKey)
	set(&c.APIAuthType, fc.APIAuthType)
	set(&c.APIAuthHeader, fc.APIAuthHeader)
	set(&c.StripParam, fc.StripParam)
	set(&c.ToolNamePrefix, fc.ToolNamePrefix)
	set(&c.DatabaseURL, fc.DatabaseURL)
	set(&c.HTTPAddr, fc.HTTPAddr)

	for k, v := range fc.SpecURLs {
		c.SpecURLs[k] = v
	}
	for k, v := range fc.ExtraHeaders {
		c.ExtraHeaders[k] = v
	}

	c.Debug = c.Debug || fc.Debug
	c.StrictParameters = c.StrictParameters || fc.StrictParameters
	c.ValidateSpec = c.ValidateSpec || fc.ValidateSpec
	c.IgnoreSSLSpec = c.IgnoreSSLSpec || fc.IgnoreSSLSpec
	c.IgnoreSSLTools = c.IgnoreSSLTools || fc.IgnoreSSLTools

	if fc.MaxResponseBytes != 0 {
		c.MaxResponseBytes = fc.MaxResponseBytes
	}

	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		c.HTTPTimeout = d
	}
	if fc.SpecCacheTTL != "" {
		d, err := time.ParseDuration(fc.SpecCacheTTL)
		if err != nil {
			return fmt.Errorf("spec_cache_ttl: %w", err)
		}
		c.SpecCacheTTL = d
	}
	return nil
}
