package auth

import (
	"encoding/base64"
	"strings"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

// Supported credential policies.
const (
	TypeBearer = "bearer"
	TypeAPIKey = "api-key"
	TypeBasic  = "basic"
)

// DefaultAPIKeyHeader is used by the api-key policy when no header is configured.
const DefaultAPIKeyHeader = "Api-Key"

// Resolver computes the HTTP headers attached to an upstream call.
type Resolver interface {
	Headers(op *spec.Operation) map[string]string
}

// Policy describes one process-wide credential policy.
type Policy struct {
	Type         string
	Token        string
	HeaderName   string
	ExtraHeaders map[string]string
}

// StaticResolver applies the same Policy to every operation. Security
// requirements declared per operation in the document are not consulted.
type StaticResolver struct {
	policy Policy
}

// NewResolver creates a resolver for the given policy
func NewResolver(p Policy) *StaticResolver {
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	if p.Type == "" {
		p.Type = TypeBearer
	}
	if p.HeaderName == "" {
		p.HeaderName = DefaultAPIKeyHeader
	}
	return &StaticResolver{policy: p}
}

// Headers returns extra headers plus the credential header, if a token is set.
func (r *StaticResolver) Headers(op *spec.Operation) map[string]string {
	headers := make(map[string]string, len(r.policy.ExtraHeaders)+1)
	for name, value := range r.policy.ExtraHeaders {
		headers[name] = value
	}

	token := r.policy.Token
	if token == "" {
		return headers
	}

	switch r.policy.Type {
	case TypeAPIKey:
		headers[r.policy.HeaderName] = token
	case TypeBasic:
		if strings.Contains(token, ":") {
			token = base64.StdEncoding.EncodeToString([]byte(token))
		}
		headers["Authorization"] = "Basic " + token
	default:
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}

// SensitiveHeaders returns the header names that carry the credential.
func (r *StaticResolver) SensitiveHeaders() []string {
	names := []string{"Authorization"}
	if r.policy.Type == TypeAPIKey {
		names = append(names, r.policy.HeaderName)
	}
	return names
}

// Describe returns a log-safe summary of the policy.
func (r *StaticResolver) Describe() string {
	if r.policy.Token == "" {
		return "none"
	}
	return r.policy.Type + " " + Redact(r.policy.Token)
}
