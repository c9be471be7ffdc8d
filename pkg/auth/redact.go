package auth

import (
	"net/http"
	"strings"
)

// redactPrefix is the most of a credential that may appear in diagnostics.
const redactPrefix = 5

// Redact keeps at most the first five characters of a secret. Secrets that
// short are hidden entirely.
func Redact(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= redactPrefix {
		return "..."
	}
	return secret[:redactPrefix] + "..."
}

// RedactHeaders returns a copy of h with the named headers redacted. Header
// names are matched case-insensitively.
func RedactHeaders(h http.Header, sensitive []string) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		value := strings.Join(values, ", ")
		for _, s := range sensitive {
			if strings.EqualFold(name, s) {
				value = redactCredential(value)
				break
			}
		}
		out[name] = value
	}
	return out
}

// redactCredential keeps an auth scheme word such as "Bearer" readable.
func redactCredential(value string) string {
	if scheme, token, ok := strings.Cut(value, " "); ok && (strings.EqualFold(scheme, "bearer") || strings.EqualFold(scheme, "basic")) {
		return scheme + " " + Redact(token)
	}
	return Redact(value)
}
