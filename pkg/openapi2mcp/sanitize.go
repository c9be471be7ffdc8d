package openapi2mcp

import (
	"strings"

	"github.com/spf13/cast"
)

// SanitizeParameters returns a copy of params without stripKey. A nil input
// yields an empty map.
func SanitizeParameters(params map[string]any, stripKey string) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if stripKey != "" && k == stripKey {
			continue
		}
		out[k] = v
	}
	return out
}

// dropStream removes a truthy "stream" flag; streaming responses are not
// proxied.
func dropStream(params map[string]any) bool {
	v, ok := params["stream"]
	if !ok || !streamRequested(v) {
		return false
	}
	delete(params, "stream")
	return true
}

func streamRequested(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0", "no", "off":
			return false
		}
		return true
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return false
	}
	return f != 0
}
