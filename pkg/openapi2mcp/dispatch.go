package openapi2mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xeipuuv/gojsonschema"
	"github.com/yosida95/uritemplate/v3"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/memory"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

const maxErrorSnippet = 512

// CallTool resolves name against the selected document and performs the
// upstream request. On success it returns the response body verbatim. Every
// failure is a *ProxyError; no request is sent unless all checks pass.
func (e *Engine) CallTool(ctx context.Context, name string, params map[string]any, selector string) (body []byte, err error) {
	requestID := e.newID()
	logger := e.logger.With(zap.String("request_id", requestID), zap.String("tool", name))

	defer func() {
		if err == nil {
			e.metrics.RecordToolCall(name, true)
			return
		}
		pe := AsProxyError(err).withRequestID(requestID)
		err = pe
		label := name
		if pe.Kind == KindToolNotFound || pe.Kind == KindInvalidArgument {
			label = "unknown"
		}
		e.metrics.RecordToolCall(label, false)
		logger.Warn("call_function failed",
			zap.String("kind", string(pe.Kind)),
			zap.String("error", pe.Message),
			zap.String("details", pe.Details),
		)
	}()

	if strings.TrimSpace(name) == "" {
		return nil, NewError(KindInvalidArgument, "function_name is required")
	}

	doc, err := e.fetch(ctx, selector)
	if err != nil {
		return nil, err
	}

	var match *toolEntry
	e.enumerate(doc, func(t toolEntry) bool {
		if t.name == name {
			match = &t
			return false
		}
		return true
	})
	if match == nil {
		return nil, NewError(KindToolNotFound, fmt.Sprintf("Function '%s' not found", name))
	}

	op := match.op
	if !e.filter.Allowed(op.Path) {
		return nil, NewError(KindAccessDenied, fmt.Sprintf("Access to function '%s' is not allowed", name))
	}

	method := strings.ToUpper(op.Method)
	headers := make(map[string]string)
	for k, v := range e.auth.Headers(op) {
		headers[k] = v
	}
	if method != http.MethodGet {
		headers["Content-Type"] = "application/json"
	}

	args := SanitizeParameters(params, e.cfg.StripParam)
	if dropStream(args) {
		logger.Debug("dropped stream parameter")
	}

	if e.cfg.StrictParameters {
		if err := validateParameters(op, args); err != nil {
			return nil, err
		}
	}

	path, err := substitutePath(op, args)
	if err != nil {
		return nil, err
	}
	if left := unfilledPlaceholders(path); len(left) > 0 {
		logger.Warn("path has unfilled placeholders", zap.String("path", path), zap.Strings("placeholders", left))
	}

	base, err := e.baseURL(doc, op)
	if err != nil {
		return nil, err
	}
	target := JoinURL(base, path)

	req, err := buildRequest(ctx, method, target, args, params != nil)
	if err != nil {
		return nil, Wrap(err, KindUpstreamRequestFailed, "API request failed: "+err.Error())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("dispatching request", zap.String("method", method), zap.String("url", req.URL.String()))
	return e.execute(req)
}

func (e *Engine) execute(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := e.client.Do(req)
	e.metrics.ObserveUpstream(req.Method, time.Since(start))
	if err != nil {
		return nil, Wrap(err, KindUpstreamRequestFailed, "API request failed: "+err.Error())
	}
	defer resp.Body.Close()

	data, readErr := memory.ReadLimited(resp.Body, e.cfg.MaxResponseBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := NewError(KindUpstreamRequestFailed,
			fmt.Sprintf("API request failed: %s for url: %s", resp.Status, req.URL.Redacted()))
		pe.Details = snippet(data)
		return nil, pe
	}
	if readErr != nil {
		return nil, Wrap(readErr, KindUpstreamRequestFailed, "API request failed: "+readErr.Error())
	}
	return data, nil
}

func snippet(data []byte) string {
	if len(data) > maxErrorSnippet {
		return string(data[:maxErrorSnippet]) + "..."
	}
	return string(data)
}

// substitutePath fills {name} placeholders from args and removes every path
// parameter from args.
func substitutePath(op *spec.Operation, args map[string]any) (string, error) {
	path := op.Path
	var missing []string
	for _, p := range op.PathParameters() {
		v, ok := args[p.Name]
		delete(args, p.Name)
		if !ok || v == nil {
			if p.Required {
				missing = append(missing, p.Name)
			}
			continue
		}
		path = strings.ReplaceAll(path, "{"+p.Name+"}", literal(v))
	}
	if len(missing) > 0 {
		return "", NewError(KindMissingPathParameter,
			fmt.Sprintf("Missing required path parameters: [%s]", strings.Join(missing, ", ")))
	}
	return path, nil
}

func unfilledPlaceholders(path string) []string {
	if !strings.Contains(path, "{") {
		return nil
	}
	tmpl, err := uritemplate.New(path)
	if err != nil {
		return nil
	}
	return tmpl.Varnames()
}

// literal renders a parameter value the way it should appear in a URL.
func literal(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// buildRequest places args in the query for GET and in a JSON body
// otherwise. A caller that supplied a parameters map always gets a JSON body,
// "{}" when nothing is left after path substitution.
func buildRequest(ctx context.Context, method, target string, args map[string]any, withBody bool) (*http.Request, error) {
	var body io.Reader
	if method == http.MethodGet {
		if len(args) > 0 {
			u, err := url.Parse(target)
			if err != nil {
				return nil, fmt.Errorf("invalid request URL: %w", err)
			}
			q := u.Query()
			for k, v := range args {
				addQueryValue(q, k, v)
			}
			u.RawQuery = q.Encode()
			target = u.String()
		}
	} else if withBody || len(args) > 0 {
		payload, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	return http.NewRequestWithContext(ctx, method, target, body)
}

func addQueryValue(q url.Values, key string, v any) {
	switch t := v.(type) {
	case nil:
		return
	case []any:
		for _, item := range t {
			q.Add(key, literal(item))
		}
	case []string:
		for _, item := range t {
			q.Add(key, item)
		}
	default:
		q.Add(key, literal(v))
	}
}

// baseURL picks the upstream base. A configured override is used
// exclusively; otherwise the first usable server URL from the document.
func (e *Engine) baseURL(doc *spec.Document, op *spec.Operation) (string, error) {
	if e.cfg.ServerURLOverride != "" {
		for _, candidate := range strings.Split(e.cfg.ServerURLOverride, ",") {
			candidate = strings.TrimSpace(candidate)
			if isAbsoluteHTTP(candidate) {
				return candidate, nil
			}
		}
		return "", noBaseURL()
	}

	for _, candidate := range doc.ServerURLs(op) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if isAbsoluteHTTP(candidate) {
			return candidate, nil
		}
		if resolved := resolveRelative(doc.Location, candidate); resolved != "" {
			return resolved, nil
		}
	}
	return "", noBaseURL()
}

func noBaseURL() *ProxyError {
	return NewError(KindNoBaseURL, "No base URL defined in spec or SERVER_URL_OVERRIDE")
}

func isAbsoluteHTTP(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func resolveRelative(location, ref string) string {
	if !isAbsoluteHTTP(location) {
		return ""
	}
	base, err := url.Parse(location)
	if err != nil {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}

// JoinURL joins a base URL and a path with exactly one slash.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func validateParameters(op *spec.Operation, args map[string]any) error {
	schema := BuildInputSchema(op.Parameters)
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.Map()),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return Wrap(err, KindInvalidArgument, "Invalid parameters: "+err.Error())
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return NewError(KindInvalidArgument, "Invalid parameters: "+strings.Join(msgs, "; "))
}
