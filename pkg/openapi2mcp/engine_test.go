package openapi2mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

const petstoreYAML = `
openapi: 3.0.0
info:
  title: Pets
  version: "1"
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
      tags: [pets]
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
    post:
      description: Create a pet
      tags: [pets]
  /pets/{petId}:
    get:
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
    options:
      summary: not exposed
    delete:
      summary: Delete a pet
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
  /items/{id}:
    put:
      summary: Replace an item
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
        - name: name
          in: query
          schema:
            type: string
  /empty: {}
`

type staticSpecs struct {
	doc   *spec.Document
	err   error
	calls int
}

func (s *staticSpecs) Fetch(_ context.Context, location string) (*spec.Document, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

type upstream struct {
	*httptest.Server
	mu     sync.Mutex
	reqs   []recordedRequest
	status int
	body   string
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{status: http.StatusOK, body: `{"ok":true}`}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.reqs = append(u.reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
			Header: r.Header.Clone(),
		})
		status, respBody := u.status, u.body
		u.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) requests() []recordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]recordedRequest(nil), u.reqs...)
}

func parseDoc(t *testing.T, src string) *spec.Document {
	doc, err := spec.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func newTestEngine(t *testing.T, src string, mutate func(*config.Config, *Options)) (*Engine, *upstream) {
	up := newUpstream(t)
	cfg := config.Default()
	cfg.SpecURL = "https://specs.example.com/openapi.yaml"
	cfg.ServerURLOverride = up.URL

	opts := Options{Config: cfg, Specs: &staticSpecs{doc: parseDoc(t, src)}}
	if mutate != nil {
		mutate(cfg, &opts)
	}
	opts.Config = cfg
	return New(opts), up
}

func toolNames(tools []ToolDescriptor) []string {
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	return names
}

func TestListToolsEnumeratesEligibleOperations(t *testing.T) {
	e, _ := newTestEngine(t, petstoreYAML, nil)

	tools, err := e.ListTools(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"get_pets",
		"post_pets",
		"get_pets_by_petId",
		"delete_pets_by_petId",
		"put_items_by_id",
	}, toolNames(tools))

	first := tools[0]
	assert.Equal(t, "List pets", first.Description)
	assert.Equal(t, "GET", first.Method)
	assert.Equal(t, "/pets", first.Path)
	assert.Equal(t, "GET /pets", first.OriginalName)
	require.NotNil(t, first.OperationID)
	assert.Equal(t, "listPets", *first.OperationID)
	assert.Equal(t, "integer", first.InputSchema.Properties["limit"].Type)

	assert.Equal(t, "Create a pet", tools[1].Description)
	assert.Equal(t, noDescription, tools[2].Description)
	assert.Equal(t, []string{"petId"}, tools[2].InputSchema.Required)

	data, err := json.Marshal(tools[2])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"operationId":null`)
	assert.Contains(t, string(data), `"original_name":"GET /pets/{petId}"`)
	assert.NotContains(t, string(data), "Tags")
}

func TestListToolsIsDeterministic(t *testing.T) {
	e, _ := newTestEngine(t, petstoreYAML, nil)

	a, err := e.ListTools(context.Background(), "")
	require.NoError(t, err)
	b, err := e.ListTools(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestListFunctionsSwallowsErrors(t *testing.T) {
	e, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		o.Specs = &staticSpecs{err: errors.New("boom")}
	})
	tools := e.ListFunctions(context.Background(), "")
	require.NotNil(t, tools)
	assert.Empty(t, tools)

	data, err := json.Marshal(tools)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	unconfigured, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.SpecURL = ""
	})
	assert.Empty(t, unconfigured.ListFunctions(context.Background(), ""))
}

func TestSelectorResolvesAlternateLocation(t *testing.T) {
	var seen []string
	specs := accessorFunc(func(_ context.Context, loc string) (*spec.Document, error) {
		seen = append(seen, loc)
		return parseDoc(t, petstoreYAML), nil
	})
	e, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.SpecURLs["OPENAPI_SPEC_URL_ADMIN"] = "db:admin"
		o.Specs = specs
	})

	e.ListFunctions(context.Background(), "OPENAPI_SPEC_URL_ADMIN")
	e.ListFunctions(context.Background(), "OPENAPI_SPEC_URL_NOPE")
	assert.Equal(t, []string{"db:admin", "https://specs.example.com/openapi.yaml"}, seen)
}

type accessorFunc func(ctx context.Context, location string) (*spec.Document, error)

func (f accessorFunc) Fetch(ctx context.Context, location string) (*spec.Document, error) {
	return f(ctx, location)
}

func TestListCallRoundTrip(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	tools, err := e.ListTools(context.Background(), "")
	require.NoError(t, err)

	for _, tool := range tools {
		params := map[string]any{}
		for _, name := range tool.InputSchema.Required {
			params[name] = 1
		}
		body, err := e.CallTool(context.Background(), tool.Name, params, "")
		require.NoError(t, err, tool.Name)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	}
	assert.Len(t, up.requests(), len(tools))
}

func TestCallToolPathSubstitution(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	_, err := e.CallTool(context.Background(), "put_items_by_id", map[string]any{"id": 42, "name": "x"}, "")
	require.NoError(t, err)

	reqs := up.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/items/42", reqs[0].Path)
	assert.Empty(t, reqs[0].Query)
	assert.JSONEq(t, `{"name":"x"}`, reqs[0].Body)
}

func TestCallToolFloatPathValue(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	// JSON-decoded numbers arrive as float64
	_, err := e.CallTool(context.Background(), "get_pets_by_petId", map[string]any{"petId": float64(7)}, "")
	require.NoError(t, err)
	assert.Equal(t, "/pets/7", up.requests()[0].Path)
}

func TestCallToolGetUsesQueryOnly(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	_, err := e.CallTool(context.Background(), "get_pets", map[string]any{"limit": 5, "tags": []any{"a", "b"}}, "")
	require.NoError(t, err)

	req := up.requests()[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "limit=5&tags=a&tags=b", req.Query)
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestCallToolPostUsesBodyOnly(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	_, err := e.CallTool(context.Background(), "post_pets", map[string]any{"name": "rex", "age": 3}, "")
	require.NoError(t, err)

	req := up.requests()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Empty(t, req.Query)
	assert.JSONEq(t, `{"name":"rex","age":3}`, req.Body)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestCallToolEmptyParamsSendsNothing(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	_, err := e.CallTool(context.Background(), "post_pets", nil, "")
	require.NoError(t, err)

	req := up.requests()[0]
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Query)
}

func TestCallToolMissingPathParameter(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	_, err := e.CallTool(context.Background(), "get_pets_by_petId", map[string]any{"petId": nil}, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMissingPathParameter))

	var pe *ProxyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Missing required path parameters: [petId]", pe.Message)
	assert.NotEmpty(t, pe.RequestID)
	assert.Empty(t, up.requests())
}

func TestCallToolRespectsWhitelist(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.ToolWhitelist = "/items"
	})

	tools, err := e.ListTools(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"put_items_by_id"}, toolNames(tools))

	_, err = e.CallTool(context.Background(), "get_pets", nil, "")
	assert.True(t, IsKind(err, KindToolNotFound))
	assert.Equal(t, map[string]string{"error": "Function 'get_pets' not found"}, AsProxyError(err).Payload())
	assert.Empty(t, up.requests())
}

func TestCallToolAccessDeniedOnRecheck(t *testing.T) {
	var checks int
	filter := PathFilterFunc(func(path string) bool {
		if path != "/pets" {
			return true
		}
		checks++
		return checks == 1
	})
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		o.Filter = filter
	})

	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	assert.True(t, IsKind(err, KindAccessDenied))
	assert.Equal(t, "Access to function 'get_pets' is not allowed", AsProxyError(err).Message)
	assert.Empty(t, up.requests())
}

const collidingYAML = `
openapi: 3.0.0
info: {title: c, version: "1"}
paths:
  /pets/{id}:
    get:
      summary: first
  /pets/by_id:
    get:
      summary: second
    post:
      summary: third
`

func TestCollisionFirstEnumeratedWins(t *testing.T) {
	for _, prefix := range []string{"", "svc_"} {
		t.Run("prefix="+prefix, func(t *testing.T) {
			e, up := newTestEngine(t, collidingYAML, func(c *config.Config, o *Options) {
				c.ToolNamePrefix = prefix
			})

			tools, err := e.ListTools(context.Background(), "")
			require.NoError(t, err)
			assert.Equal(t, []string{prefix + "get_pets_by_id", prefix + "post_pets_by_id"}, toolNames(tools))
			assert.Equal(t, "first", tools[0].Description)

			_, err = e.CallTool(context.Background(), prefix+"get_pets_by_id", map[string]any{}, "")
			require.NoError(t, err)
			assert.Equal(t, "/pets/{id}", up.requests()[0].Path)
		})
	}
}

func TestDocumentWithoutPaths(t *testing.T) {
	e, up := newTestEngine(t, "openapi: 3.0.0\ninfo: {title: x, version: '1'}\n", nil)

	assert.Empty(t, e.ListFunctions(context.Background(), ""))

	_, err := e.CallTool(context.Background(), "get_x", nil, "")
	require.Error(t, err)
	assert.Equal(t, "Function 'get_x' not found", AsProxyError(err).Message)
	assert.Empty(t, up.requests())
}

func TestCallToolStripsStreamAndConfiguredParam(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.StripParam = "auth"
	})

	_, err := e.CallTool(context.Background(), "post_pets", map[string]any{"stream": true, "q": "x", "auth": "leak"}, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"x"}`, up.requests()[0].Body)

	_, err = e.CallTool(context.Background(), "post_pets", map[string]any{"stream": "false", "q": "x"}, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stream":"false","q":"x"}`, up.requests()[1].Body)
}

func TestStreamRequested(t *testing.T) {
	for _, v := range []any{true, 1, 2.5, "true", "yes", "1"} {
		assert.True(t, streamRequested(v), fmt.Sprint(v))
	}
	for _, v := range []any{false, 0, 0.0, "", "false", "0", "no", "off", nil} {
		assert.False(t, streamRequested(v), fmt.Sprint(v))
	}
}

func TestSanitizeParametersCopies(t *testing.T) {
	in := map[string]any{"a": 1, "secret": 2}
	out := SanitizeParameters(in, "secret")
	assert.Equal(t, map[string]any{"a": 1}, out)
	assert.Len(t, in, 2)

	assert.NotNil(t, SanitizeParameters(nil, "x"))
}

func TestCallToolAddsAuthHeaders(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.APIKey = "secret-token"
		c.ExtraHeaders = map[string]string{"X-Tenant": "acme"}
	})

	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	require.NoError(t, err)

	h := up.requests()[0].Header
	assert.Equal(t, "Bearer secret-token", h.Get("Authorization"))
	assert.Equal(t, "acme", h.Get("X-Tenant"))
}

func TestCallToolUpstreamFailure(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)
	up.status = http.StatusInternalServerError
	up.body = "kaboom"

	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	require.Error(t, err)
	pe := AsProxyError(err)
	assert.Equal(t, KindUpstreamRequestFailed, pe.Kind)
	assert.True(t, strings.HasPrefix(pe.Message, "API request failed: 500"), pe.Message)
	assert.Equal(t, "kaboom", pe.Details)
}

func TestCallToolResponseLimit(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.MaxResponseBytes = 4
	})
	up.body = "hello world"

	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	assert.True(t, IsKind(err, KindUpstreamRequestFailed))
}

func TestCallToolTransportError(t *testing.T) {
	e, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.ServerURLOverride = "http://127.0.0.1:1"
	})

	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(AsProxyError(err).Message, "API request failed: "))
}

func TestCallToolInvalidArgumentAndSpecErrors(t *testing.T) {
	e, _ := newTestEngine(t, petstoreYAML, nil)
	_, err := e.CallTool(context.Background(), "  ", nil, "")
	assert.Equal(t, "function_name is required", AsProxyError(err).Message)
	assert.True(t, IsKind(err, KindInvalidArgument))

	unconfigured, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.SpecURL = ""
	})
	_, err = unconfigured.CallTool(context.Background(), "get_pets", nil, "")
	assert.Equal(t, "OPENAPI_SPEC_URL is not configured", AsProxyError(err).Message)

	broken, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		o.Specs = &staticSpecs{err: errors.New("dial tcp: refused")}
	})
	_, err = broken.CallTool(context.Background(), "get_pets", nil, "")
	assert.True(t, IsKind(err, KindSpecUnavailable))
	assert.Equal(t, "Failed to fetch or parse the OpenAPI specification", AsProxyError(err).Message)
}

func TestCallToolStrictParameters(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.StrictParameters = true
	})

	_, err := e.CallTool(context.Background(), "get_pets_by_petId", map[string]any{"petId": "abc"}, "")
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = e.CallTool(context.Background(), "get_pets_by_petId", map[string]any{"petId": 1, "extra": true}, "")
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = e.CallTool(context.Background(), "get_pets_by_petId", map[string]any{"petId": 1}, "")
	require.NoError(t, err)
	assert.Len(t, up.requests(), 1)
}

const serversYAML = `
openapi: 3.0.0
info: {title: s, version: "1"}
servers:
  - url: https://doc.example.com/v1
paths:
  /op:
    servers:
      - url: https://path.example.com
    get:
      servers:
        - url: https://{region}.op.example.com
          variables:
            region:
              default: eu
  /path:
    servers:
      - url: https://path.example.com
    get: {summary: p}
  /doc:
    get: {summary: d}
`

func TestBaseURLPrecedence(t *testing.T) {
	e, _ := newTestEngine(t, serversYAML, func(c *config.Config, o *Options) {
		c.ServerURLOverride = ""
	})
	doc := parseDoc(t, serversYAML)
	ops := map[string]*spec.Operation{}
	for _, item := range doc.Paths {
		ops[item.Path] = item.Operations[0]
	}

	base, err := e.baseURL(doc, ops["/op"])
	require.NoError(t, err)
	assert.Equal(t, "https://eu.op.example.com", base)

	base, err = e.baseURL(doc, ops["/path"])
	require.NoError(t, err)
	assert.Equal(t, "https://path.example.com", base)

	base, err = e.baseURL(doc, ops["/doc"])
	require.NoError(t, err)
	assert.Equal(t, "https://doc.example.com/v1", base)
}

func TestBaseURLOverrideAndRelative(t *testing.T) {
	doc := parseDoc(t, "openapi: 3.0.0\ninfo: {title: r, version: '1'}\nservers:\n  - url: /api/v2\npaths:\n  /x:\n    get: {}\n")

	e, _ := newTestEngine(t, serversYAML, func(c *config.Config, o *Options) {
		c.ServerURLOverride = "not a url, https://override.example.com/base/"
	})
	base, err := e.baseURL(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com/base/", base)
	assert.Equal(t, "https://override.example.com/base/items/1", JoinURL(base, "/items/1"))

	e, _ = newTestEngine(t, serversYAML, func(c *config.Config, o *Options) {
		c.ServerURLOverride = ""
	})
	_, err = e.baseURL(doc, nil)
	assert.True(t, IsKind(err, KindNoBaseURL), "relative server without an http location")

	doc.Location = "https://specs.example.com/apis/openapi.yaml"
	base, err = e.baseURL(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://specs.example.com/api/v2", base)

	e, _ = newTestEngine(t, serversYAML, func(c *config.Config, o *Options) {
		c.ServerURLOverride = "relative/only"
	})
	_, err = e.baseURL(doc, nil)
	assert.True(t, IsKind(err, KindNoBaseURL))
}

func TestCallToolNoBaseURL(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.ServerURLOverride = ""
	})
	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	assert.Equal(t, "No base URL defined in spec or SERVER_URL_OVERRIDE", AsProxyError(err).Message)
	assert.Empty(t, up.requests())
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://a/b/c", JoinURL("https://a/b/", "/c"))
	assert.Equal(t, "https://a/b/c", JoinURL("https://a/b", "c"))
	assert.Equal(t, "https://a/", JoinURL("https://a", "/"))
}

func TestDebugLogsNeverContainCredential(t *testing.T) {
	const secret = "sk-live-0123456789abcdef"
	core, logs := observer.New(zapcore.DebugLevel)

	e, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.APIKey = secret
		c.Debug = true
		o.Logger = zap.New(core)
	})

	_, err := e.CallTool(context.Background(), "get_pets", nil, "")
	require.NoError(t, err)
	_, err = e.CallTool(context.Background(), "nope", nil, "")
	require.Error(t, err)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, secret)
		assert.NotContains(t, fmt.Sprint(entry.ContextMap()), secret)
	}
	assert.NotZero(t, logs.FilterMessage("sending request").Len())
}

const fieldlessYAML = `
openapi: 3.0.0
info: {title: bare, version: "1"}
paths:
  /health:
    get: {}
  /pets:
    get:
      summary: list
`

func TestFieldlessOperationIsExposed(t *testing.T) {
	e, up := newTestEngine(t, fieldlessYAML, nil)

	tools, err := e.ListTools(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"get_health", "get_pets"}, toolNames(tools))
	assert.Equal(t, noDescription, tools[0].Description)
	assert.Nil(t, tools[0].OperationID)
	assert.Empty(t, tools[0].InputSchema.Properties)

	_, err = e.CallTool(context.Background(), "get_health", nil, "")
	require.NoError(t, err)
	require.Len(t, up.requests(), 1)
	assert.Equal(t, "/health", up.requests()[0].Path)
}

type noHeaders struct{}

func (noHeaders) Headers(*spec.Operation) map[string]string { return nil }

func TestCallToolResolverWithoutHeaders(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		o.Auth = noHeaders{}
	})

	_, err := e.CallTool(context.Background(), "post_pets", nil, "")
	require.NoError(t, err)
	req := up.requests()[0]
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

type sharedHeaders map[string]string

func (h sharedHeaders) Headers(*spec.Operation) map[string]string { return h }

func TestCallToolLeavesResolverHeadersUntouched(t *testing.T) {
	headers := sharedHeaders{"X-Tenant": "acme"}
	e, up := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		o.Auth = headers
	})

	_, err := e.CallTool(context.Background(), "post_pets", map[string]any{"name": "rex"}, "")
	require.NoError(t, err)
	assert.Equal(t, "acme", up.requests()[0].Header.Get("X-Tenant"))
	assert.Equal(t, sharedHeaders{"X-Tenant": "acme"}, headers)
}

func TestCallToolPathOnlyParamsSendEmptyObject(t *testing.T) {
	e, up := newTestEngine(t, petstoreYAML, nil)

	_, err := e.CallTool(context.Background(), "delete_pets_by_petId", map[string]any{"petId": 1}, "")
	require.NoError(t, err)

	req := up.requests()[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/pets/1", req.Path)
	assert.Equal(t, "{}", req.Body)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestListToolsSanitizesPrefix(t *testing.T) {
	e, _ := newTestEngine(t, petstoreYAML, func(c *config.Config, o *Options) {
		c.ToolNamePrefix = "my api."
	})

	tools := e.ListFunctions(context.Background(), "")
	require.NotEmpty(t, tools)
	assert.Equal(t, "my_api_get_pets", tools[0].Name)
	for _, tool := range tools {
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, tool.Name)
	}

	_, err := e.CallTool(context.Background(), "my_api_get_pets", nil, "")
	assert.NoError(t, err)
}
