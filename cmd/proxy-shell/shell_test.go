package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/openapi2mcp"
)

type stubEngine struct {
	tools    []openapi2mcp.ToolDescriptor
	body     []byte
	err      error
	called   string
	params   map[string]any
	selector string
}

func (e *stubEngine) ListFunctions(_ context.Context, selector string) []openapi2mcp.ToolDescriptor {
	e.selector = selector
	return e.tools
}

func (e *stubEngine) CallTool(_ context.Context, name string, params map[string]any, selector string) ([]byte, error) {
	e.called, e.params, e.selector = name, params, selector
	return e.body, e.err
}

func petTools() []openapi2mcp.ToolDescriptor {
	return []openapi2mcp.ToolDescriptor{
		{Name: "get_pets", Method: "GET", Path: "/pets", Description: "List pets", Tags: []string{"pets"}},
		{Name: "post_pets", Method: "POST", Path: "/pets", Description: "Create a pet", Tags: []string{"pets"}},
	}
}

func TestShellList(t *testing.T) {
	out := &bytes.Buffer{}
	sh := newShell(&stubEngine{tools: petTools()}, out)

	assert.False(t, sh.exec(context.Background(), "list"))
	assert.Contains(t, out.String(), "get_pets")
	assert.Contains(t, out.String(), "Create a pet")

	out.Reset()
	sh = newShell(&stubEngine{}, out)
	sh.exec(context.Background(), "list")
	assert.Equal(t, "No functions available.\n", out.String())
}

func TestShellCall(t *testing.T) {
	out := &bytes.Buffer{}
	engine := &stubEngine{body: []byte(`{"id":1}`)}
	sh := newShell(engine, out)

	sh.exec(context.Background(), `call get_pets_by_petId {"petId": 1}`)

	assert.Equal(t, "get_pets_by_petId", engine.called)
	assert.Equal(t, map[string]any{"petId": float64(1)}, engine.params)
	assert.Equal(t, "{\n  \"id\": 1\n}\n", out.String())
}

func TestShellCallRawBody(t *testing.T) {
	out := &bytes.Buffer{}
	sh := newShell(&stubEngine{body: []byte("plain text")}, out)

	sh.exec(context.Background(), "call get_pets")
	assert.Equal(t, "plain text\n", out.String())
}

func TestShellCallErrors(t *testing.T) {
	out := &bytes.Buffer{}
	engine := &stubEngine{err: openapi2mcp.NewError(openapi2mcp.KindToolNotFound, "Function 'nope' not found")}
	sh := newShell(engine, out)

	sh.exec(context.Background(), "call")
	assert.Contains(t, out.String(), "usage: call <name> [json]")

	out.Reset()
	sh.exec(context.Background(), "call x {bad")
	assert.Contains(t, out.String(), "Invalid JSON parameters")
	assert.Empty(t, engine.called)

	out.Reset()
	sh.exec(context.Background(), "call nope")
	assert.Equal(t, "Error: Function 'nope' not found\n", out.String())
}

func TestShellEnvSelectsSpec(t *testing.T) {
	out := &bytes.Buffer{}
	engine := &stubEngine{tools: petTools()}
	sh := newShell(engine, out)

	sh.exec(context.Background(), "env OPENAPI_SPEC_URL_PETS")
	sh.exec(context.Background(), "list")
	assert.Equal(t, "OPENAPI_SPEC_URL_PETS", engine.selector)

	sh.exec(context.Background(), "env")
	sh.exec(context.Background(), "list")
	assert.Equal(t, "", engine.selector)
}

func TestShellSummaryHelpAndExit(t *testing.T) {
	out := &bytes.Buffer{}
	sh := newShell(&stubEngine{tools: petTools()}, out)

	sh.exec(context.Background(), "summary")
	assert.Contains(t, out.String(), "Total tools: 2")
	assert.Contains(t, out.String(), "  pets: 2\n")

	out.Reset()
	sh.exec(context.Background(), "help")
	assert.Contains(t, out.String(), "call <name> [json]")

	out.Reset()
	assert.False(t, sh.exec(context.Background(), "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	assert.False(t, sh.exec(context.Background(), "   "))
	assert.True(t, sh.exec(context.Background(), "exit"))
	assert.True(t, sh.exec(context.Background(), "quit"))
}

func TestSplitCommand(t *testing.T) {
	cmd, rest := splitCommand(`  call   fn {"a": 1} `)
	assert.Equal(t, "call", cmd)
	assert.Equal(t, `fn {"a": 1}`, rest)
}
