package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/openapi2mcp"
)

const (
	ListFunctionsTool = "list_functions"
	CallFunctionTool  = "call_function"
)

// ToolEngine is the subset of *openapi2mcp.Engine the MCP tools need.
type ToolEngine interface {
	ListFunctions(ctx context.Context, selector string) []openapi2mcp.ToolDescriptor
	CallTool(ctx context.Context, name string, params map[string]any, selector string) ([]byte, error)
}

// NewMCPServer creates an MCP server exposing list_functions and call_function
// over engine.
func NewMCPServer(name, version string, engine ToolEngine, logger *zap.Logger) *mcpserver.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(true))
	RegisterTools(s, engine, logger)
	return s
}

// RegisterTools adds the two proxy tools to s.
func RegisterTools(s *mcpserver.MCPServer, engine ToolEngine, logger *zap.Logger) {
	logger = logger.With(zap.String("component", "mcp_tools"))
	s.AddTool(listFunctionsTool(), listFunctionsHandler(engine))
	s.AddTool(callFunctionTool(), callFunctionHandler(engine, logger))
}

func listFunctionsTool() mcp.Tool {
	return mcp.NewTool(ListFunctionsTool,
		mcp.WithDescription("List the functions exposed by the configured OpenAPI specification. "+
			"Returns a JSON array of {name, description, path, method, operationId, original_name, inputSchema}."),
		mcp.WithString("env_key",
			mcp.Description("Configuration key holding the spec location (default OPENAPI_SPEC_URL)"),
		),
	)
}

func callFunctionTool() mcp.Tool {
	return mcp.NewTool(CallFunctionTool,
		mcp.WithDescription("Call a function listed by list_functions and return the raw API response."),
		mcp.WithString("function_name",
			mcp.Required(),
			mcp.Description("Name of the function as returned by list_functions"),
		),
		mcp.WithObject("parameters",
			mcp.Description("Arguments for the function: path, query or body parameters by name"),
		),
		mcp.WithString("env_key",
			mcp.Description("Configuration key holding the spec location (default OPENAPI_SPEC_URL)"),
		),
	)
}

func listFunctionsHandler(engine ToolEngine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tools := engine.ListFunctions(ctx, req.GetString("env_key", ""))
		data, err := json.Marshal(tools)
		if err != nil {
			return mcp.NewToolResultText("[]"), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func callFunctionHandler(engine ToolEngine, logger *zap.Logger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := parameters(req.GetArguments()["parameters"])
		if err != nil {
			return errorResult(openapi2mcp.Wrap(err, openapi2mcp.KindInvalidArgument, "Invalid parameters: "+err.Error())), nil
		}

		body, err := engine.CallTool(ctx, req.GetString("function_name", ""), params, req.GetString("env_key", ""))
		if err != nil {
			logger.Debug("call_function returned error", zap.Error(err))
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// parameters accepts the call arguments as an object or as a JSON-encoded
// object string, which some clients send.
func parameters(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]any{}, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("parameters must be a JSON object: %w", err)
		}
		if m == nil {
			m = map[string]any{}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("parameters must be an object, got %T", raw)
	}
}

func errorResult(err error) *mcp.CallToolResult {
	data, _ := json.Marshal(openapi2mcp.AsProxyError(err).Payload())
	return mcp.NewToolResultError(string(data))
}
