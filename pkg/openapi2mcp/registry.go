package openapi2mcp

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

const noDescription = "No description provided."

var supportedMethods = map[string]bool{
	"get":    true,
	"post":   true,
	"put":    true,
	"delete": true,
	"patch":  true,
}

type toolEntry struct {
	name string
	op   *spec.Operation
}

// enumerate walks the document in path order, then method declaration
// order, and calls visit for every exposed tool until visit returns false.
// Both ListTools and CallTool go through here so names always agree.
func (e *Engine) enumerate(doc *spec.Document, visit func(toolEntry) bool) {
	seen := make(map[string]bool)
	for _, item := range doc.Paths {
		if len(item.Operations) == 0 || !e.filter.Allowed(item.Path) {
			continue
		}
		for _, op := range item.Operations {
			if !supportedMethods[strings.ToLower(op.Method)] {
				continue
			}
			name := e.namer.Name(op.Method, item.Path)
			if seen[name] {
				e.logger.Debug("skipping duplicate tool name",
					zap.String("tool", name),
					zap.String("method", strings.ToUpper(op.Method)),
					zap.String("path", item.Path),
				)
				continue
			}
			seen[name] = true
			if !visit(toolEntry{name: name, op: op}) {
				return
			}
		}
	}
}

// ListTools returns the descriptors for the document selected by selector.
func (e *Engine) ListTools(ctx context.Context, selector string) ([]ToolDescriptor, error) {
	doc, err := e.fetch(ctx, selector)
	if err != nil {
		return nil, err
	}
	return e.Describe(doc), nil
}

// Describe builds descriptors for an already parsed document.
func (e *Engine) Describe(doc *spec.Document) []ToolDescriptor {
	tools := []ToolDescriptor{}
	e.enumerate(doc, func(t toolEntry) bool {
		tools = append(tools, describe(t))
		return true
	})
	return tools
}

// ListFunctions is the list capability: any failure yields an empty list.
func (e *Engine) ListFunctions(ctx context.Context, selector string) []ToolDescriptor {
	tools, err := e.ListTools(ctx, selector)
	e.metrics.RecordToolList(err == nil)
	if err != nil {
		e.logger.Warn("list_functions failed", zap.Error(err))
		return []ToolDescriptor{}
	}
	e.logger.Debug("list_functions", zap.Int("tools", len(tools)))
	return tools
}

func describe(t toolEntry) ToolDescriptor {
	method := strings.ToUpper(t.op.Method)

	desc := t.op.Summary
	if desc == "" {
		desc = t.op.Description
	}
	if desc == "" {
		desc = noDescription
	}

	return ToolDescriptor{
		Name:         t.name,
		Description:  desc,
		Path:         t.op.Path,
		Method:       method,
		OperationID:  t.op.OperationID,
		OriginalName: method + " " + t.op.Path,
		InputSchema:  BuildInputSchema(t.op.Parameters),
		Tags:         t.op.Tags,
	}
}
