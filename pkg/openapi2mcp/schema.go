// schema.go
package openapi2mcp

import (
	"fmt"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

// PropertySchema describes one tool input property.
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// InputSchema is the JSON Schema object advertised for a tool's parameters.
type InputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]PropertySchema `json:"properties"`
	Required             []string                  `json:"required"`
	AdditionalProperties bool                      `json:"additionalProperties"`
}

// BuildInputSchema converts operation parameters into a single object schema.
// A repeated parameter name keeps the last property definition; its required
// entry keeps its first position.
//
//	schema := openapi2mcp.BuildInputSchema(op.Parameters)
//	// schema.Properties["petId"].Type == "integer"
func BuildInputSchema(params []spec.Parameter) InputSchema {
	schema := InputSchema{
		Type:       "object",
		Properties: make(map[string]PropertySchema, len(params)),
		Required:   []string{},
	}
	var order []string
	required := make(map[string]bool)

	for _, p := range params {
		desc := p.Description
		if desc == "" {
			in := p.In
			if in == "" {
				in = "unknown"
			}
			desc = fmt.Sprintf("%s parameter %s", in, p.Name)
		}
		schema.Properties[p.Name] = PropertySchema{
			Type:        propertyType(p.Type),
			Description: desc,
		}
		if _, ok := required[p.Name]; !ok {
			order = append(order, p.Name)
		}
		required[p.Name] = p.Required
	}

	// the last declaration of a name decides whether it is required
	for _, name := range order {
		if required[name] {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

func propertyType(t string) string {
	switch t {
	case "string", "integer", "boolean", "number":
		return t
	}
	return "string"
}

// Map returns the schema as a generic JSON object.
func (s InputSchema) Map() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	required := make([]any, len(s.Required))
	for i, r := range s.Required {
		required[i] = r
	}
	return map[string]any{
		"type":                 s.Type,
		"properties":           props,
		"required":             required,
		"additionalProperties": s.AdditionalProperties,
	}
}
