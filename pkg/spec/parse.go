package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when the input holds no YAML or JSON value.
var ErrEmptyDocument = errors.New("empty specification document")

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

var knownTypes = map[string]bool{
	"string": true, "integer": true, "boolean": true, "number": true,
}

// Parse decodes a JSON or YAML OpenAPI/Swagger document.
func Parse(data []byte) (*Document, error) {
	src := data
	// Tabs are only legal as whitespace in valid JSON, and yaml.v3 rejects them.
	if json.Valid(src) {
		src = bytes.ReplaceAll(src, []byte("\t"), []byte(" "))
	}

	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	top := deref(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse OpenAPI spec: root must be a mapping, got %s", kindName(top))
	}

	p := &parser{root: top}
	doc := &Document{raw: data}

	doc.OpenAPI = scalar(mapGet(top, "openapi"))
	doc.Swagger = scalar(mapGet(top, "swagger"))
	if info := p.resolve(mapGet(top, "info")); info != nil {
		doc.Title = scalar(mapGet(info, "title"))
		doc.Version = scalar(mapGet(info, "version"))
	}
	doc.Servers = p.servers(mapGet(top, "servers"))
	doc.Host = scalar(mapGet(top, "host"))
	doc.BasePath = scalar(mapGet(top, "basePath"))
	doc.Schemes = stringList(mapGet(top, "schemes"))

	paths := mapGet(top, "paths")
	if paths == nil {
		return doc, nil
	}
	doc.HasPaths = true

	paths = deref(paths)
	if paths.Kind != yaml.MappingNode {
		return doc, nil
	}
	for i := 0; i+1 < len(paths.Content); i += 2 {
		item := p.pathItem(paths.Content[i].Value, paths.Content[i+1])
		if item != nil {
			doc.Paths = append(doc.Paths, item)
		}
	}
	return doc, nil
}

type parser struct {
	root *yaml.Node
}

func (p *parser) pathItem(path string, n *yaml.Node) *PathItem {
	n = p.resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	item := &PathItem{
		Path:    path,
		Servers: p.servers(mapGet(n, "servers")),
	}
	shared := p.parameters(mapGet(n, "parameters"))

	for i := 0; i+1 < len(n.Content); i += 2 {
		method := strings.ToLower(n.Content[i].Value)
		if !httpMethods[method] {
			continue
		}
		opNode := p.resolve(n.Content[i+1])
		if opNode == nil || opNode.Kind != yaml.MappingNode {
			continue
		}
		item.Operations = append(item.Operations, p.operation(path, method, opNode, shared, item.Servers))
	}
	return item
}

func (p *parser) operation(path, method string, n *yaml.Node, shared []Parameter, pathServers []*openapi3.Server) *Operation {
	op := &Operation{
		Path:        path,
		Method:      method,
		Summary:     scalar(mapGet(n, "summary")),
		Description: scalar(mapGet(n, "description")),
		Tags:        stringList(mapGet(n, "tags")),
		Servers:     p.servers(mapGet(n, "servers")),
		PathServers: pathServers,
	}
	if id := mapGet(n, "operationId"); id != nil {
		v := scalar(id)
		op.OperationID = &v
	}

	own := p.parameters(mapGet(n, "parameters"))
	overridden := make(map[string]bool, len(own))
	for _, param := range own {
		overridden[param.In+"\x00"+param.Name] = true
	}
	for _, param := range shared {
		if !overridden[param.In+"\x00"+param.Name] {
			op.Parameters = append(op.Parameters, param)
		}
	}
	op.Parameters = append(op.Parameters, own...)

	declared := make(map[string]bool, len(op.Parameters))
	for _, param := range op.Parameters {
		declared[param.Name] = true
	}
	for _, param := range p.bodyParameters(mapGet(n, "requestBody")) {
		if !declared[param.Name] {
			op.Parameters = append(op.Parameters, param)
		}
	}
	return op
}

func (p *parser) parameters(n *yaml.Node) []Parameter {
	n = p.resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	var params []Parameter
	for _, raw := range n.Content {
		pn := p.resolve(raw)
		if pn == nil || pn.Kind != yaml.MappingNode {
			continue
		}
		name := scalar(mapGet(pn, "name"))
		if name == "" {
			continue
		}
		param := Parameter{
			Name:        name,
			In:          scalar(mapGet(pn, "in")),
			Required:    cast.ToBool(scalar(mapGet(pn, "required"))),
			Description: scalar(mapGet(pn, "description")),
		}
		param.Type = schemaType(mapGet(pn, "type"))
		if mapGet(pn, "type") == nil {
			if schema := p.resolve(mapGet(pn, "schema")); schema != nil {
				param.Type = schemaType(mapGet(schema, "type"))
			}
		}
		params = append(params, param)
	}
	return params
}

// bodyParameters flattens a JSON object request body into body parameters.
// Nested or non-object bodies yield nothing.
func (p *parser) bodyParameters(n *yaml.Node) []Parameter {
	body := p.resolve(n)
	if body == nil || body.Kind != yaml.MappingNode {
		return nil
	}
	content := p.resolve(mapGet(body, "content"))
	if content == nil || content.Kind != yaml.MappingNode {
		return nil
	}

	var media *yaml.Node
	for i := 0; i+1 < len(content.Content); i += 2 {
		mt := strings.ToLower(content.Content[i].Value)
		if base, _, _ := strings.Cut(mt, ";"); strings.TrimSpace(base) == "application/json" || strings.HasSuffix(strings.TrimSpace(base), "+json") {
			media = p.resolve(content.Content[i+1])
			break
		}
	}
	if media == nil {
		return nil
	}
	schema := p.resolve(mapGet(media, "schema"))
	if schema == nil {
		return nil
	}
	props := p.resolve(mapGet(schema, "properties"))
	if props == nil || props.Kind != yaml.MappingNode {
		return nil
	}

	required := make(map[string]bool)
	for _, r := range stringList(mapGet(schema, "required")) {
		required[r] = true
	}

	var params []Parameter
	for i := 0; i+1 < len(props.Content); i += 2 {
		name := props.Content[i].Value
		prop := p.resolve(props.Content[i+1])
		param := Parameter{Name: name, In: "body", Type: "string", Required: required[name]}
		if prop != nil {
			param.Type = schemaType(mapGet(prop, "type"))
			param.Description = scalar(mapGet(prop, "description"))
		}
		params = append(params, param)
	}
	return params
}

func (p *parser) servers(n *yaml.Node) []*openapi3.Server {
	n = p.resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	var servers []*openapi3.Server
	for _, raw := range n.Content {
		sn := p.resolve(raw)
		if sn == nil || sn.Kind != yaml.MappingNode {
			continue
		}
		var s openapi3.Server
		if err := sn.Decode(&s); err != nil || s.URL == "" {
			continue
		}
		servers = append(servers, &s)
	}
	return servers
}

// schemaType normalizes a type node to one of the four supported scalar
// types. Type arrays use their first non-null member.
func schemaType(n *yaml.Node) string {
	n = deref(n)
	if n == nil {
		return "string"
	}
	t := n.Value
	if n.Kind == yaml.SequenceNode {
		t = ""
		for _, c := range n.Content {
			if v := deref(c).Value; v != "null" {
				t = v
				break
			}
		}
	}
	if knownTypes[t] {
		return t
	}
	return "string"
}

func mapGet(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func scalar(n *yaml.Node) string {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

func stringList(n *yaml.Node) []string {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if v := scalar(c); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	}
	return "unknown"
}
