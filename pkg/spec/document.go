// Package spec parses OpenAPI 3.x and Swagger 2.0 documents into an ordered,
// read-only model of paths, operations and parameters.
//
// Path and method order follow the source document, which is what tool
// enumeration relies on. JSON and YAML inputs are both decoded through
// yaml.v3 nodes so that mapping order survives parsing.
package spec

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document is a parsed specification. It is immutable once returned by Parse.
type Document struct {
	OpenAPI string
	Swagger string
	Title   string
	Version string

	// HasPaths reports whether the document declared a paths section at all.
	HasPaths bool
	Paths    []*PathItem

	Servers []*openapi3.Server

	// Swagger 2.0 base URL parts.
	Host     string
	BasePath string
	Schemes  []string

	// Location is where the document was loaded from, if known.
	Location string

	raw []byte
}

// PathItem is one entry of the paths section.
type PathItem struct {
	Path       string
	Operations []*Operation
	Servers    []*openapi3.Server
}

// Operation is one HTTP method on a path.
type Operation struct {
	Path        string
	Method      string // lowercase
	OperationID *string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter

	Servers     []*openapi3.Server
	PathServers []*openapi3.Server
}

// Parameter is a declared operation input. Type is always one of string,
// integer, boolean or number.
type Parameter struct {
	Name        string
	In          string
	Type        string
	Required    bool
	Description string
}

// Raw returns the bytes the document was parsed from.
func (d *Document) Raw() []byte {
	return d.raw
}

// OperationCount returns the number of operations across all paths.
func (d *Document) OperationCount() int {
	n := 0
	for _, item := range d.Paths {
		n += len(item.Operations)
	}
	return n
}

// PathParameters returns the parameters declared in: path.
func (op *Operation) PathParameters() []Parameter {
	var params []Parameter
	for _, p := range op.Parameters {
		if p.In == "path" {
			params = append(params, p)
		}
	}
	return params
}

// ServerURLs returns candidate server URLs in precedence order: operation,
// path item, document, then the Swagger 2.0 scheme/host/basePath triple.
// Server variables are replaced by their default values.
func (d *Document) ServerURLs(op *Operation) []string {
	var urls []string
	add := func(servers []*openapi3.Server) {
		for _, s := range servers {
			if u := expandServerURL(s); u != "" {
				urls = append(urls, u)
			}
		}
	}
	if op != nil {
		add(op.Servers)
		add(op.PathServers)
	}
	add(d.Servers)

	if d.Host != "" {
		scheme := "https"
		if len(d.Schemes) > 0 && d.Schemes[0] != "" {
			scheme = d.Schemes[0]
		}
		urls = append(urls, scheme+"://"+d.Host+d.BasePath)
	}
	return urls
}

func expandServerURL(s *openapi3.Server) string {
	if s == nil {
		return ""
	}
	u := s.URL
	for name, v := range s.Variables {
		if v == nil {
			continue
		}
		u = strings.ReplaceAll(u, "{"+name+"}", v.Default)
	}
	return u
}
