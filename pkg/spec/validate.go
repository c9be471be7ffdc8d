package spec

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validate checks an OpenAPI 3.x document with the kin-openapi validator.
// Swagger 2.0 documents are accepted as-is.
func (d *Document) Validate(ctx context.Context) error {
	if d.OpenAPI == "" {
		return nil
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(d.raw)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("OpenAPI spec validation failed: %w", err)
	}
	return nil
}
