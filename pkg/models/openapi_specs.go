package models

import (
	"strings"
	"time"
)

// Supported stored document formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// OpenAPISpec represents the openapi_specs table structure
type OpenAPISpec struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Title       *string    `json:"title,omitempty" db:"title"`
	Version     *string    `json:"version,omitempty" db:"version"`
	SpecContent string     `json:"spec_content,omitempty" db:"spec_content"`
	FileFormat  *string    `json:"file_format,omitempty" db:"file_format"`
	FileSize    *int       `json:"file_size,omitempty" db:"file_size"`
	IsActive    *bool      `json:"is_active,omitempty" db:"is_active"`
	CreatedAt   *time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// TableName returns the table name for the OpenAPISpec model
func (OpenAPISpec) TableName() string {
	return "openapi_specs"
}

// Active reports whether the spec is active. A NULL flag counts as active,
// matching the column default.
func (s *OpenAPISpec) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// NewOpenAPISpec creates a new OpenAPISpec instance with default values
func NewOpenAPISpec(name, specContent string) *OpenAPISpec {
	now := time.Now()
	active := true
	format := DetectFormat("", specContent)
	size := len(specContent)

	return &OpenAPISpec{
		Name:        name,
		SpecContent: specContent,
		FileFormat:  &format,
		FileSize:    &size,
		IsActive:    &active,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
}

// DetectFormat guesses the document format from a file name, falling back to
// the content itself.
func DetectFormat(fileName, content string) string {
	if strings.HasSuffix(strings.ToLower(fileName), ".json") {
		return FormatJSON
	}
	if fileName == "" && strings.HasPrefix(strings.TrimSpace(content), "{") {
		return FormatJSON
	}
	return FormatYAML
}
