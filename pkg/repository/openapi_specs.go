package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/models"
)

// ErrNotFound is returned when no spec matches a lookup.
var ErrNotFound = errors.New("openapi spec not found")

const specColumns = `id, name, title, version, spec_content, file_format, file_size, is_active, created_at, updated_at`

// OpenAPISpecRepository handles database operations for OpenAPI specs
type OpenAPISpecRepository struct {
	db *sql.DB
}

// NewOpenAPISpecRepository creates a new repository instance
func NewOpenAPISpecRepository(db *sql.DB) *OpenAPISpecRepository {
	return &OpenAPISpecRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpec(row rowScanner) (*models.OpenAPISpec, error) {
	spec := &models.OpenAPISpec{}
	err := row.Scan(
		&spec.ID,
		&spec.Name,
		&spec.Title,
		&spec.Version,
		&spec.SpecContent,
		&spec.FileFormat,
		&spec.FileSize,
		&spec.IsActive,
		&spec.CreatedAt,
		&spec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// Create inserts a new OpenAPI spec into the database
func (r *OpenAPISpecRepository) Create(ctx context.Context, spec *models.OpenAPISpec) (*models.OpenAPISpec, error) {
	query := `
		INSERT INTO openapi_specs (name, title, version, spec_content, file_format, file_size, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx,
		query,
		spec.Name,
		spec.Title,
		spec.Version,
		spec.SpecContent,
		spec.FileFormat,
		spec.FileSize,
		spec.IsActive,
	).Scan(&spec.ID, &spec.CreatedAt, &spec.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create openapi spec: %w", err)
	}

	return spec, nil
}

// GetByID retrieves an OpenAPI spec by its ID
func (r *OpenAPISpecRepository) GetByID(ctx context.Context, id int) (*models.OpenAPISpec, error) {
	query := `SELECT ` + specColumns + ` FROM openapi_specs WHERE id = $1`

	spec, err := scanSpec(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get openapi spec: %w", err)
	}
	return spec, nil
}

// GetByName retrieves an OpenAPI spec by its name
func (r *OpenAPISpecRepository) GetByName(ctx context.Context, name string) (*models.OpenAPISpec, error) {
	query := `SELECT ` + specColumns + ` FROM openapi_specs WHERE name = $1`

	spec, err := scanSpec(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: name %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to get openapi spec: %w", err)
	}
	return spec, nil
}

// GetAll retrieves all OpenAPI specs
func (r *OpenAPISpecRepository) GetAll(ctx context.Context) ([]*models.OpenAPISpec, error) {
	return r.list(ctx, `SELECT `+specColumns+` FROM openapi_specs ORDER BY created_at DESC`)
}

// GetActive retrieves all active OpenAPI specs
func (r *OpenAPISpecRepository) GetActive(ctx context.Context) ([]*models.OpenAPISpec, error) {
	return r.list(ctx, `SELECT `+specColumns+` FROM openapi_specs WHERE is_active = true ORDER BY created_at DESC`)
}

func (r *OpenAPISpecRepository) list(ctx context.Context, query string) ([]*models.OpenAPISpec, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list openapi specs: %w", err)
	}
	defer rows.Close()

	var specs []*models.OpenAPISpec
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan openapi spec: %w", err)
		}
		specs = append(specs, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate openapi specs: %w", err)
	}

	return specs, nil
}

// Update modifies an existing OpenAPI spec
func (r *OpenAPISpecRepository) Update(ctx context.Context, spec *models.OpenAPISpec) (*models.OpenAPISpec, error) {
	query := `
		UPDATE openapi_specs
		SET name = $2, title = $3, version = $4, spec_content = $5,
		    file_format = $6, file_size = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx,
		query,
		spec.ID,
		spec.Name,
		spec.Title,
		spec.Version,
		spec.SpecContent,
		spec.FileFormat,
		spec.FileSize,
		spec.IsActive,
	).Scan(&spec.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, spec.ID)
		}
		return nil, fmt.Errorf("failed to update openapi spec: %w", err)
	}

	return spec, nil
}

// Delete removes an OpenAPI spec from the database
func (r *OpenAPISpecRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM openapi_specs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete openapi spec: %w", err)
	}
	return expectOneRow(result, id)
}

// SetActive sets the is_active status of an OpenAPI spec
func (r *OpenAPISpecRepository) SetActive(ctx context.Context, id int, active bool) error {
	query := `UPDATE openapi_specs SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set active status: %w", err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}
