package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/models"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/repository"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

// ErrInactive is returned when a stored spec exists but is deactivated.
var ErrInactive = errors.New("openapi spec is not active")

// SpecConfig defines how each spec should be imported
type SpecConfig struct {
	File   string `json:"file" yaml:"file"`
	Name   string `json:"name" yaml:"name"`
	Active *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

// SeedConfig defines the seeding configuration
type SeedConfig struct {
	Specs []SpecConfig `json:"specs" yaml:"specs"`
}

// ImportResult reports the outcome of one file during a bulk import.
type ImportResult struct {
	File   string
	Name   string
	Active bool
	Err    error
}

// SpecLoaderService handles storing and reading OpenAPI documents in the database
type SpecLoaderService struct {
	specRepo *repository.OpenAPISpecRepository
	logger   *zap.Logger
}

// NewSpecLoaderService creates a new spec loader service
func NewSpecLoaderService(db *sql.DB, logger *zap.Logger) *SpecLoaderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecLoaderService{
		specRepo: repository.NewOpenAPISpecRepository(db),
		logger:   logger.With(zap.String("component", "spec_store")),
	}
}

// SpecContent returns the stored document for an active spec. The spec
// loader resolves db:<name> locations through this method.
func (s *SpecLoaderService) SpecContent(ctx context.Context, name string) ([]byte, error) {
	stored, err := s.specRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec %q: %w", name, err)
	}
	if !stored.Active() {
		return nil, fmt.Errorf("%w: %s", ErrInactive, name)
	}
	return []byte(stored.SpecContent), nil
}

// GetSpec returns a stored spec by name, active or not.
func (s *SpecLoaderService) GetSpec(ctx context.Context, name string) (*models.OpenAPISpec, error) {
	return s.specRepo.GetByName(ctx, name)
}

// ImportSpecFromFile imports a spec from a file into the database
func (s *SpecLoaderService) ImportSpecFromFile(ctx context.Context, filePath, name string) (*models.OpenAPISpec, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return s.CreateSpecFromContent(ctx, name, string(content), models.DetectFormat(filePath, string(content)))
}

// CreateSpecFromContent parses content to extract title and version and
// stores it as a new active spec.
func (s *SpecLoaderService) CreateSpecFromContent(ctx context.Context, name, content, fileFormat string) (*models.OpenAPISpec, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("spec name is required")
	}

	doc, err := spec.Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}

	stored := models.NewOpenAPISpec(name, content)
	if doc.Title != "" {
		stored.Title = &doc.Title
	}
	if doc.Version != "" {
		stored.Version = &doc.Version
	}
	if fileFormat != "" {
		stored.FileFormat = &fileFormat
	}

	created, err := s.specRepo.Create(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to save spec to database: %w", err)
	}

	s.logger.Info("spec imported",
		zap.String("name", name),
		zap.Int("id", created.ID),
		zap.Int("operations", doc.OperationCount()),
	)
	return created, nil
}

// LoadSeedConfig reads a seed file in YAML or JSON.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var cfg SeedConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	base := filepath.Dir(path)
	for i := range cfg.Specs {
		if cfg.Specs[i].File != "" && !filepath.IsAbs(cfg.Specs[i].File) {
			cfg.Specs[i].File = filepath.Join(base, cfg.Specs[i].File)
		}
	}
	return &cfg, nil
}

// Seed imports every entry of cfg. Failures are reported per entry and do
// not stop the run.
func (s *SpecLoaderService) Seed(ctx context.Context, cfg *SeedConfig) []ImportResult {
	results := make([]ImportResult, 0, len(cfg.Specs))
	for _, entry := range cfg.Specs {
		active := entry.Active == nil || *entry.Active
		res := ImportResult{File: entry.File, Name: entry.Name, Active: active}

		created, err := s.ImportSpecFromFile(ctx, entry.File, entry.Name)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		if !active {
			res.Err = s.DeactivateSpec(ctx, created.ID)
		}
		results = append(results, res)
	}
	return results
}

// ImportDirectory imports every .yaml, .yml and .json file in dir, naming
// each spec after its file name.
func (s *SpecLoaderService) ImportDirectory(ctx context.Context, dir string) ([]ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read specs directory: %w", err)
	}

	var results []ImportResult
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		path := filepath.Join(dir, e.Name())

		_, err := s.ImportSpecFromFile(ctx, path, name)
		results = append(results, ImportResult{File: path, Name: name, Active: err == nil, Err: err})
	}
	return results, nil
}

// GetAllSpecs returns all specs from the database
func (s *SpecLoaderService) GetAllSpecs(ctx context.Context) ([]*models.OpenAPISpec, error) {
	return s.specRepo.GetAll(ctx)
}

// GetActiveSpecs returns all active specs from the database
func (s *SpecLoaderService) GetActiveSpecs(ctx context.Context) ([]*models.OpenAPISpec, error) {
	return s.specRepo.GetActive(ctx)
}

// ActivateSpec activates a spec by ID
func (s *SpecLoaderService) ActivateSpec(ctx context.Context, id int) error {
	return s.specRepo.SetActive(ctx, id, true)
}

// DeactivateSpec deactivates a spec by ID
func (s *SpecLoaderService) DeactivateSpec(ctx context.Context, id int) error {
	return s.specRepo.SetActive(ctx, id, false)
}

// DeleteSpec deletes a spec by ID
func (s *SpecLoaderService) DeleteSpec(ctx context.Context, id int) error {
	return s.specRepo.Delete(ctx, id)
}
