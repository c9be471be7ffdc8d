package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/services"
)

const petstore = `openapi: 3.0.0
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      tags: [pets]
      summary: List pets
    post:
      tags: [pets]
      summary: Create a pet
  /store/inventory:
    get:
      tags: [store]
      summary: Inventory
`

var specCols = []string{"id", "name", "title", "version", "spec_content", "file_format", "file_size", "is_active", "created_at", "updated_at"}

func newRunContext(t *testing.T) (*runContext, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	out := &bytes.Buffer{}
	return &runContext{
		ctx:   context.Background(),
		store: services.NewSpecLoaderService(db, nil),
		cfg:   config.Default(),
		out:   out,
	}, mock, out
}

func TestListCmd(t *testing.T) {
	rc, mock, out := newRunContext(t)
	now := time.Now()

	mock.ExpectQuery("FROM openapi_specs ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(specCols).
			AddRow(1, "petstore", "Petstore", "1.0.0", petstore, "yaml", len(petstore), true, now, now).
			AddRow(2, "a-very-long-spec-name-indeed", nil, nil, "{}", "json", 2, false, now, now))

	require.NoError(t, (&ListCmd{}).Run(rc))

	text := out.String()
	assert.Contains(t, text, "petstore")
	assert.Contains(t, text, "Petstore")
	assert.Contains(t, text, "a-very-long-spec-n...")
	assert.Contains(t, text, "false")
}

func TestListCmdEmpty(t *testing.T) {
	rc, mock, out := newRunContext(t)
	mock.ExpectQuery("FROM openapi_specs").WillReturnRows(sqlmock.NewRows(specCols))

	require.NoError(t, (&ListCmd{}).Run(rc))
	assert.Equal(t, "No specs found in the database.\n", out.String())
}

func TestActiveCmdEmpty(t *testing.T) {
	rc, mock, out := newRunContext(t)
	mock.ExpectQuery("WHERE is_active = true").WillReturnRows(sqlmock.NewRows(specCols))

	require.NoError(t, (&ActiveCmd{}).Run(rc))
	assert.Equal(t, "No active specs found in the database.\n", out.String())
}

func TestImportCmd(t *testing.T) {
	rc, mock, out := newRunContext(t)
	path := filepath.Join(t.TempDir(), "petstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o644))
	now := time.Now()

	mock.ExpectQuery("INSERT INTO openapi_specs").
		WithArgs("pets", "Petstore", "1.0.0", petstore, "yaml", len(petstore), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, now, now))

	require.NoError(t, (&ImportCmd{File: path, Name: "pets"}).Run(rc))
	assert.Contains(t, out.String(), "Successfully imported spec 'pets' (id 5)")
}

func TestSeedCmdReportsFailures(t *testing.T) {
	rc, mock, out := newRunContext(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "petstore.yaml"), []byte(petstore), 0o644))
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`specs:
  - file: petstore.yaml
    name: pets
    active: false
  - file: missing.yaml
    name: ghost
`), 0o644))
	now := time.Now()

	mock.ExpectQuery("INSERT INTO openapi_specs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))
	mock.ExpectExec("UPDATE openapi_specs SET is_active").
		WithArgs(1, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := (&SeedCmd{Config: seed}).Run(rc)
	assert.EqualError(t, err, "1 specs failed to import")

	text := out.String()
	assert.Contains(t, text, "OK      pets")
	assert.Contains(t, text, "(active: false)")
	assert.Contains(t, text, "FAILED  ghost")
	assert.Contains(t, text, "Imported 1 of 2 specs")
}

func TestStateCommands(t *testing.T) {
	rc, mock, out := newRunContext(t)

	mock.ExpectExec("UPDATE openapi_specs SET is_active").WithArgs(2, true).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE openapi_specs SET is_active").WithArgs(2, false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM openapi_specs").WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM openapi_specs").WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, (&ActivateCmd{ID: 2}).Run(rc))
	require.NoError(t, (&DeactivateCmd{ID: 2}).Run(rc))
	require.NoError(t, (&DeleteCmd{ID: 2}).Run(rc))
	assert.ErrorContains(t, (&DeleteCmd{ID: 9}).Run(rc), "failed to delete spec")

	assert.Equal(t, "Successfully activated spec with ID 2\n"+
		"Successfully deactivated spec with ID 2\n"+
		"Successfully deleted spec with ID 2\n", out.String())
}

func TestShowCmd(t *testing.T) {
	rc, mock, out := newRunContext(t)
	rc.cfg.ToolNamePrefix = "pets_"
	now := time.Now()

	mock.ExpectQuery("FROM openapi_specs WHERE name").
		WithArgs("petstore").
		WillReturnRows(sqlmock.NewRows(specCols).
			AddRow(1, "petstore", "Petstore", "1.0.0", petstore, "yaml", len(petstore), true, now, now))

	require.NoError(t, (&ShowCmd{Name: "petstore", Tools: true}).Run(rc))

	text := out.String()
	assert.Contains(t, text, "petstore (Petstore) 1.0.0")
	assert.Contains(t, text, "Active: true")
	assert.Contains(t, text, "Total tools: 3")
	assert.Contains(t, text, "  GET: 2\n")
	assert.Contains(t, text, "  POST: 1\n")
	assert.Contains(t, text, "  pets: 2\n")
	assert.Contains(t, text, "pets_get_store_inventory")
}
