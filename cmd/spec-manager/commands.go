package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/config"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/models"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/openapi2mcp"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/services"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/spec"
)

type runContext struct {
	ctx   context.Context
	store *services.SpecLoaderService
	cfg   *config.Config
	out   io.Writer
}

type ListCmd struct{}

func (c *ListCmd) Run(rc *runContext) error {
	specs, err := rc.store.GetAllSpecs(rc.ctx)
	if err != nil {
		return fmt.Errorf("failed to get specs: %w", err)
	}
	if len(specs) == 0 {
		fmt.Fprintln(rc.out, "No specs found in the database.")
		return nil
	}
	printSpecs(rc.out, specs, true)
	return nil
}

type ActiveCmd struct{}

func (c *ActiveCmd) Run(rc *runContext) error {
	specs, err := rc.store.GetActiveSpecs(rc.ctx)
	if err != nil {
		return fmt.Errorf("failed to get active specs: %w", err)
	}
	if len(specs) == 0 {
		fmt.Fprintln(rc.out, "No active specs found in the database.")
		return nil
	}
	printSpecs(rc.out, specs, false)
	return nil
}

type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Spec file (.yaml, .yml or .json)."`
	Name string `arg:"" help:"Name to store the spec under; serve it with OPENAPI_SPEC_URL=db:<name>."`
}

func (c *ImportCmd) Run(rc *runContext) error {
	created, err := rc.store.ImportSpecFromFile(rc.ctx, c.File, c.Name)
	if err != nil {
		return fmt.Errorf("failed to import spec: %w", err)
	}
	fmt.Fprintf(rc.out, "Successfully imported spec '%s' (id %d) from %s\n", created.Name, created.ID, c.File)
	return nil
}

type ImportDirCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory holding spec files."`
}

func (c *ImportDirCmd) Run(rc *runContext) error {
	results, err := rc.store.ImportDirectory(rc.ctx, c.Dir)
	if err != nil {
		return err
	}
	return reportImports(rc.out, results)
}

type SeedCmd struct {
	Config string `arg:"" type:"existingfile" help:"Seed file listing {file, name, active} entries (YAML or JSON)."`
}

func (c *SeedCmd) Run(rc *runContext) error {
	seed, err := services.LoadSeedConfig(c.Config)
	if err != nil {
		return err
	}
	return reportImports(rc.out, rc.store.Seed(rc.ctx, seed))
}

type ActivateCmd struct {
	ID int `arg:"" help:"Spec ID."`
}

func (c *ActivateCmd) Run(rc *runContext) error {
	if err := rc.store.ActivateSpec(rc.ctx, c.ID); err != nil {
		return fmt.Errorf("failed to activate spec: %w", err)
	}
	fmt.Fprintf(rc.out, "Successfully activated spec with ID %d\n", c.ID)
	return nil
}

type DeactivateCmd struct {
	ID int `arg:"" help:"Spec ID."`
}

func (c *DeactivateCmd) Run(rc *runContext) error {
	if err := rc.store.DeactivateSpec(rc.ctx, c.ID); err != nil {
		return fmt.Errorf("failed to deactivate spec: %w", err)
	}
	fmt.Fprintf(rc.out, "Successfully deactivated spec with ID %d\n", c.ID)
	return nil
}

type DeleteCmd struct {
	ID int `arg:"" help:"Spec ID."`
}

func (c *DeleteCmd) Run(rc *runContext) error {
	if err := rc.store.DeleteSpec(rc.ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete spec: %w", err)
	}
	fmt.Fprintf(rc.out, "Successfully deleted spec with ID %d\n", c.ID)
	return nil
}

// ShowCmd prints the tools a stored spec yields under the current
// TOOL_WHITELIST and TOOL_NAME_PREFIX settings.
type ShowCmd struct {
	Name  string `arg:"" help:"Stored spec name."`
	Tools bool   `help:"Also list every tool name."`
}

func (c *ShowCmd) Run(rc *runContext) error {
	stored, err := rc.store.GetSpec(rc.ctx, c.Name)
	if err != nil {
		return err
	}
	doc, err := spec.Parse([]byte(stored.SpecContent))
	if err != nil {
		return err
	}

	engine := openapi2mcp.New(openapi2mcp.Options{Config: rc.cfg})
	tools := engine.Describe(doc)

	fmt.Fprintf(rc.out, "%s (%s) %s\n", stored.Name, deref(stored.Title), deref(stored.Version))
	fmt.Fprintf(rc.out, "Active: %t\n", stored.Active())
	openapi2mcp.PrintToolSummary(rc.out, tools)
	if c.Tools {
		fmt.Fprintln(rc.out, "Tools:")
		for _, t := range tools {
			fmt.Fprintf(rc.out, "  %-40s %-7s %s\n", t.Name, t.Method, t.Path)
		}
	}
	return nil
}

func reportImports(out io.Writer, results []services.ImportResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "FAILED  %-20s %s: %v\n", r.Name, r.File, r.Err)
			continue
		}
		fmt.Fprintf(out, "OK      %-20s %s (active: %t)\n", r.Name, r.File, r.Active)
	}
	fmt.Fprintf(out, "Imported %d of %d specs\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d specs failed to import", failed)
	}
	return nil
}

func printSpecs(out io.Writer, specs []*models.OpenAPISpec, withActive bool) {
	if withActive {
		fmt.Fprintf(out, "%-4s %-20s %-30s %-10s %-8s %s\n", "ID", "Name", "Title", "Version", "Active", "Format")
		fmt.Fprintln(out, strings.Repeat("-", 85))
	} else {
		fmt.Fprintf(out, "%-4s %-20s %-30s %-10s %s\n", "ID", "Name", "Title", "Version", "Format")
		fmt.Fprintln(out, strings.Repeat("-", 76))
	}

	for _, s := range specs {
		name := truncate(s.Name, 18)
		title := truncate(deref(s.Title), 28)
		version := truncate(deref(s.Version), 8)
		format := deref(s.FileFormat)
		if withActive {
			fmt.Fprintf(out, "%-4d %-20s %-30s %-10s %-8t %s\n", s.ID, name, title, version, s.Active(), format)
		} else {
			fmt.Fprintf(out, "%-4d %-20s %-30s %-10s %s\n", s.ID, name, title, version, format)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
