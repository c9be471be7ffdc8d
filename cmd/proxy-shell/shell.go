package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/openapi2mcp"
)

// Engine is the part of *openapi2mcp.Engine the shell drives.
type Engine interface {
	ListFunctions(ctx context.Context, selector string) []openapi2mcp.ToolDescriptor
	CallTool(ctx context.Context, name string, params map[string]any, selector string) ([]byte, error)
}

type shell struct {
	engine   Engine
	out      io.Writer
	selector string
}

func newShell(engine Engine, out io.Writer) *shell {
	return &shell{engine: engine, out: out}
}

// exec runs one input line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "":
	case "exit", "quit":
		return true
	case "help":
		s.help()
	case "list":
		s.list(ctx)
	case "summary":
		openapi2mcp.PrintToolSummary(s.out, s.engine.ListFunctions(ctx, s.selector))
	case "env":
		s.selector = rest
		if rest == "" {
			fmt.Fprintln(s.out, "Using default spec")
		} else {
			fmt.Fprintf(s.out, "Using spec from %s\n", rest)
		}
	case "call":
		s.call(ctx, rest)
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help')\n", cmd)
	}
	return false
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  list                     List available functions")
	fmt.Fprintln(s.out, "  call <name> [json]       Call a function with optional JSON parameters")
	fmt.Fprintln(s.out, "  summary                  Count functions by method and tag")
	fmt.Fprintln(s.out, "  env [key]                Select the spec by configuration key")
	fmt.Fprintln(s.out, "  help                     Show this help message")
	fmt.Fprintln(s.out, "  exit                     Leave the shell")
}

func (s *shell) list(ctx context.Context) {
	tools := s.engine.ListFunctions(ctx, s.selector)
	if len(tools) == 0 {
		fmt.Fprintln(s.out, "No functions available.")
		return
	}
	for _, t := range tools {
		fmt.Fprintf(s.out, "%-40s %-7s %-30s %s\n", t.Name, t.Method, t.Path, t.Description)
	}
}

func (s *shell) call(ctx context.Context, rest string) {
	name, raw := splitCommand(rest)
	if name == "" {
		fmt.Fprintln(s.out, "usage: call <name> [json]")
		return
	}

	params := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			fmt.Fprintf(s.out, "Invalid JSON parameters: %v\n", err)
			return
		}
	}

	body, err := s.engine.CallTool(ctx, name, params, s.selector)
	if err != nil {
		pe := openapi2mcp.AsProxyError(err)
		fmt.Fprintf(s.out, "Error: %s\n", pe.Message)
		if pe.Details != "" {
			fmt.Fprintf(s.out, "  %s\n", pe.Details)
		}
		return
	}
	fmt.Fprintln(s.out, prettyJSON(body))
}

// completer offers command names and, after "call", the current function
// names.
func (s *shell) completer(ctx context.Context) *readline.PrefixCompleter {
	names := func(string) []string {
		tools := s.engine.ListFunctions(ctx, s.selector)
		out := make([]string, 0, len(tools))
		for _, t := range tools {
			out = append(out, t.Name)
		}
		sort.Strings(out)
		return out
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("list"),
		readline.PcItem("call", readline.PcItemDynamic(names)),
		readline.PcItem("summary"),
		readline.PcItem("env"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	return cmd, strings.TrimSpace(rest)
}

func prettyJSON(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(body)
	}
	return string(out)
}
