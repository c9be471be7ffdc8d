// summary.go
package openapi2mcp

import (
	"fmt"
	"io"
	"sort"
)

// PrintToolSummary writes a human-readable summary of the tools derived from
// a document: the total, then counts per HTTP method and per tag.
//
// Example usage:
//
//	tools := engine.Describe(doc)
//	openapi2mcp.PrintToolSummary(os.Stdout, tools)
//
// Output example:
//
//	Total tools: 12
//	Methods:
//	  GET: 8
//	  POST: 4
//	Tags:
//	  pets: 8
//	  store: 3
func PrintToolSummary(w io.Writer, tools []ToolDescriptor) {
	methodCount := map[string]int{}
	tagCount := map[string]int{}
	for _, t := range tools {
		methodCount[t.Method]++
		for _, tag := range t.Tags {
			tagCount[tag]++
		}
	}

	fmt.Fprintf(w, "Total tools: %d\n", len(tools))
	printCounts(w, "Methods", methodCount)
	printCounts(w, "Tags", tagCount)
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}
