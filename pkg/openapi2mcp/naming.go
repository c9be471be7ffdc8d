package openapi2mcp

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

const (
	// MaxToolNameLength is the longest name handed to MCP clients.
	MaxToolNameLength = 64
	truncatedLength   = 55
	unknownToolName   = "unknown_tool"
)

var (
	placeholderSegment = regexp.MustCompile(`^\{([^{}]+)\}$`)
	invalidNameChars   = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	repeatedUnderscore = regexp.MustCompile(`_+`)
)

// NormalizeToolName turns "<METHOD> <path>" into a tool identifier.
//
//	NormalizeToolName("GET /pets/{petId}/photos") // "get_pets_by_petId_photos"
//	NormalizeToolName("POST /")                   // "post_root"
func NormalizeToolName(raw string) string {
	method, path, ok := strings.Cut(raw, " ")
	if !ok || strings.TrimSpace(method) == "" {
		return unknownToolName
	}
	method = strings.ToLower(strings.TrimSpace(method))

	parts := []string{method}
	segments := 0
	for _, seg := range strings.Split(strings.TrimSpace(path), "/") {
		if seg == "" {
			continue
		}
		if m := placeholderSegment.FindStringSubmatch(seg); m != nil {
			seg = "by_" + m[1]
		} else {
			seg = strings.NewReplacer("{", "", "}", "").Replace(seg)
		}
		if seg == "" {
			continue
		}
		parts = append(parts, seg)
		segments++
	}

	if segments == 0 {
		return collapse(invalidNameChars.ReplaceAllString(method, "_")) + "_root"
	}

	name := invalidNameChars.ReplaceAllString(strings.Join(parts, "_"), "_")
	return collapse(name)
}

func collapse(name string) string {
	name = repeatedUnderscore.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// Namer applies the configured prefix and the length bound.
type Namer struct {
	Prefix string
}

// Name returns the final tool name for an operation. Disallowed characters
// in the prefix become underscores.
func (n Namer) Name(method, path string) string {
	return ShortenToolName(sanitizePrefix(n.Prefix) + NormalizeToolName(strings.ToUpper(method)+" "+path))
}

func sanitizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return repeatedUnderscore.ReplaceAllString(invalidNameChars.ReplaceAllString(prefix, "_"), "_")
}

// ShortenToolName bounds a name to MaxToolNameLength. Longer names are cut
// and suffixed with a hash of the full name so distinct inputs stay distinct.
func ShortenToolName(name string) string {
	if len(name) <= MaxToolNameLength {
		return name
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("%s_%08x", name[:truncatedLength], h.Sum32())
}
