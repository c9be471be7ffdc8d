package openapi2mcp

import (
	"regexp"
	"strings"
)

// PathFilter decides whether an API path may be exposed as a tool.
type PathFilter interface {
	Allowed(path string) bool
}

// PathFilterFunc adapts a function to PathFilter.
type PathFilterFunc func(path string) bool

// Allowed calls f(path).
func (f PathFilterFunc) Allowed(path string) bool { return f(path) }

var placeholderPattern = regexp.MustCompile(`\{[^{}]*\}`)

// Whitelist matches paths against a comma-separated list of entries. Plain
// entries match by prefix; entries with {placeholders} match one non-empty
// segment per placeholder, anchored at the start of the path.
type Whitelist struct {
	prefixes []string
	patterns []*regexp.Regexp
}

// NewWhitelist parses the configured list. An empty list allows everything.
func NewWhitelist(list string) *Whitelist {
	w := &Whitelist{}
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !placeholderPattern.MatchString(entry) {
			w.prefixes = append(w.prefixes, entry)
			continue
		}
		w.patterns = append(w.patterns, compileEntry(entry))
	}
	return w
}

func compileEntry(entry string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderPattern.FindAllStringIndex(entry, -1) {
		b.WriteString(regexp.QuoteMeta(entry[last:loc[0]]))
		b.WriteString("[^/]+")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(entry[last:]))
	return regexp.MustCompile(b.String())
}

// Empty reports whether no entries were configured.
func (w *Whitelist) Empty() bool {
	return len(w.prefixes) == 0 && len(w.patterns) == 0
}

// Allowed implements PathFilter.
func (w *Whitelist) Allowed(path string) bool {
	if w.Empty() {
		return true
	}
	for _, p := range w.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, re := range w.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
