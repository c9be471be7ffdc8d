package spec

import (
	"net/url"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxRefDepth = 32

// resolve follows YAML aliases and local "$ref" pointers. External or
// dangling references resolve to nil.
func (p *parser) resolve(n *yaml.Node) *yaml.Node {
	for depth := 0; depth < maxRefDepth; depth++ {
		n = deref(n)
		if n == nil || n.Kind != yaml.MappingNode {
			return n
		}
		ref := mapGet(n, "$ref")
		if ref == nil {
			return n
		}
		n = p.lookup(scalar(ref))
	}
	return nil
}

// lookup evaluates a local JSON pointer such as "#/components/parameters/id".
func (p *parser) lookup(ref string) *yaml.Node {
	if !strings.HasPrefix(ref, "#") {
		return nil
	}
	pointer := strings.TrimPrefix(ref, "#")
	if unescaped, err := url.PathUnescape(pointer); err == nil {
		pointer = unescaped
	}
	if pointer == "" {
		return p.root
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil
	}

	cur := p.root
	for _, token := range strings.Split(pointer[1:], "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		cur = deref(cur)
		if cur == nil {
			return nil
		}
		switch cur.Kind {
		case yaml.MappingNode:
			cur = mapGet(cur, token)
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(cur.Content) {
				return nil
			}
			cur = cur.Content[idx]
		default:
			return nil
		}
	}
	return cur
}
