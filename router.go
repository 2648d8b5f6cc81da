package fastigo

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// routeRecord holds everything needed to serve one (method, path) pair.
// Hook lists are snapshots taken at registration time, so hooks added to
// the application afterwards do not affect already-registered routes.
type routeRecord struct {
	handler     Handler
	hooks       hookSet
	middlewares []Middleware
	rawPath     string
}

// routeNode is a single trie level keyed by path segment. Parameter
// segments keep their ":name" form as the child key; paramKey caches that
// key so lookup never scans the children map.
type routeNode struct {
	children map[string]*routeNode
	handlers map[string]*routeRecord
	paramKey string
}

func newRouteNode() *routeNode {
	return &routeNode{
		children: make(map[string]*routeNode),
		handlers: make(map[string]*routeRecord),
	}
}

// Router is a segment trie. Lookup cost is proportional to the number of
// path segments, independent of how many routes are registered. The trie
// never backtracks: at each level a literal child wins, otherwise the
// single parameter child is taken, otherwise the walk fails.
type Router struct {
	root *routeNode
}

func newRouter() *Router {
	return &Router{root: newRouteNode()}
}

// splitPath breaks a path into its non-empty segments. "/" maps to zero
// segments, which addresses the root node itself.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// addRoute walks the trie, creating nodes as needed, and stores rec under
// method at the terminal node. A second parameter name at a level that
// already has one is rejected: lookup could never reach both.
func (r *Router) addRoute(method, path string, rec *routeRecord) error {
	n := r.root
	for _, seg := range splitPath(path) {
		if strings.HasPrefix(seg, ":") {
			if n.paramKey != "" && n.paramKey != seg {
				return fmt.Errorf("%w: %q vs %q in %q", ErrAmbiguousParam, n.paramKey, seg, path)
			}
			n.paramKey = seg
		}
		child, ok := n.children[seg]
		if !ok {
			child = newRouteNode()
			n.children[seg] = child
		}
		n = child
	}
	n.handlers[method] = rec
	return nil
}

// findRoute resolves method and concrete path to a route record, binding
// parameter values along the way. The second return is the bound params
// (nil when the route has none). Both an unknown path and a known path
// without the method report false; use methods to tell them apart.
func (r *Router) findRoute(method, path string) (*routeRecord, map[string]string, bool) {
	n := r.root
	var params map[string]string
	for _, seg := range splitPath(path) {
		if child, ok := n.children[seg]; ok {
			n = child
			continue
		}
		if n.paramKey != "" {
			if params == nil {
				params = make(map[string]string)
			}
			params[n.paramKey[1:]] = seg
			n = n.children[n.paramKey]
			continue
		}
		return nil, nil, false
	}
	rec, ok := n.handlers[method]
	if !ok {
		return nil, nil, false
	}
	return rec, params, true
}

// hasRoute reports whether the exact pattern is already registered under
// method. Unlike findRoute it never falls back to a parameter child, so a
// literal sibling of an existing parameter is not mistaken for a duplicate.
func (r *Router) hasRoute(method, path string) bool {
	n := r.root
	for _, seg := range splitPath(path) {
		child, ok := n.children[seg]
		if !ok {
			return false
		}
		n = child
	}
	_, ok := n.handlers[method]
	return ok
}

// methods returns the sorted methods registered for path, plus the implicit
// OPTIONS every known path answers. Returns nil for an unknown path.
func (r *Router) methods(path string) []string {
	n := r.root
	for _, seg := range splitPath(path) {
		if child, ok := n.children[seg]; ok {
			n = child
			continue
		}
		if n.paramKey != "" {
			n = n.children[n.paramKey]
			continue
		}
		return nil
	}
	if len(n.handlers) == 0 {
		return nil
	}
	out := make([]string, 0, len(n.handlers)+1)
	for m := range n.handlers {
		out = append(out, m)
	}
	if !slices.Contains(out, "OPTIONS") {
		out = append(out, "OPTIONS")
	}
	slices.Sort(out)
	return out
}

// printTree writes an indented diagnostic dump of the trie, one segment
// per line, annotated with the methods registered at each node.
func (r *Router) printTree(w io.Writer) {
	fmt.Fprintln(w, "/"+methodSuffix(r.root))
	printSubtree(w, r.root, "")
}

func printSubtree(w io.Writer, n *routeNode, prefix string) {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for i, k := range keys {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(keys)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		child := n.children[k]
		fmt.Fprintln(w, prefix+connector+k+methodSuffix(child))
		printSubtree(w, child, childPrefix)
	}
}

func methodSuffix(n *routeNode) string {
	if len(n.handlers) == 0 {
		return ""
	}
	ms := make([]string, 0, len(n.handlers))
	for m := range n.handlers {
		ms = append(ms, m)
	}
	slices.Sort(ms)
	return " (" + strings.Join(ms, ", ") + ")"
}
