package graph

import (
	"path/filepath"
	"strings"

	"slopcheck/internal/core/types"
	"slopcheck/internal/shared/observability"
)

// candidateExtensions is the resolution order used to turn a raw import
// path into a concrete file on disk (§4.F).
var candidateExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".d.ts", ""}

// Graph is the directed Import Graph (§3, §4.F): vertices are file paths,
// edges are raw-import strings. It is built once per run and treated as
// read-only thereafter.
type Graph struct {
	root  string
	nodes map[string]types.ImportNode
	order []string // vertex insertion order, i.e. the input file list order
}

// Build constructs the graph from nodes in fileOrder (the File Scanner's
// deterministic output order), preserving §5's "import-graph edges must be
// processed in the input file order" guarantee.
func Build(root string, nodes map[string]types.ImportNode, fileOrder []string) *Graph {
	g := &Graph{root: root, nodes: make(map[string]types.ImportNode, len(nodes))}
	edges := 0
	for _, path := range fileOrder {
		n, ok := nodes[path]
		if !ok {
			continue
		}
		g.nodes[path] = n
		g.order = append(g.order, path)
		edges += len(n.Imports)
	}
	observability.GraphNodesTotal.Set(float64(len(g.nodes)))
	observability.GraphEdgesTotal.Set(float64(edges))
	return g
}

// Node returns the ImportNode for path, if any.
func (g *Graph) Node(path string) (types.ImportNode, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// Vertices returns every vertex path in construction (file-list) order.
func (g *Graph) Vertices() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Resolve maps one raw import string, seen while analyzing fromFile, to a
// concrete vertex path in the graph, or "" if it resolves to nothing (a
// third-party import, or a path this run never scanned). Resolution is
// lazy and consumer-driven, never precomputed during Build (§3 invariant).
func (g *Graph) Resolve(fromFile, raw string) string {
	var base string
	if strings.HasPrefix(raw, "@/") {
		base = filepath.Join(g.root, "src", strings.TrimPrefix(raw, "@/"))
	} else if strings.HasPrefix(raw, ".") {
		base = filepath.Join(filepath.Dir(fromFile), raw)
	} else {
		return ""
	}
	base = filepath.Clean(base)

	if target := g.resolveCandidates(base); target != "" {
		return target
	}
	// A `.js` suffix in the import may resolve against a same-stem .ts/.tsx
	// source (§4.F).
	if strings.HasSuffix(base, ".js") {
		stem := strings.TrimSuffix(base, ".js")
		if target := g.resolveCandidates(stem); target != "" {
			return target
		}
	}
	return ""
}

func (g *Graph) resolveCandidates(base string) string {
	for _, ext := range candidateExtensions {
		candidate := base + ext
		if _, ok := g.nodes[candidate]; ok {
			return candidate
		}
	}
	for _, ext := range candidateExtensions {
		if ext == "" {
			continue
		}
		candidate := filepath.Join(base, "index"+ext)
		if _, ok := g.nodes[candidate]; ok {
			return candidate
		}
	}
	return ""
}
