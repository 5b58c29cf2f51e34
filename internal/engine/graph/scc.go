package graph

import "sort"

// Cycle is one strongly connected component of size >= 2 in the resolved
// import graph (§4.H.4 circular-dependency, §GLOSSARY "SCC"), anchored on
// its lexicographically first member.
type Cycle struct {
	Anchor string
	Path   []string // the cycle members, in deterministic (sorted) order
}

// Cycles computes every SCC of size >= 2 over the graph's resolved edges
// using Tarjan's algorithm, so the result is deterministic with respect to
// the graph's content regardless of traversal order (§5, §8.7).
func (g *Graph) Cycles() []Cycle {
	t := &tarjan{
		graph:   g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, v := range g.order {
		if _, visited := t.index[v]; !visited {
			t.strongConnect(v)
		}
	}

	var cycles []Cycle
	for _, scc := range t.sccs {
		if len(scc) < 2 {
			continue
		}
		sorted := append([]string(nil), scc...)
		sort.Strings(sorted)
		cycles = append(cycles, Cycle{Anchor: sorted[0], Path: sorted})
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Anchor < cycles[j].Anchor })
	return cycles
}

type tarjan struct {
	graph   *Graph
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	node, ok := t.graph.nodes[v]
	if ok {
		for _, raw := range node.Imports {
			w := t.graph.Resolve(v, raw)
			if w == "" {
				continue
			}
			if _, visited := t.index[w]; !visited {
				t.strongConnect(w)
				if t.lowlink[w] < t.lowlink[v] {
					t.lowlink[v] = t.lowlink[w]
				}
			} else if t.onStack[w] {
				if t.index[w] < t.lowlink[v] {
					t.lowlink[v] = t.index[w]
				}
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
