// Package domain contains the core domain models and algorithms for dependency resolution and lockfiles.
package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// DependencyGraph is a directed graph of package dependencies.
// Names are normalized to lower case. Forward and reverse adjacency are both kept
// so that dependencies and dependents can be looked up in constant time.
type DependencyGraph struct {
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
	edges   int
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// AddNode adds a package without edges. Adding an existing node is a no-op.
func (g *DependencyGraph) AddNode(name string) {
	g.ensure(NormalizeName(name))
}

// AddEdge records that from depends on to. Duplicate edges are ignored.
func (g *DependencyGraph) AddEdge(from, to string) {
	from, to = NormalizeName(from), NormalizeName(to)
	g.ensure(from)
	g.ensure(to)
	if _, ok := g.forward[from][to]; ok {
		return
	}
	g.forward[from][to] = struct{}{}
	g.reverse[to][from] = struct{}{}
	g.edges++
}

func (g *DependencyGraph) ensure(name string) {
	if _, ok := g.forward[name]; !ok {
		g.forward[name] = make(map[string]struct{})
		g.reverse[name] = make(map[string]struct{})
	}
}

// Len returns the number of nodes.
func (g *DependencyGraph) Len() int {
	return len(g.forward)
}

// EdgeCount returns the number of distinct edges.
func (g *DependencyGraph) EdgeCount() int {
	return g.edges
}

// HasEdge reports whether from depends on to.
func (g *DependencyGraph) HasEdge(from, to string) bool {
	_, ok := g.forward[NormalizeName(from)][NormalizeName(to)]
	return ok
}

// Nodes returns all package names, sorted.
func (g *DependencyGraph) Nodes() []string {
	return sortedKeys(g.forward)
}

// Dependencies returns the direct dependencies of name, sorted.
func (g *DependencyGraph) Dependencies(name string) []string {
	return sortedKeys(g.forward[NormalizeName(name)])
}

// Dependents returns the packages that directly depend on name, sorted.
func (g *DependencyGraph) Dependents(name string) []string {
	return sortedKeys(g.reverse[NormalizeName(name)])
}

// dfsFrame is one level of an explicit depth-first walk.
type dfsFrame struct {
	node string
	next []string
	i    int
}

// FindAllCycles enumerates cycles with a depth-first search from every unvisited node.
// Whenever the walk reaches a node still on the current path, the path slice from that
// node plus the closing edge is emitted. Overlapping cycles in dense graphs may be
// reported more than once; the result is not a minimal cycle basis.
func (g *DependencyGraph) FindAllCycles() []Cycle {
	var cycles []Cycle
	visited := make(map[string]bool, len(g.forward))
	onPath := make(map[string]int)

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}

		var path []string
		var stack []*dfsFrame
		push := func(n string) {
			visited[n] = true
			onPath[n] = len(path)
			path = append(path, n)
			stack = append(stack, &dfsFrame{node: n, next: g.Dependencies(n)})
		}

		push(start)
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.i >= len(top.next) {
				delete(onPath, top.node)
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}

			dep := top.next[top.i]
			top.i++

			if idx, ok := onPath[dep]; ok {
				cycles = append(cycles, Cycle{
					Path:        slices.Clone(path[idx:]),
					ClosingEdge: Edge{From: top.node, To: dep},
				})
				continue
			}
			if !visited[dep] {
				push(dep)
			}
		}
	}

	return cycles
}

// StronglyConnectedComponents computes the SCCs with Kosaraju's two-pass algorithm.
// Members of each component are sorted, and components are ordered by their first member.
// A component with more than one member takes part in at least one cycle.
func (g *DependencyGraph) StronglyConnectedComponents() [][]string {
	order := g.finishOrder()

	assigned := make(map[string]bool, len(order))
	var components [][]string
	for i := len(order) - 1; i >= 0; i-- {
		root := order[i]
		if assigned[root] {
			continue
		}

		var component []string
		stack := []string{root}
		assigned[root] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, n)
			for _, dependent := range g.Dependents(n) {
				if !assigned[dependent] {
					assigned[dependent] = true
					stack = append(stack, dependent)
				}
			}
		}

		slices.Sort(component)
		components = append(components, component)
	}

	slices.SortFunc(components, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return components
}

// finishOrder returns nodes in depth-first post-order over the forward graph.
func (g *DependencyGraph) finishOrder() []string {
	visited := make(map[string]bool, len(g.forward))
	order := make([]string, 0, len(g.forward))

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []*dfsFrame{{node: start, next: g.Dependencies(start)}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.i >= len(top.next) {
				order = append(order, top.node)
				stack = stack[:len(stack)-1]
				continue
			}
			dep := top.next[top.i]
			top.i++
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, &dfsFrame{node: dep, next: g.Dependencies(dep)})
			}
		}
	}

	return order
}

// TopologicalSort orders nodes so every edge points forward, using Kahn's algorithm.
// Dependents come before their dependencies. It returns false if and only if the
// graph contains a cycle.
func (g *DependencyGraph) TopologicalSort() ([]string, bool) {
	inDegree := make(map[string]int, len(g.forward))
	for n := range g.forward {
		inDegree[n] = len(g.reverse[n])
	}

	var queue []string
	for _, n := range g.Nodes() {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]string, 0, len(g.forward))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, dep := range g.Dependencies(n) {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) < len(g.forward) {
		return nil, false
	}
	return order, true
}

// InstallOrder returns a topological order with dependencies first.
func (g *DependencyGraph) InstallOrder() ([]string, bool) {
	order, ok := g.TopologicalSort()
	if !ok {
		return nil, false
	}
	slices.Reverse(order)
	return order, true
}

// TransitiveDependents returns every package that directly or indirectly depends on name, sorted.
func (g *DependencyGraph) TransitiveDependents(name string) []string {
	start := NormalizeName(name)
	seen := map[string]bool{start: true}
	queue := []string{start}
	var out []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for dependent := range g.reverse[n] {
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			out = append(out, dependent)
			queue = append(queue, dependent)
		}
	}
	slices.Sort(out)
	return out
}

// Validate returns ErrCycleDetected with the first cycle as metadata if the graph is not acyclic.
func (g *DependencyGraph) Validate() error {
	if _, ok := g.TopologicalSort(); ok {
		return nil
	}
	cycles := g.FindAllCycles()
	err := zerr.Wrap(ErrCycleDetected, "dependency graph is not acyclic")
	if len(cycles) > 0 {
		err = zerr.With(err, "cycle", cycles[0].Description())
	}
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
