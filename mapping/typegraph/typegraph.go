// Package typegraph builds the relationship graph of mapped types
// (mapping.Registry.BuildTypeGraph) and answers "does this relation close a
// cycle" and "which types are reachable from this one" queries. Once built,
// a Graph is only queried, never mutated.
package typegraph

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// Graph is the directed relationship graph over GraphQL type names: an edge
// A -> B means A has an SqlObject field reaching type B.
type Graph struct {
	g graph.Graph[string, string]
}

func identity(name string) string { return name }

// New builds an empty type graph.
func New() *Graph {
	return &Graph{g: graph.New(identity, graph.Directed())}
}

// AddType registers a type name as a vertex. Safe to call more than once for
// the same name.
func (t *Graph) AddType(name string) {
	_ = t.g.AddVertex(name)
}

// AddRelation records that fromType reaches toType through an SqlObject
// join. Both endpoints must already have been added with AddType.
func (t *Graph) AddRelation(fromType, toType string) error {
	if err := t.g.AddEdge(fromType, toType); err != nil {
		return fmt.Errorf("typegraph: add relation %s -> %s: %w", fromType, toType, err)
	}
	return nil
}

// HasCycleThrough reports whether adding an edge from->to would close a
// cycle back through a type already present on the path, by checking
// whether to can already reach from. HasCycleThrough(x, x) is always true.
func (t *Graph) HasCycleThrough(from, to string) bool {
	path, err := graph.ShortestPath(t.g, to, from)
	return err == nil && len(path) > 0
}

// Reachable returns every type reachable from start, including start itself.
func (t *Graph) Reachable(start string) ([]string, error) {
	visited := map[string]bool{start: true}
	order := []string{start}
	stack := []string{start}

	adjacency, err := t.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("typegraph: adjacency map: %w", err)
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for target := range adjacency[n] {
			if visited[target] {
				continue
			}
			visited[target] = true
			order = append(order, target)
			stack = append(stack, target)
		}
	}
	return order, nil
}
