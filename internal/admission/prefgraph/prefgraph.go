// Package prefgraph records how students move between colleges in their
// preference lists. It is observational only; allocation never reads it.
package prefgraph

import "slices"

// Edge is a transition from one preferred college to the next.
type Edge struct {
	To     int
	Weight int
}

// Graph is an adjacency log keyed by college index. Duplicate edges are kept.
type Graph struct {
	adjacency map[int][]Edge
	counts    map[int]int
}

func New() *Graph {
	return &Graph{
		adjacency: make(map[int][]Edge),
		counts:    make(map[int]int),
	}
}

// RecordTransition appends an edge from -> to.
func (g *Graph) RecordTransition(from, to, weight int) {
	g.adjacency[from] = append(g.adjacency[from], Edge{To: to, Weight: weight})
}

// IncrementPreferenceCount bumps the popularity counter for college.
func (g *Graph) IncrementPreferenceCount(college int) {
	g.counts[college]++
}

// Edges returns the transitions recorded out of from, oldest first.
func (g *Graph) Edges(from int) []Edge {
	return slices.Clone(g.adjacency[from])
}

// PreferenceCount returns how many preference entries named college.
func (g *Graph) PreferenceCount(college int) int {
	return g.counts[college]
}

// EdgeCount returns the total number of recorded transitions.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.adjacency {
		n += len(edges)
	}
	return n
}
