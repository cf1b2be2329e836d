// Package graph defines the control flow graph model shared by the CFG
// builder and the comparator. It provides labeled nodes with source line
// provenance, typed control edges, and well-formedness validation.
package graph

import (
	"fmt"
	"sort"
)

// EdgeKind represents the type of control transfer an edge models.
type EdgeKind string

const (
	EdgeFallthrough EdgeKind = "fallthrough"      // Control falls into the next block
	EdgeJump        EdgeKind = "jump"             // Unconditional jump
	EdgeConditional EdgeKind = "conditional-jump" // Taken branch of a conditional jump
	EdgeCall        EdgeKind = "call"             // Call to a local label
)

// Node represents a basic block. Identity is the Label string; two nodes
// with the same label are the same node regardless of content.
type Node struct {
	Label     string   `json:"label" msgpack:"label"`
	Lines     []string `json:"lines,omitempty" msgpack:"lines"`
	StartLine int      `json:"start_line" msgpack:"start_line"`
	EndLine   int      `json:"end_line" msgpack:"end_line"`
	Arch      string   `json:"arch,omitempty" msgpack:"arch"`
}

// Edge is a directed control transfer between two blocks. Edge identity is
// the (From, To, Kind) triple; parallel edges are allowed when kinds differ.
type Edge struct {
	From string   `json:"from" msgpack:"from"`
	To   string   `json:"to" msgpack:"to"`
	Kind EdgeKind `json:"kind" msgpack:"kind"`
}

// Key returns the identity triple in a single comparable form.
func (e Edge) Key() string {
	return e.From + "\x00" + e.To + "\x00" + string(e.Kind)
}

// Graph is a set of nodes unique by label plus a set of edges unique by
// (from, to, kind). Mutation happens only during construction; once handed
// to the comparator or the line index a Graph is treated as read-only.
type Graph struct {
	nodes map[string]Node
	edges map[string]Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string]Edge),
	}
}

// AddNode inserts or replaces the node with n.Label as identity.
func (g *Graph) AddNode(n Node) {
	g.nodes[n.Label] = n
}

// AddEdge inserts an edge; an edge with the same (from, to, kind) triple is
// silently deduplicated.
func (g *Graph) AddEdge(e Edge) {
	g.edges[e.Key()] = e
}

// HasNode reports whether a node with the given label exists.
func (g *Graph) HasNode(label string) bool {
	_, ok := g.nodes[label]
	return ok
}

// Node returns the node for the given label.
func (g *Graph) Node(label string) (Node, bool) {
	n, ok := g.nodes[label]
	return n, ok
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }

// SortedNodes returns all nodes ordered by label. The ordering is stable so
// repeated serializations of the same graph are byte-identical.
func (g *Graph) SortedNodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// SortedEdges returns all edges ordered by (from, to, kind).
func (g *Graph) SortedEdges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Labels returns all node labels in sorted order.
func (g *Graph) Labels() []string {
	out := make([]string, 0, len(g.nodes))
	for label := range g.nodes {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// OutEdges returns the edges leaving the given node, ordered by (to, kind).
func (g *Graph) OutEdges(label string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == label {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Validate checks that every edge endpoint references a node present in the
// node set. A dangling endpoint indicates a builder invariant violation and
// is returned as an error rather than dropped.
func (g *Graph) Validate() error {
	for _, e := range g.SortedEdges() {
		if !g.HasNode(e.From) {
			return fmt.Errorf("dangling edge: source %q not in node set", e.From)
		}
		if !g.HasNode(e.To) {
			return fmt.Errorf("dangling edge: target %q not in node set", e.To)
		}
	}
	return nil
}
