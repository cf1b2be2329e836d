// Package compare classifies the shared and unique structure of two labeled
// graphs. Node equality is by label, edge equality is by (from, to, kind);
// block content never influences classification.
package compare

import (
	"sort"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/graph"
)

// Stats summarizes a comparison numerically.
type Stats struct {
	NodesA       int     `json:"nodes_a"`
	EdgesA       int     `json:"edges_a"`
	NodesB       int     `json:"nodes_b"`
	EdgesB       int     `json:"edges_b"`
	CommonNodes  int     `json:"common_nodes"`
	CommonEdges  int     `json:"common_edges"`
	NodeFraction float64 `json:"node_fraction"` // common nodes / union of nodes
	EdgeFraction float64 `json:"edge_fraction"` // common edges / union of edges
}

// Result partitions the node and edge sets of two graphs into common and
// per-graph unique parts. All slices are sorted, so encoding the same
// Result twice yields byte-identical output. A Result is rebuilt on every
// Compare call and never mutated afterwards.
type Result struct {
	CommonNodes  []string     `json:"common_nodes"`
	UniqueNodesA []string     `json:"unique_nodes_a"`
	UniqueNodesB []string     `json:"unique_nodes_b"`
	CommonEdges  []graph.Edge `json:"common_edges"`
	UniqueEdgesA []graph.Edge `json:"unique_edges_a"`
	UniqueEdgesB []graph.Edge `json:"unique_edges_b"`
	Stats        Stats        `json:"stats"`
}

// Compare computes the set relations between two graphs. It is a pure
// function: neither input is modified and no state is shared between calls,
// so concurrent comparisons need no coordination.
func Compare(a, b *graph.Graph) *Result {
	r := &Result{
		CommonNodes:  []string{},
		UniqueNodesA: []string{},
		UniqueNodesB: []string{},
		CommonEdges:  []graph.Edge{},
		UniqueEdgesA: []graph.Edge{},
		UniqueEdgesB: []graph.Edge{},
	}

	for _, label := range a.Labels() {
		if b.HasNode(label) {
			r.CommonNodes = append(r.CommonNodes, label)
		} else {
			r.UniqueNodesA = append(r.UniqueNodesA, label)
		}
	}
	for _, label := range b.Labels() {
		if !a.HasNode(label) {
			r.UniqueNodesB = append(r.UniqueNodesB, label)
		}
	}

	edgesB := make(map[string]struct{}, b.NumEdges())
	for _, e := range b.SortedEdges() {
		edgesB[e.Key()] = struct{}{}
	}
	edgesA := make(map[string]struct{}, a.NumEdges())
	for _, e := range a.SortedEdges() {
		edgesA[e.Key()] = struct{}{}
		if _, ok := edgesB[e.Key()]; ok {
			r.CommonEdges = append(r.CommonEdges, e)
		} else {
			r.UniqueEdgesA = append(r.UniqueEdgesA, e)
		}
	}
	for _, e := range b.SortedEdges() {
		if _, ok := edgesA[e.Key()]; !ok {
			r.UniqueEdgesB = append(r.UniqueEdgesB, e)
		}
	}

	// Labels() and SortedEdges() are already ordered, but sort the merged
	// views explicitly so the contract does not depend on iteration above.
	sort.Strings(r.CommonNodes)
	sort.Strings(r.UniqueNodesA)
	sort.Strings(r.UniqueNodesB)

	nodeUnion := a.NumNodes() + b.NumNodes() - len(r.CommonNodes)
	edgeUnion := a.NumEdges() + b.NumEdges() - len(r.CommonEdges)

	r.Stats = Stats{
		NodesA:      a.NumNodes(),
		EdgesA:      a.NumEdges(),
		NodesB:      b.NumNodes(),
		EdgesB:      b.NumEdges(),
		CommonNodes: len(r.CommonNodes),
		CommonEdges: len(r.CommonEdges),
	}
	if nodeUnion > 0 {
		r.Stats.NodeFraction = float64(len(r.CommonNodes)) / float64(nodeUnion)
	}
	if edgeUnion > 0 {
		r.Stats.EdgeFraction = float64(len(r.CommonEdges)) / float64(edgeUnion)
	}

	return r
}
