// Package lines maps graph node identities back to their originating source
// line ranges. It is the contract consumed by the rendering layer when a
// node is selected: the only thing the UI ever learns about a block is
// which lines of the expanded document it covers.
package lines

import (
	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/graph"
)

// Range is an inclusive [Start, End] line span in the expanded document.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Index is a read-only node -> line range lookup table. It is built once
// from a finished graph and safe for concurrent reads.
type Index struct {
	ranges map[string]Range
}

// NewIndex builds the lookup table from each block's stored line range.
func NewIndex(g *graph.Graph) *Index {
	idx := &Index{ranges: make(map[string]Range, g.NumNodes())}
	for _, n := range g.SortedNodes() {
		idx.ranges[n.Label] = Range{Start: n.StartLine, End: n.EndLine}
	}
	return idx
}

// Lookup resolves a node identity to its line range. Unknown identities
// return ok=false rather than an error: the caller may hold stale or
// cross-graph selections and a miss is an expected outcome.
func (i *Index) Lookup(nodeID string) (Range, bool) {
	r, ok := i.ranges[nodeID]
	return r, ok
}

// Len returns the number of indexed nodes.
func (i *Index) Len() int { return len(i.ranges) }
