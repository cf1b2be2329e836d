package lines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/graph"
)

func TestIndexLookup(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.Node{Label: "start", StartLine: 0, EndLine: 3})
	g.AddNode(graph.Node{Label: "loop", StartLine: 4, EndLine: 9})

	idx := NewIndex(g)
	assert.Equal(t, 2, idx.Len())

	r, ok := idx.Lookup("loop")
	require.True(t, ok)
	assert.Equal(t, Range{Start: 4, End: 9}, r)
}

func TestIndexLookupMiss(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.Node{Label: "start", StartLine: 0, EndLine: 1})

	idx := NewIndex(g)
	_, ok := idx.Lookup("not_there")
	assert.False(t, ok)
}

func TestIndexEmptyGraph(t *testing.T) {
	idx := NewIndex(graph.New())
	assert.Equal(t, 0, idx.Len())
	_, ok := idx.Lookup("anything")
	assert.False(t, ok)
}
