package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/graph"
)

func buildX86(t *testing.T, content string) (*graph.Graph, []Warning) {
	t.Helper()
	b := NewBuilder(BuilderOptions{Dialect: DialectGNU, Arch: ArchX86_64}, nil)
	g, warnings, err := b.Build(content)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	return g, warnings
}

func edgeKinds(g *graph.Graph, from string) map[graph.EdgeKind]string {
	out := make(map[graph.EdgeKind]string)
	for _, e := range g.OutEdges(from) {
		out[e.Kind] = e.To
	}
	return out
}

func TestBuild_JumpAndSink(t *testing.T) {
	g, warnings := buildX86(t, "start:\n jmp end\nend:\n ret")
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"end", "start"}, g.Labels())

	out := g.OutEdges("start")
	require.Len(t, out, 1)
	assert.Equal(t, graph.EdgeJump, out[0].Kind)
	assert.Equal(t, "end", out[0].To)

	assert.Empty(t, g.OutEdges("end"), "return block must be a sink")
}

func TestBuild_ConditionalProducesExactlyTwoEdges(t *testing.T) {
	g, warnings := buildX86(t, "start:\n cmp eax, ebx\n je equal\n mov eax, 1\nequal:\n ret")
	assert.Empty(t, warnings)

	out := g.OutEdges("start")
	require.Len(t, out, 2, "conditional jump block must have exactly two outgoing edges")

	kinds := edgeKinds(g, "start")
	assert.Equal(t, "equal", kinds[graph.EdgeConditional])
	assert.Equal(t, "block_3", kinds[graph.EdgeFallthrough])

	// The fall-through block continues into the jump target.
	kinds = edgeKinds(g, "block_3")
	assert.Equal(t, "equal", kinds[graph.EdgeFallthrough])
}

func TestBuild_CallKeepsFallthrough(t *testing.T) {
	g, warnings := buildX86(t, "start:\n call setup\n ret\nsetup:\n ret")
	assert.Empty(t, warnings)

	kinds := edgeKinds(g, "start")
	assert.Equal(t, "setup", kinds[graph.EdgeCall])
	assert.Equal(t, "block_2", kinds[graph.EdgeFallthrough])

	assert.Empty(t, g.OutEdges("block_2"))
	assert.Empty(t, g.OutEdges("setup"))
}

func TestBuild_ExternalCallFallsThroughOnly(t *testing.T) {
	g, warnings := buildX86(t, "start:\n call printf\n mov eax, 0\n ret")
	assert.Empty(t, warnings, "external call targets are not unresolved-target warnings")

	kinds := edgeKinds(g, "start")
	assert.NotContains(t, kinds, graph.EdgeCall)
	assert.Equal(t, "block_2", kinds[graph.EdgeFallthrough])
}

func TestBuild_UnresolvedComputedJump(t *testing.T) {
	g, warnings := buildX86(t, "start:\n jmp eax")

	assert.Empty(t, g.OutEdges("start"), "unresolvable jump leaves the block a sink")
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnresolvedTarget, warnings[0].Kind)
	assert.Equal(t, 1, warnings[0].Line)
}

func TestBuild_UnresolvedConditionalIsSink(t *testing.T) {
	g, warnings := buildX86(t, "start:\n jz missing_label\n mov eax, 1\n ret")

	assert.Empty(t, g.OutEdges("start"))
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnresolvedTarget, warnings[0].Kind)
}

func TestBuild_EntryBlockWithoutLabel(t *testing.T) {
	g, warnings := buildX86(t, " mov eax, 1\n ret")
	assert.Empty(t, warnings)

	n, ok := g.Node("entry")
	require.True(t, ok)
	assert.Equal(t, []string{"mov eax, 1", "ret"}, n.Lines)
	assert.Empty(t, g.OutEdges("entry"))
}

func TestBuild_BlockBeginsAfterTransfer(t *testing.T) {
	// No label after the jump: the following instruction still starts a
	// fresh block.
	g, warnings := buildX86(t, "start:\n jmp start\n mov eax, 1\n ret")
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"block_2", "start"}, g.Labels())
	kinds := edgeKinds(g, "start")
	assert.Equal(t, "start", kinds[graph.EdgeJump])
}

func TestBuild_EmptyLabelBlockFallsThrough(t *testing.T) {
	g, warnings := buildX86(t, "a:\nb:\n ret")
	assert.Empty(t, warnings)

	kinds := edgeKinds(g, "a")
	assert.Equal(t, "b", kinds[graph.EdgeFallthrough])
	assert.Empty(t, g.OutEdges("b"))
}

func TestBuild_LabelWithInlineInstruction(t *testing.T) {
	g, warnings := buildX86(t, "start: jmp done\ndone: ret")
	assert.Empty(t, warnings)

	kinds := edgeKinds(g, "start")
	assert.Equal(t, "done", kinds[graph.EdgeJump])
	assert.Empty(t, g.OutEdges("done"))
}

func TestBuild_LineRanges(t *testing.T) {
	g, _ := buildX86(t, "start:\n jmp end\nend:\n ret")

	start, ok := g.Node("start")
	require.True(t, ok)
	assert.Equal(t, 0, start.StartLine)
	assert.Equal(t, 1, start.EndLine)

	end, ok := g.Node("end")
	require.True(t, ok)
	assert.Equal(t, 2, end.StartLine)
	assert.Equal(t, 3, end.EndLine)
}

func TestBuild_GNUCommentsAndDirectives(t *testing.T) {
	src := ".text\n.globl main\n# setup\nmain:\n mov %ebx, %eax // copy\n jmp .L1\n.L1:\n ret\n"
	g, warnings := buildX86(t, src)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{".L1", "main"}, g.Labels())
	kinds := edgeKinds(g, "main")
	assert.Equal(t, ".L1", kinds[graph.EdgeJump])

	main, _ := g.Node("main")
	assert.Equal(t, []string{"mov %ebx, %eax", "jmp .L1"}, main.Lines)
}

func TestBuild_MASMCommentsAndDirectives(t *testing.T) {
	src := "TITLE demo\nstart:\n mov ax, 1 ; init\n jmp quit\nquit:\n ret\nEND start"
	b := NewBuilder(BuilderOptions{Dialect: DialectMASM, Arch: ArchX86_64}, nil)
	g, warnings, err := b.Build(src)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"quit", "start"}, g.Labels())
	start, _ := g.Node("start")
	assert.Equal(t, []string{"mov ax, 1", "jmp quit"}, start.Lines)
}

func TestBuild_ARM64(t *testing.T) {
	src := "fn:\n cbz x0, done\n bl helper\n b fn\ndone:\n ret\nhelper:\n ret"
	b := NewBuilder(BuilderOptions{Dialect: DialectGNU, Arch: ArchARM64}, nil)
	g, warnings, err := b.Build(src)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	kinds := edgeKinds(g, "fn")
	assert.Equal(t, "done", kinds[graph.EdgeConditional], "cbz target is the last operand")
	assert.Equal(t, "block_2", kinds[graph.EdgeFallthrough])

	kinds = edgeKinds(g, "block_2")
	assert.Equal(t, "helper", kinds[graph.EdgeCall])
	assert.Equal(t, "block_3", kinds[graph.EdgeFallthrough])

	kinds = edgeKinds(g, "block_3")
	assert.Equal(t, "fn", kinds[graph.EdgeJump])

	assert.Empty(t, g.OutEdges("done"))
	assert.Empty(t, g.OutEdges("helper"))
}

func TestBuild_LinkerSuffixStripped(t *testing.T) {
	g, warnings := buildX86(t, "start:\n jmp target@PLT\ntarget:\n ret")
	assert.Empty(t, warnings)

	kinds := edgeKinds(g, "start")
	assert.Equal(t, "target", kinds[graph.EdgeJump])
}

func TestBuild_ExtraTransferOnOneLineWarned(t *testing.T) {
	g, warnings := buildX86(t, "start:\n je l1 jmp l2\nl1:\n ret\nl2:\n ret")

	var found bool
	for _, w := range warnings {
		if w.Kind == WarnExtraTransfer {
			found = true
		}
	}
	assert.True(t, found, "second transfer on the same line must be flagged")

	// The first transfer wins: its own operand is the edge target and the
	// ignored transfer contributes no edge.
	kinds := edgeKinds(g, "start")
	assert.Equal(t, "l1", kinds[graph.EdgeConditional])
	for _, e := range g.OutEdges("start") {
		assert.NotEqual(t, "l2", e.To)
	}
}

func TestBuild_ArchTagOnNodes(t *testing.T) {
	g, _ := buildX86(t, "start:\n ret")
	n, ok := g.Node("start")
	require.True(t, ok)
	assert.Equal(t, string(ArchX86_64), n.Arch)
}
