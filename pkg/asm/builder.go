// Package asm turns textual assembly into a control flow graph. It covers
// the two front-end stages of the pipeline: MASM include expansion and
// basic-block construction with source line provenance.
package asm

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/graph"
)

// ParseError reports structurally unrecoverable input or an internal
// invariant violation during the build. It aborts the single build call and
// never leaves partial state behind.
type ParseError struct {
	Line int // zero-based line index, -1 when not line-scoped
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("parse error: %s", e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BuilderOptions configures CFG construction.
type BuilderOptions struct {
	Dialect        Dialect // comment/directive syntax (default gnu)
	Arch           Arch    // instruction tables; empty means auto-detect
	AutoDetectArch bool    // re-detect even when Arch is set
}

// Builder converts expanded assembly text into a graph of basic blocks.
// Build is a pure function of its input; a Builder may be shared across
// concurrent builds.
type Builder struct {
	opts BuilderOptions
	log  *logrus.Logger
}

// NewBuilder creates a builder. A nil logger disables diagnostic output.
func NewBuilder(opts BuilderOptions, logger *logrus.Logger) *Builder {
	if opts.Dialect == "" {
		opts.Dialect = DialectGNU
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Builder{opts: opts, log: logger}
}

// labelRe matches a label definition at the start of a trimmed line.
var labelRe = regexp.MustCompile(`^([.\w$?@]+):`)

// terminator records the control transfer that ended a block.
type terminator struct {
	kind   graph.EdgeKind // EdgeJump, EdgeConditional or EdgeCall
	isRet  bool
	target string // raw operand text, empty for ret
	line   int
}

// protoBlock is a basic block under construction.
type protoBlock struct {
	label string
	lines []string
	start int
	end   int
	term  *terminator
}

// Build runs the two-pass algorithm: a label/boundary pass that records
// every label definition, then a block assembly pass that cuts blocks at
// labels and control transfers and wires edges against the label table.
// Line ranges refer to the (expanded) input's zero-based line numbering.
func (b *Builder) Build(content string) (*graph.Graph, []Warning, error) {
	arch := b.opts.Arch
	if arch == "" || b.opts.AutoDetectArch {
		arch = DetectArch(content)
	}
	table, ok := jumpTables[arch]
	if !ok {
		return nil, nil, &ParseError{Line: -1, Msg: fmt.Sprintf("no instruction table for architecture %q", arch)}
	}

	lines := strings.Split(content, "\n")

	// Pass 1: label table, built once and reused by index.
	labelAt := make(map[int]string)
	for i, raw := range lines {
		t := strings.TrimSpace(stripComment(raw, b.opts.Dialect))
		if m := labelRe.FindStringSubmatch(t); m != nil {
			labelAt[i] = m[1]
		}
	}

	// Pass 2: block assembly.
	var (
		blocks   []*protoBlock
		cur      *protoBlock
		warnings []Warning
	)

	open := func(label string, line int) {
		cur = &protoBlock{label: label, start: line, end: line}
		blocks = append(blocks, cur)
	}

	handleInstr := func(text string, line int) {
		if cur == nil {
			name := "entry"
			if len(blocks) > 0 {
				name = fmt.Sprintf("block_%d", line)
			}
			open(name, line)
		}
		cur.lines = append(cur.lines, text)
		cur.end = line

		fields := strings.Fields(text)
		mnemonic := strings.ToLower(fields[0])

		var term *terminator
		switch {
		case table.ret[mnemonic]:
			term = &terminator{isRet: true, line: line}
		case table.jump[mnemonic]:
			term = &terminator{kind: graph.EdgeJump, line: line}
		case table.cond[mnemonic]:
			term = &terminator{kind: graph.EdgeConditional, line: line}
		case table.call[mnemonic]:
			term = &terminator{kind: graph.EdgeCall, line: line}
		default:
			return
		}

		// A second transfer on the same line cannot be represented: the
		// first one terminates the block and everything from the second
		// mnemonic on, its operands included, is flagged and ignored.
		operands := fields[1:]
		for j, f := range fields[min(len(fields), 2):] {
			if table.isTransfer(strings.ToLower(strings.TrimSuffix(f, ","))) {
				operands = fields[1 : min(len(fields), 2)+j]
				warnings = append(warnings, Warning{
					Kind:    WarnExtraTransfer,
					Line:    line,
					Message: fmt.Sprintf("additional control transfer %q after %q ignored", f, mnemonic),
				})
				break
			}
		}
		if !term.isRet {
			term.target = lastOperand(operands)
		}

		cur.term = term
		cur = nil // next instruction starts a new block
	}

	for i, raw := range lines {
		t := strings.TrimSpace(stripComment(raw, b.opts.Dialect))
		if t == "" {
			continue
		}

		if label, isLabel := labelAt[i]; isLabel {
			open(label, i)
			rest := strings.TrimSpace(t[len(label)+1:])
			if rest != "" && !isDirective(rest, b.opts.Dialect) {
				handleInstr(rest, i)
			}
			continue
		}

		if isDirective(t, b.opts.Dialect) {
			continue
		}

		handleInstr(t, i)
	}

	// Graph assembly and edge wiring against the completed block list, so
	// forward references resolve without a rescan.
	byLabel := make(map[string]bool, len(blocks))
	for _, blk := range blocks {
		byLabel[blk.label] = true
	}

	g := graph.New()
	for _, blk := range blocks {
		g.AddNode(graph.Node{
			Label:     blk.label,
			Lines:     blk.lines,
			StartLine: blk.start,
			EndLine:   blk.end,
			Arch:      string(arch),
		})
	}

	warn := func(blk *protoBlock, t *terminator) {
		warnings = append(warnings, Warning{
			Kind:    WarnUnresolvedTarget,
			Line:    t.line,
			Message: fmt.Sprintf("block %q: target %q does not resolve to a label", blk.label, t.target),
		})
	}

	for i, blk := range blocks {
		var next *protoBlock
		if i+1 < len(blocks) {
			next = blocks[i+1]
		}

		t := blk.term
		switch {
		case t == nil:
			// Block ended at a boundary without a transfer: falls through.
			if next != nil {
				g.AddEdge(graph.Edge{From: blk.label, To: next.label, Kind: graph.EdgeFallthrough})
			}

		case t.isRet:
			// Sink.

		case t.kind == graph.EdgeJump:
			if target, ok := resolveTarget(t.target, byLabel); ok {
				g.AddEdge(graph.Edge{From: blk.label, To: target, Kind: graph.EdgeJump})
			} else {
				warn(blk, t)
			}

		case t.kind == graph.EdgeCall:
			// Calls return, so the block keeps its fall-through edge; a
			// resolvable local target additionally gets a call edge.
			if target, ok := resolveTarget(t.target, byLabel); ok {
				g.AddEdge(graph.Edge{From: blk.label, To: target, Kind: graph.EdgeCall})
			}
			if next != nil {
				g.AddEdge(graph.Edge{From: blk.label, To: next.label, Kind: graph.EdgeFallthrough})
			}

		case t.kind == graph.EdgeConditional:
			if target, ok := resolveTarget(t.target, byLabel); ok {
				g.AddEdge(graph.Edge{From: blk.label, To: target, Kind: graph.EdgeConditional})
				if next != nil {
					g.AddEdge(graph.Edge{From: blk.label, To: next.label, Kind: graph.EdgeFallthrough})
				}
			} else {
				warn(blk, t)
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, warnings, &ParseError{Line: -1, Msg: "graph invariant violated", Err: err}
	}

	b.log.WithFields(logrus.Fields{
		"arch":   arch,
		"blocks": g.NumNodes(),
		"edges":  g.NumEdges(),
	}).Debug("built control flow graph")

	return g, warnings, nil
}

// lastOperand returns the final operand of an instruction with commas
// stripped. Conditional branches like cbz place the target last; single
// operand transfers are unaffected.
func lastOperand(operands []string) string {
	if len(operands) == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(operands[len(operands)-1]), ",")
}

// resolveTarget normalizes a jump operand and looks it up in the label set.
// Linker decorations (@PLT, @GOT) are stripped; dot-prefixed local labels
// are matched verbatim.
func resolveTarget(operand string, labels map[string]bool) (string, bool) {
	operand = strings.TrimSpace(operand)
	if operand == "" {
		return "", false
	}
	if !strings.HasPrefix(operand, ".") {
		operand = strings.SplitN(operand, "@", 2)[0]
	}
	if labels[operand] {
		return operand, true
	}
	return "", false
}
