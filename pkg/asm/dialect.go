package asm

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect selects the assembly syntax family. It only affects comment
// syntax and which directive keywords the scanner skips; block and edge
// construction is dialect-agnostic.
type Dialect string

const (
	DialectMASM Dialect = "masm" // MASM-style .asm, ';' comments, INCLUDE preprocessing
	DialectGNU  Dialect = "gnu"  // GNU as style .s, '#' and '//' comments
)

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case DialectMASM:
		return DialectMASM, nil
	case DialectGNU:
		return DialectGNU, nil
	}
	return "", fmt.Errorf("unknown dialect %q (expected %q or %q)", s, DialectMASM, DialectGNU)
}

// DialectForPath picks the dialect from the file extension. Only .asm files
// are treated as MASM-style; everything else scans as GNU-style.
func DialectForPath(path string) Dialect {
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		return DialectMASM
	}
	return DialectGNU
}

// Arch selects the instruction tables used to classify control transfers.
type Arch string

const (
	ArchX86_64 Arch = "x86_64"
	ArchARM64  Arch = "arm64"
)

// ParseArch validates an architecture name.
func ParseArch(s string) (Arch, error) {
	switch Arch(strings.ToLower(s)) {
	case ArchX86_64:
		return ArchX86_64, nil
	case ArchARM64:
		return ArchARM64, nil
	}
	return "", fmt.Errorf("unknown architecture %q (expected %q or %q)", s, ArchX86_64, ArchARM64)
}

// jumpTable holds the control-transfer mnemonics for one architecture.
type jumpTable struct {
	jump map[string]bool // unconditional jumps
	cond map[string]bool // conditional jumps
	call map[string]bool // calls (transfer and return)
	ret  map[string]bool // returns (block sinks)
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var jumpTables = map[Arch]jumpTable{
	ArchX86_64: {
		jump: set("jmp"),
		cond: set("je", "jne", "jz", "jnz", "jg", "jge", "jl", "jle",
			"ja", "jae", "jb", "jbe", "jo", "jno", "js", "jns",
			"jp", "jpe", "jnp", "jpo", "jcxz", "jecxz"),
		call: set("call"),
		ret:  set("ret", "retn"),
	},
	ArchARM64: {
		jump: set("b", "br"),
		cond: set("b.eq", "b.ne", "b.cs", "b.cc", "b.mi", "b.pl",
			"b.vs", "b.vc", "b.hi", "b.ls", "b.ge", "b.lt",
			"b.gt", "b.le", "cbz", "cbnz", "tbz", "tbnz"),
		call: set("bl", "blr"),
		ret:  set("ret"),
	},
}

func (t jumpTable) isTransfer(mnemonic string) bool {
	return t.jump[mnemonic] || t.cond[mnemonic] || t.call[mnemonic] || t.ret[mnemonic]
}

// DetectArch guesses the architecture by scoring architecture-specific
// indicator substrings, defaulting to x86_64 on a tie.
func DetectArch(content string) Arch {
	lower := strings.ToLower(content)

	armIndicators := []string{"adrp", "stp ", "ldp ", "b.eq", "b.ne", "cbz", "cbnz"}
	x86Indicators := []string{"mov", "push", "pop", "rax", "rbx", "rcx", "rdx", "rsp", "rbp", "eax"}

	armScore, x86Score := 0, 0
	for _, ind := range armIndicators {
		if strings.Contains(lower, ind) {
			armScore++
		}
	}
	for _, ind := range x86Indicators {
		if strings.Contains(lower, ind) {
			x86Score++
		}
	}

	if armScore > x86Score {
		return ArchARM64
	}
	return ArchX86_64
}

// masmDirectives are MASM keywords that never form block content.
var masmDirectives = set(
	"assume", "title", "page", "end", "ends", "option", "public",
	"extern", "extrn", "include", "includelib", "org", "align",
	"segment", "group", "name",
)

// stripComment removes the dialect's trailing comment from a line.
func stripComment(line string, d Dialect) string {
	switch d {
	case DialectMASM:
		if i := strings.IndexByte(line, ';'); i >= 0 {
			return line[:i]
		}
	default:
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
	}
	return line
}

// isDirective reports whether a trimmed, comment-stripped line is an
// assembler directive rather than an instruction. Label definitions must be
// checked before calling this: GNU local labels also start with a dot.
func isDirective(trimmed string, d Dialect) bool {
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	op := strings.ToLower(fields[0])
	if strings.HasPrefix(op, ".") {
		return true
	}
	if d == DialectMASM {
		return masmDirectives[op]
	}
	return false
}
