package asm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInclude(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newTestPreprocessor(dir string) *Preprocessor {
	return NewPreprocessor(PreprocessorOptions{IncludeDir: dir}, nil)
}

func TestExpand_NoDirectivesUnchanged(t *testing.T) {
	p := newTestPreprocessor(t.TempDir())

	doc := "start:\n mov eax, 1\n ret"
	out, warnings, err := p.Expand(doc)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, doc, out)

	// Idempotence: a directive-free document is a fixed point.
	again, warnings, err := p.Expand(out)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, out, again)
}

func TestExpand_RatioOneKeepsInputUnchanged(t *testing.T) {
	// A directive-free document is exactly its own size, so the tightest
	// allowed cap must still accept it.
	p := NewPreprocessor(PreprocessorOptions{IncludeDir: t.TempDir(), MaxExpandRatio: 1}, nil)

	doc := "start:\n mov eax, 1\n ret"
	out, warnings, err := p.Expand(doc)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, doc, out)
}

func TestExpand_BasicInclude(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "foo.inc", "mov eax, 1\nmov ebx, 2")
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE foo.inc\nret")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "mov eax, 1\nmov ebx, 2\nret", out)
}

func TestExpand_NestedInclude(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "outer.inc", "outer_top\nINCLUDE inner.inc\nouter_bottom")
	writeInclude(t, dir, "inner.inc", "inner")
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE outer.inc")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "outer_top\ninner\nouter_bottom", out)
}

func TestExpand_MissingIncludeKeptVerbatim(t *testing.T) {
	p := newTestPreprocessor(t.TempDir())

	out, warnings, err := p.Expand("INCLUDE foo.inc\nstart:\n call setup")
	require.NoError(t, err)

	assert.Contains(t, out, "INCLUDE foo.inc")
	assert.Contains(t, out, "call setup")
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnIncludeNotFound, warnings[0].Kind)
	assert.Equal(t, 0, warnings[0].Line)
	assert.Empty(t, warnings[0].File, "top-level warnings carry no file name")
}

func TestExpand_NestedWarningNamesIncludeFile(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "outer.inc", "mov eax, 1\nINCLUDE missing.inc")
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE outer.inc")
	require.NoError(t, err)
	assert.Contains(t, out, "INCLUDE missing.inc")

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnIncludeNotFound, warnings[0].Kind)
	assert.Equal(t, "outer.inc", warnings[0].File)
	assert.Equal(t, 1, warnings[0].Line, "line index is relative to the named include file")
}

func TestExpand_CycleLeftUnexpanded(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "self.inc", "INCLUDE self.inc\nmov eax, 1")
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE self.inc")
	require.NoError(t, err)

	// The nested self-include stays verbatim; the rest expands normally.
	assert.Equal(t, "INCLUDE self.inc\nmov eax, 1", out)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnIncludeCycle, warnings[0].Kind)
}

func TestExpand_MutualCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "a.inc", "from_a\nINCLUDE b.inc")
	writeInclude(t, dir, "b.inc", "from_b\nINCLUDE a.inc")
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE a.inc")
	require.NoError(t, err)

	assert.Contains(t, out, "from_a")
	assert.Contains(t, out, "from_b")
	assert.Contains(t, out, "INCLUDE a.inc")
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnIncludeCycle, warnings[0].Kind)
}

func TestExpand_DepthCap(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "a.inc", "INCLUDE b.inc")
	writeInclude(t, dir, "b.inc", "INCLUDE c.inc")
	writeInclude(t, dir, "c.inc", "deepest")
	p := NewPreprocessor(PreprocessorOptions{IncludeDir: dir, MaxDepth: 2}, nil)

	out, warnings, err := p.Expand("INCLUDE a.inc")
	require.NoError(t, err)

	assert.Contains(t, out, "INCLUDE c.inc")
	assert.NotContains(t, out, "deepest")
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnIncludeDepth, warnings[0].Kind)
}

func TestExpand_SizeCap(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "big.inc", strings.Repeat("mov eax, 1\n", 200))
	p := NewPreprocessor(PreprocessorOptions{IncludeDir: dir, MaxExpandRatio: 2}, nil)

	_, _, err := p.Expand("INCLUDE big.inc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExpansionTooLarge))
}

func TestExpand_PathTraversalRejected(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "inc")
	require.NoError(t, os.Mkdir(dir, 0755))
	writeInclude(t, parent, "secret.inc", "secret")
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE ../secret.inc")
	require.NoError(t, err)

	assert.NotContains(t, out, "secret\n")
	assert.Contains(t, out, "INCLUDE ../secret.inc")
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnIncludeNotFound, warnings[0].Kind)
}

func TestExpand_Latin1Include(t *testing.T) {
	dir := t.TempDir()
	// 0xE9 is not valid UTF-8 on its own; Latin-1 decodes it as é.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.inc"), []byte{'d', 'b', ' ', 0xE9}, 0644))
	p := newTestPreprocessor(dir)

	out, warnings, err := p.Expand("INCLUDE legacy.inc")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "db é", out)
}

func TestExpand_IncludeReadOncePerProcess(t *testing.T) {
	dir := t.TempDir()
	writeInclude(t, dir, "shared.inc", "mov eax, 1")
	p := newTestPreprocessor(dir)

	_, _, err := p.Expand("INCLUDE shared.inc")
	require.NoError(t, err)

	// Second expansion is served from the cache even if the file vanishes.
	require.NoError(t, os.Remove(filepath.Join(dir, "shared.inc")))
	out, warnings, err := p.Expand("INCLUDE shared.inc")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "mov eax, 1", out)
}

func TestParseIncludeDirective(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{"plain", "INCLUDE foo.inc", "foo.inc", true},
		{"lowercase", "include foo.inc", "foo.inc", true},
		{"mixed case", "Include foo.inc", "foo.inc", true},
		{"double quoted", `INCLUDE "foo.inc"`, "foo.inc", true},
		{"single quoted", "INCLUDE 'foo.inc'", "foo.inc", true},
		{"leading whitespace", "   INCLUDE foo.inc", "foo.inc", true},
		{"trailing comment", "INCLUDE foo.inc ; pulled in for macros", "foo.inc", true},
		{"tab separated", "INCLUDE\tfoo.inc", "foo.inc", true},
		{"includelib is not include", "INCLUDELIB kernel32.lib", "", false},
		{"ordinary instruction", "mov eax, 1", "", false},
		{"bare keyword", "INCLUDE", "", false},
		{"keyword with empty operand", "INCLUDE   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseIncludeDirective(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
