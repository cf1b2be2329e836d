package asm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/cache"
)

const (
	// DefaultMaxIncludeDepth caps include nesting.
	DefaultMaxIncludeDepth = 64
	// DefaultMaxExpandRatio caps the expanded size at this multiple of the
	// original input.
	DefaultMaxExpandRatio = 16
)

// ErrExpansionTooLarge is returned when expanding a document would exceed
// the configured size cap. The caller must reject the document rather than
// silently truncate it.
var ErrExpansionTooLarge = errors.New("expanded document exceeds size cap")

// PreprocessorOptions configures include expansion.
type PreprocessorOptions struct {
	IncludeDir     string // directory searched for include files
	MaxDepth       int    // include nesting cap (default DefaultMaxIncludeDepth)
	MaxExpandRatio int    // expanded-size cap as a multiple of the input (default DefaultMaxExpandRatio)
}

// Preprocessor expands MASM-style INCLUDE directives. A Preprocessor is
// safe for concurrent use: all per-call state lives in an expansion value
// created inside Expand.
type Preprocessor struct {
	opts  PreprocessorOptions
	log   *logrus.Logger
	files *cache.Cache
}

// NewPreprocessor creates a preprocessor. A nil logger disables diagnostic
// output; warnings are still returned by value from Expand.
func NewPreprocessor(opts PreprocessorOptions, logger *logrus.Logger) *Preprocessor {
	if opts.IncludeDir == "" {
		opts.IncludeDir = "."
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxIncludeDepth
	}
	if opts.MaxExpandRatio <= 0 {
		opts.MaxExpandRatio = DefaultMaxExpandRatio
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Preprocessor{
		opts:  opts,
		log:   logger,
		files: cache.New(cache.Options{}),
	}
}

// expansion is the per-call state: the set of files currently open in the
// expansion chain (cycle guard) and the remaining output budget in bytes.
type expansion struct {
	open     map[string]bool
	budget   int
	warnings []Warning
}

func (st *expansion) warn(kind WarningKind, file string, line int, format string, args ...interface{}) {
	st.warnings = append(st.warnings, Warning{
		Kind:    kind,
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// Expand recursively substitutes INCLUDE directives in content, searching
// the configured include directory. Directives that cannot be expanded
// (missing file, undecodable file, cycle, depth cap) are preserved verbatim
// and reported as warnings; expansion of the rest of the document
// continues. Expanding a document with no directives returns it unchanged.
func (p *Preprocessor) Expand(content string) (string, []Warning, error) {
	// emit charges one separator per line but the joined output has one
	// fewer separator than lines, so the budget carries that extra byte.
	st := &expansion{
		open:   make(map[string]bool),
		budget: len(content)*p.opts.MaxExpandRatio + 1,
	}

	out, err := p.expandLines(strings.Split(content, "\n"), st, 0, "")
	if err != nil {
		return "", st.warnings, err
	}
	return strings.Join(out, "\n"), st.warnings, nil
}

// expandLines substitutes directives in one document's lines. source names
// the include file the lines came from, empty for the top-level document;
// warnings raised here are scoped to that file.
func (p *Preprocessor) expandLines(lines []string, st *expansion, depth int, source string) ([]string, error) {
	out := make([]string, 0, len(lines))

	emit := func(line string) error {
		st.budget -= len(line) + 1
		if st.budget < 0 {
			return fmt.Errorf("%w (cap is %dx the input size)", ErrExpansionTooLarge, p.opts.MaxExpandRatio)
		}
		out = append(out, line)
		return nil
	}

	for i, line := range lines {
		name, ok := parseIncludeDirective(line)
		if !ok {
			if err := emit(line); err != nil {
				return nil, err
			}
			continue
		}

		if depth >= p.opts.MaxDepth {
			st.warn(WarnIncludeDepth, source, i, "include %q exceeds nesting limit %d", name, p.opts.MaxDepth)
			p.log.WithField("include", name).Warn("include nesting limit exceeded")
			if err := emit(line); err != nil {
				return nil, err
			}
			continue
		}

		path, err := p.resolveInclude(name)
		if err != nil {
			st.warn(WarnIncludeNotFound, source, i, "include %q: %v", name, err)
			p.log.WithField("include", name).WithError(err).Warn("include not resolved")
			if err := emit(line); err != nil {
				return nil, err
			}
			continue
		}

		if st.open[path] {
			st.warn(WarnIncludeCycle, source, i, "include %q is already open in this expansion chain", name)
			p.log.WithField("include", name).Warn("include cycle detected")
			if err := emit(line); err != nil {
				return nil, err
			}
			continue
		}

		incLines, kind, err := p.readInclude(path)
		if err != nil {
			st.warn(kind, source, i, "include %q: %v", name, err)
			p.log.WithField("include", name).WithError(err).Warn("include not read")
			if err := emit(line); err != nil {
				return nil, err
			}
			continue
		}

		st.open[path] = true
		sub, err := p.expandLines(incLines, st, depth+1, name)
		delete(st.open, path)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
		p.log.WithField("include", name).Debug("expanded include")
	}

	return out, nil
}

// resolveInclude joins the filename with the include directory and rejects
// any path that escapes it.
func (p *Preprocessor) resolveInclude(name string) (string, error) {
	dir, err := filepath.Abs(p.opts.IncludeDir)
	if err != nil {
		return "", fmt.Errorf("resolving include dir: %w", err)
	}
	path := filepath.Join(dir, filepath.FromSlash(name))

	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes include directory")
	}
	return path, nil
}

// readInclude reads and decodes an include file, consulting the cache
// first. The second return value is the warning kind to report on failure.
func (p *Preprocessor) readInclude(path string) ([]string, WarningKind, error) {
	if lines, ok := p.files.Get(path); ok {
		return lines, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WarnIncludeNotFound, err
	}

	text, err := decodeBytes(data)
	if err != nil {
		return nil, WarnEncoding, err
	}

	lines := strings.Split(text, "\n")
	p.files.Set(path, lines)
	return lines, "", nil
}

// ReadSource reads an assembly source file using the same encoding
// fallback order as include files. When no encoding decodes cleanly the
// raw bytes are kept so the caller can still scan the readable parts.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	text, err := decodeBytes(data)
	if err != nil {
		return string(data), nil
	}
	return text, nil
}

// decodeBytes tries UTF-8, then Latin-1, then Windows-1252, using the first
// encoding that decodes without error.
func decodeBytes(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if out, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
		return string(out), nil
	}
	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(out), nil
	}
	return "", errors.New("no supported encoding decodes this file")
}

// parseIncludeDirective recognizes a MASM INCLUDE line: the token INCLUDE
// (any case) followed by a filename, optionally quoted with single or
// double quotes, optionally followed by a trailing comment.
func parseIncludeDirective(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len("include ") {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len("include")], "include") {
		return "", false
	}
	rest := trimmed[len("include"):]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}

	operand := strings.TrimSpace(rest)
	if i := strings.IndexByte(operand, ';'); i >= 0 {
		operand = strings.TrimSpace(operand[:i])
	}
	operand = strings.Trim(operand, `"'`)
	if operand == "" {
		return "", false
	}
	return operand, true
}
