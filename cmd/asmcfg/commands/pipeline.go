package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/internal/config"
	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/asm"
	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/graph"
)

// pipelineOptions carries the per-invocation overrides for the
// preprocess+build pipeline, resolved from flags on top of config.
type pipelineOptions struct {
	dialect    string
	arch       string
	includeDir string
}

// resolveDialect picks the dialect from flag, config, then file extension.
func resolveDialect(path string, opts pipelineOptions, cfg *config.Config) (asm.Dialect, error) {
	name := opts.dialect
	if name == "" {
		name = cfg.Dialect
	}
	if name == "" {
		return asm.DialectForPath(path), nil
	}
	return asm.ParseDialect(name)
}

// resolveArch picks the architecture from flag then config; empty means
// the builder auto-detects.
func resolveArch(opts pipelineOptions, cfg *config.Config) (asm.Arch, error) {
	name := opts.arch
	if name == "" {
		name = cfg.Arch
	}
	if name == "" {
		return "", nil
	}
	return asm.ParseArch(name)
}

// expandSource preprocesses MASM-style content; GNU-style input bypasses
// the stage entirely.
func expandSource(path, content string, dialect asm.Dialect, opts pipelineOptions, cfg *config.Config, log *logrus.Logger) (string, []asm.Warning, error) {
	if dialect != asm.DialectMASM {
		return content, nil, nil
	}

	includeDir := opts.includeDir
	if includeDir == "" {
		includeDir = cfg.IncludeDir
	}
	if includeDir == "" {
		includeDir = filepath.Dir(path)
	}

	pre := asm.NewPreprocessor(asm.PreprocessorOptions{
		IncludeDir:     includeDir,
		MaxDepth:       cfg.MaxIncludeDepth,
		MaxExpandRatio: cfg.MaxExpandRatio,
	}, log)

	return pre.Expand(content)
}

// buildGraph runs the full pipeline for one assembly file: read, expand
// (MASM only), build. Returned warnings cover both stages.
func buildGraph(path string, opts pipelineOptions, cfg *config.Config, log *logrus.Logger) (*graph.Graph, []asm.Warning, error) {
	content, err := asm.ReadSource(path)
	if err != nil {
		return nil, nil, err
	}

	dialect, err := resolveDialect(path, opts, cfg)
	if err != nil {
		return nil, nil, err
	}
	arch, err := resolveArch(opts, cfg)
	if err != nil {
		return nil, nil, err
	}

	expanded, preWarnings, err := expandSource(path, content, dialect, opts, cfg, log)
	if err != nil {
		return nil, preWarnings, err
	}

	// An explicit --arch flag always wins; a config default may still be
	// overridden by detection when auto_detect_arch is on.
	builder := asm.NewBuilder(asm.BuilderOptions{
		Dialect:        dialect,
		Arch:           arch,
		AutoDetectArch: opts.arch == "" && cfg.AutoDetectArch,
	}, log)

	g, buildWarnings, err := builder.Build(expanded)
	warnings := append(preWarnings, buildWarnings...)
	if err != nil {
		return nil, warnings, err
	}
	return g, warnings, nil
}

// loadGraph loads a graph from any supported input: .json (full or generic
// node/edge form), .msgpack (Save output), or assembly source.
func loadGraph(path string, opts pipelineOptions, cfg *config.Config, log *logrus.Logger) (*graph.Graph, []asm.Warning, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		g, err := graph.DecodeJSON(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil, nil
	case ".msgpack":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		g, err := graph.Load(f)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil, nil
	default:
		return buildGraph(path, opts, cfg, log)
	}
}

// printWarnings reports pipeline warnings through the logger.
func printWarnings(log *logrus.Logger, warnings []asm.Warning) {
	for _, w := range warnings {
		log.WithField("kind", string(w.Kind)).Warn(w.String())
	}
}
