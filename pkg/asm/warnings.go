package asm

import "fmt"

// WarningKind identifies a recoverable condition encountered while
// preprocessing or building. Recoverable conditions never abort an
// operation; they accumulate into the warnings slice returned alongside
// the result.
type WarningKind string

const (
	WarnIncludeNotFound  WarningKind = "include-not-found"
	WarnIncludeCycle     WarningKind = "include-cycle"
	WarnIncludeDepth     WarningKind = "include-depth-exceeded"
	WarnEncoding         WarningKind = "encoding-unrecognized"
	WarnUnresolvedTarget WarningKind = "unresolved-target"
	WarnExtraTransfer    WarningKind = "extra-transfer"
)

// Warning describes one recoverable condition. Line is the zero-based line
// index in the document the condition was found in, or -1 when the
// condition is not tied to a single line. File names the include file that
// document came from; it is empty for the caller's own document.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	File    string      `json:"file,omitempty"`
	Line    int         `json:"line"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.File != "" && w.Line >= 0:
		return fmt.Sprintf("%s (%s line %d): %s", w.Kind, w.File, w.Line, w.Message)
	case w.Line >= 0:
		return fmt.Sprintf("%s (line %d): %s", w.Kind, w.Line, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
}
