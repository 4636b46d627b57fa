package datadriven

import "fmt"

// GrammarError reports a malformed directive line. Msg is the exact
// diagnostic, e.g. "expected argument value, got (".
type GrammarError struct {
	Msg string
}

func (e *GrammarError) Error() string { return e.Msg }

// DuplicateArgumentError reports a key given twice on one directive line.
// It unwraps to a *GrammarError carrying the same message.
type DuplicateArgumentError struct {
	Key string
}

func (e *DuplicateArgumentError) Error() string { return "duplicate argument: " + e.Key }

func (e *DuplicateArgumentError) Unwrap() error { return &GrammarError{Msg: e.Error()} }

// StructuralError reports a block-shape violation, such as input that is
// never followed by a ---- separator.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string { return e.Msg }

// ParseError locates a grammar or structural error in a fixture file.
type ParseError struct {
	File string
	Line int // 1-based
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// RewriteError reports a replacement output that cannot be written back
// into a fixture file without changing its meaning.
type RewriteError struct {
	Pos string
	Msg string
}

func (e *RewriteError) Error() string { return fmt.Sprintf("%s: rewrite: %s", e.Pos, e.Msg) }
