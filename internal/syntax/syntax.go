// Package syntax describes the parsing capability the editor is built on.
//
// The editor never builds syntax trees itself. A Language parses source text
// into a Tree, and a Tree answers structural queries compiled by the pattern
// package. Grammars backed by a library with its own query engine (tree-sitter)
// delegate to it; grammars without one use MatchTree, the pre-order matcher in
// this package.
package syntax

import (
	"context"
	"fmt"

	"github.com/gnoswap-labs/tsed/internal/pattern"
)

// Span is a half-open byte range [Start, End) into a source buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.Start == s.End }

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	if o.Start < s.Start {
		s.Start = o.Start
	}
	if o.End > s.End {
		s.End = o.End
	}
	return s
}

// Text returns the bytes of src covered by s as a string.
func (s Span) Text(src []byte) string {
	if s.Start < 0 || s.End > len(src) || s.Start > s.End {
		return ""
	}
	return string(src[s.Start:s.End])
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Node is a read-only view over one node of a parsed syntax tree.
type Node interface {
	// Type is the grammar name of the node ("call_expression", "CallExpr").
	Type() string
	// IsNamed reports whether the node is a named grammar rule rather than
	// an anonymous token such as "(" or ";".
	IsNamed() bool
	Span() Span
	ChildCount() int
	Child(i int) Node
	// FieldName returns the field label of the i-th child, or "".
	FieldName(i int) string
}

// RawMatch is one structural match before predicate evaluation.
type RawMatch struct {
	Root     Span
	Captures map[string][]Span
}

// Tree is a parsed document.
type Tree interface {
	Root() Node
	Source() []byte
	// Query runs the structural part of p against the whole tree. Matches
	// come back in no particular order and may include several matches
	// rooted at the same node.
	Query(p *pattern.Pattern) ([]RawMatch, error)
}

// Language is a grammar able to parse source text.
type Language interface {
	Name() string
	// Extensions lists the file extensions, with leading dot, the
	// grammar handles by default.
	Extensions() []string
	Parse(ctx context.Context, src []byte) (Tree, error)
}

// Validator is implemented by languages that can reject a pattern before any
// document is parsed, for example because it names an unknown node type.
type Validator interface {
	Validate(p *pattern.Pattern) error
}

// ParseError reports source text a grammar refused to parse.
type ParseError struct {
	Language string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s source: %v", e.Language, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a pattern that names node types or fields the
// grammar does not have.
type ValidationError struct {
	Language string
	Offset   int
	Msg      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pattern invalid for %s at offset %d: %s", e.Language, e.Offset, e.Msg)
}
