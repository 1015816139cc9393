// Package edit turns matches into byte-range edits and applies them.
//
// Edits always carry coordinates of the buffer the matches were found in.
// Render applies a whole set in one pass over that buffer, so no edit ever
// sees offsets shifted by another.
package edit

import (
	"fmt"

	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// Kind is the operation an edit performs.
type Kind int

const (
	Replace Kind = iota
	InsertBefore
	InsertAfter
	Delete
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case InsertBefore:
		return "insert-before"
	case InsertAfter:
		return "insert-after"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Edit is one change to a source buffer. Span is the target span of the
// match; insertions only use one of its ends.
type Edit struct {
	Kind Kind
	Span syntax.Span
	Text string
	// Command is the index of the producing command within its stage.
	Command int
}

// Range returns the half-open byte range the edit consumes. Insertions are
// zero-width.
func (e Edit) Range() syntax.Span {
	switch e.Kind {
	case InsertBefore:
		return syntax.Span{Start: e.Span.Start, End: e.Span.Start}
	case InsertAfter:
		return syntax.Span{Start: e.Span.End, End: e.Span.End}
	default:
		return e.Span
	}
}

func (e Edit) String() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Range())
}

// Print is one entry of the print stream.
type Print struct {
	Command int
	Span    syntax.Span
	Text    string
}

// Plan is the outcome of planning one command.
type Plan struct {
	Edits  []Edit
	Prints []Print
}

// ConflictError reports two edits whose ranges overlap.
type ConflictError struct {
	A, B Edit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting edits: %s from command %d overlaps %s from command %d",
		e.A, e.A.Command+1, e.B, e.B.Command+1)
}
