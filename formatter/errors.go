package formatter

import (
	"errors"
	"fmt"

	"github.com/gnoswap-labs/tsed/internal"
	"github.com/gnoswap-labs/tsed/internal/edit"
	"github.com/gnoswap-labs/tsed/internal/pattern"
	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// ScriptFilename labels issues located in the script text.
const ScriptFilename = "<script>"

// FromError builds an issue for err. filename and src describe the document
// being edited, scriptSrc the script; either may be empty when unknown.
func FromError(filename string, src []byte, scriptSrc string, err error) Issue {
	issue := Issue{
		Class:    internal.ErrorClass(err),
		Filename: filename,
		Message:  err.Error(),
	}

	var conflict *edit.ConflictError
	if errors.As(err, &conflict) {
		issue.Source = src
		var stage *internal.StageError
		if errors.As(err, &stage) {
			issue.Source = stage.Source
			if stage.Stage > 1 {
				issue.Note = fmt.Sprintf("offsets refer to the output of stage %d", stage.Stage-1)
			}
		}
		issue.Labels = []Label{
			{Span: conflict.A.Range(), Text: fmt.Sprintf("%s by command %d", conflict.A.Kind, conflict.A.Command+1)},
			{Span: conflict.B.Range(), Text: fmt.Sprintf("%s by command %d", conflict.B.Kind, conflict.B.Command+1)},
		}
		return issue
	}

	if offset, ok := scriptOffset(err); ok && scriptSrc != "" {
		issue.Filename = ScriptFilename
		issue.Source = []byte(scriptSrc)
		issue.Labels = []Label{{Span: syntax.Span{Start: offset, End: offset + 1}}}
	}
	return issue
}

// scriptOffset extracts the script offset of a compile error.
func scriptOffset(err error) (int, bool) {
	var (
		scriptSyntax  *script.SyntaxError
		arity         *script.ArityError
		template      *script.TemplateError
		patternSyntax *pattern.SyntaxError
		predicate     *pattern.PredicateError
	)
	switch {
	case errors.As(err, &scriptSyntax):
		return scriptSyntax.Offset, true
	case errors.As(err, &arity):
		return arity.Offset, true
	case errors.As(err, &template):
		return template.Offset, template.Offset >= 0
	case errors.As(err, &patternSyntax):
		return patternSyntax.Offset, true
	case errors.As(err, &predicate):
		return predicate.Offset, true
	default:
		return 0, false
	}
}
