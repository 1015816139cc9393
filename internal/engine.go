package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/tsed/internal/edit"
	"github.com/gnoswap-labs/tsed/internal/match"
	"github.com/gnoswap-labs/tsed/internal/pattern"
	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// Engine runs a compiled script over documents of one language.
type Engine struct {
	script *script.Script
	lang   syntax.Language
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(s *script.Script, lang syntax.Language, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{script: s, lang: lang, logger: logger}
}

// Result is the outcome of running a script over one document.
type Result struct {
	Output []byte
	// Printed holds the print stream: command order first, then document
	// order within a command.
	Printed []string
	// Edits counts the edits rendered across all stages.
	Edits int
}

// Changed reports whether the output differs from src.
func (r *Result) Changed(src []byte) bool {
	return !bytes.Equal(r.Output, src)
}

// StageError reports a failure inside one stage. Source is the buffer the
// stage ran on, which offsets in Err refer to.
type StageError struct {
	Stage  int
	Source []byte
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Validate checks every pattern of the script against the engine's
// language, when the language can do so without a document.
func (e *Engine) Validate() error {
	v, ok := e.lang.(syntax.Validator)
	if !ok {
		return nil
	}
	for _, cmd := range e.script.Commands() {
		if err := v.Validate(cmd.Pattern); err != nil {
			return fmt.Errorf("%s: %w", cmd.Source, err)
		}
	}
	return nil
}

// Run executes the script over src. Each stage matches against a parse of
// the previous stage's output; the document is re-parsed only when a stage
// changed it. src is never modified.
func (e *Engine) Run(ctx context.Context, src []byte) (*Result, error) {
	res := &Result{}
	buf := src
	var tree syntax.Tree

	for i, st := range e.script.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(st.Commands) == 0 {
			continue
		}
		if tree == nil {
			t, err := e.lang.Parse(ctx, buf)
			if err != nil {
				return nil, &StageError{Stage: i + 1, Source: buf, Err: err}
			}
			tree = t
		}

		edits, prints, err := e.plan(st, tree, buf)
		if err != nil {
			return nil, &StageError{Stage: i + 1, Source: buf, Err: err}
		}
		for _, p := range prints {
			res.Printed = append(res.Printed, p.Text)
		}

		e.logger.Debug("stage planned",
			zap.Int("stage", i+1),
			zap.Int("commands", len(st.Commands)),
			zap.Int("edits", len(edits)),
			zap.Int("prints", len(prints)),
		)
		if len(edits) == 0 {
			continue
		}

		out, err := edit.Render(buf, edits)
		if err != nil {
			return nil, &StageError{Stage: i + 1, Source: buf, Err: err}
		}
		buf = out
		tree = nil
		res.Edits += len(edits)
	}

	res.Output = buf
	return res, nil
}

// plan matches and plans every command of a stage against one snapshot.
func (e *Engine) plan(st script.Stage, tree syntax.Tree, buf []byte) ([]edit.Edit, []edit.Print, error) {
	var (
		edits  []edit.Edit
		prints []edit.Print
		lines  *edit.Lines
	)
	for j, cmd := range st.Commands {
		matches, err := match.Run(tree, cmd.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", cmd.Source, err)
		}
		if cmd.Address != nil && lines == nil {
			lines = edit.NewLines(buf)
		}
		p, err := edit.Build(cmd, j, matches, buf, lines)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", cmd.Source, err)
		}
		edits = append(edits, p.Edits...)
		prints = append(prints, p.Prints...)
	}
	return edits, prints, nil
}

// Error classes reported by ErrorClass.
const (
	ClassScriptSyntax  = "ScriptSyntaxError"
	ClassPatternSyntax = "PatternSyntaxError"
	ClassPredicate     = "PredicateError"
	ClassTemplate      = "TemplateError"
	ClassConflict      = "MatchConflictError"
	ClassArity         = "ArityError"
	ClassParse         = "ParseError"
)

// ErrorClass names the category of err, or returns "" for errors outside
// the taxonomy.
func ErrorClass(err error) string {
	var (
		scriptSyntax  *script.SyntaxError
		arity         *script.ArityError
		template      *script.TemplateError
		patternSyntax *pattern.SyntaxError
		predicate     *pattern.PredicateError
		validation    *syntax.ValidationError
		conflict      *edit.ConflictError
		parse         *syntax.ParseError
	)
	switch {
	case errors.As(err, &scriptSyntax):
		return ClassScriptSyntax
	case errors.As(err, &arity):
		return ClassArity
	case errors.As(err, &template):
		return ClassTemplate
	case errors.As(err, &patternSyntax), errors.As(err, &validation):
		return ClassPatternSyntax
	case errors.As(err, &predicate):
		return ClassPredicate
	case errors.As(err, &conflict):
		return ClassConflict
	case errors.As(err, &parse):
		return ClassParse
	default:
		return ""
	}
}
