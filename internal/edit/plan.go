package edit

import (
	"fmt"

	"github.com/gnoswap-labs/tsed/internal/match"
	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// Build plans cmd over matches, which must be in document order. index is
// the command's position in its stage and is recorded on every edit and
// print. lines may be nil when cmd has no address.
//
// Matches whose target capture is unbound, or whose target starts on a
// line the address does not select, are skipped. Overlapping edits from
// nested matches fail with a ConflictError.
func Build(cmd *script.Command, index int, matches []match.Match, src []byte, lines *Lines) (Plan, error) {
	type selected struct {
		m      match.Match
		target syntax.Span
	}

	var sel []selected
	for _, m := range matches {
		target, ok := m.Target(cmd.Target)
		if !ok {
			continue
		}
		if cmd.Address != nil {
			if lines == nil {
				lines = NewLines(src)
			}
			if !cmd.Address.Selects(lines.Line(target.Start), lines.Last()) {
				continue
			}
		}
		sel = append(sel, selected{m: m, target: target})
	}

	var plan Plan
	for i, s := range sel {
		text := s.target.Text(src)
		switch cmd.Kind {
		case script.KindSubstitute:
			if !occurrence(cmd.Flags, i+1) {
				continue
			}
			repl, err := cmd.Template.Expand(text, captureText(s.m, src))
			if err != nil {
				return Plan{}, fmt.Errorf("%s at %s: %w", cmd.Kind, s.m.Root, err)
			}
			plan.Edits = append(plan.Edits, Edit{Kind: Replace, Span: s.target, Text: repl, Command: index})
			if cmd.Flags.Print {
				plan.Prints = append(plan.Prints, Print{Command: index, Span: s.target, Text: repl})
			}

		case script.KindInsert:
			plan.Edits = append(plan.Edits, Edit{Kind: InsertBefore, Span: s.target, Text: cmd.Text, Command: index})

		case script.KindAppend:
			plan.Edits = append(plan.Edits, Edit{Kind: InsertAfter, Span: s.target, Text: cmd.Text, Command: index})

		case script.KindDelete:
			plan.Edits = append(plan.Edits, Edit{Kind: Delete, Span: s.target, Command: index})

		case script.KindPrint:
			plan.Prints = append(plan.Prints, Print{Command: index, Span: s.target, Text: text})
		}
	}

	if err := Check(Sort(plan.Edits)); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// occurrence reports whether the n-th selected match (1-based) is
// substituted under flags.
func occurrence(f script.Flags, n int) bool {
	switch {
	case f.Nth > 0 && f.Global:
		return n >= f.Nth
	case f.Nth > 0:
		return n == f.Nth
	case f.Global:
		return true
	default:
		return n == 1
	}
}

func captureText(m match.Match, src []byte) func(string) (string, bool) {
	return func(name string) (string, bool) {
		s, ok := m.Capture(name)
		if !ok {
			return "", false
		}
		return s.Text(src), true
	}
}
