// Package match runs compiled patterns over parsed documents.
//
// Structural matching is left to the document's syntax.Tree. This package
// evaluates the predicates of each raw match against the captured text,
// keeps the first surviving match per root node and orders the result in
// document pre-order.
package match

import (
	"fmt"
	"sort"

	"github.com/gnoswap-labs/tsed/internal/pattern"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// Match is one occurrence of a pattern. Each capture maps to the union of
// the spans of the nodes it bound.
type Match struct {
	Root     syntax.Span
	Captures map[string]syntax.Span
}

// Capture returns the span bound to name.
func (m Match) Capture(name string) (syntax.Span, bool) {
	s, ok := m.Captures[name]
	return s, ok
}

// Target returns the span a command acts on: the capture called name, or
// the root when name is empty.
func (m Match) Target(name string) (syntax.Span, bool) {
	if name == "" {
		return m.Root, true
	}
	return m.Capture(name)
}

func (m Match) String() string {
	return fmt.Sprintf("match%s", m.Root)
}

// Run executes p against tree. A pattern that matches nothing yields an
// empty slice and no error.
func Run(tree syntax.Tree, p *pattern.Pattern) ([]Match, error) {
	raws, err := tree.Query(p)
	if err != nil {
		return nil, err
	}
	return Collect(raws, p, tree.Source()), nil
}

// Collect filters raw matches through the predicates of p, drops all but
// the first match per root span and sorts the rest by root start, outer
// roots first.
func Collect(raws []syntax.RawMatch, p *pattern.Pattern, src []byte) []Match {
	seen := make(map[syntax.Span]bool, len(raws))
	out := make([]Match, 0, len(raws))
	for _, raw := range raws {
		if seen[raw.Root] {
			continue
		}
		m := fromRaw(raw)
		if !Satisfies(p.Predicates, m, src) {
			continue
		}
		seen[raw.Root] = true
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Root, out[j].Root
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End > b.End
	})
	return out
}

func fromRaw(raw syntax.RawMatch) Match {
	m := Match{Root: raw.Root, Captures: make(map[string]syntax.Span, len(raw.Captures))}
	for name, spans := range raw.Captures {
		if len(spans) == 0 {
			continue
		}
		u := spans[0]
		for _, s := range spans[1:] {
			u = u.Union(s)
		}
		m.Captures[name] = u
	}
	return m
}
