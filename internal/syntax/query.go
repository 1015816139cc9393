package syntax

import (
	"github.com/gnoswap-labs/tsed/internal/pattern"
)

// maxBindingsPerRoot bounds how many alternative capture bindings are
// reported for a single root node.
const maxBindingsPerRoot = 64

// MatchTree runs the structural part of p against every node under root,
// visiting nodes in pre-order. Grammars without a native query engine
// implement Tree.Query with it.
func MatchTree(root Node, p *pattern.Pattern) []RawMatch {
	var (
		out   []RawMatch
		visit func(n Node)
	)
	visit = func(n Node) {
		found := 0
		matchItem(p.Root, n, "", nil, func(b bindings) bool {
			out = append(out, RawMatch{Root: n.Span(), Captures: b.spans()})
			found++
			return found < maxBindingsPerRoot
		})
		for i := 0; i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	if root != nil {
		visit(root)
	}
	return out
}

// bindings maps capture names to captured spans. It is copied on write so
// that backtracking never observes bindings of an abandoned branch.
type bindings map[string][]Span

func (b bindings) with(names []string, s Span) bindings {
	if len(names) == 0 {
		return b
	}
	nb := make(bindings, len(b)+len(names))
	for k, v := range b {
		nb[k] = v
	}
	for _, name := range names {
		spans := make([]Span, len(nb[name]), len(nb[name])+1)
		copy(spans, nb[name])
		nb[name] = append(spans, s)
	}
	return nb
}

func (b bindings) spans() map[string][]Span {
	out := make(map[string][]Span, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// continuation receives a complete binding and reports whether the search
// should go on.
type continuation func(bindings) bool

// matchItem tries item against n, whose field label in its parent is field.
// It returns false when a continuation asked to stop.
func matchItem(item *pattern.Node, n Node, field string, b bindings, k continuation) bool {
	if item.Field != "" && item.Field != field {
		return true
	}

	bound := func(b bindings) bool {
		return k(b.with(item.Captures, n.Span()))
	}

	switch item.Kind {
	case pattern.KindWildcard:
		return bound(b)

	case pattern.KindAnonymous:
		if n.IsNamed() || n.Type() != item.Text {
			return true
		}
		return bound(b)

	case pattern.KindAlternation:
		for _, alt := range item.Children {
			if !matchItem(alt, n, field, b, bound) {
				return false
			}
		}
		return true

	case pattern.KindNamed:
		if !n.IsNamed() || (item.Type != "_" && n.Type() != item.Type) {
			return true
		}
		for _, neg := range item.Negated {
			if hasField(n, neg) {
				return true
			}
		}
		c := &childMatcher{parent: n, items: item.Children, anchorEnd: item.AnchorEnd}
		return c.match(0, 0, -1, b, bound)
	}
	return true
}

// childMatcher matches the child items of one named pattern node against
// the children of one syntax node as an ordered subsequence.
type childMatcher struct {
	parent    Node
	items     []*pattern.Node
	anchorEnd bool
}

func (c *childMatcher) match(i, from, prev int, b bindings, k continuation) bool {
	if i == len(c.items) {
		if c.anchorEnd && prev != lastNamed(c.parent) {
			return true
		}
		return k(b)
	}

	item := c.items[i]
	switch item.Quantifier {
	case pattern.QuantOne:
		return c.matchOne(i, from, prev, b, func(b bindings, j int) bool {
			return c.match(i+1, j+1, j, b, k)
		})
	case pattern.QuantZeroOrOne:
		ok := c.matchOne(i, from, prev, b, func(b bindings, j int) bool {
			return c.match(i+1, j+1, j, b, k)
		})
		if !ok {
			return false
		}
		return c.match(i+1, from, prev, b, k)
	default:
		return c.repeat(i, from, prev, 0, b, k)
	}
}

// repeat handles * and +. Occurrences after the first must be consecutive
// named siblings.
func (c *childMatcher) repeat(i, from, prev, count int, b bindings, k continuation) bool {
	item := c.items[i]
	ok := c.scan(i, from, prev, count > 0 || item.Anchored, b, func(b bindings, j int) bool {
		return c.repeat(i, j+1, j, count+1, b, k)
	})
	if !ok {
		return false
	}
	if count > 0 || item.Quantifier == pattern.QuantZeroOrMore {
		return c.match(i+1, from, prev, b, k)
	}
	return true
}

func (c *childMatcher) matchOne(i, from, prev int, b bindings, next func(bindings, int) bool) bool {
	return c.scan(i, from, prev, c.items[i].Anchored, b, next)
}

// scan tries item i against every candidate child from index from on.
// When adjacent is set only the first named child after prev qualifies,
// together with any anonymous children before it.
func (c *childMatcher) scan(i, from, prev int, adjacent bool, b bindings, next func(bindings, int) bool) bool {
	item := c.items[i]
	for j := from; j < c.parent.ChildCount(); j++ {
		child := c.parent.Child(j)
		ok := matchItem(item, child, c.parent.FieldName(j), b, func(b bindings) bool {
			return next(b, j)
		})
		if !ok {
			return false
		}
		if adjacent && child.IsNamed() {
			break
		}
	}
	return true
}

func hasField(n Node, field string) bool {
	for i := 0; i < n.ChildCount(); i++ {
		if n.FieldName(i) == field {
			return true
		}
	}
	return false
}

func lastNamed(n Node) int {
	for i := n.ChildCount() - 1; i >= 0; i-- {
		if n.Child(i).IsNamed() {
			return i
		}
	}
	return -1
}
