package pattern

import (
	"fmt"
	"strings"
)

// RootCapture is the capture Query attaches to the top-level item. Patterns
// may not declare it themselves.
const RootCapture = "__root"

// Kind is the kind of a pattern item.
type Kind int

const (
	KindNamed       Kind = iota // (type ...), Type "_" matches any named node
	KindAnonymous               // "text"
	KindWildcard                // _
	KindAlternation             // [ ... ]
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindAnonymous:
		return "anonymous"
	case KindWildcard:
		return "wildcard"
	case KindAlternation:
		return "alternation"
	default:
		return "unknown"
	}
}

// Quantifier defines how many sibling nodes an item may consume.
type Quantifier int

const (
	QuantOne        Quantifier = iota // exactly once
	QuantZeroOrOne                    // ?
	QuantZeroOrMore                   // *
	QuantOneOrMore                    // +
)

func (q Quantifier) String() string {
	switch q {
	case QuantZeroOrOne:
		return "?"
	case QuantZeroOrMore:
		return "*"
	case QuantOneOrMore:
		return "+"
	default:
		return ""
	}
}

// Optional reports whether the item may match zero nodes.
func (q Quantifier) Optional() bool {
	return q == QuantZeroOrOne || q == QuantZeroOrMore
}

// Repeats reports whether the item may match more than one node.
func (q Quantifier) Repeats() bool {
	return q == QuantZeroOrMore || q == QuantOneOrMore
}

// Node is one item of a compiled pattern.
type Node struct {
	Kind Kind
	Type string // KindNamed
	Text string // KindAnonymous

	// Field is the field label the parent requires for this child.
	Field string
	// Children holds child items for KindNamed and the alternatives for
	// KindAlternation.
	Children []*Node
	// Negated lists fields a named node must not have.
	Negated []string

	Captures   []string
	Quantifier Quantifier

	// Anchored pins the item to the first named child of its parent, or
	// to the named sibling right after the previous item's match.
	Anchored bool
	// AnchorEnd pins the last child item to the last named child.
	AnchorEnd bool

	Offset int
}

// Pattern is a compiled structural query. It is immutable once compiled.
type Pattern struct {
	Root       *Node
	Predicates []Predicate
	Source     string

	captures []string
}

// Captures returns the declared capture names in order of first appearance.
func (p *Pattern) Captures() []string {
	out := make([]string, len(p.captures))
	copy(out, p.captures)
	return out
}

// HasCapture reports whether name is declared anywhere in the pattern.
func (p *Pattern) HasCapture(name string) bool {
	for _, c := range p.captures {
		if c == name {
			return true
		}
	}
	return false
}

// Repeats reports whether any item of the pattern is quantified with * or +.
func (p *Pattern) Repeats() bool {
	return p.Root.repeats()
}

func (n *Node) repeats() bool {
	if n.Quantifier.Repeats() {
		return true
	}
	for _, c := range n.Children {
		if c.repeats() {
			return true
		}
	}
	return false
}

// Query renders the structural part of the pattern as tree-sitter query text,
// with RootCapture added to the top-level item and predicates left out.
func (p *Pattern) Query() string {
	var sb strings.Builder
	p.Root.write(&sb)
	sb.WriteString(" @" + RootCapture)
	return sb.String()
}

// String renders the structural part and the predicates.
func (p *Pattern) String() string {
	var sb strings.Builder
	p.Root.write(&sb)
	for _, pred := range p.Predicates {
		sb.WriteByte(' ')
		sb.WriteString(pred.String())
	}
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Kind {
	case KindNamed:
		sb.WriteString("(" + n.Type)
		for _, c := range n.Children {
			sb.WriteByte(' ')
			if c.Anchored {
				sb.WriteString(". ")
			}
			if c.Field != "" {
				sb.WriteString(c.Field + ": ")
			}
			c.write(sb)
		}
		for _, f := range n.Negated {
			sb.WriteString(" !" + f)
		}
		if n.AnchorEnd {
			sb.WriteString(" .")
		}
		sb.WriteByte(')')
	case KindAnonymous:
		sb.WriteString(quote(n.Text))
	case KindWildcard:
		sb.WriteByte('_')
	case KindAlternation:
		sb.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if c.Field != "" {
				sb.WriteString(c.Field + ": ")
			}
			c.write(sb)
		}
		sb.WriteByte(']')
	}
	sb.WriteString(n.Quantifier.String())
	for _, c := range n.Captures {
		sb.WriteString(" @" + c)
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// SyntaxError reports malformed pattern text.
type SyntaxError struct {
	Offset   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern syntax error at offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}

// PredicateError reports an unknown predicate or bad predicate operands.
type PredicateError struct {
	Offset int
	Name   string
	Msg    string
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate #%s at offset %d: %s", e.Name, e.Offset, e.Msg)
}
