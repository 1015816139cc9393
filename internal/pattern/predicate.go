package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// PredicateKind identifies a predicate clause.
type PredicateKind int

const (
	PredEq PredicateKind = iota
	PredNotEq
	PredMatch
	PredNotMatch
	PredAnyOf
	PredNotAnyOf
)

var predicateNames = map[string]PredicateKind{
	"eq?":         PredEq,
	"not-eq?":     PredNotEq,
	"match?":      PredMatch,
	"not-match?":  PredNotMatch,
	"any-of?":     PredAnyOf,
	"not-any-of?": PredNotAnyOf,
}

// Negated reports whether the predicate inverts its test.
func (k PredicateKind) Negated() bool {
	return k == PredNotEq || k == PredNotMatch || k == PredNotAnyOf
}

// Operand is a predicate argument: either a capture reference or a literal.
type Operand struct {
	Capture string
	Literal string
}

// IsCapture reports whether the operand refers to a capture.
func (o Operand) IsCapture() bool { return o.Capture != "" }

func (o Operand) String() string {
	if o.IsCapture() {
		return "@" + o.Capture
	}
	return quote(o.Literal)
}

// Predicate is an unevaluated predicate clause. The first operand is always
// the capture under test.
type Predicate struct {
	Kind    PredicateKind
	Name    string
	Capture string
	Args    []Operand
	Offset  int

	re *regexp.Regexp
}

// Regexp returns the compiled expression of a match predicate.
func (p Predicate) Regexp() *regexp.Regexp { return p.re }

func (p Predicate) String() string {
	var sb strings.Builder
	sb.WriteString("(#" + p.Name + " @" + p.Capture)
	for _, a := range p.Args {
		sb.WriteString(" " + a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// newPredicate checks the operand shape of a predicate clause.
func newPredicate(name string, operands []Operand, offset int) (Predicate, error) {
	kind, ok := predicateNames[name]
	if !ok {
		return Predicate{}, &PredicateError{Offset: offset, Name: name, Msg: "unknown predicate"}
	}
	if len(operands) == 0 || !operands[0].IsCapture() {
		return Predicate{}, &PredicateError{Offset: offset, Name: name, Msg: "first operand must be a capture"}
	}

	pred := Predicate{
		Kind:    kind,
		Name:    name,
		Capture: operands[0].Capture,
		Args:    operands[1:],
		Offset:  offset,
	}

	switch kind {
	case PredEq, PredNotEq:
		if len(pred.Args) != 1 {
			return Predicate{}, arityError(name, offset, "exactly 2", len(operands))
		}
	case PredMatch, PredNotMatch:
		if len(pred.Args) != 1 {
			return Predicate{}, arityError(name, offset, "exactly 2", len(operands))
		}
		if pred.Args[0].IsCapture() {
			return Predicate{}, &PredicateError{Offset: offset, Name: name, Msg: "second operand must be a string"}
		}
		re, err := regexp.Compile(pred.Args[0].Literal)
		if err != nil {
			return Predicate{}, &PredicateError{Offset: offset, Name: name, Msg: fmt.Sprintf("invalid regular expression: %v", err)}
		}
		pred.re = re
	case PredAnyOf, PredNotAnyOf:
		if len(pred.Args) == 0 {
			return Predicate{}, arityError(name, offset, "at least 2", len(operands))
		}
		for _, a := range pred.Args {
			if a.IsCapture() {
				return Predicate{}, &PredicateError{Offset: offset, Name: name, Msg: "values must be strings"}
			}
		}
	}
	return pred, nil
}

func arityError(name string, offset int, want string, got int) error {
	return &PredicateError{
		Offset: offset,
		Name:   name,
		Msg:    fmt.Sprintf("expects %s operands, got %d", want, got),
	}
}
