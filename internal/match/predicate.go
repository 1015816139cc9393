package match

import (
	"github.com/gnoswap-labs/tsed/internal/pattern"
)

// Satisfies reports whether m passes every predicate.
func Satisfies(preds []pattern.Predicate, m Match, src []byte) bool {
	for _, p := range preds {
		if !Eval(p, m, src) {
			return false
		}
	}
	return true
}

// Eval evaluates one predicate against the text of m's captures. A
// predicate whose capture operands are not all bound in m holds: the
// capture was optional and the test has nothing to look at.
func Eval(p pattern.Predicate, m Match, src []byte) bool {
	span, ok := m.Capture(p.Capture)
	if !ok {
		return true
	}
	text := span.Text(src)

	var holds bool
	switch p.Kind {
	case pattern.PredEq, pattern.PredNotEq:
		other, ok := operandText(p.Args[0], m, src)
		if !ok {
			return true
		}
		holds = text == other

	case pattern.PredMatch, pattern.PredNotMatch:
		holds = p.Regexp().MatchString(text)

	case pattern.PredAnyOf, pattern.PredNotAnyOf:
		for _, a := range p.Args {
			if a.Literal == text {
				holds = true
				break
			}
		}
	}

	if p.Kind.Negated() {
		return !holds
	}
	return holds
}

func operandText(o pattern.Operand, m Match, src []byte) (string, bool) {
	if !o.IsCapture() {
		return o.Literal, true
	}
	span, ok := m.Capture(o.Capture)
	if !ok {
		return "", false
	}
	return span.Text(src), true
}
