package script

import (
	"strings"

	"github.com/gnoswap-labs/tsed/internal/pattern"
)

type partKind int

const (
	partLiteral partKind = iota
	partTarget
	partCapture
)

type part struct {
	kind partKind
	text string // literal text or capture name
}

// Template is a compiled replacement: literal text interleaved with
// references to the target text and to named captures.
//
//	&, \0          target text
//	\1 ... \9      captures in declaration order
//	:[name]        named capture, also :[[name]]
//	\& \\ \:       literal & \ :
//	\n \t          newline, tab
//
// Any other backslash sequence is kept as written.
type Template struct {
	Source string
	parts  []part
}

// CompileTemplate parses src, resolving capture references against the
// captures p declares.
func CompileTemplate(src string, p *pattern.Pattern) (*Template, error) {
	t := &Template{Source: src}
	captures := p.Captures()

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{kind: partLiteral, text: lit.String()})
			lit.Reset()
		}
	}
	ref := func(kind partKind, name string) {
		flush()
		t.parts = append(t.parts, part{kind: kind, text: name})
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '&':
			ref(partTarget, "")

		case c == '\\' && i+1 < len(src):
			i++
			switch n := src[i]; {
			case n == '0':
				ref(partTarget, "")
			case n >= '1' && n <= '9':
				idx := int(n - '0')
				if idx > len(captures) {
					return nil, &TemplateError{Offset: i - 1, Name: "\\" + string(n), Msg: "pattern declares fewer captures"}
				}
				ref(partCapture, captures[idx-1])
			case n == 'n':
				lit.WriteByte('\n')
			case n == 't':
				lit.WriteByte('\t')
			case n == '&' || n == '\\' || n == ':':
				lit.WriteByte(n)
			default:
				lit.WriteByte('\\')
				lit.WriteByte(n)
			}

		case c == ':' && strings.HasPrefix(src[i:], ":["):
			name, width, ok := hole(src[i:])
			if !ok {
				lit.WriteByte(c)
				continue
			}
			if !p.HasCapture(name) {
				return nil, &TemplateError{Offset: i, Name: name, Msg: "capture not declared in pattern"}
			}
			ref(partCapture, name)
			i += width - 1

		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// hole parses ":[name]" or ":[[name]]" at the start of s.
func hole(s string) (name string, width int, ok bool) {
	lead, trail := ":[", "]"
	if strings.HasPrefix(s, ":[[") {
		lead, trail = ":[[", "]]"
	}
	end := strings.Index(s[len(lead):], trail)
	if end <= 0 {
		return "", 0, false
	}
	name = s[len(lead) : len(lead)+end]
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return "", 0, false
		}
	}
	return name, len(lead) + end + len(trail), true
}

// References returns the capture names the template uses.
func (t *Template) References() []string {
	var out []string
	for _, p := range t.parts {
		if p.kind == partCapture {
			out = append(out, p.text)
		}
	}
	return out
}

// Expand renders the template. lookup returns the text of a capture and
// whether it is bound in the current match.
func (t *Template) Expand(target string, lookup func(name string) (string, bool)) (string, error) {
	var sb strings.Builder
	for _, p := range t.parts {
		switch p.kind {
		case partLiteral:
			sb.WriteString(p.text)
		case partTarget:
			sb.WriteString(target)
		case partCapture:
			text, ok := lookup(p.text)
			if !ok {
				return "", &TemplateError{Offset: -1, Name: p.text, Msg: "capture not bound in this match"}
			}
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}

func (t *Template) String() string { return t.Source }

func isNameChar(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
