package script

import "fmt"

// SyntaxError reports a malformed script: a bad delimiter, an unterminated
// field, an unknown flag or a stray character.
type SyntaxError struct {
	Offset   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("script syntax error at offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}

// ArityError reports a command with the wrong number of fields for its kind.
type ArityError struct {
	Offset int
	Kind   Kind
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("command %s at offset %d takes %d field(s), got %d", e.Kind, e.Offset, e.Want, e.Got)
}

// TemplateError reports a capture reference that cannot be resolved. At
// compile time Offset locates the reference in the script; at render time
// Offset is -1.
type TemplateError struct {
	Offset int
	Name   string
	Msg    string
}

func (e *TemplateError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("template capture %s: %s", e.Name, e.Msg)
	}
	return fmt.Sprintf("template capture %s at offset %d: %s", e.Name, e.Offset, e.Msg)
}

func describe(src string, pos int) string {
	if pos >= len(src) {
		return "end of script"
	}
	switch c := src[pos]; c {
	case '\n':
		return "newline"
	default:
		return fmt.Sprintf("%q", c)
	}
}
