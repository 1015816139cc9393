package script

import (
	"strconv"
	"strings"

	"github.com/gnoswap-labs/tsed/internal/pattern"
)

// Kind is the action a command performs on each selected match.
type Kind int

const (
	KindSubstitute Kind = iota // s
	KindInsert                 // i, before the target
	KindAppend                 // a, after the target
	KindDelete                 // d
	KindPrint                  // p
)

var kindLetters = map[byte]Kind{
	's': KindSubstitute,
	'i': KindInsert,
	'a': KindAppend,
	'd': KindDelete,
	'p': KindPrint,
}

func (k Kind) String() string {
	switch k {
	case KindSubstitute:
		return "s"
	case KindInsert:
		return "i"
	case KindAppend:
		return "a"
	case KindDelete:
		return "d"
	case KindPrint:
		return "p"
	default:
		return "?"
	}
}

// fields returns how many delimited fields the kind takes.
func (k Kind) fields() int {
	switch k {
	case KindSubstitute, KindInsert, KindAppend:
		return 2
	default:
		return 1
	}
}

// Line is one end of a line address. Last stands for "$".
type Line struct {
	N    int
	Last bool
}

func (l Line) resolve(last int) int {
	if l.Last {
		return last
	}
	return l.N
}

func (l Line) String() string {
	if l.Last {
		return "$"
	}
	return strconv.Itoa(l.N)
}

// Address restricts a command to matches whose target starts on the
// selected lines. A range whose end precedes its start selects only the
// start line.
type Address struct {
	From Line
	To   *Line
}

// Selects reports whether a target starting on line (1-based) is
// addressed, given the buffer's last line number.
func (a *Address) Selects(line, last int) bool {
	if a == nil {
		return true
	}
	from := a.From.resolve(last)
	if a.To == nil {
		return line == from
	}
	to := a.To.resolve(last)
	if to < from {
		return line == from
	}
	return from <= line && line <= to
}

func (a *Address) String() string {
	if a == nil {
		return ""
	}
	if a.To == nil {
		return a.From.String()
	}
	return a.From.String() + "," + a.To.String()
}

// Flags modify a substitute command.
type Flags struct {
	// Global replaces every selected match instead of the first.
	Global bool
	// Print sends each replacement result to the print stream.
	Print bool
	// Nth replaces only the Nth selected match, or the Nth and later
	// when Global is set. Zero means unset.
	Nth int
}

func (f Flags) String() string {
	var sb strings.Builder
	if f.Nth > 0 {
		sb.WriteString(strconv.Itoa(f.Nth))
	}
	if f.Global {
		sb.WriteByte('g')
	}
	if f.Print {
		sb.WriteByte('p')
	}
	return sb.String()
}

// Command is one compiled script command.
type Command struct {
	Kind    Kind
	Address *Address
	Pattern *pattern.Pattern
	// Target names the capture the command acts on. Empty means the
	// match root.
	Target string
	// Template is the replacement of a substitute command.
	Template *Template
	// Text is the decoded payload of an insert or append command.
	Text  string
	Flags Flags

	// Offset is where the command starts in the script source.
	Offset int
	Source string
}

// Stage is a unit of the pipeline: every command of a stage matches the
// same parse and their edits render together. Only groups hold more than
// one command.
type Stage struct {
	Commands []*Command
	Group    bool
}

// Script is a compiled script.
type Script struct {
	Stages []Stage
	Source string
}

// Commands returns every command in script order.
func (s *Script) Commands() []*Command {
	var out []*Command
	for _, st := range s.Stages {
		out = append(out, st.Commands...)
	}
	return out
}

// String renders the command in canonical form, with '/' as delimiter.
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.Address.String())
	sb.WriteString(c.Kind.String())
	if c.Target != "" {
		sb.WriteString("@" + c.Target)
	}
	sb.WriteByte('/')
	sb.WriteString(escapeField(c.Pattern.String()))
	sb.WriteByte('/')
	switch c.Kind {
	case KindSubstitute:
		sb.WriteString(escapeField(c.Template.Source))
		sb.WriteByte('/')
	case KindInsert, KindAppend:
		sb.WriteString(escapeField(strings.ReplaceAll(c.Text, `\`, `\\`)))
		sb.WriteByte('/')
	}
	sb.WriteString(c.Flags.String())
	return sb.String()
}

var fieldEscaper = strings.NewReplacer("/", `\/`, "\n", `\n`, "\t", `\t`)

func escapeField(s string) string { return fieldEscaper.Replace(s) }
