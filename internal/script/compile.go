package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/tsed/internal/pattern"
)

// Compile parses a script. Every pattern, template and flag is checked up
// front: either the whole script compiles or nothing does.
func Compile(src string) (*Script, error) {
	c := &compiler{src: src}
	return c.script()
}

// errMissingField marks a field that ends before it starts, which is an
// arity problem rather than a syntax one.
var errMissingField = errors.New("missing field")

type compiler struct {
	src string
	pos int
}

func (c *compiler) script() (*Script, error) {
	s := &Script{Source: c.src}
	for {
		c.skipSeparators()
		if c.eof() {
			return s, nil
		}

		start := c.pos
		addr, err := c.address()
		if err != nil {
			return nil, err
		}
		c.skipBlanks()

		if c.peek() == '{' {
			cmds, err := c.group(addr)
			if err != nil {
				return nil, err
			}
			s.Stages = append(s.Stages, Stage{Commands: cmds, Group: true})
		} else {
			cmd, err := c.command(addr, start)
			if err != nil {
				return nil, err
			}
			s.Stages = append(s.Stages, Stage{Commands: []*Command{cmd}})
		}

		if err := c.endOfCommand(false); err != nil {
			return nil, err
		}
	}
}

// group parses "{ cmd; cmd }". An address on the group applies to every
// command inside that has none of its own.
func (c *compiler) group(addr *Address) ([]*Command, error) {
	c.pos++ // '{'

	var cmds []*Command
	for {
		c.skipSeparators()
		if c.eof() {
			return nil, &SyntaxError{Offset: c.pos, Expected: "'}'", Found: "end of script"}
		}
		if c.peek() == '}' {
			c.pos++
			return cmds, nil
		}

		start := c.pos
		a, err := c.address()
		if err != nil {
			return nil, err
		}
		if a == nil {
			a = addr
		}
		c.skipBlanks()
		if c.peek() == '{' {
			return nil, &SyntaxError{Offset: c.pos, Expected: "command", Found: "nested group"}
		}

		cmd, err := c.command(a, start)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)

		if err := c.endOfCommand(true); err != nil {
			return nil, err
		}
	}
}

func (c *compiler) address() (*Address, error) {
	if ch := c.peek(); !isDigit(ch) && ch != '$' {
		return nil, nil
	}
	from, err := c.line()
	if err != nil {
		return nil, err
	}
	addr := &Address{From: from}
	if c.peek() == ',' {
		c.pos++
		to, err := c.line()
		if err != nil {
			return nil, err
		}
		addr.To = &to
	}
	return addr, nil
}

func (c *compiler) line() (Line, error) {
	if c.peek() == '$' {
		c.pos++
		return Line{Last: true}, nil
	}
	start := c.pos
	for isDigit(c.peek()) {
		c.pos++
	}
	if start == c.pos {
		return Line{}, &SyntaxError{Offset: c.pos, Expected: "line number or '$'", Found: describe(c.src, c.pos)}
	}
	n, err := strconv.Atoi(c.src[start:c.pos])
	if err != nil || n == 0 {
		return Line{}, &SyntaxError{Offset: start, Expected: "line number greater than 0", Found: strconv.Quote(c.src[start:c.pos])}
	}
	return Line{N: n}, nil
}

// command parses a simple command. start is where its address began.
func (c *compiler) command(addr *Address, start int) (*Command, error) {
	if c.peek() == '/' {
		return c.patternAddressed(addr, start)
	}

	kind, ok := kindLetters[c.peek()]
	if !ok || c.eof() {
		return nil, &SyntaxError{Offset: c.pos, Expected: "command (s, i, a, d or p)", Found: describe(c.src, c.pos)}
	}
	c.pos++
	cmd := &Command{Kind: kind, Address: addr, Offset: start}

	targetAt := -1
	if c.peek() == '@' {
		c.pos++
		targetAt = c.pos
		cmd.Target = c.name()
		if cmd.Target == "" {
			return nil, &SyntaxError{Offset: c.pos, Expected: "capture name after '@'", Found: describe(c.src, c.pos)}
		}
	}

	delim, err := c.delimiter()
	if err != nil {
		return nil, err
	}

	want := kind.fields()
	fields := make([]string, 0, want)
	offsets := make([]int, 0, want)
	for i := 0; i < want; i++ {
		text, off, err := c.field(delim, i == 0, i > 0)
		if errors.Is(err, errMissingField) {
			return nil, &ArityError{Offset: start, Kind: kind, Want: want, Got: i}
		}
		if err != nil {
			return nil, err
		}
		fields = append(fields, text)
		offsets = append(offsets, off)
	}

	flagsAt := c.pos
	for !c.eof() && !strings.ContainsRune(" \t\r\n;}#", rune(c.peek())) {
		c.pos++
	}
	rawFlags := c.src[flagsAt:c.pos]
	if extra := strings.Count(rawFlags, string(delim)); extra > 0 {
		return nil, &ArityError{Offset: start, Kind: kind, Want: want, Got: want + extra}
	}
	if cmd.Flags, err = parseFlags(kind, rawFlags, flagsAt); err != nil {
		return nil, err
	}

	if cmd.Pattern, err = compilePattern(fields[0], offsets[0]); err != nil {
		return nil, err
	}
	if cmd.Target != "" && !cmd.Pattern.HasCapture(cmd.Target) {
		return nil, &TemplateError{Offset: targetAt, Name: cmd.Target, Msg: "target capture not declared in pattern"}
	}

	switch kind {
	case KindSubstitute:
		tmpl, err := CompileTemplate(fields[1], cmd.Pattern)
		if err != nil {
			var terr *TemplateError
			if errors.As(err, &terr) {
				terr.Offset += offsets[1]
			}
			return nil, err
		}
		cmd.Template = tmpl
	case KindInsert, KindAppend:
		cmd.Text = decodeText(fields[1])
	}

	cmd.Source = c.src[start:c.pos]
	return cmd, nil
}

// patternAddressed parses the "/PATTERN/ cmd" form: d, p, a TEXT, i TEXT.
// Text runs to the end of the line; "a\" followed by a newline puts it on
// the next line.
func (c *compiler) patternAddressed(addr *Address, start int) (*Command, error) {
	c.pos++ // '/'
	raw, off, err := c.field('/', true, false)
	if err != nil {
		return nil, err
	}
	c.skipBlanks()

	kind, ok := kindLetters[c.peek()]
	if !ok || c.eof() || kind == KindSubstitute {
		return nil, &SyntaxError{Offset: c.pos, Expected: "d, p, a or i after /pattern/", Found: describe(c.src, c.pos)}
	}
	c.pos++
	cmd := &Command{Kind: kind, Address: addr, Offset: start}

	if cmd.Pattern, err = compilePattern(raw, off); err != nil {
		return nil, err
	}

	if kind == KindInsert || kind == KindAppend {
		if strings.HasPrefix(c.src[c.pos:], "\\\n") {
			c.pos += 2
		} else {
			c.skipBlanks()
		}
		textAt := c.pos
		for !c.eof() && c.peek() != '\n' {
			c.pos++
		}
		text := strings.TrimRight(c.src[textAt:c.pos], "\r")
		if text == "" {
			return nil, &ArityError{Offset: start, Kind: kind, Want: 2, Got: 1}
		}
		cmd.Text = decodeText(text)
	}

	cmd.Source = c.src[start:c.pos]
	return cmd, nil
}

func (c *compiler) delimiter() (byte, error) {
	if c.eof() {
		return 0, &SyntaxError{Offset: c.pos, Expected: "delimiter", Found: "end of script"}
	}
	d := c.src[c.pos]
	if isDigit(d) || isLetter(d) || d == '\\' || d == ' ' || d == '\t' || d == '\r' || d == '\n' {
		return 0, &SyntaxError{Offset: c.pos, Expected: "delimiter", Found: describe(c.src, c.pos)}
	}
	c.pos++
	return d, nil
}

// field reads up to the next unescaped delim. "\<delim>" yields the
// delimiter; other escapes are passed through for the field's own parser.
// Only the pattern field may span lines. A field that is empty and cut off
// reports errMissingField when missingOK is set.
func (c *compiler) field(delim byte, multiline, missingOK bool) (string, int, error) {
	start := c.pos
	var sb strings.Builder
	for {
		if c.eof() || (!multiline && c.src[c.pos] == '\n') {
			if missingOK && c.pos == start {
				return "", start, errMissingField
			}
			return "", start, &SyntaxError{
				Offset:   c.pos,
				Expected: fmt.Sprintf("closing delimiter %q", delim),
				Found:    describe(c.src, c.pos),
			}
		}

		ch := c.src[c.pos]
		switch {
		case ch == delim:
			c.pos++
			return sb.String(), start, nil
		case ch == '\\' && c.pos+1 < len(c.src):
			next := c.src[c.pos+1]
			switch {
			case next == delim:
				sb.WriteByte(delim)
			case next == '\n' && !multiline:
				sb.WriteByte('\n')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			c.pos += 2
		default:
			sb.WriteByte(ch)
			c.pos++
		}
	}
}

func (c *compiler) name() string {
	start := c.pos
	for !c.eof() && isNameChar(c.src[c.pos]) {
		c.pos++
	}
	return c.src[start:c.pos]
}

func (c *compiler) endOfCommand(inGroup bool) error {
	c.skipBlanks()
	switch {
	case c.eof():
		return nil
	case c.peek() == ';' || c.peek() == '\n' || c.peek() == '#':
		return nil
	case c.peek() == '}' && inGroup:
		return nil
	}
	return &SyntaxError{Offset: c.pos, Expected: "';' or newline", Found: describe(c.src, c.pos)}
}

func (c *compiler) skipSeparators() {
	for !c.eof() {
		switch c.src[c.pos] {
		case ' ', '\t', '\r', '\n', ';':
			c.pos++
		case '#':
			for !c.eof() && c.src[c.pos] != '\n' {
				c.pos++
			}
		default:
			return
		}
	}
}

func (c *compiler) skipBlanks() {
	for !c.eof() && (c.src[c.pos] == ' ' || c.src[c.pos] == '\t') {
		c.pos++
	}
}

func (c *compiler) eof() bool { return c.pos >= len(c.src) }

func (c *compiler) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func parseFlags(kind Kind, s string, at int) (Flags, error) {
	var f Flags
	if s == "" {
		return f, nil
	}
	if kind != KindSubstitute {
		return f, &SyntaxError{Offset: at, Expected: fmt.Sprintf("end of %s command (it takes no flag)", kind), Found: describe(s, 0)}
	}

	for i := 0; i < len(s); {
		switch ch := s[i]; {
		case ch == 'g':
			f.Global = true
			i++
		case ch == 'p':
			f.Print = true
			i++
		case isDigit(ch):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			n, err := strconv.Atoi(s[i:j])
			if err != nil || n == 0 || f.Nth != 0 {
				return f, &SyntaxError{Offset: at + i, Expected: "flag (one positive occurrence number)", Found: strconv.Quote(s[i:j])}
			}
			f.Nth = n
			i = j
		default:
			return f, &SyntaxError{Offset: at + i, Expected: "flag (g, p or a number)", Found: describe(s, i)}
		}
	}
	return f, nil
}

// compilePattern compiles a pattern field and moves error offsets from the
// field into the script.
func compilePattern(src string, at int) (*pattern.Pattern, error) {
	p, err := pattern.Compile(src)
	if err == nil {
		return p, nil
	}
	var serr *pattern.SyntaxError
	if errors.As(err, &serr) {
		serr.Offset += at
	}
	var perr *pattern.PredicateError
	if errors.As(err, &perr) {
		perr.Offset += at
	}
	return nil, err
}

// decodeText decodes \n, \t and \\ in insert and append text.
func decodeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isLetter(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
