package pattern

import "fmt"

// Compile parses query text into a Pattern.
func Compile(src string) (*Pattern, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	pat, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	pat.Source = src
	return pat, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level patterns.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Parser consumes lexer tokens and builds a Pattern.
type Parser struct {
	tokens   []Token
	current  int
	captures []string
	declared map[string]bool
	preds    []Predicate
}

// NewParser creates a parser over tokens, which must end with TokenEOF.
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:   tokens,
		declared: make(map[string]bool),
	}
}

// Parse builds the pattern and validates its predicates.
func (p *Parser) Parse() (*Pattern, error) {
	if p.peek().Type == TokenEOF {
		return nil, p.unexpected("pattern")
	}

	var items []*Node
	for p.peek().Type != TokenEOF {
		if p.atPredicate() {
			if err := p.parsePredicate(); err != nil {
				return nil, err
			}
			continue
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	switch {
	case len(items) == 0:
		return nil, &SyntaxError{Offset: p.peek().Position, Expected: "pattern item", Found: "only predicates"}
	case len(items) > 1:
		return nil, &SyntaxError{Offset: items[1].Offset, Expected: "end of pattern", Found: "second top-level item"}
	}

	root := items[0]
	if root.Quantifier != QuantOne {
		return nil, &SyntaxError{Offset: root.Offset, Expected: "single top-level item", Found: "quantifier " + root.Quantifier.String()}
	}

	for _, pred := range p.preds {
		if err := p.checkDeclared(pred); err != nil {
			return nil, err
		}
	}

	return &Pattern{
		Root:       root,
		Predicates: p.preds,
		captures:   p.captures,
	}, nil
}

func (p *Parser) parseItem() (*Node, error) {
	tok := p.peek()

	var (
		node *Node
		err  error
	)
	switch tok.Type {
	case TokenLParen:
		if p.peekAt(1).Type == TokenIdent {
			node, err = p.parseNamed()
		} else {
			node, err = p.parseGroup()
		}
	case TokenLBrack:
		node, err = p.parseAlternation()
	case TokenString:
		p.advance()
		node = &Node{Kind: KindAnonymous, Text: tok.Value, Offset: tok.Position}
	case TokenIdent:
		if tok.Value != "_" {
			return nil, p.unexpected("'(' before node type")
		}
		p.advance()
		node = &Node{Kind: KindWildcard, Offset: tok.Position}
	default:
		return nil, p.unexpected("pattern item")
	}
	if err != nil {
		return nil, err
	}

	if err := p.parseSuffix(node); err != nil {
		return nil, err
	}
	return node, nil
}

// parseSuffix reads an optional quantifier followed by captures.
func (p *Parser) parseSuffix(node *Node) error {
	if tok := p.peek(); tok.Type == TokenQuant {
		if node.Quantifier != QuantOne {
			return p.unexpected("capture")
		}
		p.advance()
		switch tok.Value {
		case "?":
			node.Quantifier = QuantZeroOrOne
		case "*":
			node.Quantifier = QuantZeroOrMore
		case "+":
			node.Quantifier = QuantOneOrMore
		}
	}

	for p.peek().Type == TokenCapture {
		tok := p.advance()
		if tok.Value == RootCapture {
			return &SyntaxError{Offset: tok.Position, Expected: "capture name", Found: "reserved @" + RootCapture}
		}
		node.Captures = append(node.Captures, tok.Value)
		p.declare(tok.Value)
	}
	return nil
}

func (p *Parser) parseNamed() (*Node, error) {
	open := p.advance()
	typ := p.advance()
	node := &Node{Kind: KindNamed, Type: typ.Value, Offset: open.Position}

	anchorNext := false
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenRParen:
			p.advance()
			if anchorNext {
				if len(node.Children) == 0 {
					return nil, &SyntaxError{Offset: tok.Position, Expected: "child item after '.'", Found: "')'"}
				}
				node.AnchorEnd = true
			}
			return node, nil

		case tok.Type == TokenEOF:
			return nil, p.unexpected("')'")

		case tok.Type == TokenDot:
			if anchorNext {
				return nil, p.unexpected("child item")
			}
			p.advance()
			anchorNext = true

		case tok.Type == TokenBang:
			p.advance()
			field := p.peek()
			if field.Type != TokenIdent {
				return nil, p.unexpected("field name")
			}
			p.advance()
			node.Negated = append(node.Negated, field.Value)

		case p.atPredicate():
			if err := p.parsePredicate(); err != nil {
				return nil, err
			}

		default:
			child, err := p.parseChild()
			if err != nil {
				return nil, err
			}
			child.Anchored = anchorNext
			anchorNext = false
			node.Children = append(node.Children, child)
		}
	}
}

// parseChild parses an item that may carry a field label.
func (p *Parser) parseChild() (*Node, error) {
	tok := p.peek()
	if tok.Type == TokenIdent && p.peekAt(1).Type == TokenColon {
		p.advance()
		p.advance()
		child, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		child.Field = tok.Value
		return child, nil
	}
	return p.parseItem()
}

// parseGroup handles a parenthesized item list such as
// ((identifier) @id (#eq? @id "x")). Only a single item is supported.
func (p *Parser) parseGroup() (*Node, error) {
	open := p.advance()

	var items []*Node
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenRParen:
			p.advance()
			switch len(items) {
			case 0:
				return nil, &SyntaxError{Offset: open.Position, Expected: "pattern item", Found: "empty group"}
			case 1:
				return items[0], nil
			default:
				return nil, &SyntaxError{Offset: items[1].Offset, Expected: "single item in group", Found: "sibling sequence"}
			}
		case tok.Type == TokenEOF:
			return nil, p.unexpected("')'")
		case p.atPredicate():
			if err := p.parsePredicate(); err != nil {
				return nil, err
			}
		default:
			item, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
}

func (p *Parser) parseAlternation() (*Node, error) {
	open := p.advance()
	node := &Node{Kind: KindAlternation, Offset: open.Position}

	for {
		tok := p.peek()
		switch tok.Type {
		case TokenRBrack:
			p.advance()
			if len(node.Children) == 0 {
				return nil, &SyntaxError{Offset: open.Position, Expected: "alternative", Found: "empty alternation"}
			}
			return node, nil
		case TokenEOF:
			return nil, p.unexpected("']'")
		default:
			alt, err := p.parseChild()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, alt)
		}
	}
}

func (p *Parser) parsePredicate() error {
	open := p.advance()
	name := p.advance()

	var operands []Operand
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenRParen:
			p.advance()
			pred, err := newPredicate(name.Value, operands, open.Position)
			if err != nil {
				return err
			}
			p.preds = append(p.preds, pred)
			return nil
		case TokenCapture:
			p.advance()
			operands = append(operands, Operand{Capture: tok.Value})
		case TokenString:
			p.advance()
			operands = append(operands, Operand{Literal: tok.Value})
		default:
			return p.unexpected("capture or string operand")
		}
	}
}

func (p *Parser) checkDeclared(pred Predicate) error {
	names := []string{pred.Capture}
	for _, a := range pred.Args {
		if a.IsCapture() {
			names = append(names, a.Capture)
		}
	}
	for _, name := range names {
		if !p.declared[name] {
			return &PredicateError{Offset: pred.Offset, Name: pred.Name, Msg: fmt.Sprintf("undeclared capture @%s", name)}
		}
	}
	return nil
}

func (p *Parser) declare(name string) {
	if p.declared[name] {
		return
	}
	p.declared[name] = true
	p.captures = append(p.captures, name)
}

func (p *Parser) atPredicate() bool {
	return p.peek().Type == TokenLParen && p.peekAt(1).Type == TokenPredicate
}

func (p *Parser) peek() Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return tok
}

func (p *Parser) unexpected(expected string) error {
	tok := p.peek()
	found := tok.Type.String()
	if tok.Value != "" && tok.Type != TokenEOF {
		found = fmt.Sprintf("%s %q", found, tok.Value)
	}
	return &SyntaxError{Offset: tok.Position, Expected: expected, Found: found}
}
