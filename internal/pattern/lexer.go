package pattern

import (
	"strings"
)

// TokenType defines the kinds of tokens produced by the lexer.
type TokenType int

const (
	TokenLParen    TokenType = iota // '('
	TokenRParen                     // ')'
	TokenLBrack                     // '['
	TokenRBrack                     // ']'
	TokenIdent                      // node type, field name or '_'
	TokenColon                      // ':'
	TokenBang                       // '!'
	TokenDot                        // '.' anchor
	TokenQuant                      // '?', '*' or '+'
	TokenCapture                    // @name
	TokenPredicate                  // #name? or #name!
	TokenString                     // "text"
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBrack:
		return "'['"
	case TokenRBrack:
		return "']'"
	case TokenIdent:
		return "identifier"
	case TokenColon:
		return "':'"
	case TokenBang:
		return "'!'"
	case TokenDot:
		return "'.'"
	case TokenQuant:
		return "quantifier"
	case TokenCapture:
		return "capture"
	case TokenPredicate:
		return "predicate"
	case TokenString:
		return "string"
	case TokenEOF:
		return "end of pattern"
	default:
		return "unknown"
	}
}

// Token is a single lexical token. Value holds the decoded text for
// identifiers, captures (without '@'), predicates (without '#') and strings.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// Lexer scans query text into tokens.
type Lexer struct {
	input    string
	position int
	tokens   []Token
}

// NewLexer returns a Lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		tokens: make([]Token, 0),
	}
}

// Tokenize scans the whole input. The last token is always TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.position < len(l.input) {
		start := l.position
		switch c := l.input[l.position]; {
		case c == ';':
			// comment runs to end of line
			for l.position < len(l.input) && l.input[l.position] != '\n' {
				l.position++
			}
		case isSpace(c):
			l.position++
		case c == '(':
			l.emit(TokenLParen, "(", start)
		case c == ')':
			l.emit(TokenRParen, ")", start)
		case c == '[':
			l.emit(TokenLBrack, "[", start)
		case c == ']':
			l.emit(TokenRBrack, "]", start)
		case c == ':':
			l.emit(TokenColon, ":", start)
		case c == '!':
			l.emit(TokenBang, "!", start)
		case c == '.':
			l.emit(TokenDot, ".", start)
		case c == '?' || c == '*' || c == '+':
			l.emit(TokenQuant, string(c), start)
		case c == '@':
			l.position++
			name := l.scanWhile(isCaptureChar)
			if name == "" {
				return nil, &SyntaxError{Offset: start, Expected: "capture name", Found: l.found()}
			}
			l.addToken(TokenCapture, name, start)
		case c == '#':
			l.position++
			name := l.scanWhile(isPredicateChar)
			if l.position < len(l.input) && (l.input[l.position] == '?' || l.input[l.position] == '!') {
				name += string(l.input[l.position])
				l.position++
			}
			if name == "" {
				return nil, &SyntaxError{Offset: start, Expected: "predicate name", Found: l.found()}
			}
			l.addToken(TokenPredicate, name, start)
		case c == '"':
			s, err := l.scanString()
			if err != nil {
				return nil, err
			}
			l.addToken(TokenString, s, start)
		case isIdentStart(c):
			l.addToken(TokenIdent, l.scanWhile(isIdentChar), start)
		default:
			return nil, &SyntaxError{Offset: start, Expected: "pattern item", Found: quoteByte(c)}
		}
	}

	l.addToken(TokenEOF, "", l.position)
	return l.tokens, nil
}

func (l *Lexer) emit(tokenType TokenType, value string, pos int) {
	l.addToken(tokenType, value, pos)
	l.position++
}

func (l *Lexer) addToken(tokenType TokenType, value string, pos int) {
	l.tokens = append(l.tokens, Token{
		Type:     tokenType,
		Value:    value,
		Position: pos,
	})
}

func (l *Lexer) scanWhile(ok func(byte) bool) string {
	start := l.position
	for l.position < len(l.input) && ok(l.input[l.position]) {
		l.position++
	}
	return l.input[start:l.position]
}

// scanString reads a double-quoted string starting at the current position
// and decodes its escapes.
func (l *Lexer) scanString() (string, error) {
	start := l.position
	l.position++ // opening quote

	var sb strings.Builder
	for l.position < len(l.input) {
		c := l.input[l.position]
		switch c {
		case '"':
			l.position++
			return sb.String(), nil
		case '\\':
			if l.position+1 >= len(l.input) {
				return "", &SyntaxError{Offset: start, Expected: "closing '\"'", Found: "end of pattern"}
			}
			sb.WriteByte(unescape(l.input[l.position+1]))
			l.position += 2
		default:
			sb.WriteByte(c)
			l.position++
		}
	}
	return "", &SyntaxError{Offset: start, Expected: "closing '\"'", Found: "end of pattern"}
}

func (l *Lexer) found() string {
	if l.position >= len(l.input) {
		return "end of pattern"
	}
	return quoteByte(l.input[l.position])
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return c
	}
}

func quoteByte(c byte) string {
	return "'" + string(c) + "'"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

func isCaptureChar(c byte) bool {
	return isIdentChar(c) || c == '.' || c == '-'
}

func isPredicateChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}
