//go:build cgo

// Package treesitter adapts tree-sitter grammars to the syntax package.
//
// Structural matching is delegated to the tree-sitter query engine. The
// pattern is rendered back to query text with a hidden root capture, which
// is how each raw match recovers the span of the node it is rooted at.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/gnoswap-labs/tsed/internal/pattern"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// GoName is the registry name of the tree-sitter Go grammar. Plain "go"
// belongs to the go/ast grammar, so this one claims no extension.
const GoName = "tree-sitter-go"

// Available reports whether tree-sitter grammars were compiled in.
const Available = true

// Languages returns every bundled grammar.
func Languages() []syntax.Language {
	return []syntax.Language{
		newLanguage("c", c.GetLanguage(), ".c", ".h"),
		newLanguage("cpp", cpp.GetLanguage(), ".cc", ".cpp", ".cxx", ".hh", ".hpp"),
		newLanguage("rust", rust.GetLanguage(), ".rs"),
		newLanguage(GoName, golang.GetLanguage()),
		newLanguage("python", python.GetLanguage(), ".py"),
		newLanguage("javascript", javascript.GetLanguage(), ".js", ".mjs", ".cjs"),
		newLanguage("java", java.GetLanguage(), ".java"),
		newLanguage("ruby", ruby.GetLanguage(), ".rb"),
		newLanguage("bash", bash.GetLanguage(), ".sh", ".bash"),
	}
}

// Language is one tree-sitter grammar. Parsers are pooled and compiled
// queries are cached by query text; both are safe for concurrent use.
type Language struct {
	name    string
	exts    []string
	lang    *sitter.Language
	parsers sync.Pool
	queries sync.Map // string -> *sitter.Query
}

func newLanguage(name string, lang *sitter.Language, exts ...string) *Language {
	l := &Language{name: name, exts: exts, lang: lang}
	l.parsers.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		return p
	}
	return l
}

func (l *Language) Name() string         { return l.name }
func (l *Language) Extensions() []string { return l.exts }

func (l *Language) Parse(ctx context.Context, src []byte) (syntax.Tree, error) {
	p, ok := l.parsers.Get().(*sitter.Parser)
	if !ok {
		return nil, &syntax.ParseError{Language: l.name, Err: errors.New("parser pool returned unexpected type")}
	}
	defer l.parsers.Put(p)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &syntax.ParseError{Language: l.name, Err: err}
	}
	return &Tree{lang: l, tree: tree, src: src}, nil
}

// Validate compiles the pattern's query, which fails for node types and
// fields the grammar does not define.
func (l *Language) Validate(p *pattern.Pattern) error {
	_, err := l.query(p)
	return err
}

func (l *Language) query(p *pattern.Pattern) (*sitter.Query, error) {
	text := p.Query()
	if q, ok := l.queries.Load(text); ok {
		return q.(*sitter.Query), nil
	}

	q, err := sitter.NewQuery([]byte(text), l.lang)
	if err != nil {
		verr := &syntax.ValidationError{Language: l.name, Offset: p.Root.Offset, Msg: err.Error()}
		var qerr *sitter.QueryError
		if errors.As(err, &qerr) {
			verr.Msg = fmt.Sprintf("%s at query offset %d in %q", qerr.Message, qerr.Offset, text)
		}
		return nil, verr
	}
	actual, loaded := l.queries.LoadOrStore(text, q)
	if loaded {
		q.Close()
	}
	return actual.(*sitter.Query), nil
}

// Tree is a parsed tree-sitter document.
type Tree struct {
	lang *Language
	tree *sitter.Tree
	src  []byte
}

func (t *Tree) Root() syntax.Node { return &node{n: t.tree.RootNode()} }
func (t *Tree) Source() []byte    { return t.src }

// Query executes the pattern with a tree-sitter query cursor. Predicates
// are left to the caller.
//
// The cursor binds a capture on a * or + item to one node per match, so
// patterns with repetitions run through syntax.MatchTree instead, which
// binds every node the repetition consumed.
func (t *Tree) Query(p *pattern.Pattern) ([]syntax.RawMatch, error) {
	q, err := t.lang.query(p)
	if err != nil {
		return nil, err
	}
	if p.Repeats() {
		return syntax.MatchTree(t.Root(), p), nil
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, t.tree.RootNode())

	var out []syntax.RawMatch
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		raw := syntax.RawMatch{Captures: make(map[string][]syntax.Span)}
		for _, c := range m.Captures {
			span := spanOf(c.Node)
			name := q.CaptureNameForId(c.Index)
			if name == pattern.RootCapture {
				raw.Root = span
				continue
			}
			raw.Captures[name] = append(raw.Captures[name], span)
		}
		out = append(out, raw)
	}
	return out, nil
}

type node struct {
	n *sitter.Node
}

func (n *node) Type() string      { return n.n.Type() }
func (n *node) IsNamed() bool     { return n.n.IsNamed() }
func (n *node) Span() syntax.Span { return spanOf(n.n) }
func (n *node) ChildCount() int   { return int(n.n.ChildCount()) }

func (n *node) Child(i int) syntax.Node {
	c := n.n.Child(i)
	if c == nil {
		return nil
	}
	return &node{n: c}
}

func (n *node) FieldName(i int) string { return n.n.FieldNameForChild(i) }

func spanOf(n *sitter.Node) syntax.Span {
	return syntax.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}
