// Package golang is a Go grammar built on go/parser.
//
// Node types are go/ast type names (CallExpr, Ident, BinaryExpr) and field
// labels are the struct field names (Fun, Args, X). Operator tokens that
// carry a position (BinaryExpr.Op, AssignStmt.Tok, ...) appear as anonymous
// children, so (BinaryExpr X: (_) @l "+" Y: (_) @r) works as expected.
//
// Besides whole files, Parse accepts a statement list or a bare expression.
// A fragment is read as statements first, so `f()` is an ExprStmt holding a
// CallExpr whether or not more statements follow.
package golang

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"

	"github.com/gnoswap-labs/tsed/internal/pattern"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// Name is the registry name of the grammar.
const Name = "go"

const mode = parser.ParseComments | parser.SkipObjectResolution

// stmtPrefix wraps a statement list into a parsable file.
const stmtPrefix = "package p; func _() {"

// Language implements syntax.Language for Go source.
type Language struct{}

func New() *Language { return &Language{} }

func (*Language) Name() string         { return Name }
func (*Language) Extensions() []string { return []string{".go"} }

// Parse parses src as a file, then as a list of statements, then as an
// expression. The error of the file attempt is reported when all fail.
func (*Language) Parse(ctx context.Context, src []byte) (syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, fileErr := parser.ParseFile(fset, "", src, mode)
	if fileErr == nil {
		root := newBuilder(fset, file.Pos(), 0).build(file)
		root.span = syntax.Span{Start: 0, End: len(src)}
		return &Tree{root: root, src: src}, nil
	}

	wrapped := make([]byte, 0, len(stmtPrefix)+len(src)+2)
	wrapped = append(wrapped, stmtPrefix...)
	wrapped = append(wrapped, src...)
	wrapped = append(wrapped, "\n}"...)
	if f, err := parser.ParseFile(fset, "", wrapped, mode); err == nil && len(f.Decls) == 1 {
		if fn, ok := f.Decls[0].(*ast.FuncDecl); ok && fn.Body != nil {
			root := newBuilder(fset, f.Pos(), len(stmtPrefix)).build(fn.Body)
			root.span = syntax.Span{Start: 0, End: len(src)}
			return &Tree{root: root, src: src}, nil
		}
	}

	if expr, err := parser.ParseExprFrom(fset, "", src, mode); err == nil {
		root := newBuilder(fset, expr.Pos(), 0).build(expr)
		return &Tree{root: root, src: src}, nil
	}

	return nil, &syntax.ParseError{Language: Name, Err: fileErr}
}

// Validate rejects node types that do not exist in go/ast and field labels
// the enclosing node type does not declare.
func (*Language) Validate(p *pattern.Pattern) error {
	return validate(p.Root)
}

func validate(n *pattern.Node) error {
	switch n.Kind {
	case pattern.KindNamed:
		var typ reflect.Type
		if n.Type != "_" {
			t, ok := nodeTypes[n.Type]
			if !ok {
				return &syntax.ValidationError{Language: Name, Offset: n.Offset, Msg: "unknown node type " + n.Type}
			}
			typ = t
		}
		for _, c := range n.Children {
			if c.Field != "" && typ != nil && !hasField(typ, c.Field) {
				return &syntax.ValidationError{Language: Name, Offset: c.Offset, Msg: n.Type + " has no field " + c.Field}
			}
			if err := validate(c); err != nil {
				return err
			}
		}
		for _, f := range n.Negated {
			if typ != nil && !hasField(typ, f) {
				return &syntax.ValidationError{Language: Name, Offset: n.Offset, Msg: n.Type + " has no field " + f}
			}
		}
	case pattern.KindAlternation:
		for _, c := range n.Children {
			if err := validate(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasField(t reflect.Type, name string) bool {
	if skipFields[name] {
		return false
	}
	_, ok := t.FieldByName(name)
	return ok
}

// Tree is a parsed Go document.
type Tree struct {
	root *node
	src  []byte
}

func (t *Tree) Root() syntax.Node { return t.root }
func (t *Tree) Source() []byte    { return t.src }

// Query runs the package-level structural matcher; go/ast has no query
// engine of its own.
func (t *Tree) Query(p *pattern.Pattern) ([]syntax.RawMatch, error) {
	return syntax.MatchTree(t.root, p), nil
}
