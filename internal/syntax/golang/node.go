package golang

import (
	"go/ast"
	"go/token"
	"reflect"

	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// skipFields are go/ast fields that are not part of the syntax tree proper:
// resolver state and the file-level comment and import indexes, which
// duplicate nodes found elsewhere.
var skipFields = map[string]bool{
	"Obj":        true,
	"Scope":      true,
	"Unresolved": true,
	"Imports":    true,
	"Comments":   true,
}

var tokenType = reflect.TypeOf(token.ILLEGAL)

type node struct {
	typ    string
	named  bool
	span   syntax.Span
	kids   []*node
	fields []string
}

func (n *node) Type() string            { return n.typ }
func (n *node) IsNamed() bool           { return n.named }
func (n *node) Span() syntax.Span       { return n.span }
func (n *node) ChildCount() int         { return len(n.kids) }
func (n *node) Child(i int) syntax.Node { return n.kids[i] }
func (n *node) FieldName(i int) string  { return n.fields[i] }

func (n *node) add(field string, c *node) {
	n.kids = append(n.kids, c)
	n.fields = append(n.fields, field)
}

// builder converts a go/ast tree into nodes with byte offsets relative to
// the user's source, shift bytes after the start of the parsed file.
type builder struct {
	file  *token.File
	shift int
}

func newBuilder(fset *token.FileSet, pos token.Pos, shift int) *builder {
	return &builder{file: fset.File(pos), shift: shift}
}

func (b *builder) offset(pos token.Pos) int {
	return b.file.Offset(pos) - b.shift
}

func (b *builder) build(n ast.Node) *node {
	v := reflect.ValueOf(n).Elem()
	t := v.Type()
	out := &node{
		typ:   t.Name(),
		named: true,
		span:  syntax.Span{Start: b.offset(n.Pos()), End: b.offset(n.End())},
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || skipFields[sf.Name] {
			continue
		}
		fv := v.Field(i)

		switch {
		case sf.Type == tokenType:
			if tok := b.token(v, sf.Name, token.Token(fv.Int())); tok != nil {
				out.add(sf.Name, tok)
			}
		case sf.Type.Kind() == reflect.Slice:
			for j := 0; j < fv.Len(); j++ {
				if c := b.child(fv.Index(j)); c != nil {
					out.add(sf.Name, c)
				}
			}
		default:
			if c := b.child(fv); c != nil {
				out.add(sf.Name, c)
			}
		}
	}
	if fd, ok := n.(*ast.FuncDecl); ok {
		b.trimSignature(out, fd)
	}
	return out
}

// trimSignature starts the Type child of a function declaration at its
// type or value parameters. go/ast starts it at the func keyword, which
// would cover the Recv and Name siblings.
func (b *builder) trimSignature(out *node, fd *ast.FuncDecl) {
	ft := fd.Type
	start := ft.Params.Opening
	if ft.TypeParams != nil && ft.TypeParams.Opening.IsValid() {
		start = ft.TypeParams.Opening
	}
	if !start.IsValid() {
		return
	}
	for i, field := range out.fields {
		if field == "Type" {
			out.kids[i].span.Start = b.offset(start)
		}
	}
}

// token turns an operator field into an anonymous node. Only tokens with a
// sibling <Name>Pos field have a known position.
func (b *builder) token(v reflect.Value, name string, tok token.Token) *node {
	pf := v.FieldByName(name + "Pos")
	if !pf.IsValid() || tok == token.ILLEGAL {
		return nil
	}
	pos := token.Pos(pf.Int())
	if !pos.IsValid() {
		return nil
	}
	start := b.offset(pos)
	text := tok.String()
	return &node{typ: text, span: syntax.Span{Start: start, End: start + len(text)}}
}

func (b *builder) child(v reflect.Value) *node {
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return nil
		}
	default:
		return nil
	}
	n, ok := v.Interface().(ast.Node)
	if !ok || !n.Pos().IsValid() {
		return nil
	}
	return b.build(n)
}

// nodeTypes lists the go/ast node types by name.
var nodeTypes = func() map[string]reflect.Type {
	nodes := []ast.Node{
		&ast.ArrayType{}, &ast.AssignStmt{}, &ast.BadDecl{}, &ast.BadExpr{},
		&ast.BadStmt{}, &ast.BasicLit{}, &ast.BinaryExpr{}, &ast.BlockStmt{},
		&ast.BranchStmt{}, &ast.CallExpr{}, &ast.CaseClause{}, &ast.ChanType{},
		&ast.CommClause{}, &ast.Comment{}, &ast.CommentGroup{}, &ast.CompositeLit{},
		&ast.DeclStmt{}, &ast.DeferStmt{}, &ast.Ellipsis{}, &ast.EmptyStmt{},
		&ast.ExprStmt{}, &ast.Field{}, &ast.FieldList{}, &ast.File{},
		&ast.ForStmt{}, &ast.FuncDecl{}, &ast.FuncLit{}, &ast.FuncType{},
		&ast.GenDecl{}, &ast.GoStmt{}, &ast.Ident{}, &ast.IfStmt{},
		&ast.ImportSpec{}, &ast.IncDecStmt{}, &ast.IndexExpr{}, &ast.IndexListExpr{},
		&ast.InterfaceType{}, &ast.KeyValueExpr{}, &ast.LabeledStmt{}, &ast.MapType{},
		&ast.ParenExpr{}, &ast.RangeStmt{}, &ast.ReturnStmt{}, &ast.SelectStmt{},
		&ast.SelectorExpr{}, &ast.SendStmt{}, &ast.SliceExpr{}, &ast.StarExpr{},
		&ast.StructType{}, &ast.SwitchStmt{}, &ast.TypeAssertExpr{}, &ast.TypeSpec{},
		&ast.TypeSwitchStmt{}, &ast.UnaryExpr{}, &ast.ValueSpec{},
	}
	m := make(map[string]reflect.Type, len(nodes))
	for _, n := range nodes {
		t := reflect.TypeOf(n).Elem()
		m[t.Name()] = t
	}
	return m
}()
