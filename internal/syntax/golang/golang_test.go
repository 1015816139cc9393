package golang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/tsed/internal/pattern"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

func parse(t *testing.T, src string) syntax.Tree {
	t.Helper()
	tree, err := New().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return tree
}

func texts(src []byte, spans []syntax.Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text(src)
	}
	return out
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	src := "// doc\npackage main\n\nfunc main() {\n\tprintln(1 + 2)\n}\n"
	tree := parse(t, src)

	root := tree.Root()
	assert.Equal(t, "File", root.Type())
	assert.Equal(t, syntax.Span{Start: 0, End: len(src)}, root.Span())

	matches, err := tree.Query(pattern.MustCompile(`(BinaryExpr X: (_) @l "+" @op Y: (_) @r)`))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "1 + 2", m.Root.Text(tree.Source()))
	assert.Equal(t, []string{"1"}, texts(tree.Source(), m.Captures["l"]))
	assert.Equal(t, []string{"+"}, texts(tree.Source(), m.Captures["op"]))
	assert.Equal(t, []string{"2"}, texts(tree.Source(), m.Captures["r"]))
}

func TestParseSingleStatement(t *testing.T) {
	t.Parallel()

	tree := parse(t, `puts("hello")`)
	assert.Equal(t, "BlockStmt", tree.Root().Type())

	matches, err := tree.Query(pattern.MustCompile(`(CallExpr Fun: (Ident) @fn Args: (BasicLit) @arg)`))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, syntax.Span{Start: 0, End: 13}, matches[0].Root)
	assert.Equal(t, []string{`"hello"`}, texts(tree.Source(), matches[0].Captures["arg"]))
}

func TestLoneStatementMatchesLikeAList(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"f()", "  f()  ", "f(); g()"} {
		tree := parse(t, src)
		matches, err := tree.Query(pattern.MustCompile(`(ExprStmt) @s`))
		require.NoError(t, err, src)
		require.NotEmpty(t, matches, src)
		assert.Equal(t, "f()", matches[0].Root.Text(tree.Source()), src)
	}
}

func TestFuncDeclChildrenAreDisjoint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want string
	}{
		{src: "package p\n\nfunc (r T) M(a int) error { return nil }\n", want: "(a int) error"},
		{src: "package p\n\nfunc F() {}\n", want: "()"},
		{src: "package p\n\nfunc G[T any](v T) {}\n", want: "[T any](v T)"},
	}

	for _, tt := range tests {
		tree := parse(t, tt.src)
		matches, err := tree.Query(pattern.MustCompile(`(FuncDecl Type: (FuncType) @t) @decl`))
		require.NoError(t, err, tt.src)
		require.Len(t, matches, 1, tt.src)
		assert.Equal(t, []string{tt.want}, texts(tree.Source(), matches[0].Captures["t"]), tt.src)

		// Children must be in source order and must not overlap.
		decl := tree.Root().Child(tree.Root().ChildCount() - 1)
		require.Equal(t, "FuncDecl", decl.Type())
		for i := 1; i < decl.ChildCount(); i++ {
			prev, cur := decl.Child(i-1).Span(), decl.Child(i).Span()
			assert.LessOrEqual(t, prev.End, cur.Start, "%s: %s before %s", tt.src, decl.FieldName(i-1), decl.FieldName(i))
		}
	}
}

func TestParseStatements(t *testing.T) {
	t.Parallel()

	src := "a(); b();"
	tree := parse(t, src)
	assert.Equal(t, "BlockStmt", tree.Root().Type())
	assert.Equal(t, syntax.Span{Start: 0, End: len(src)}, tree.Root().Span())

	matches, err := tree.Query(pattern.MustCompile(`(CallExpr Fun: (Ident) @fn)`))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a()", matches[0].Root.Text(tree.Source()))
	assert.Equal(t, "b()", matches[1].Root.Text(tree.Source()))
}

func TestParseError(t *testing.T) {
	t.Parallel()

	_, err := New().Parse(context.Background(), []byte("func {"))
	var perr *syntax.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Name, perr.Language)
}

func TestParseCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Parse(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolverFieldsSkipped(t *testing.T) {
	t.Parallel()

	tree := parse(t, "package p\n\nimport \"fmt\"\n\nvar x = fmt.Sprint(1)\n")
	root := tree.Root()
	for i := 0; i < root.ChildCount(); i++ {
		assert.NotContains(t, []string{"Imports", "Comments", "Scope", "Unresolved"}, root.FieldName(i))
	}

	matches, err := tree.Query(pattern.MustCompile(`(ImportSpec) @imp`))
	require.NoError(t, err)
	assert.Len(t, matches, 1, "imports are reached once through Decls")
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query   string
		wantErr bool
	}{
		{query: `(CallExpr Fun: (Ident) @fn)`},
		{query: `(_ X: (_))`},
		{query: `[(IfStmt) (ForStmt)] @loop`},
		{query: `(FuncDecl !Recv)`},
		{query: `(call_expression)`, wantErr: true},
		{query: `(CallExpr Function: (Ident))`, wantErr: true},
		{query: `(CallExpr (Ident Obj: _))`, wantErr: true},
		{query: `(CallExpr !Body)`, wantErr: true},
		{query: `[(IfStmt) (WhileStmt)]`, wantErr: true},
	}

	for _, tt := range tests {
		err := New().Validate(pattern.MustCompile(tt.query))
		if !tt.wantErr {
			assert.NoError(t, err, tt.query)
			continue
		}
		var verr *syntax.ValidationError
		assert.ErrorAs(t, err, &verr, tt.query)
	}
}
