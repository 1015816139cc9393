package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
	"github.com/gnoswap-labs/tsed/internal/syntax/golang"
)

// mockLanguage records parses and delegates them to the Go grammar.
type mockLanguage struct {
	mock.Mock
	lang *golang.Language
}

func newMockLanguage() *mockLanguage {
	m := &mockLanguage{lang: golang.New()}
	m.On("Parse", mock.Anything).Return()
	return m
}

func (m *mockLanguage) Name() string         { return "mock" }
func (m *mockLanguage) Extensions() []string { return nil }

func (m *mockLanguage) Parse(ctx context.Context, src []byte) (syntax.Tree, error) {
	m.Called(string(src))
	return m.lang.Parse(ctx, src)
}

func newEngine(t *testing.T, src string, lang syntax.Language) *Engine {
	t.Helper()
	s, err := script.Compile(src)
	require.NoError(t, err)
	return NewEngine(s, lang, nil)
}

func TestEngineRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		input   string
		want    string
		printed []string
	}{
		{
			name:   "replace the whole call",
			script: `s/(CallExpr Fun: (Ident) @fn Args: (_) @arg (#eq? @fn "puts"))/"Just Monika"/`,
			input:  `puts("hello")`,
			want:   `"Just Monika"`,
		},
		{
			name:   "delete keeps punctuation",
			script: `d/(CallExpr Fun: (Ident) @fn (#eq? @fn "a"))/`,
			input:  "a(); b();",
			want:   "; b();",
		},
		{
			name:   "later stage sees earlier output",
			script: `s/(CallExpr Fun: (Ident) @fn (#eq? @fn "a"))/b()/; d/(CallExpr Fun: (Ident) @fn (#eq? @fn "b"))/`,
			input:  "a(); c();",
			want:   "; c();",
		},
		{
			name:   "group renders once",
			script: `{ i/(CallExpr)/>/; a/(CallExpr)/</ }`,
			input:  "f()",
			want:   ">f()<",
		},
		{
			name:    "print only is a round trip",
			script:  `p/(File)/`,
			input:   "package main\n\nfunc main() {}\n",
			want:    "package main\n\nfunc main() {}\n",
			printed: []string{"package main\n\nfunc main() {}\n"},
		},
		{
			name:    "prints follow command order",
			script:  `p/(BasicLit)/; p/(Ident)/`,
			input:   `f(1, 2)`,
			want:    `f(1, 2)`,
			printed: []string{"1", "2", "f"},
		},
		{
			name:    "substitute print flag",
			script:  `s/(BasicLit) @n/0/gp`,
			input:   `f(1, 2)`,
			want:    `f(0, 0)`,
			printed: []string{"0", "0"},
		},
		{
			name:   "no match is success",
			script: `d/(FuncLit)/`,
			input:  `f(1)`,
			want:   `f(1)`,
		},
		{
			name:   "line addresses",
			script: `2,3d/(CallExpr)/`,
			input:  "a()\nb()\nc()\nd()\n",
			want:   "a()\n\n\nd()\n",
		},
		{
			name:   "lone statement",
			script: `d/(ExprStmt)/`,
			input:  "  f()  ",
			want:   "    ",
		},
		{
			name:   "method signature keeps receiver and name",
			script: `s@t/(FuncDecl Type: (FuncType) @t)/(b string) error/`,
			input:  "package p\n\nfunc (r T) M(a int) {}\n",
			want:   "package p\n\nfunc (r T) M(b string) error {}\n",
		},
		{
			name:   "name and signature edit together",
			script: `{ s@n/(FuncDecl Name: (Ident) @n)/N/; s@t/(FuncDecl Type: (FuncType) @t)/()/ }`,
			input:  "package p\n\nfunc (r T) M(a int) {}\n",
			want:   "package p\n\nfunc (r T) N() {}\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := newEngine(t, tt.script, golang.New()).Run(context.Background(), []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(res.Output))
			assert.Equal(t, tt.printed, res.Printed)
			assert.Equal(t, tt.want != tt.input, res.Changed([]byte(tt.input)))
		})
	}
}

func TestEngineReparsesOnlyAfterEdits(t *testing.T) {
	t.Parallel()

	lang := newMockLanguage()
	e := newEngine(t, "p/(CallExpr)/\nd/(FuncLit)/\ns/(CallExpr) @c/x()/g\np/(CallExpr)/", lang)

	res, err := e.Run(context.Background(), []byte("a(); b();"))
	require.NoError(t, err)
	assert.Equal(t, "x(); x();", string(res.Output))
	assert.Equal(t, []string{"a()", "b()", "x()", "x()"}, res.Printed)
	assert.Equal(t, 2, res.Edits)

	lang.AssertNumberOfCalls(t, "Parse", 2)
	lang.AssertCalled(t, "Parse", "a(); b();")
	lang.AssertCalled(t, "Parse", "x(); x();")
}

func TestEngineGroupConflict(t *testing.T) {
	t.Parallel()

	src := []byte("f(y)")
	_, err := newEngine(t, `{ s/(CallExpr)/x/; d/(Ident)/ }`, golang.New()).Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, ClassConflict, ErrorClass(err))
	assert.Contains(t, err.Error(), "stage 1")
	assert.Equal(t, "f(y)", string(src))

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Stage)
	assert.Equal(t, "f(y)", string(serr.Source))
}

func TestEngineSequentialStagesDoNotConflict(t *testing.T) {
	t.Parallel()

	res, err := newEngine(t, "s/(CallExpr)/x/\nd/(Ident)/", golang.New()).Run(context.Background(), []byte("f(y)"))
	require.NoError(t, err)
	assert.Equal(t, "", string(res.Output))
}

func TestEngineParseError(t *testing.T) {
	t.Parallel()

	_, err := newEngine(t, `d/(Ident)/`, golang.New()).Run(context.Background(), []byte("func {"))
	require.Error(t, err)
	assert.Equal(t, ClassParse, ErrorClass(err))
}

func TestEngineCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t, `d/(Ident)/`, golang.New()).Run(ctx, []byte("f()"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineEmptyScript(t *testing.T) {
	t.Parallel()

	lang := newMockLanguage()
	res, err := newEngine(t, "# nothing\n{}", lang).Run(context.Background(), []byte("f()"))
	require.NoError(t, err)
	assert.Equal(t, "f()", string(res.Output))
	lang.AssertNotCalled(t, "Parse", mock.Anything)
}

func TestEngineValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, newEngine(t, `d/(CallExpr Fun: (Ident))/`, golang.New()).Validate())
	assert.NoError(t, newEngine(t, `d/(nonsense)/`, newMockLanguage()).Validate())

	err := newEngine(t, `d/(CallExpr Body: (Ident))/`, golang.New()).Validate()
	require.Error(t, err)
	assert.Equal(t, ClassPatternSyntax, ErrorClass(err))
	assert.Contains(t, err.Error(), "d/(CallExpr Body: (Ident))/")
}

func TestErrorClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		script string
		want   string
	}{
		{`s/(a)/x/q`, ClassScriptSyntax},
		{`s/(a)/x`, ClassScriptSyntax},
		{`d/(a)/x/`, ClassArity},
		{`s/(a) @x/:[y]/`, ClassTemplate},
		{`d/(a/`, ClassPatternSyntax},
		{`d/((a) @x (#frobnicate? @x))/`, ClassPredicate},
	}
	for _, tt := range tests {
		_, err := script.Compile(tt.script)
		require.Error(t, err, tt.script)
		assert.Equal(t, tt.want, ErrorClass(err), tt.script)
	}

	assert.Equal(t, "", ErrorClass(nil))
	assert.Equal(t, "", ErrorClass(errors.New("plain")))
}
