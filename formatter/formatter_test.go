package formatter

import (
	"context"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/tsed/internal"
	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
	"github.com/gnoswap-labs/tsed/internal/syntax/golang"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestFormatIssue(t *testing.T) {
	t.Parallel()

	issue := Issue{
		Class:    "MatchConflictError",
		Filename: "a.go",
		Message:  "m",
		Source:   []byte("x := 1\n\tf(y)\n"),
		Labels: []Label{
			{Span: syntax.Span{Start: 8, End: 12}, Text: "replace by command 1"},
			{Span: syntax.Span{Start: 10, End: 11}, Text: "delete by command 2"},
		},
	}
	expected := `error: MatchConflictError
 --> a.go:2:2
  |
2 |         f(y)
  |         ^^^^ replace by command 1
  |
2 |         f(y)
  |           ^ delete by command 2
  = m
`
	assert.Equal(t, expected, Format(issue))
}

func TestFormatWithoutSource(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error\n  = boom\n", Format(Issue{Message: "boom"}))
	assert.Equal(t,
		"error: ParseError\n --> b.go\n  = bad\n  = note: n\n",
		Format(Issue{Class: "ParseError", Filename: "b.go", Message: "bad", Note: "n"}))
}

func TestFormatSeparatesIssues(t *testing.T) {
	t.Parallel()

	out := Format(Issue{Message: "one"}, Issue{Message: "two"})
	assert.Equal(t, "error\n  = one\n\nerror\n  = two\n", out)
}

func TestFormatZeroWidthAndMultiline(t *testing.T) {
	t.Parallel()

	src := []byte("ab\ncd\n")
	out := Format(Issue{
		Source: src,
		Labels: []Label{
			{Span: syntax.Span{Start: 2, End: 2}, Text: "insert"},
			{Span: syntax.Span{Start: 1, End: 4}, Text: "span"},
		},
	})
	assert.Contains(t, out, "1 | ab\n  |   ^ insert\n")
	assert.Contains(t, out, "1 | ab\n  |  ^ span\n")
}

func TestFromErrorConflict(t *testing.T) {
	t.Parallel()

	s, err := script.Compile(`{ s/(CallExpr)/x/; d/(Ident)/ }`)
	require.NoError(t, err)
	src := []byte("f(y)")
	_, err = internal.NewEngine(s, golang.New(), nil).Run(context.Background(), src)
	require.Error(t, err)

	issue := FromError("a.go", src, s.Source, err)
	assert.Equal(t, internal.ClassConflict, issue.Class)
	assert.Equal(t, "a.go", issue.Filename)
	assert.Equal(t, "f(y)", string(issue.Source))
	require.Len(t, issue.Labels, 2)
	assert.Equal(t, "delete by command 2", issue.Labels[0].Text)
	assert.Equal(t, "replace by command 1", issue.Labels[1].Text)
	assert.Empty(t, issue.Note)

	out := Format(issue)
	assert.Contains(t, out, "--> a.go:1:1")
	assert.Contains(t, out, "  | ^^^^ replace by command 1")
}

func TestFromErrorLaterStageNotes(t *testing.T) {
	t.Parallel()

	s, err := script.Compile("s/(BasicLit)/g(y)/\n{ s/(CallExpr)/x/; d/(Ident)/ }")
	require.NoError(t, err)
	src := []byte("1")
	_, err = internal.NewEngine(s, golang.New(), nil).Run(context.Background(), src)
	require.Error(t, err)

	issue := FromError("a.go", src, s.Source, err)
	assert.Equal(t, "g(y)", string(issue.Source))
	assert.Equal(t, "offsets refer to the output of stage 1", issue.Note)
}

func TestFromErrorScript(t *testing.T) {
	t.Parallel()

	const src = `s/(a)/x/q`
	_, err := script.Compile(src)
	require.Error(t, err)

	issue := FromError("", nil, src, err)
	assert.Equal(t, internal.ClassScriptSyntax, issue.Class)
	assert.Equal(t, ScriptFilename, issue.Filename)
	require.Len(t, issue.Labels, 1)
	assert.Equal(t, 8, issue.Labels[0].Span.Start)

	out := Format(issue)
	assert.Contains(t, out, "--> <script>:1:9")
	assert.Contains(t, out, "1 | s/(a)/x/q\n  |         ^\n")
}

func TestFromErrorPattern(t *testing.T) {
	t.Parallel()

	const src = "d/(a)/\nd/(b/"
	_, err := script.Compile(src)
	require.Error(t, err)

	issue := FromError("", nil, src, err)
	assert.Equal(t, internal.ClassPatternSyntax, issue.Class)
	require.Len(t, issue.Labels, 1)
	assert.Contains(t, Format(issue), "--> <script>:2:")
}

func TestDiff(t *testing.T) {
	t.Parallel()

	out, err := Diff("x.go", []byte("a\nb\nc\n"), []byte("a\nB\nc\n"))
	require.NoError(t, err)
	expected := `--- a/x.go
+++ b/x.go
@@ -1,3 +1,3 @@
 a
-b
+B
 c
`
	assert.Equal(t, expected, out)

	out, err = Diff("x.go", []byte("same"), []byte("same"))
	require.NoError(t, err)
	assert.Empty(t, out)
}
