package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/tsed/internal/pattern"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	s, err := Compile(`s/(call_expression function: (identifier) @fn arguments: (argument_list (_) @arg) (#eq? @fn "puts"))/"Just Monika"/`)
	require.NoError(t, err)
	require.Len(t, s.Stages, 1)
	require.Len(t, s.Stages[0].Commands, 1)
	assert.False(t, s.Stages[0].Group)

	cmd := s.Stages[0].Commands[0]
	assert.Equal(t, KindSubstitute, cmd.Kind)
	assert.Nil(t, cmd.Address)
	assert.Equal(t, []string{"fn", "arg"}, cmd.Pattern.Captures())
	require.Len(t, cmd.Pattern.Predicates, 1)
	assert.Equal(t, `"Just Monika"`, cmd.Template.Source)
	assert.Equal(t, Flags{}, cmd.Flags)
	assert.Equal(t, 0, cmd.Offset)
}

func TestCompileCommands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		script string
		check  func(t *testing.T, s *Script)
	}{
		{
			name:   "custom delimiter",
			script: `d|(identifier) @x|`,
			check: func(t *testing.T, s *Script) {
				cmd := s.Commands()[0]
				assert.Equal(t, KindDelete, cmd.Kind)
				assert.True(t, cmd.Pattern.HasCapture("x"))
			},
		},
		{
			name:   "escaped delimiter and global flag",
			script: `s/(a) @x/\//g`,
			check: func(t *testing.T, s *Script) {
				cmd := s.Commands()[0]
				assert.Equal(t, "/", cmd.Template.Source)
				assert.Equal(t, Flags{Global: true}, cmd.Flags)
			},
		},
		{
			name:   "insert text escapes",
			script: `i/(a)/\/\/ note\n/`,
			check: func(t *testing.T, s *Script) {
				cmd := s.Commands()[0]
				assert.Equal(t, KindInsert, cmd.Kind)
				assert.Equal(t, "// note\n", cmd.Text)
			},
		},
		{
			name:   "append",
			script: `a,(a),;,`,
			check: func(t *testing.T, s *Script) {
				cmd := s.Commands()[0]
				assert.Equal(t, KindAppend, cmd.Kind)
				assert.Equal(t, ";", cmd.Text)
			},
		},
		{
			name:   "sequential stages",
			script: "s/(a)/x/; d/(b)/\np/(c)/",
			check: func(t *testing.T, s *Script) {
				require.Len(t, s.Stages, 3)
				assert.Equal(t, KindSubstitute, s.Stages[0].Commands[0].Kind)
				assert.Equal(t, KindDelete, s.Stages[1].Commands[0].Kind)
				assert.Equal(t, KindPrint, s.Stages[2].Commands[0].Kind)
				assert.Equal(t, "d/(b)/", s.Stages[1].Commands[0].Source)
				assert.Equal(t, 10, s.Stages[1].Commands[0].Offset)
			},
		},
		{
			name:   "group shares one stage",
			script: "2{ s/(a)/x/; 5d/(b)/ }",
			check: func(t *testing.T, s *Script) {
				require.Len(t, s.Stages, 1)
				st := s.Stages[0]
				assert.True(t, st.Group)
				require.Len(t, st.Commands, 2)
				assert.Equal(t, "2", st.Commands[0].Address.String())
				assert.Equal(t, "5", st.Commands[1].Address.String())
			},
		},
		{
			name:   "empty group",
			script: "{}",
			check: func(t *testing.T, s *Script) {
				require.Len(t, s.Stages, 1)
				assert.Empty(t, s.Stages[0].Commands)
			},
		},
		{
			name:   "addresses",
			script: "2,4d/(a)/\n$p/(b)/",
			check: func(t *testing.T, s *Script) {
				cmds := s.Commands()
				require.Len(t, cmds, 2)
				assert.Equal(t, &Address{From: Line{N: 2}, To: &Line{N: 4}}, cmds[0].Address)
				assert.Equal(t, &Address{From: Line{Last: true}}, cmds[1].Address)
			},
		},
		{
			name:   "pattern address forms",
			script: "/(a) @x/d\n/(b)/ a text; with semicolon\n/(c)/i\\\nnext line",
			check: func(t *testing.T, s *Script) {
				cmds := s.Commands()
				require.Len(t, cmds, 3)
				assert.Equal(t, KindDelete, cmds[0].Kind)
				assert.Equal(t, KindAppend, cmds[1].Kind)
				assert.Equal(t, "text; with semicolon", cmds[1].Text)
				assert.Equal(t, KindInsert, cmds[2].Kind)
				assert.Equal(t, "next line", cmds[2].Text)
			},
		},
		{
			name:   "target capture",
			script: `s@fn/(call (identifier) @fn)/foo/`,
			check: func(t *testing.T, s *Script) {
				assert.Equal(t, "fn", s.Commands()[0].Target)
			},
		},
		{
			name:   "occurrence flags",
			script: "s/(a)/x/3g\ns/(a)/x/p2",
			check: func(t *testing.T, s *Script) {
				cmds := s.Commands()
				assert.Equal(t, Flags{Global: true, Nth: 3}, cmds[0].Flags)
				assert.Equal(t, Flags{Print: true, Nth: 2}, cmds[1].Flags)
			},
		},
		{
			name:   "comments",
			script: "# drop a\nd/(a)/ # trailing\n\n# done\n",
			check: func(t *testing.T, s *Script) {
				require.Len(t, s.Stages, 1)
			},
		},
		{
			name:   "multiline pattern",
			script: "d/(call\n  function: (identifier) @fn ; callee\n)/",
			check: func(t *testing.T, s *Script) {
				assert.True(t, s.Commands()[0].Pattern.HasCapture("fn"))
			},
		},
		{
			name:   "empty script",
			script: " ;\n# nothing\n",
			check: func(t *testing.T, s *Script) {
				assert.Empty(t, s.Stages)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := Compile(tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.script, s.Source)
			tt.check(t, s)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	type want int
	const (
		wantSyntax want = iota
		wantArity
		wantTemplate
		wantPatternSyntax
		wantPredicate
	)

	tests := []struct {
		name   string
		script string
		want   want
		offset int
		got    int
	}{
		{name: "unknown command", script: "x/(a)/", want: wantSyntax, offset: 0},
		{name: "missing delimiter", script: "s", want: wantSyntax, offset: 1},
		{name: "alphanumeric delimiter", script: "sa(a)a", want: wantSyntax, offset: 1},
		{name: "unterminated replacement", script: "s/(a)/b", want: wantSyntax, offset: 7},
		{name: "unterminated pattern", script: "d/(a)", want: wantSyntax, offset: 5},
		{name: "unknown flag", script: "s/(a)/b/x", want: wantSyntax, offset: 8},
		{name: "flag on delete", script: "d/(a)/g", want: wantSyntax, offset: 6},
		{name: "zero occurrence", script: "s/(a)/b/0", want: wantSyntax, offset: 8},
		{name: "zero line", script: "0d/(a)/", want: wantSyntax, offset: 0},
		{name: "missing separator", script: "d/(a)/ d/(b)/", want: wantSyntax, offset: 7},
		{name: "unclosed group", script: "{ d/(a)/ ", want: wantSyntax, offset: 9},
		{name: "nested group", script: "{ { d/(a)/ } }", want: wantSyntax, offset: 2},
		{name: "stray brace", script: "d/(a)/ }", want: wantSyntax, offset: 7},
		{name: "substitute by pattern address", script: "/(a)/s", want: wantSyntax, offset: 5},
		{name: "delete with replacement", script: "d/(a)/extra/", want: wantArity, got: 2},
		{name: "substitute without replacement", script: "s/(a)/", want: wantArity, got: 1},
		{name: "insert cut by newline", script: "i/(a)/\nfoo", want: wantArity, got: 1},
		{name: "append without text", script: "/(a)/a", want: wantArity, got: 1},
		{name: "surplus substitute fields", script: "s/(a)/b/c/", want: wantArity, got: 3},
		{name: "empty pattern", script: "d//", want: wantPatternSyntax, offset: 2},
		{name: "bad pattern", script: "d/(a/", want: wantPatternSyntax, offset: 4},
		{name: "undeclared predicate capture", script: `d/(a) @x (#eq? @y "v")/`, want: wantPredicate, offset: 9},
		{name: "numbered reference out of range", script: `s/(a) @x/\2/`, want: wantTemplate, offset: 9},
		{name: "undeclared named reference", script: `s/(a) @x/:[y]/`, want: wantTemplate, offset: 9},
		{name: "undeclared target", script: `s@y/(a) @x/z/`, want: wantTemplate, offset: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := Compile(tt.script)
			require.Error(t, err)
			assert.Nil(t, s)

			switch tt.want {
			case wantSyntax:
				var e *SyntaxError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.offset, e.Offset)
			case wantArity:
				var e *ArityError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.got, e.Got)
			case wantTemplate:
				var e *TemplateError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.offset, e.Offset)
			case wantPatternSyntax:
				var e *pattern.SyntaxError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.offset, e.Offset)
			case wantPredicate:
				var e *pattern.PredicateError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.offset, e.Offset)
			}
		})
	}
}

func TestAddressSelects(t *testing.T) {
	t.Parallel()

	const last = 10
	tests := []struct {
		addr *Address
		line int
		want bool
	}{
		{addr: nil, line: 7, want: true},
		{addr: &Address{From: Line{N: 3}}, line: 3, want: true},
		{addr: &Address{From: Line{N: 3}}, line: 4, want: false},
		{addr: &Address{From: Line{N: 2}, To: &Line{N: 4}}, line: 4, want: true},
		{addr: &Address{From: Line{N: 2}, To: &Line{N: 4}}, line: 5, want: false},
		{addr: &Address{From: Line{N: 5}, To: &Line{N: 2}}, line: 5, want: true},
		{addr: &Address{From: Line{N: 5}, To: &Line{N: 2}}, line: 3, want: false},
		{addr: &Address{From: Line{Last: true}}, line: 10, want: true},
		{addr: &Address{From: Line{N: 8}, To: &Line{Last: true}}, line: 9, want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.addr.Selects(tt.line, last), "%s line %d", tt.addr, tt.line)
	}
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		`2,$s@fn/(call (identifier) @fn)/a\/b/2g`,
		`d/(identifier) @x (#match? @x "^_")/`,
		`i/(a)/x\ty/`,
	} {
		s, err := Compile(src)
		require.NoError(t, err)
		assert.Equal(t, src, s.Commands()[0].String())
	}
}
