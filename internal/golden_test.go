package internal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// TestGolden runs every archive in testdata. The archive comment is the
// script; input.<ext> picks the grammar; output, stdout and error hold the
// expected results.
func TestGolden(t *testing.T) {
	t.Parallel()

	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	reg := DefaultRegistry()
	for _, file := range files {
		file := file
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			t.Parallel()

			ar, err := txtar.ParseFile(file)
			require.NoError(t, err)

			want := map[string]string{}
			var inputName, input string
			for _, f := range ar.Files {
				if strings.HasPrefix(f.Name, "input.") {
					inputName, input = f.Name, string(f.Data)
					continue
				}
				want[f.Name] = string(f.Data)
			}
			require.NotEmpty(t, inputName, "archive has no input file")

			lang, err := reg.ForFile(inputName)
			if errors.Is(err, syntax.ErrUnknownLanguage) {
				t.Skipf("no grammar for %s in this build", inputName)
			}
			require.NoError(t, err)

			s, err := script.Compile(string(ar.Comment))
			require.NoError(t, err)
			e := NewEngine(s, lang, nil)
			require.NoError(t, e.Validate())

			res, err := e.Run(context.Background(), []byte(input))
			if class, ok := want["error"]; ok {
				require.Error(t, err)
				assert.Equal(t, strings.TrimSpace(class), ErrorClass(err))
				return
			}
			require.NoError(t, err)

			assert.Equal(t, want["output"], string(res.Output))
			if stdout, ok := want["stdout"]; ok {
				assert.Equal(t, stdout, strings.Join(res.Printed, "\n")+"\n")
			} else {
				assert.Empty(t, res.Printed)
			}
		})
	}
}
