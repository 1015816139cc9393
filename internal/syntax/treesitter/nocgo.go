//go:build !cgo

package treesitter

import "github.com/gnoswap-labs/tsed/internal/syntax"

const GoName = "tree-sitter-go"

// Available reports whether tree-sitter grammars were compiled in. They
// need cgo.
const Available = false

// Languages returns nothing without cgo.
func Languages() []syntax.Language { return nil }
