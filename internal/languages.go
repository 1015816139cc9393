package internal

import (
	"github.com/gnoswap-labs/tsed/internal/syntax"
	"github.com/gnoswap-labs/tsed/internal/syntax/golang"
	"github.com/gnoswap-labs/tsed/internal/syntax/treesitter"
)

// DefaultRegistry returns a registry holding the go/ast grammar and every
// tree-sitter grammar compiled into the binary.
func DefaultRegistry() *syntax.Registry {
	r := syntax.NewRegistry(golang.New())
	for _, l := range treesitter.Languages() {
		r.Register(l)
	}
	return r
}
