// Package internal provides the per-document pipeline of tsed.
//
// An Engine pairs a compiled script with a grammar and runs the script over
// one source buffer. The script is split into stages: each top-level
// command is a stage of its own and every command of a { } group shares
// one. For every stage the engine
//
//   - parses the current buffer, reusing the previous tree when the previous
//     stage changed nothing,
//   - matches the patterns of the stage's commands against that tree,
//   - plans the edits of every command against the same snapshot, and
//   - renders them in a single pass, failing with a conflict error when two
//     edits overlap.
//
// The rendered buffer feeds the next stage, so later commands see the
// output of earlier ones.
//
// Usage:
//
//	s, err := script.Compile(`s/(CallExpr Fun: (Ident) @fn (#eq? @fn "puts"))/log(&)/g`)
//	if err != nil {
//	    // handle error
//	}
//
//	e := internal.NewEngine(s, golang.New(), logger)
//	res, err := e.Run(ctx, src)
//	if err != nil {
//	    // internal.ErrorClass(err) names the failure
//	}
//
//	os.Stdout.Write(res.Output)
package internal
