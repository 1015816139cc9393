package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/tsed/formatter"
	"github.com/gnoswap-labs/tsed/process"
)

// issueError carries the diagnostics of a failed command so they are
// rendered once, after every regular output.
type issueError struct {
	issues []formatter.Issue
	err    error
}

func (e *issueError) Error() string { return e.err.Error() }
func (e *issueError) Unwrap() error { return e.err }

// scriptIssue wraps a script compile error with its location in src.
func scriptIssue(src string, err error) error {
	return &issueError{
		issues: []formatter.Issue{formatter.FromError("", nil, src, err)},
		err:    err,
	}
}

// resultIssues collects the failures of a run, or returns nil.
func resultIssues(scriptSrc string, results []*process.FileResult) error {
	failed := process.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	issues := make([]formatter.Issue, len(failed))
	for i, r := range failed {
		issues[i] = formatter.FromError(r.Path, r.Input, scriptSrc, r.Err)
	}
	return &issueError{issues: issues, err: process.Err(results)}
}

func reportError(err error) string {
	var ie *issueError
	if errors.As(err, &ie) {
		return formatter.Format(ie.issues...)
	}
	return formatter.Format(formatter.FromError("", nil, "", err))
}

// execute runs cmd and renders its failure on the command's stderr.
func execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		cmd.PrintErr(reportError(err))
	}
	return err
}
