package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/tsed/formatter"
	"github.com/gnoswap-labs/tsed/process"
)

// StdinName labels standard input in diagnostics.
const StdinName = "<stdin>"

type runFlags struct {
	script  scriptFlags
	lang    string
	inPlace bool
	diff    bool
	dryRun  bool
	jobs    int
	quiet   bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [script] [paths...]",
		Short: "Apply a script to files, directories or standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, a, f, args)
		},
	}

	f.script.register(cmd)
	flags := cmd.Flags()
	flags.StringVarP(&f.lang, "lang", "l", "", "Grammar to use for every input (default: by file extension)")
	flags.BoolVarP(&f.inPlace, "in-place", "i", false, "Write the output back into each file")
	flags.BoolVar(&f.diff, "diff", false, "Show a unified diff instead of the output")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Show what would change without writing files")
	flags.IntVarP(&f.jobs, "jobs", "j", 0, "Number of files processed at once (default: config, then one per CPU)")
	flags.BoolVarP(&f.quiet, "quiet", "n", false, "Only write the text printed by p commands and flags")
	return cmd
}

func runScript(cmd *cobra.Command, a *app, f *runFlags, args []string) error {
	s, paths, ruleLang, err := f.script.load(a, args)
	if err != nil {
		return err
	}

	opts := process.Options{
		Language: firstNonEmpty(f.lang, ruleLang, a.config.Language),
		Jobs:     a.config.Jobs,
		Write:    f.inPlace && !f.dryRun,
		Fs:       a.fs,
	}
	if cmd.Flags().Changed("jobs") {
		opts.Jobs = f.jobs
	}
	if isTerminal(cmd.ErrOrStderr()) {
		opts.Progress = cmd.ErrOrStderr()
	}
	p := process.New(s, a.reg, a.logger, opts)

	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	var results []*process.FileResult
	if len(paths) == 0 {
		if f.inPlace {
			return errors.New("--in-place needs file arguments")
		}
		if opts.Language == "" {
			return errors.New("reading standard input needs --lang")
		}
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read standard input: %w", err)
		}
		res, err := p.Source(ctx, StdinName, src)
		if res == nil {
			return err
		}
		results = []*process.FileResult{res}
	} else {
		results, err = p.Files(ctx, paths)
		if err != nil {
			return err
		}
	}

	a.logger.Debug("Run finished",
		zap.Int("files", len(results)),
		zap.Int("failed", len(process.Failed(results))),
	)

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if err := writeResult(out, f, r); err != nil {
			return err
		}
	}
	return resultIssues(s.Source, results)
}

// writeResult writes the print stream of r followed by its output, its
// diff, or nothing when the output went back into the file.
func writeResult(w io.Writer, f *runFlags, r *process.FileResult) error {
	if len(r.Printed) > 0 {
		if _, err := io.WriteString(w, strings.Join(r.Printed, "\n")+"\n"); err != nil {
			return err
		}
	}
	switch {
	case f.diff || f.dryRun:
		d, err := formatter.Diff(r.Path, r.Input, r.Output)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, d)
		return err
	case f.quiet || f.inPlace:
		return nil
	default:
		_, err := w.Write(r.Output)
		return err
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
