package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/tsed/formatter"
	"github.com/gnoswap-labs/tsed/process"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		sf   scriptFlags
		lang string
	)
	cmd := &cobra.Command{
		Use:   "watch [script] paths...",
		Short: "Preview a script on files as they change",
		Long: `watch re-runs the script whenever a file under the given paths is
written and prints the resulting diff. Files are never modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, paths, ruleLang, err := sf.load(a, args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.New("watch needs at least one path")
			}

			p := process.New(s, a.reg, a.logger, process.Options{
				Language: firstNonEmpty(lang, ruleLang, a.config.Language),
				Jobs:     a.config.Jobs,
				Fs:       a.fs,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d path(s), press Ctrl+C to stop\n", len(paths))
			return p.Watch(ctx, paths, func(r *process.FileResult) {
				if r.Err != nil {
					cmd.PrintErr(formatter.Format(formatter.FromError(r.Path, r.Input, s.Source, r.Err)))
					return
				}
				d, err := formatter.Diff(r.Path, r.Input, r.Output)
				if err != nil {
					cmd.PrintErrln(err)
					return
				}
				if d == "" {
					fmt.Fprintf(out, "%s: no changes\n", r.Path)
					return
				}
				fmt.Fprint(out, d)
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Grammar to use for every file (default: by file extension)")
	return cmd
}
