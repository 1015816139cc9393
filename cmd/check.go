package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/tsed/internal"
)

var stageStyle = color.New(color.FgCyan, color.Bold)

func newCheckCmd(a *app) *cobra.Command {
	var (
		sf   scriptFlags
		lang string
	)
	cmd := &cobra.Command{
		Use:   "check [script]",
		Short: "Compile a script and print its commands and queries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, ruleLang, err := sf.load(a, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, st := range s.Stages {
				if len(st.Commands) == 0 {
					continue
				}
				label := fmt.Sprintf("stage %d", i+1)
				if st.Group {
					label += " (group)"
				}
				fmt.Fprintln(out, stageStyle.Sprint(label))
				for _, c := range st.Commands {
					fmt.Fprintf(out, "  %s\n", c)
					fmt.Fprintf(out, "    query: %s\n", c.Pattern.Query())
				}
			}

			if lang = firstNonEmpty(lang, ruleLang); lang == "" {
				return nil
			}
			l, err := a.reg.Lookup(lang)
			if err != nil {
				return err
			}
			if err := internal.NewEngine(s, l, a.logger).Validate(); err != nil {
				return scriptIssue(s.Source, err)
			}
			fmt.Fprintf(out, "ok: valid for %s\n", l.Name())
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Also check the patterns against this grammar")
	return cmd
}
