package cmd

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/gnoswap-labs/tsed/internal"
	"github.com/gnoswap-labs/tsed/internal/syntax"
	"github.com/gnoswap-labs/tsed/process"
)

const defaultTimeout = 5 * time.Minute

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	timeout time.Duration
	verbose bool
	noColor bool

	fs     afero.Fs
	logger *zap.Logger
	config process.Config
	reg    *syntax.Registry
}

// NewRootCmd builds the tsed command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(afero.NewOsFs())
}

func newRootCmd(fsys afero.Fs) *cobra.Command {
	a := &app{fs: fsys}

	rootCmd := &cobra.Command{
		Use:   "tsed [script] [paths...]",
		Short: "tsed - a stream editor that matches syntax trees instead of text",
		Long: `tsed edits source code with sed-like scripts whose patterns are
tree-sitter queries:

  tsed 's/(call_expression function: (identifier) @fn (#eq? @fn "puts"))/log(&)/g' main.c`,
		Args:             cobra.ArbitraryArgs,
		TraverseChildren: true, // Prioritize subcommands
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", process.DefaultConfigFile, "Path to the configuration file")
	flags.DurationVar(&a.timeout, "timeout", defaultTimeout, "Abort the run after this long")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	runCmd := newRunCmd(a)
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		// no subcommand
		if len(args) == 0 && !cmd.Flags().Changed("expression") && !cmd.Flags().Changed("file") && !cmd.Flags().Changed("rule") {
			return cmd.Help()
		}
		// Format: tsed [script] [paths...] => behaves like the run subcommand
		return runCmd.RunE(cmd, args)
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newLangsCmd(a))
	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	return rootCmd
}

// Execute runs the command line and reports failures on stderr.
func Execute() error {
	return execute(NewRootCmd())
}

func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.noColor || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}

	a.config, err = process.LoadConfig(a.fs, a.cfgFile)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		a.config = process.Config{}
	case err != nil:
		return err
	}

	a.reg = internal.DefaultRegistry()
	return a.config.Apply(a.reg)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
