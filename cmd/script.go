package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/tsed/internal/script"
)

// scriptFlags select where the script comes from.
type scriptFlags struct {
	expressions []string
	file        string
	rules       []string
	rulesFile   string
}

func (f *scriptFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.expressions, "expression", "e", nil, "Add a script expression (repeatable)")
	flags.StringVarP(&f.file, "file", "f", "", "Read the script from a file")
	flags.StringArrayVar(&f.rules, "rule", nil, "Add a named rule from the configuration or --rules file (repeatable)")
	flags.StringVar(&f.rulesFile, "rules", "", "Read named rules from a YAML file")
}

// explicit reports whether any script flag was given.
func (f *scriptFlags) explicit() bool {
	return len(f.expressions) > 0 || f.file != "" || len(f.rules) > 0
}

// load assembles and compiles the script. When no script flag is given the
// first argument is the script. It returns the remaining arguments and the
// language the selected rules ask for, if any.
func (f *scriptFlags) load(a *app, args []string) (*script.Script, []string, string, error) {
	var (
		parts []string
		lang  string
	)
	if !f.explicit() {
		if len(args) == 0 {
			return nil, nil, "", errors.New("no script given")
		}
		parts = append(parts, args[0])
		args = args[1:]
	}

	parts = append(parts, f.expressions...)

	if f.file != "" {
		data, err := afero.ReadFile(a.fs, f.file)
		if err != nil {
			return nil, nil, "", fmt.Errorf("read script: %w", err)
		}
		parts = append(parts, string(data))
	}

	if len(f.rules) > 0 {
		rules := a.config.Scripts
		if f.rulesFile != "" {
			data, err := afero.ReadFile(a.fs, f.rulesFile)
			if err != nil {
				return nil, nil, "", fmt.Errorf("read rules: %w", err)
			}
			if rules, err = script.ParseRules(data); err != nil {
				return nil, nil, "", err
			}
		}
		for _, name := range f.rules {
			rule, ok := script.FindRule(rules, name)
			if !ok {
				return nil, nil, "", fmt.Errorf("unknown rule %q", name)
			}
			if rule.Language != "" {
				if lang != "" && lang != rule.Language {
					return nil, nil, "", fmt.Errorf("rule %q targets %s, other rules target %s", name, rule.Language, lang)
				}
				lang = rule.Language
			}
			parts = append(parts, rule.Script)
		}
	}

	src := strings.Join(parts, "\n")
	s, err := script.Compile(src)
	if err != nil {
		return nil, nil, "", scriptIssue(src, err)
	}
	return s, args, lang, nil
}
