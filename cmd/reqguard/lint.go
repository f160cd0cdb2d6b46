package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harriteja/reqguard/pkg/rulefile"
)

func newLintCmd(cfg *configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [rule-file]",
		Short: "Check a rule file against the rule file schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load()
			if err != nil {
				return err
			}
			path := conf.Rules
			if len(args) == 1 {
				path = args[0]
			}
			return runLint(cmd, path)
		},
	}
}

func runLint(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	f, err := rulefile.Load(path)
	if err != nil {
		var lintErr *rulefile.LintError
		if errors.As(err, &lintErr) {
			for _, v := range lintErr.Violations {
				fmt.Fprintf(out, "%s: %s\n", path, v)
			}
			return errRejected
		}
		return err
	}

	fmt.Fprintf(out, "%s: ok (%d rule sets, %d routes)\n", path, len(f.RuleSets), len(f.Routes))
	return nil
}
