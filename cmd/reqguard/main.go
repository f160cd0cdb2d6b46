package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// errRejected makes the process exit non-zero without printing anything more
// than the command already wrote
var errRejected = errors.New("rejected")

func newRootCmd() *cobra.Command {
	cfg := newConfigLoader()

	rootCmd := &cobra.Command{
		Use:   "reqguard",
		Short: "Declarative request validation",
		Long: `reqguard validates request bodies, query strings, route parameters, headers
and cookies against rule sets declared in YAML or JSON.
It can lint rule files, check documents offline and serve a validating HTTP endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cfg.bindPersistent(rootCmd)

	rootCmd.AddCommand(newLintCmd(cfg))
	rootCmd.AddCommand(newCheckCmd(cfg))
	rootCmd.AddCommand(newServeCmd(cfg))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
