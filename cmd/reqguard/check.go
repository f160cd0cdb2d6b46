package main

import (
	"io"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harriteja/reqguard/pkg/rulefile"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation"
	"github.com/harriteja/reqguard/pkg/validation/coerce"
)

type checkResult struct {
	Status  int            `json:"status"`
	Message []string       `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func newCheckCmd(cfg *configLoader) *cobra.Command {
	var (
		set   string
		field string
	)

	cmd := &cobra.Command{
		Use:   "check DATA.json|-",
		Short: "Validate a JSON document against a rule set",
		Long: `Validate a JSON document read from a file, or from stdin when the argument is "-".
The field selects the coercion applied before type matching, the same way
the HTTP adapters coerce query strings and route parameters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load()
			if err != nil {
				return err
			}
			f, err := types.ParseField(field)
			if err != nil {
				return err
			}
			return runCheck(cmd, conf.Rules, set, f, args[0])
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "rule set name")
	cmd.Flags().StringVar(&field, "field", string(types.FieldBody), "request field the document stands for")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func runCheck(cmd *cobra.Command, rulesPath, set string, field types.Field, source string) error {
	file, err := rulefile.Load(rulesPath)
	if err != nil {
		return err
	}
	reg, err := file.Registry()
	if err != nil {
		return err
	}

	raw, err := readSource(cmd, source)
	if err != nil {
		return err
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Wrap(err, "failed to decode document")
	}

	var opts []validation.Option
	if c := coerce.ForField(field); c != nil {
		opts = append(opts, validation.WithCoercer(c))
	}
	outcome, err := reg.Validate(set, data, opts...)
	if err != nil {
		return err
	}

	result := checkResult{Status: http.StatusOK, Data: outcome.Data}
	if !outcome.Accepted() {
		result = checkResult{Status: http.StatusBadRequest, Message: outcome.Errors}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(err, "failed to write result")
	}
	if !outcome.Accepted() {
		return errRejected
	}
	return nil
}

func readSource(cmd *cobra.Command, source string) ([]byte, error) {
	if source == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		return raw, nil
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", source)
	}
	return raw, nil
}
