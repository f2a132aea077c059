package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat     string
		lint             bool
		warningsAsErrors bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the rendered template",
		Long: `Validate renders the stack and checks it.

Checks performed:
  - Reference validity: every Ref, GetAtt, Sub and DependsOn names a defined resource or parameter
  - Dependency graph: resources can be created in some order
  - cfn-lint (with --lint): CloudFormation schema and best-practice rules

Examples:
    goalstack validate
    goalstack validate --lint --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tmpl, err := root.loadGoals(cmd)
			if err != nil {
				return err
			}
			result, err := validation.Validate(tmpl, validation.Options{
				SkipLint:         !lint,
				WarningsAsErrors: warningsAsErrors,
			})
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&lint, "lint", false, "Also run cfn-lint rules")
	cmd.Flags().BoolVar(&warningsAsErrors, "strict", false, "Treat cfn-lint warnings as errors")

	return cmd
}

var errValidationFailed = errors.New("validation failed")

func outputValidateResult(w io.Writer, result goalstack.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}
