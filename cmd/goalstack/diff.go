package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/differ"
)

func newDiffCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> [template2]",
		Short: "Compare templates",
		Long: `Diff compares two saved templates, or a saved template with a fresh render
of the stack when only one file is given.

Examples:
    goalstack diff deployed.json
    goalstack diff old.yaml new.json --ignore-order
    goalstack diff deployed.json --seed 42 --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := differ.Options{IgnoreOrder: ignoreOrder}

			var (
				result *differ.Result
				err    error
			)
			if len(args) == 2 {
				result, err = differ.CompareFiles(args[0], args[1], opts)
			} else {
				result, err = diffAgainstRender(cmd, root, args[0], opts)
			}
			if err != nil {
				return err
			}
			return outputDiff(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")

	return cmd
}

func diffAgainstRender(cmd *cobra.Command, root *rootOptions, path string, opts differ.Options) (*differ.Result, error) {
	before, err := differ.LoadTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	_, after, err := root.loadGoals(cmd)
	if err != nil {
		return nil, err
	}
	return differ.Compare(before, after, opts)
}

func outputDiff(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    goalstack.TemplateDiff `json:"diff"`
			Summary goalstack.DiffSummary  `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Summary.Total == 0 && len(result.Diff.Outputs) == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
			for _, change := range e.Changes {
				fmt.Fprintf(w, "    %s\n", change)
			}
		}
		for _, change := range result.Diff.Outputs {
			fmt.Fprintf(w, "  output %s\n", change)
		}
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
