package main

import (
	"github.com/spf13/cobra"
)

func newBuildCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the CloudFormation template",
		Long: `Build assembles the goals stack and writes its CloudFormation template.

Examples:
    goalstack build
    goalstack build -o template.json
    goalstack build --format yaml --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tmpl, err := root.loadGoals(cmd)
			if err != nil {
				return err
			}
			data, err := encode(tmpl, outputFormat)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), data, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
