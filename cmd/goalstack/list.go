package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/template"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stack's resources",
		Long: `List renders the stack and shows every resource with its type and what it
depends on.

Examples:
    goalstack list
    goalstack list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tmpl, err := root.loadGoals(cmd)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResources(tmpl), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResources(tmpl *goalstack.Template) goalstack.ListResult {
	deps := template.Dependencies(tmpl)
	result := goalstack.ListResult{
		Resources: make([]goalstack.ListResource, 0, len(tmpl.Resources)),
	}
	for name, def := range tmpl.Resources {
		result.Resources = append(result.Resources, goalstack.ListResource{
			Name:      name,
			Type:      def.Type,
			DependsOn: deps[name],
		})
	}
	sort.Slice(result.Resources, func(i, j int) bool {
		return result.Resources[i].Name < result.Resources[j].Name
	})
	return result
}

func outputListResult(w io.Writer, result goalstack.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
