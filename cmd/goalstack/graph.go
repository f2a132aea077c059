package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/goalstack-go/internal/graph"
)

func newGraphCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
		clusterByType     bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a graph of resource dependencies",
		Long: `Generate a DOT or Mermaid graph of the stack's resource dependencies.

The output can be rendered with Graphviz:
    goalstack graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    goalstack graph -f mermaid

Examples:
    goalstack graph -p              # include parameters
    goalstack graph --cluster       # cluster by service`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format graph.Format
			switch outputFormat {
			case "dot":
				format = graph.FormatDOT
			case "mermaid":
				format = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, tmpl, err := root.loadGoals(cmd)
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:            format,
				IncludeParameters: includeParameters,
				ClusterByType:     clusterByType,
			}
			return gen.Generate(tmpl, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVar(&clusterByType, "cluster", false, "Cluster resources by AWS service")

	return cmd
}
