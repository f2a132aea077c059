// Command goalstack renders the goals application stack to CloudFormation and
// deploys it.
//
// Usage:
//
//	goalstack build               Render the template to stdout
//	goalstack validate --lint     Check references, cycles and cfn-lint rules
//	goalstack graph -f mermaid    Show the resource dependency graph
//	goalstack optimize            Suggest security, cost and reliability improvements
//	goalstack deploy --wait       Upload function code and deploy the stack
//	goalstack version             Show version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "goalstack",
		Short: "Render and deploy the goals serverless stack",
		Long: `goalstack declares the goals web application (table, website buckets, CDN,
functions, user pool, REST API and asset pipeline) in Go and compiles it into a
CloudFormation template.

Settings come from goalstack.yaml when present:

    project: Acme
    seed: 42
    functions:
      codeBucket: acme-function-code

Then render or deploy:

    goalstack build -f yaml
    goalstack deploy --wait`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	opts.bindFlags(rootCmd)

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newValidateCmd(opts),
		newListCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(opts),
		newOptimizeCmd(opts),
		newDeployCmd(opts),
		newUploadCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goalstack %s\n", getVersion())
		},
	}
}
