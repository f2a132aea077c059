package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lex00/goalstack-go/internal/deploy"
	"github.com/lex00/goalstack-go/stack"
)

type deployOptions struct {
	wait           bool
	maxWait        time.Duration
	codeBucket     string
	skipCode       bool
	skipAssets     bool
	templateBucket string
}

func newDeployCmd(root *rootOptions) *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the stack to CloudFormation",
		Long: `Deploy uploads the function packages, creates or updates the stack and,
once the stack is up, uploads the website assets to the source-assets bucket,
which starts the asset pipeline.

Function packages are read from functions.codeDir as <Function>.zip and stored
under functions.codePrefix in the code bucket.

Set a seed (in goalstack.yaml or with --seed) so bucket names stay the same
across deployments.

Examples:
    goalstack deploy --code-bucket acme-code --wait
    goalstack deploy --skip-code --stack goals-dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.wait, "wait", false, "Wait for the stack to finish")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", 30*time.Minute, "Longest time to wait with --wait")
	cmd.Flags().StringVar(&opts.codeBucket, "code-bucket", "", "Bucket for function packages (overrides config)")
	cmd.Flags().BoolVar(&opts.skipCode, "skip-code", false, "Do not upload function packages")
	cmd.Flags().BoolVar(&opts.skipAssets, "skip-assets", false, "Do not upload the website assets")
	cmd.Flags().StringVar(&opts.templateBucket, "template-bucket", "", "Bucket for templates too large to send inline")

	return cmd
}

func runDeploy(cmd *cobra.Command, root *rootOptions, opts deployOptions) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	goals, tmpl, err := root.loadGoals(cmd)
	if err != nil {
		return err
	}
	cfg := goals.Config
	if cfg.Seed == nil {
		logger.Warn().Msg("no seed configured; bucket names will change on every deploy")
	}

	codeBucket := opts.codeBucket
	if codeBucket == "" {
		codeBucket = cfg.Functions.CodeBucket
	}
	if codeBucket == "" {
		return errors.New("no function code bucket: set functions.codeBucket or --code-bucket")
	}

	d, err := deploy.NewFromConfig(ctx, cfg.Region)
	if err != nil {
		return err
	}

	if !opts.skipCode {
		names := make([]string, len(stack.GoalFunctions))
		for i, f := range stack.GoalFunctions {
			names[i] = f.Name
		}
		artifacts, err := deploy.FunctionArtifacts(cfg.Functions.CodeDir, cfg.Functions.CodePrefix, names)
		if err != nil {
			return err
		}
		if err := d.Upload(ctx, codeBucket, artifacts); err != nil {
			return err
		}
	}

	body, err := json.Marshal(tmpl)
	if err != nil {
		return err
	}
	result, err := d.Deploy(ctx, deploy.Stack{
		Name:     cfg.Stack(),
		Template: body,
		Parameters: map[string]string{
			stack.ParamFunctionCodeBucket: codeBucket,
			stack.ParamFunctionCodePrefix: cfg.Functions.CodePrefix,
		},
		Tags: map[string]string{"app-name": cfg.Project},
	}, deploy.Options{
		Wait:           opts.wait,
		MaxWait:        opts.maxWait,
		TemplateBucket: opts.templateBucket,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", result.Operation, result.StackName, result.StackID)

	if !opts.wait {
		if !opts.skipAssets {
			logger.Info().Msg("not waiting for the stack; skipping asset upload")
		}
		return nil
	}

	if !opts.skipAssets {
		if err := uploadAssets(cmd, d, goals); err != nil {
			return err
		}
	}

	outputs, err := d.Outputs(ctx, result.StackName)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, outputs[k])
	}
	return nil
}

// uploadAssets puts the website bundle where the pipeline's source action
// looks for it.
func uploadAssets(cmd *cobra.Command, d *deploy.Deployer, goals *stack.Goals) error {
	cfg := goals.Config
	if cfg.Pipeline.AssetsFile == "" {
		return nil
	}
	if _, err := os.Stat(cfg.Pipeline.AssetsFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(cmd.Context()).Warn().Str("file", cfg.Pipeline.AssetsFile).Msg("no assets bundle; pipeline not started")
			return nil
		}
		return err
	}
	bucket := goals.BucketNames[goals.SourceAssets.LogicalID]
	return d.Upload(cmd.Context(), bucket, []deploy.Artifact{{
		Path: cfg.Pipeline.AssetsFile,
		Key:  cfg.Pipeline.AssetsKey,
	}})
}
