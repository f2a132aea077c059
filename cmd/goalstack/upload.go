package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lex00/goalstack-go/internal/deploy"
)

func newUploadCmd(root *rootOptions) *cobra.Command {
	var bucket, key string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to S3",
		Long: `Upload puts a local file into a bucket, for example a rebuilt assets bundle
for the source-assets bucket.

Examples:
    goalstack upload assets.zip --bucket aws-fullstack-template-source-assets-123
    goalstack upload GetGoal.zip --bucket acme-code --key functions/GetGoal.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bucket == "" {
				return errors.New("--bucket is required")
			}
			if key == "" {
				key = filepath.Base(args[0])
			}

			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			d, err := deploy.NewFromConfig(cmd.Context(), cfg.Region)
			if err != nil {
				return err
			}
			return d.Upload(cmd.Context(), bucket, []deploy.Artifact{{Path: args[0], Key: key}})
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket")
	cmd.Flags().StringVar(&key, "key", "", "Object key (default: file name)")

	return cmd
}
