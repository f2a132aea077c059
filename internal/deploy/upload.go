package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Artifact is a local file destined for an S3 key.
type Artifact struct {
	Path string
	Key  string
}

// Put writes body to bucket/key.
func (d *Deployer) Put(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", bucket, key, err)
	}
	zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("uploaded object")
	return nil
}

// Upload copies every artifact into bucket, stopping at the first failure.
func (d *Deployer) Upload(ctx context.Context, bucket string, artifacts []Artifact) error {
	logger := zerolog.Ctx(ctx)
	for _, a := range artifacts {
		f, err := os.Open(a.Path)
		if err != nil {
			return err
		}
		err = d.Put(ctx, bucket, a.Key, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	logger.Info().Str("bucket", bucket).Int("count", len(artifacts)).Msg("uploaded artifacts")
	return nil
}

// FunctionArtifacts returns the "<name>.zip" packages in dir, keyed under
// prefix. Every named package must exist.
func FunctionArtifacts(dir, prefix string, names []string) ([]Artifact, error) {
	var (
		artifacts []Artifact
		missing   []error
	)
	for _, name := range names {
		file := name + ".zip"
		path := filepath.Join(dir, file)
		info, err := os.Stat(path)
		switch {
		case err != nil:
			missing = append(missing, fmt.Errorf("function package %s: %w", name, err))
		case info.IsDir():
			missing = append(missing, fmt.Errorf("function package %s: %s is a directory", name, path))
		default:
			artifacts = append(artifacts, Artifact{Path: path, Key: prefix + file})
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}
	return artifacts, nil
}
