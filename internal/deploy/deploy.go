// Package deploy creates or updates the goals stack through CloudFormation and
// uploads the artifacts it needs to S3.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// Operations reported in Result.
const (
	OperationCreate = "CREATE"
	OperationUpdate = "UPDATE"
	OperationNone   = "NONE"
)

// MaxTemplateBody is the largest template CloudFormation accepts inline.
// Larger templates go through TemplateBucket.
const MaxTemplateBody = 51200

// ErrTemplateTooLarge is returned when a template exceeds MaxTemplateBody and
// no TemplateBucket is configured.
var ErrTemplateTooLarge = errors.New("template too large to deploy inline")

// CloudFormationAPI is the subset of the CloudFormation client used here.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
}

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	_ CloudFormationAPI = (*cloudformation.Client)(nil)
	_ S3API             = (*s3.Client)(nil)
)

// Deployer talks to CloudFormation and S3.
type Deployer struct {
	cfn CloudFormationAPI
	s3  S3API
}

// New returns a Deployer using the given clients.
func New(cfn CloudFormationAPI, s3Client S3API) *Deployer {
	return &Deployer{cfn: cfn, s3: s3Client}
}

// NewFromConfig loads the default AWS configuration, optionally pinned to
// region, and returns a Deployer backed by real clients.
func NewFromConfig(ctx context.Context, region string) (*Deployer, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(cloudformation.NewFromConfig(cfg), s3.NewFromConfig(cfg)), nil
}

// Stack is a rendered template ready to deploy.
type Stack struct {
	Name       string
	Template   []byte
	Parameters map[string]string
	Tags       map[string]string
}

// Options controls a deployment.
type Options struct {
	// Wait blocks until the stack reaches a terminal state.
	Wait bool
	// MaxWait bounds Wait. Zero means 30 minutes.
	MaxWait time.Duration
	// TemplateBucket receives templates too large to send inline.
	TemplateBucket string
}

// Result describes a finished deployment.
type Result struct {
	StackName string `json:"stack_name"`
	StackID   string `json:"stack_id"`
	Operation string `json:"operation"`
}

// Deploy creates the stack if it does not exist and updates it otherwise. An
// update with nothing to change is reported as OperationNone.
func (d *Deployer) Deploy(ctx context.Context, stack Stack, opts Options) (result *Result, err error) {
	logger := zerolog.Ctx(ctx)

	defer func(begin time.Time) {
		logger.Debug().
			Err(err).
			Str("stack_name", stack.Name).
			Dur("elapsed", time.Since(begin)).
			Msg("deploy finished")
	}(time.Now())

	if stack.Name == "" {
		return nil, errors.New("stack name is required")
	}

	body, url, err := d.templateSource(ctx, stack, opts.TemplateBucket)
	if err != nil {
		return nil, err
	}

	exists, err := d.stackExists(ctx, stack.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check if stack exists: %w", err)
	}

	if exists {
		result, err = d.updateStack(ctx, stack, body, url)
		if err != nil {
			return nil, fmt.Errorf("failed to update stack: %w", err)
		}
	} else {
		result, err = d.createStack(ctx, stack, body, url)
		if err != nil {
			return nil, fmt.Errorf("failed to create stack: %w", err)
		}
	}

	logger.Info().
		Str("operation", result.Operation).
		Str("stack_name", stack.Name).
		Msg("stack deployment started")

	if opts.Wait && result.Operation != OperationNone {
		if err := d.wait(ctx, stack.Name, result.Operation, opts.MaxWait); err != nil {
			return result, err
		}
	}
	return result, nil
}

// templateSource returns either the inline body or the S3 URL of the
// uploaded template.
func (d *Deployer) templateSource(ctx context.Context, stack Stack, bucket string) (body, url *string, err error) {
	if len(stack.Template) <= MaxTemplateBody {
		return aws.String(string(stack.Template)), nil, nil
	}
	if bucket == "" {
		return nil, nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTemplateTooLarge, len(stack.Template), MaxTemplateBody)
	}

	key := fmt.Sprintf("templates/%s-%d.json", stack.Name, time.Now().Unix())
	if err := d.Put(ctx, bucket, key, bytes.NewReader(stack.Template)); err != nil {
		return nil, nil, err
	}
	return nil, aws.String(fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)), nil
}

func (d *Deployer) stackExists(ctx context.Context, name string) (bool, error) {
	_, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationError" &&
			strings.Contains(apiErr.ErrorMessage(), "does not exist") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var capabilities = []types.Capability{
	types.CapabilityCapabilityIam,
	types.CapabilityCapabilityNamedIam,
}

func (d *Deployer) createStack(ctx context.Context, stack Stack, body, url *string) (*Result, error) {
	out, err := d.cfn.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(stack.Name),
		TemplateBody: body,
		TemplateURL:  url,
		Parameters:   parameters(stack.Parameters),
		Capabilities: capabilities,
		Tags:         tags(stack.Tags),
	})
	if err != nil {
		return nil, err
	}
	return &Result{StackName: stack.Name, StackID: aws.ToString(out.StackId), Operation: OperationCreate}, nil
}

func (d *Deployer) updateStack(ctx context.Context, stack Stack, body, url *string) (*Result, error) {
	out, err := d.cfn.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stack.Name),
		TemplateBody: body,
		TemplateURL:  url,
		Parameters:   parameters(stack.Parameters),
		Capabilities: capabilities,
		Tags:         tags(stack.Tags),
	})
	if err != nil {
		if noUpdates(err) {
			zerolog.Ctx(ctx).Info().Str("stack_name", stack.Name).Msg("no updates needed for stack")
			return &Result{StackName: stack.Name, StackID: stack.Name, Operation: OperationNone}, nil
		}
		return nil, err
	}
	return &Result{StackName: stack.Name, StackID: aws.ToString(out.StackId), Operation: OperationUpdate}, nil
}

func noUpdates(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ValidationError" {
		return false
	}
	msg := apiErr.ErrorMessage()
	return strings.Contains(msg, "No updates are to be performed") ||
		strings.Contains(msg, "No updates to be performed")
}

func (d *Deployer) wait(ctx context.Context, name, operation string, maxWait time.Duration) error {
	if maxWait == 0 {
		maxWait = 30 * time.Minute
	}
	input := &cloudformation.DescribeStacksInput{StackName: aws.String(name)}

	zerolog.Ctx(ctx).Info().Str("stack_name", name).Dur("max_wait", maxWait).Msg("waiting for stack")

	var err error
	if operation == OperationCreate {
		err = cloudformation.NewStackCreateCompleteWaiter(d.cfn).Wait(ctx, input, maxWait)
	} else {
		err = cloudformation.NewStackUpdateCompleteWaiter(d.cfn).Wait(ctx, input, maxWait)
	}
	if err != nil {
		return fmt.Errorf("waiting for stack %s: %w", name, err)
	}
	return nil
}

// Outputs returns the outputs of a deployed stack keyed by output name.
func (d *Deployer) Outputs(ctx context.Context, name string) (map[string]string, error) {
	out, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("describing stack %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", name)
	}

	outputs := make(map[string]string)
	for _, o := range out.Stacks[0].Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return outputs, nil
}

func parameters(values map[string]string) []types.Parameter {
	keys := sortedKeys(values)
	params := make([]types.Parameter, 0, len(keys))
	for _, k := range keys {
		params = append(params, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(values[k]),
		})
	}
	return params
}

func tags(values map[string]string) []types.Tag {
	keys := sortedKeys(values)
	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(values[k])})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
