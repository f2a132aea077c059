// Package stack assembles the goals application from typed resource
// descriptors. A Catalog registers resources and hands back immutable handles;
// the Identity, API and Pipeline composers build on those handles.
package stack

import (
	"fmt"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/naming"
	"github.com/lex00/goalstack-go/internal/template"
	"github.com/lex00/goalstack-go/intrinsics"
	"github.com/lex00/goalstack-go/resources/cloudfront"
	"github.com/lex00/goalstack-go/resources/codebuild"
	"github.com/lex00/goalstack-go/resources/cognito"
	"github.com/lex00/goalstack-go/resources/dynamodb"
	"github.com/lex00/goalstack-go/resources/lambda"
	"github.com/lex00/goalstack-go/resources/s3"
)

// Option adjusts how a registered resource is rendered.
type Option = template.Option

// DependsOn adds explicit dependencies to a resource.
func DependsOn(logicalIDs ...string) Option {
	return template.DependsOn(logicalIDs...)
}

// DeleteOnRemoval deletes the physical resource when it leaves the stack or
// is replaced.
func DeleteOnRemoval() Option {
	return template.DeletionPolicy(template.PolicyDelete)
}

// Sentinel construction errors, re-exported for errors.Is.
var (
	ErrDuplicate          = template.ErrDuplicate
	ErrUndefinedReference = template.ErrUndefinedReference
	ErrCycle              = template.ErrCycle
)

// lambdaBasicExecution is attached to every service role created for a
// function registered without one.
var lambdaBasicExecution = intrinsics.Concat(
	"arn:", intrinsics.AWS_PARTITION, ":iam::aws:policy/service-role/AWSLambdaBasicExecutionRole",
)

// Catalog registers resources under logical IDs. It is built by one goroutine
// in a single pass and rendered with Template.
type Catalog struct {
	alloc    *naming.Allocator
	builder  *template.Builder
	identity *Identity
}

// NewCatalog returns an empty catalog that draws physical name suffixes from
// alloc.
func NewCatalog(alloc *naming.Allocator) *Catalog {
	c := &Catalog{
		alloc:   alloc,
		builder: template.NewBuilder(""),
	}
	c.identity = &Identity{catalog: c, policies: make(map[string]*policyEntry)}
	return c
}

// SetDescription sets the template description.
func (c *Catalog) SetDescription(description string) {
	c.builder.SetDescription(description)
}

// Identity returns the catalog's identity and access composer.
func (c *Catalog) Identity() *Identity {
	return c.identity
}

// Add registers any resource. Duplicate logical IDs are an error.
func (c *Catalog) Add(logicalID string, r goalstack.Resource, opts ...Option) (goalstack.Handle, error) {
	if err := c.builder.Add(logicalID, r, opts...); err != nil {
		return goalstack.Handle{}, err
	}
	return goalstack.Handle{LogicalID: logicalID, Type: r.ResourceType()}, nil
}

// AddParameter declares a template parameter and returns a Ref to it.
func (c *Catalog) AddParameter(name string, p goalstack.Parameter) (intrinsics.Ref, error) {
	if err := c.builder.AddParameter(name, p); err != nil {
		return intrinsics.Ref{}, err
	}
	return intrinsics.Ref{LogicalName: name}, nil
}

// AddOutput declares a stack output.
func (c *Catalog) AddOutput(name, description string, value any) error {
	return c.builder.AddOutput(name, description, value)
}

// BucketName allocates "<prefix>-<n>" with a suffix unique within this run.
func (c *Catalog) BucketName(prefix string) (string, error) {
	return c.alloc.Name(prefix)
}

// Template renders every registered resource.
func (c *Catalog) Template() (*goalstack.Template, error) {
	return c.builder.Build()
}

// TableHandle identifies a DynamoDB table.
type TableHandle struct{ goalstack.Handle }

// Name resolves to the table name.
func (h TableHandle) Name() intrinsics.Ref { return h.Ref() }

// Arn resolves to the table ARN.
func (h TableHandle) Arn() goalstack.AttrRef { return h.Attr("Arn") }

// AddTable registers a DynamoDB table.
func (c *Catalog) AddTable(logicalID string, t dynamodb.Table, opts ...Option) (TableHandle, error) {
	h, err := c.Add(logicalID, t, opts...)
	return TableHandle{h}, err
}

// BucketHandle identifies an S3 bucket.
type BucketHandle struct{ goalstack.Handle }

// Name resolves to the bucket name.
func (h BucketHandle) Name() intrinsics.Ref { return h.Ref() }

// Arn resolves to the bucket ARN.
func (h BucketHandle) Arn() goalstack.AttrRef { return h.Attr("Arn") }

// ObjectsArn resolves to "<bucket ARN>/*", every object in the bucket.
func (h BucketHandle) ObjectsArn() intrinsics.Join {
	return intrinsics.Concat(h.Arn(), "/*")
}

// WebsiteURL resolves to the bucket's static website endpoint.
func (h BucketHandle) WebsiteURL() goalstack.AttrRef { return h.Attr("WebsiteURL") }

// RegionalDomainName resolves to the bucket's regional domain name.
func (h BucketHandle) RegionalDomainName() goalstack.AttrRef { return h.Attr("RegionalDomainName") }

// AddBucket registers an S3 bucket.
func (c *Catalog) AddBucket(logicalID string, b s3.Bucket, opts ...Option) (BucketHandle, error) {
	h, err := c.Add(logicalID, b, opts...)
	return BucketHandle{h}, err
}

// AddBucketPolicy attaches a resource policy to bucket.
func (c *Catalog) AddBucketPolicy(logicalID string, bucket BucketHandle, statements ...intrinsics.PolicyStatement) (goalstack.Handle, error) {
	doc := make([]any, len(statements))
	for i, s := range statements {
		doc[i] = s
	}
	return c.Add(logicalID, s3.BucketPolicy{
		Bucket:         bucket.Name(),
		PolicyDocument: intrinsics.NewPolicyDocument(doc...),
	})
}

// DistributionHandle identifies a CloudFront distribution.
type DistributionHandle struct{ goalstack.Handle }

// DomainName resolves to the distribution's domain name.
func (h DistributionHandle) DomainName() goalstack.AttrRef { return h.Attr("DomainName") }

// AddDistribution registers a CloudFront distribution.
func (c *Catalog) AddDistribution(logicalID string, d cloudfront.Distribution, opts ...Option) (DistributionHandle, error) {
	h, err := c.Add(logicalID, d, opts...)
	return DistributionHandle{h}, err
}

// FunctionHandle identifies a Lambda function and the role it executes as.
type FunctionHandle struct {
	goalstack.Handle
	role RoleHandle
}

// Name resolves to the function name.
func (h FunctionHandle) Name() intrinsics.Ref { return h.Ref() }

// Arn resolves to the function ARN.
func (h FunctionHandle) Arn() goalstack.AttrRef { return h.Attr("Arn") }

// Role returns the function's execution role.
func (h FunctionHandle) Role() RoleHandle { return h.role }

// AddFunction registers a Lambda function executing as role. When role is the
// zero handle a service role "<logicalID>ServiceRole" trusted by Lambda, with
// basic execution permissions, is created for it.
func (c *Catalog) AddFunction(logicalID string, fn lambda.Function, role RoleHandle, opts ...Option) (FunctionHandle, error) {
	if role.IsZero() {
		var err error
		role, err = c.identity.CreateRole(logicalID+"ServiceRole",
			ServicePrincipal("lambda.amazonaws.com"),
			ManagedPolicies(lambdaBasicExecution),
		)
		if err != nil {
			return FunctionHandle{}, fmt.Errorf("service role for %s: %w", logicalID, err)
		}
	}
	fn.Role = role.Arn()

	h, err := c.Add(logicalID, fn, opts...)
	if err != nil {
		return FunctionHandle{}, err
	}
	return FunctionHandle{Handle: h, role: role}, nil
}

// AddPermission registers a resource-based permission on a function.
func (c *Catalog) AddPermission(logicalID string, p lambda.Permission, opts ...Option) (goalstack.Handle, error) {
	return c.Add(logicalID, p, opts...)
}

// tableReadWriteActions is the action set granted by GrantReadWriteData.
var tableReadWriteActions = []string{
	"dynamodb:BatchGetItem",
	"dynamodb:GetRecords",
	"dynamodb:GetShardIterator",
	"dynamodb:Query",
	"dynamodb:GetItem",
	"dynamodb:Scan",
	"dynamodb:ConditionCheckItem",
	"dynamodb:BatchWriteItem",
	"dynamodb:PutItem",
	"dynamodb:UpdateItem",
	"dynamodb:DeleteItem",
	"dynamodb:DescribeTable",
}

// GrantReadWriteData lets fn read and write items in table by adding the
// DynamoDB data actions to its role's default policy. The function is made to
// depend on that policy so it is not invoked before the grant exists.
func (c *Catalog) GrantReadWriteData(table TableHandle, fn FunctionHandle) error {
	if fn.role.IsZero() {
		return fmt.Errorf("grant on %s: function has no role", fn.LogicalID)
	}
	if err := c.identity.AddToRolePolicy(fn.role, Allow(tableReadWriteActions, table.Arn())); err != nil {
		return err
	}
	return c.builder.Apply(fn.LogicalID, DependsOn(fn.role.DefaultPolicyID()))
}

// UserPoolHandle identifies a Cognito user pool.
type UserPoolHandle struct{ goalstack.Handle }

// ID resolves to the user pool ID.
func (h UserPoolHandle) ID() intrinsics.Ref { return h.Ref() }

// Arn resolves to the user pool ARN.
func (h UserPoolHandle) Arn() goalstack.AttrRef { return h.Attr("Arn") }

// ProviderName resolves to the pool's identity provider name.
func (h UserPoolHandle) ProviderName() goalstack.AttrRef { return h.Attr("ProviderName") }

// AddUserPool registers a Cognito user pool.
func (c *Catalog) AddUserPool(logicalID string, p cognito.UserPool, opts ...Option) (UserPoolHandle, error) {
	h, err := c.Add(logicalID, p, opts...)
	return UserPoolHandle{h}, err
}

// ClientHandle identifies a user pool app client.
type ClientHandle struct{ goalstack.Handle }

// ID resolves to the client ID.
func (h ClientHandle) ID() intrinsics.Ref { return h.Ref() }

// AddUserPoolClient registers an app client for pool.
func (c *Catalog) AddUserPoolClient(logicalID string, pool UserPoolHandle, client cognito.UserPoolClient, opts ...Option) (ClientHandle, error) {
	client.UserPoolId = pool.ID()
	h, err := c.Add(logicalID, client, opts...)
	return ClientHandle{h}, err
}

// IdentityPoolHandle identifies a Cognito identity pool.
type IdentityPoolHandle struct{ goalstack.Handle }

// ID resolves to the identity pool ID.
func (h IdentityPoolHandle) ID() intrinsics.Ref { return h.Ref() }

// AddIdentityPool registers an identity pool federating the given clients.
func (c *Catalog) AddIdentityPool(logicalID string, p cognito.IdentityPool, opts ...Option) (IdentityPoolHandle, error) {
	h, err := c.Add(logicalID, p, opts...)
	return IdentityPoolHandle{h}, err
}

// AddIdentityPoolRoles maps the identity pool's authenticated and
// unauthenticated identities to roles.
func (c *Catalog) AddIdentityPoolRoles(logicalID string, pool IdentityPoolHandle, authenticated, unauthenticated RoleHandle) (goalstack.Handle, error) {
	return c.Add(logicalID, cognito.IdentityPoolRoleAttachment{
		IdentityPoolId: pool.ID(),
		Roles: map[string]any{
			"authenticated":   authenticated.Arn(),
			"unauthenticated": unauthenticated.Arn(),
		},
	})
}

// ProjectHandle identifies a CodeBuild project.
type ProjectHandle struct{ goalstack.Handle }

// Name resolves to the project name.
func (h ProjectHandle) Name() intrinsics.Ref { return h.Ref() }

// Arn resolves to the project ARN.
func (h ProjectHandle) Arn() goalstack.AttrRef { return h.Attr("Arn") }

// AddBuildProject registers a CodeBuild project running as role.
func (c *Catalog) AddBuildProject(logicalID string, p codebuild.Project, role RoleHandle, opts ...Option) (ProjectHandle, error) {
	p.ServiceRole = role.Arn()
	h, err := c.Add(logicalID, p, opts...)
	return ProjectHandle{h}, err
}
