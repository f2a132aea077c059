package stack

import (
	"fmt"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/config"
	"github.com/lex00/goalstack-go/internal/naming"
	"github.com/lex00/goalstack-go/intrinsics"
	"github.com/lex00/goalstack-go/resources/cloudfront"
	"github.com/lex00/goalstack-go/resources/codebuild"
	"github.com/lex00/goalstack-go/resources/cognito"
	"github.com/lex00/goalstack-go/resources/dynamodb"
	"github.com/lex00/goalstack-go/resources/lambda"
	"github.com/lex00/goalstack-go/resources/s3"
)

// Bucket name prefixes; the allocator appends "-<n>".
const (
	SourceAssetsBucketPrefix      = "aws-fullstack-template-source-assets"
	WebsiteBucketPrefix           = "aws-fullstack-template-website"
	PipelineArtifactsBucketPrefix = "aws-fullstack-template-codepipeline-artifacts"
)

// Template parameters naming where function packages live.
const (
	ParamFunctionCodeBucket = "FunctionCodeBucket"
	ParamFunctionCodePrefix = "FunctionCodePrefix"
)

// GoalFunction describes one of the goal API functions.
type GoalFunction struct {
	Name        string
	Description string
}

// GoalFunctions lists the five functions backing the goals API.
var GoalFunctions = []GoalFunction{
	{Name: "ListGoals", Description: "Get list of goals for userId"},
	{Name: "CreateGoal", Description: "Create goal for user id"},
	{Name: "DeleteGoal", Description: "Delete goal for user id"},
	{Name: "UpdateGoal", Description: "Update goal for user id"},
	{Name: "GetGoal", Description: "Get goal for user id"},
}

// sharedRoleFunctions run as DynamoDbRole; the others get a service role each.
var sharedRoleFunctions = map[string]bool{
	"ListGoals":  true,
	"CreateGoal": true,
	"DeleteGoal": true,
	"UpdateGoal": true,
}

// Goals is the assembled goals application.
type Goals struct {
	Config  config.Config
	Catalog *Catalog

	Table TableHandle

	SourceAssets      BucketHandle
	Website           BucketHandle
	PipelineArtifacts BucketHandle
	BucketNames       map[string]string
	CDN               DistributionHandle

	DynamoDbRole RoleHandle
	Functions    map[string]FunctionHandle

	UserPool     UserPoolHandle
	Client       ClientHandle
	IdentityPool IdentityPoolHandle

	API      *API
	Project  ProjectHandle
	Pipeline *Pipeline
}

// NewGoals builds the goals stack described by cfg, drawing bucket name
// suffixes from alloc.
func NewGoals(cfg config.Config, alloc *naming.Allocator) (*Goals, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Goals{
		Config:      cfg,
		Catalog:     NewCatalog(alloc),
		BucketNames: make(map[string]string),
		Functions:   make(map[string]FunctionHandle),
	}
	g.Catalog.SetDescription(cfg.Description)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"table", g.addTable},
		{"storage", g.addStorage},
		{"functions", g.addFunctions},
		{"identity", g.addIdentity},
		{"api", g.addAPI},
		{"pipeline", g.addPipeline},
		{"outputs", func() error { return EmitOutputs(g.Catalog, g.Website, g.CDN) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("goals %s: %w", step.name, err)
		}
	}
	return g, nil
}

// Template renders the stack.
func (g *Goals) Template() (*goalstack.Template, error) {
	return g.Catalog.Template()
}

func (g *Goals) addTable() error {
	cfg := g.Config
	table := dynamodb.Table{
		TableName: cfg.TableName(),
		ProvisionedThroughput: &dynamodb.Table_ProvisionedThroughput{
			ReadCapacityUnits:  cfg.Table.ReadCapacity,
			WriteCapacityUnits: cfg.Table.WriteCapacity,
		},
	}.WithKeys(
		dynamodb.Key{Name: "userId", Type: dynamodb.AttributeTypeString},
		&dynamodb.Key{Name: "goalId", Type: dynamodb.AttributeTypeString},
	)

	var err error
	if g.Table, err = g.Catalog.AddTable("TGoals", table, DeleteOnRemoval()); err != nil {
		return err
	}

	id := g.Catalog.Identity()
	if g.DynamoDbRole, err = id.CreateRole("DynamoDbRole", ServicePrincipal("lambda.amazonaws.com")); err != nil {
		return err
	}
	return id.AttachPolicy(g.DynamoDbRole, "GoalsPolicy", Allow([]string{"dynamodb:*"}, g.Table.Arn()))
}

func (g *Goals) bucket(logicalID, prefix string, b s3.Bucket) (BucketHandle, error) {
	name, err := g.Catalog.BucketName(prefix)
	if err != nil {
		return BucketHandle{}, err
	}
	b.BucketName = name
	g.BucketNames[logicalID] = name
	return g.Catalog.AddBucket(logicalID, b, DeleteOnRemoval())
}

func (g *Goals) addStorage() error {
	var err error
	g.SourceAssets, err = g.bucket("SourceAssetBucket", SourceAssetsBucketPrefix, s3.Bucket{
		PublicAccessBlockConfiguration: s3.BlockAll(),
		VersioningConfiguration:        &s3.Bucket_VersioningConfiguration{Status: s3.VersioningEnabled},
	})
	if err != nil {
		return err
	}

	// The website is served publicly through a bucket policy, so only ACLs stay blocked.
	g.Website, err = g.bucket("WebsiteBucket", WebsiteBucketPrefix, s3.Bucket{
		PublicAccessBlockConfiguration: &s3.Bucket_PublicAccessBlockConfiguration{
			BlockPublicAcls:       intrinsics.Bool(true),
			IgnorePublicAcls:      intrinsics.Bool(true),
			BlockPublicPolicy:     intrinsics.Bool(false),
			RestrictPublicBuckets: intrinsics.Bool(false),
		},
		WebsiteConfiguration: &s3.Bucket_WebsiteConfiguration{
			IndexDocument: g.Config.Website.IndexDocument,
			ErrorDocument: g.Config.Website.ErrorDocument,
		},
	})
	if err != nil {
		return err
	}

	g.PipelineArtifacts, err = g.bucket("PipelineArtifactsBucket", PipelineArtifactsBucketPrefix, s3.Bucket{
		PublicAccessBlockConfiguration: s3.BlockAll(),
	})
	if err != nil {
		return err
	}

	_, err = g.Catalog.AddBucketPolicy("WebsiteBucketPolicy", g.Website, intrinsics.PolicyStatement{
		Effect:    string(EffectAllow),
		Principal: intrinsics.AWSPrincipal{intrinsics.AllPrincipal},
		Action:    "s3:Get*",
		Resource:  g.Website.ObjectsArn(),
	})
	if err != nil {
		return err
	}

	const originID = "origin1"
	g.CDN, err = g.Catalog.AddDistribution("AssetsCdn", cloudfront.Distribution{
		DistributionConfig: cloudfront.Distribution_DistributionConfig{
			Comment:           "CDN for " + g.Config.Project + " website",
			DefaultRootObject: g.Config.Website.IndexDocument,
			Enabled:           intrinsics.Bool(true),
			HttpVersion:       "http2",
			IPV6Enabled:       intrinsics.Bool(true),
			PriceClass:        "PriceClass_100",
			Origins: []cloudfront.Distribution_Origin{{
				Id:             originID,
				DomainName:     g.Website.RegionalDomainName(),
				S3OriginConfig: &cloudfront.Distribution_S3OriginConfig{},
			}},
			DefaultCacheBehavior: cloudfront.Distribution_DefaultCacheBehavior{
				TargetOriginId:       originID,
				ViewerProtocolPolicy: "redirect-to-https",
				AllowedMethods:       []string{"GET", "HEAD"},
				CachedMethods:        []string{"GET", "HEAD"},
				Compress:             intrinsics.Bool(true),
				ForwardedValues: &cloudfront.Distribution_ForwardedValues{
					QueryString: intrinsics.Bool(false),
					Cookies:     &cloudfront.Distribution_Cookies{Forward: "none"},
				},
			},
			ViewerCertificate: &cloudfront.Distribution_ViewerCertificate{
				CloudFrontDefaultCertificate: intrinsics.Bool(true),
			},
		},
	})
	return err
}

func (g *Goals) addFunctions() error {
	cfg := g.Config
	codeBucket := goalstack.Parameter{
		Type:        "String",
		Description: "S3 bucket holding the function deployment packages",
	}
	if cfg.Functions.CodeBucket != "" {
		codeBucket.Default = cfg.Functions.CodeBucket
	}
	bucketRef, err := g.Catalog.AddParameter(ParamFunctionCodeBucket, codeBucket)
	if err != nil {
		return err
	}
	codePrefix := goalstack.Parameter{
		Type:        "String",
		Description: "Key prefix of the function deployment packages",
	}
	if cfg.Functions.CodePrefix != "" {
		codePrefix.Default = cfg.Functions.CodePrefix
	}
	if _, err := g.Catalog.AddParameter(ParamFunctionCodePrefix, codePrefix); err != nil {
		return err
	}

	for _, f := range GoalFunctions {
		var role RoleHandle
		if sharedRoleFunctions[f.Name] {
			role = g.DynamoDbRole
		}

		fn, err := g.Catalog.AddFunction("Function"+f.Name, lambda.Function{
			FunctionName: cfg.Project + "-" + f.Name,
			Description:  f.Description,
			Runtime:      cfg.Functions.Runtime,
			Handler:      f.Name + ".handler",
			MemorySize:   cfg.Functions.MemorySize,
			Timeout:      cfg.Functions.Timeout,
			Code: lambda.Function_Code{
				S3Bucket: bucketRef,
				S3Key:    intrinsics.Sub{String: "${" + ParamFunctionCodePrefix + "}" + f.Name + ".zip"},
			},
			Environment: &lambda.Function_Environment{
				Variables: map[string]any{"TABLE_NAME": g.Table.Name()},
			},
		}, role)
		if err != nil {
			return err
		}
		g.Functions[f.Name] = fn
	}

	for _, f := range GoalFunctions {
		if err := g.Catalog.GrantReadWriteData(g.Table, g.Functions[f.Name]); err != nil {
			return err
		}
	}
	return nil
}

func (g *Goals) addIdentity() error {
	project := g.Config.Project
	id := g.Catalog.Identity()

	snsRole, err := id.CreateRole("SnsRole", ServicePrincipal("cognito-idp.amazonaws.com"))
	if err != nil {
		return err
	}
	if err := id.AttachPolicy(snsRole, "CognitoSnsPolicy", Allow([]string{"sns:publish"}, "*")); err != nil {
		return err
	}

	const (
		emailSubject = "Your verification code"
		emailBody    = "Here is your verification code: {####}"
		smsMessage   = "Your username is {username}, Your verification code is {####}"
	)
	g.UserPool, err = g.Catalog.AddUserPool("UserPool", cognito.UserPool{
		UserPoolName: project + "-UserPool",
		AdminCreateUserConfig: &cognito.UserPool_AdminCreateUserConfig{
			AllowAdminCreateUserOnly: intrinsics.Bool(false),
		},
		UsernameAttributes:     []string{"email"},
		AutoVerifiedAttributes: []string{"email"},
		Schema: []cognito.UserPool_SchemaAttribute{{
			Name:     "email",
			Required: intrinsics.Bool(true),
			Mutable:  intrinsics.Bool(false),
		}},
		Policies: &cognito.UserPool_Policies{PasswordPolicy: cognito.UserPool_PasswordPolicy{
			MinimumLength:    8,
			RequireLowercase: intrinsics.Bool(false),
			RequireNumbers:   intrinsics.Bool(false),
			RequireSymbols:   intrinsics.Bool(false),
			RequireUppercase: intrinsics.Bool(false),
		}},
		EmailVerificationSubject: emailSubject,
		EmailVerificationMessage: emailBody,
		SmsVerificationMessage:   smsMessage,
		VerificationMessageTemplate: &cognito.UserPool_VerificationMessageTemplate{
			DefaultEmailOption: cognito.ConfirmWithCode,
			EmailSubject:       emailSubject,
			EmailMessage:       emailBody,
			SmsMessage:         smsMessage,
		},
		SmsConfiguration: &cognito.UserPool_SmsConfiguration{
			SnsCallerArn: snsRole.Arn(),
		},
	}, DependsOn("CognitoSnsPolicy"))
	if err != nil {
		return err
	}

	g.Client, err = g.Catalog.AddUserPoolClient("UserPoolClient", g.UserPool, cognito.UserPoolClient{
		ClientName:     project + "-UserPoolClient",
		GenerateSecret: intrinsics.Bool(false),
	})
	if err != nil {
		return err
	}

	g.IdentityPool, err = g.Catalog.AddIdentityPool("IdentityPool", cognito.IdentityPool{
		IdentityPoolName:               project + "Identity",
		AllowUnauthenticatedIdentities: intrinsics.Bool(true),
		CognitoIdentityProviders: []cognito.IdentityPool_CognitoIdentityProvider{{
			ClientId:     g.Client.ID(),
			ProviderName: g.UserPool.ProviderName(),
		}},
	})
	if err != nil {
		return err
	}

	guestActions := []string{"mobileanalytics:PutEvents", "cognito-sync:*"}

	unauth, err := id.CreateRole("CognitoUnAuthorizedRole", CognitoFederated(g.IdentityPool, false))
	if err != nil {
		return err
	}
	if err := id.AttachPolicy(unauth, "CognitoUnauthorizedPolicy", Allow(guestActions, "*")); err != nil {
		return err
	}

	auth, err := id.CreateRole("CognitoAuthorizedRole", CognitoFederated(g.IdentityPool, true))
	if err != nil {
		return err
	}
	err = id.AttachPolicy(auth, "CognitoAuthorizedPolicy",
		Allow([]string{"mobileanalytics:PutEvents", "cognito-sync:*", "cognito-identity:*"}, "*"),
		Allow([]string{"execute-api:Invoke"}, "*"),
	)
	if err != nil {
		return err
	}

	_, err = g.Catalog.AddIdentityPoolRoles("DefaultValid", g.IdentityPool, auth, unauth)
	return err
}

func (g *Goals) addAPI() error {
	api, err := NewAPI(g.Catalog, "AppApi", g.Config.Project)
	if err != nil {
		return err
	}
	g.API = api

	authorizer, err := api.AddAuthorizer("ApiAuthorizer", "ApiAuthorizer", g.UserPool)
	if err != nil {
		return err
	}
	auth := MethodAuth{Authorizer: authorizer}

	if _, err := api.AddMethod(api.Root(), "ANY", FunctionHandle{}, MethodAuth{}); err != nil {
		return err
	}

	goals, err := api.Root().AddResource("goals")
	if err != nil {
		return err
	}
	item, err := goals.AddResource("{id}")
	if err != nil {
		return err
	}

	routes := []struct {
		node *Node
		verb string
		fn   string
	}{
		{goals, "GET", "ListGoals"},
		{goals, "POST", "CreateGoal"},
		{item, "GET", "GetGoal"},
		{item, "PUT", "UpdateGoal"},
		{item, "DELETE", "DeleteGoal"},
	}
	for _, r := range routes {
		if _, err := api.AddMethod(r.node, r.verb, g.Functions[r.fn], auth); err != nil {
			return err
		}
	}
	for _, n := range []*Node{goals, item} {
		if _, err := api.AddCorsOptions(n); err != nil {
			return err
		}
	}

	return api.Finalize()
}

func (g *Goals) addPipeline() error {
	cfg := g.Config
	id := g.Catalog.Identity()

	// Source and build actions read and write objects, not just the buckets.
	bucketArns := []any{
		g.SourceAssets.Arn(),
		g.SourceAssets.ObjectsArn(),
		g.PipelineArtifacts.Arn(),
		g.PipelineArtifacts.ObjectsArn(),
		g.Website.Arn(),
		g.Website.ObjectsArn(),
	}

	buildRole, err := id.CreateRole("CodeBuildRole", ServicePrincipal("codebuild.amazonaws.com"), RoleName("CodeBuildRole"))
	if err != nil {
		return err
	}
	err = id.AddToRolePolicy(buildRole,
		Allow([]string{"s3:*"}, bucketArns...),
		Allow([]string{"logs:CreateLogStream", "logs:PutLogEvents", "logs:CreateLogGroup", "cloudfront:CreateInvalidation"}, "*"),
	)
	if err != nil {
		return err
	}

	pipelineRole, err := id.CreateRole("CodePipelineRole", ServicePrincipal("codepipeline.amazonaws.com"), RoleName("CodePipelineRole"))
	if err != nil {
		return err
	}
	if err := id.AddToRolePolicy(pipelineRole, Allow([]string{"s3:*"}, bucketArns...)); err != nil {
		return err
	}

	plain := func(name string, value any) codebuild.Project_EnvironmentVariable {
		return codebuild.Project_EnvironmentVariable{Name: name, Type_: "PLAINTEXT", Value: value}
	}
	g.Project, err = g.Catalog.AddBuildProject("CodeBuildProject", codebuild.Project{
		Name:        cfg.Project + "-build",
		Description: "CodeBuild Project for " + cfg.Project + ".",
		Source: codebuild.Project_Source{
			Type_:     codebuild.TypeCodePipeline,
			BuildSpec: cfg.Build.BuildSpec,
		},
		Artifacts: codebuild.Project_Artifacts{Type_: codebuild.TypeCodePipeline},
		Environment: codebuild.Project_Environment{
			Type_:                    "LINUX_CONTAINER",
			ComputeType:              cfg.Build.ComputeType,
			Image:                    cfg.Build.Image,
			ImagePullCredentialsType: "CODEBUILD",
			PrivilegedMode:           intrinsics.Bool(false),
			EnvironmentVariables: []codebuild.Project_EnvironmentVariable{
				plain("API_GATEWAY_REGION", intrinsics.AWS_REGION),
				plain("API_GATEWAY_URL", g.API.BaseURL()),
				plain("COGNITO_REGION", intrinsics.AWS_REGION),
				plain("COGNITO_USER_POOL_ID", g.UserPool.ID()),
				plain("COGNITO_APP_CLIENT_ID", g.Client.ID()),
				plain("COGNITO_IDENTITY_POOL_ID", g.IdentityPool.ID()),
				plain("WEBSITE_BUCKET", g.Website.Name()),
			},
		},
		TimeoutInMinutes: cfg.Build.TimeoutMinutes,
		Tags:             []any{intrinsics.Tag{Key: "app-name", Value: cfg.Project}},
	}, buildRole, DependsOn(buildRole.DefaultPolicyID()))
	if err != nil {
		return err
	}

	err = id.AddToRolePolicy(pipelineRole, Allow([]string{"codebuild:BatchGetBuilds", "codebuild:StartBuild"}, g.Project.Arn()))
	if err != nil {
		return err
	}

	sourceOutput := NewArtifact(cfg.Project + "-SourceArtifact")
	buildOutput := NewArtifact(cfg.Project + "-BuildArtifact")

	g.Pipeline = NewPipeline(g.Catalog, "AssetsCodePipeline", cfg.Project+"-Assets-Pipeline", pipelineRole, g.PipelineArtifacts)
	g.Pipeline.AddStage("Source").AddS3Source("s3Source", g.SourceAssets, cfg.Pipeline.AssetsKey, sourceOutput)
	g.Pipeline.AddStage("Build").AddCodeBuild("build-and-deploy", g.Project, sourceOutput, buildOutput)

	_, err = g.Pipeline.Register(DependsOn(pipelineRole.DefaultPolicyID()))
	return err
}
