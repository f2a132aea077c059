package schema

// Property types.
const (
	TypeString  = "String"
	TypeInteger = "Integer"
	TypeBoolean = "Boolean"
	TypeList    = "List"
	TypeMap     = "Map"
	TypeJSON    = "Json"
)

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property. Min and Max bound
// numbers when Max is set.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	Min, Max      float64
}

var (
	str     = PropertySchema{Type: TypeString}
	integer = PropertySchema{Type: TypeInteger}
	boolean = PropertySchema{Type: TypeBoolean}
	list    = PropertySchema{Type: TypeList}
	object  = PropertySchema{Type: TypeMap}
	doc     = PropertySchema{Type: TypeJSON}
)

func oneOf(values ...string) PropertySchema {
	return PropertySchema{Type: TypeString, AllowedValues: values}
}

// resourceSchemas covers the resource types the goals stack renders.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::DynamoDB::Table": {
		Required: []string{"KeySchema"},
		Properties: map[string]PropertySchema{
			"TableName":                        str,
			"KeySchema":                        list,
			"AttributeDefinitions":             list,
			"BillingMode":                      oneOf("PROVISIONED", "PAY_PER_REQUEST"),
			"ProvisionedThroughput":            object,
			"PointInTimeRecoverySpecification": object,
			"SSESpecification":                 object,
			"StreamSpecification":              object,
			"Tags":                             list,
		},
	},
	"AWS::S3::Bucket": {
		Properties: map[string]PropertySchema{
			"BucketName":                     str,
			"BucketEncryption":               object,
			"PublicAccessBlockConfiguration": object,
			"VersioningConfiguration":        object,
			"WebsiteConfiguration":           object,
			"LifecycleConfiguration":         object,
			"CorsConfiguration":              object,
			"Tags":                           list,
		},
	},
	"AWS::S3::BucketPolicy": {
		Required: []string{"Bucket", "PolicyDocument"},
		Properties: map[string]PropertySchema{
			"Bucket":         str,
			"PolicyDocument": doc,
		},
	},
	"AWS::CloudFront::Distribution": {
		Required: []string{"DistributionConfig"},
		Properties: map[string]PropertySchema{
			"DistributionConfig": object,
			"Tags":               list,
		},
	},
	"AWS::Lambda::Function": {
		Required: []string{"Code", "Role"},
		Properties: map[string]PropertySchema{
			"FunctionName":     str,
			"Description":      str,
			"Handler":          str,
			"Runtime":          str,
			"Code":             object,
			"Role":             str,
			"MemorySize":       {Type: TypeInteger, Min: 128, Max: 10240},
			"Timeout":          {Type: TypeInteger, Min: 1, Max: 900},
			"Environment":      object,
			"PackageType":      oneOf("Zip", "Image"),
			"DeadLetterConfig": object,
			"TracingConfig":    object,
			"Tags":             list,
		},
	},
	"AWS::Lambda::Permission": {
		Required: []string{"Action", "FunctionName", "Principal"},
		Properties: map[string]PropertySchema{
			"Action":       str,
			"FunctionName": str,
			"Principal":    str,
			"SourceArn":    str,
		},
	},
	"AWS::IAM::Role": {
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": doc,
			"RoleName":                 str,
			"Description":              str,
			"ManagedPolicyArns":        list,
			"Policies":                 list,
			"Path":                     str,
			"Tags":                     list,
		},
	},
	"AWS::IAM::Policy": {
		Required: []string{"PolicyDocument", "PolicyName"},
		Properties: map[string]PropertySchema{
			"PolicyDocument": doc,
			"PolicyName":     str,
			"Roles":          list,
			"Users":          list,
			"Groups":         list,
		},
	},
	"AWS::Cognito::UserPool": {
		Properties: map[string]PropertySchema{
			"UserPoolName":                str,
			"AdminCreateUserConfig":       object,
			"AutoVerifiedAttributes":      list,
			"UsernameAttributes":          list,
			"Policies":                    object,
			"Schema":                      list,
			"SmsConfiguration":            object,
			"MfaConfiguration":            oneOf("OFF", "ON", "OPTIONAL"),
			"EmailVerificationMessage":    str,
			"EmailVerificationSubject":    str,
			"SmsVerificationMessage":      str,
			"VerificationMessageTemplate": object,
		},
	},
	"AWS::Cognito::UserPoolClient": {
		Required: []string{"UserPoolId"},
		Properties: map[string]PropertySchema{
			"UserPoolId":     str,
			"ClientName":     str,
			"GenerateSecret": boolean,
		},
	},
	"AWS::Cognito::IdentityPool": {
		Required: []string{"AllowUnauthenticatedIdentities"},
		Properties: map[string]PropertySchema{
			"IdentityPoolName":               str,
			"AllowUnauthenticatedIdentities": boolean,
			"CognitoIdentityProviders":       list,
		},
	},
	"AWS::Cognito::IdentityPoolRoleAttachment": {
		Required: []string{"IdentityPoolId"},
		Properties: map[string]PropertySchema{
			"IdentityPoolId": str,
			"Roles":          object,
			"RoleMappings":   object,
		},
	},
	"AWS::ApiGateway::RestApi": {
		Properties: map[string]PropertySchema{
			"Name":        str,
			"Description": str,
		},
	},
	"AWS::ApiGateway::Resource": {
		Required: []string{"ParentId", "PathPart", "RestApiId"},
		Properties: map[string]PropertySchema{
			"ParentId":  str,
			"PathPart":  str,
			"RestApiId": str,
		},
	},
	"AWS::ApiGateway::Method": {
		Required: []string{"HttpMethod", "ResourceId", "RestApiId"},
		Properties: map[string]PropertySchema{
			"HttpMethod":        oneOf("ANY", "DELETE", "GET", "HEAD", "OPTIONS", "PATCH", "POST", "PUT"),
			"ResourceId":        str,
			"RestApiId":         str,
			"AuthorizationType": oneOf("NONE", "AWS_IAM", "CUSTOM", "COGNITO_USER_POOLS"),
			"AuthorizerId":      str,
			"Integration":       object,
			"MethodResponses":   list,
		},
	},
	"AWS::ApiGateway::Authorizer": {
		Required: []string{"Name", "RestApiId", "Type"},
		Properties: map[string]PropertySchema{
			"Name":           str,
			"RestApiId":      str,
			"Type":           oneOf("TOKEN", "REQUEST", "COGNITO_USER_POOLS"),
			"IdentitySource": str,
			"ProviderARNs":   list,
		},
	},
	"AWS::ApiGateway::Deployment": {
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":   str,
			"Description": str,
		},
	},
	"AWS::ApiGateway::Stage": {
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":    str,
			"DeploymentId": str,
			"StageName":    str,
		},
	},
	"AWS::CodeBuild::Project": {
		Required: []string{"Artifacts", "Environment", "ServiceRole", "Source"},
		Properties: map[string]PropertySchema{
			"Name":             str,
			"Description":      str,
			"Artifacts":        object,
			"Environment":      object,
			"ServiceRole":      str,
			"Source":           object,
			"TimeoutInMinutes": {Type: TypeInteger, Min: 5, Max: 2160},
			"Tags":             list,
		},
	},
	"AWS::CodePipeline::Pipeline": {
		Required: []string{"RoleArn", "Stages"},
		Properties: map[string]PropertySchema{
			"Name":          str,
			"RoleArn":       str,
			"ArtifactStore": object,
			"Stages":        list,
		},
	},
}
