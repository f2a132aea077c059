package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/intrinsics"
)

func validate(t *testing.T, resources map[string]goalstack.ResourceDef, opts Options) *Result {
	t.Helper()
	result, err := ValidateTemplate(&goalstack.Template{Resources: resources}, opts)
	require.NoError(t, err)
	return result
}

func TestValidateTemplate_Valid(t *testing.T) {
	result := validate(t, map[string]goalstack.ResourceDef{
		"Fn": {
			Type: "AWS::Lambda::Function",
			Properties: map[string]any{
				"Code":       map[string]any{"ZipFile": "exports.handler = () => {}"},
				"Role":       goalstack.AttrRef{Resource: "Role", Attribute: "Arn"},
				"MemorySize": int64(256),
				"Timeout":    int64(120),
			},
		},
		"Bucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": intrinsics.Ref{LogicalName: "Name"}}},
	}, Options{})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateTemplate_MissingRequired(t *testing.T) {
	result := validate(t, map[string]goalstack.ResourceDef{
		"Policy": {Type: "AWS::IAM::Policy", Properties: map[string]any{"PolicyName": "p"}},
	}, Options{})

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Policy.PolicyDocument: missing required property: PolicyDocument", result.Errors[0].Error())
}

func TestValidateTemplate_TypeMismatch(t *testing.T) {
	result := validate(t, map[string]goalstack.ResourceDef{
		"Fn": {
			Type: "AWS::Lambda::Function",
			Properties: map[string]any{
				"Code":       map[string]any{},
				"Role":       "arn",
				"MemorySize": "large",
			},
		},
	}, Options{})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "MemorySize", result.Errors[0].Property)
	assert.Equal(t, "expected type Integer", result.Errors[0].Message)
}

func TestValidateTemplate_Range(t *testing.T) {
	result := validate(t, map[string]goalstack.ResourceDef{
		"Fn": {
			Type: "AWS::Lambda::Function",
			Properties: map[string]any{
				"Code":    map[string]any{},
				"Role":    "arn",
				"Timeout": 901,
			},
		},
	}, Options{})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "out of range [1, 900]")
}

func TestValidateTemplate_AllowedValues(t *testing.T) {
	result := validate(t, map[string]goalstack.ResourceDef{
		"M": {
			Type: "AWS::ApiGateway::Method",
			Properties: map[string]any{
				"HttpMethod":        "FETCH",
				"ResourceId":        "r",
				"RestApiId":         "a",
				"AuthorizationType": "COGNITO_USER_POOLS",
			},
		},
	}, Options{})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "HttpMethod", result.Errors[0].Property)
	assert.Contains(t, result.Errors[0].Message, `value "FETCH" not in allowed values`)
}

func TestValidateTemplate_UnknownType(t *testing.T) {
	result := validate(t, map[string]goalstack.ResourceDef{
		"Topic": {Type: "AWS::SNS::Topic"},
		"Bad":   {Type: "S3Bucket"},
	}, Options{})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Bad", result.Errors[0].Resource)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Topic", result.Warnings[0].Resource)
}

func TestValidateTemplate_Strict(t *testing.T) {
	resources := map[string]goalstack.ResourceDef{
		"Bucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{"Colour": "blue"}},
	}

	assert.Empty(t, validate(t, resources, Options{}).Warnings)

	result := validate(t, resources, Options{Strict: true})
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "unknown property: Colour", result.Warnings[0].Message)
}

func TestIsValidResourceType(t *testing.T) {
	tests := map[string]bool{
		"AWS::S3::Bucket":   true,
		"Custom::Seeder":    true,
		"Custom::":          false,
		"AWS::S3":           false,
		"Alexa::ASK::Skill": false,
		"AWS::::Bucket":     false,
	}
	for in, want := range tests {
		assert.Equal(t, want, isValidResourceType(in), in)
	}
}
