package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcat_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Concat("http://", GetAtt{LogicalName: "AssetsCdn", Attribute: "DomainName"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", ["http://", {"Fn::GetAtt": ["AssetsCdn", "DomainName"]}]]}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestPrincipals_MarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		principal any
		expected  string
	}{
		{"single service", ServicePrincipal{"lambda.amazonaws.com"}, `{"Service": "lambda.amazonaws.com"}`},
		{"multiple services", ServicePrincipal{"codebuild.amazonaws.com", "codepipeline.amazonaws.com"}, `{"Service": ["codebuild.amazonaws.com", "codepipeline.amazonaws.com"]}`},
		{"federated", FederatedPrincipal{"cognito-identity.amazonaws.com"}, `{"Federated": "cognito-identity.amazonaws.com"}`},
		{"any", AWSPrincipal{AllPrincipal}, `{"AWS": "*"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.principal)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestPolicyDocument_MarshalJSON(t *testing.T) {
	doc := NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: ServicePrincipal{"lambda.amazonaws.com"},
		Action:    "sts:AssumeRole",
	})

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "lambda.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, string(data))
}

func TestBool(t *testing.T) {
	assert.False(t, *Bool(false))
	assert.True(t, *Bool(true))
}
