package iam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goalstack "github.com/lex00/goalstack-go"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		resource goalstack.Resource
		expected string
	}{
		{"Role", Role{}, "AWS::IAM::Role"},
		{"Policy", Policy{}, "AWS::IAM::Policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestRoleSerialization(t *testing.T) {
	role := Role{
		AssumeRolePolicyDocument: map[string]any{
			"Version": "2012-10-17",
			"Statement": []any{map[string]any{
				"Effect":    "Allow",
				"Principal": map[string]any{"Service": "lambda.amazonaws.com"},
				"Action":    "sts:AssumeRole",
			}},
		},
		ManagedPolicyArns: []any{"arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"},
	}

	data, err := json.Marshal(role)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.NotContains(t, parsed, "RoleName")
	assert.NotContains(t, parsed, "Tags")

	var back Role
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, role, back)
}
