package lambda

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
		{"Function", Function{}, "AWS::Lambda::Function"},
		{"Permission", Permission{}, "AWS::Lambda::Permission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestFunctionSerialization(t *testing.T) {
	fn := Function{
		Runtime:    "nodejs12.x",
		Handler:    "ListGoals.handler",
		MemorySize: 256,
		Timeout:    120,
		Role:       "arn:aws:iam::123456789012:role/DynamoDbRole",
		Code:       Function_Code{S3Bucket: "code-1", S3Key: "ListGoals.zip"},
		Environment: &Function_Environment{
			Variables: map[string]any{"TABLE_NAME": "MyCdkGoals-CdkGoals"},
		},
	}

	data, err := json.Marshal(fn)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, float64(256), parsed["MemorySize"])
	assert.NotContains(t, parsed["Code"], "ZipFile")

	var back Function
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fn, back)
}
