package codepipeline

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
		{"Pipeline", Pipeline{}, "AWS::CodePipeline::Pipeline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestPipelineSerialization(t *testing.T) {
	pipeline := Pipeline{
		RoleArn:       "arn:aws:iam::123456789012:role/CodePipelineRole",
		ArtifactStore: Pipeline_ArtifactStore{Type_: "S3", Location: "artifacts-1"},
		Stages: []Pipeline_Stage{
			{Name: "Source", Actions: []Pipeline_Action{{
				Name:            "S3Source",
				ActionTypeId:    Pipeline_ActionTypeId{Category: CategorySource, Owner: "AWS", Provider: ProviderS3, Version: "1"},
				Configuration:   map[string]any{"S3Bucket": "assets-1", "S3ObjectKey": "assets.zip"},
				OutputArtifacts: []Pipeline_OutputArtifact{{Name: "SourceOutput"}},
				RunOrder:        1,
			}}},
			{Name: "Build", Actions: []Pipeline_Action{{
				Name:           "Build",
				ActionTypeId:   Pipeline_ActionTypeId{Category: CategoryBuild, Owner: "AWS", Provider: ProviderCodeBuild, Version: "1"},
				Configuration:  map[string]any{"ProjectName": "goals-build"},
				InputArtifacts: []Pipeline_InputArtifact{{Name: "SourceOutput"}},
			}}},
		},
	}

	data, err := json.Marshal(pipeline)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	stages := parsed["Stages"].([]any)
	require.Len(t, stages, 2)
	build := stages[1].(map[string]any)["Actions"].([]any)[0].(map[string]any)
	assert.NotContains(t, build, "RunOrder")
	assert.NotContains(t, build, "OutputArtifacts")

	var back Pipeline
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, pipeline, back)
}
