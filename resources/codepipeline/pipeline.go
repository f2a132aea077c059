// Package codepipeline contains CodePipeline descriptors.
package codepipeline

// Pipeline is an AWS::CodePipeline::Pipeline.
type Pipeline struct {
	Name          any                    `json:"Name,omitempty"`
	RoleArn       any                    `json:"RoleArn"`
	ArtifactStore Pipeline_ArtifactStore `json:"ArtifactStore"`
	Stages        []Pipeline_Stage       `json:"Stages"`
}

// ResourceType returns the CloudFormation type.
func (Pipeline) ResourceType() string { return "AWS::CodePipeline::Pipeline" }

// Pipeline_ArtifactStore is the bucket that carries artifacts between stages.
type Pipeline_ArtifactStore struct {
	Type_    string `json:"Type"`
	Location any    `json:"Location"`
}

// Pipeline_Stage is an ordered group of actions.
type Pipeline_Stage struct {
	Name    string            `json:"Name"`
	Actions []Pipeline_Action `json:"Actions"`
}

// Action categories and providers.
const (
	CategorySource = "Source"
	CategoryBuild  = "Build"

	ProviderS3        = "S3"
	ProviderCodeBuild = "CodeBuild"
)

// Pipeline_Action is one step in a stage.
type Pipeline_Action struct {
	Name            string                    `json:"Name"`
	ActionTypeId    Pipeline_ActionTypeId     `json:"ActionTypeId"`
	Configuration   map[string]any            `json:"Configuration,omitempty"`
	InputArtifacts  []Pipeline_InputArtifact  `json:"InputArtifacts,omitempty"`
	OutputArtifacts []Pipeline_OutputArtifact `json:"OutputArtifacts,omitempty"`
	RoleArn         any                       `json:"RoleArn,omitempty"`
	RunOrder        int                       `json:"RunOrder,omitempty"`
}

// Pipeline_ActionTypeId identifies the kind of action.
type Pipeline_ActionTypeId struct {
	Category string `json:"Category"`
	Owner    string `json:"Owner"`
	Provider string `json:"Provider"`
	Version  string `json:"Version"`
}

// Pipeline_InputArtifact names an artifact an action consumes.
type Pipeline_InputArtifact struct {
	Name string `json:"Name"`
}

// Pipeline_OutputArtifact names an artifact an action produces.
type Pipeline_OutputArtifact struct {
	Name string `json:"Name"`
}
