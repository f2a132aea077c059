// Package codebuild contains CodeBuild descriptors.
package codebuild

// Project is an AWS::CodeBuild::Project.
// Ref returns the project name; the Arn attribute returns its ARN.
type Project struct {
	Name             any                 `json:"Name,omitempty"`
	Description      string              `json:"Description,omitempty"`
	ServiceRole      any                 `json:"ServiceRole"`
	Source           Project_Source      `json:"Source"`
	Artifacts        Project_Artifacts   `json:"Artifacts"`
	Environment      Project_Environment `json:"Environment"`
	TimeoutInMinutes int                 `json:"TimeoutInMinutes,omitempty"`
	Tags             []any               `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Project) ResourceType() string { return "AWS::CodeBuild::Project" }

// Source and artifact type used by projects driven from a pipeline.
const TypeCodePipeline = "CODEPIPELINE"

// Project_Source describes where the build input comes from.
type Project_Source struct {
	Type_     string `json:"Type"`
	BuildSpec string `json:"BuildSpec,omitempty"`
}

// Project_Artifacts describes where the build output goes.
type Project_Artifacts struct {
	Type_ string `json:"Type"`
}

// Compute types.
const (
	ComputeTypeSmall  = "BUILD_GENERAL1_SMALL"
	ComputeTypeMedium = "BUILD_GENERAL1_MEDIUM"
	ComputeTypeLarge  = "BUILD_GENERAL1_LARGE"
)

// Project_Environment is the build container.
type Project_Environment struct {
	Type_                    string                        `json:"Type"`
	ComputeType              string                        `json:"ComputeType"`
	Image                    string                        `json:"Image"`
	ImagePullCredentialsType string                        `json:"ImagePullCredentialsType,omitempty"`
	PrivilegedMode           *bool                         `json:"PrivilegedMode,omitempty"`
	EnvironmentVariables     []Project_EnvironmentVariable `json:"EnvironmentVariables,omitempty"`
}

// Project_EnvironmentVariable is one plaintext build environment variable.
type Project_EnvironmentVariable struct {
	Name  string `json:"Name"`
	Type_ string `json:"Type,omitempty"`
	Value any    `json:"Value"`
}
