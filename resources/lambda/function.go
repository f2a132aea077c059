// Package lambda contains Lambda resource descriptors.
package lambda

// Function is an AWS::Lambda::Function.
// Ref returns the function name; the Arn attribute returns its ARN.
type Function struct {
	FunctionName any                   `json:"FunctionName,omitempty"`
	Description  string                `json:"Description,omitempty"`
	Runtime      string                `json:"Runtime,omitempty"`
	Handler      string                `json:"Handler,omitempty"`
	MemorySize   int                   `json:"MemorySize,omitempty"`
	Timeout      int                   `json:"Timeout,omitempty"`
	Role         any                   `json:"Role,omitempty"`
	Code         Function_Code         `json:"Code"`
	Environment  *Function_Environment `json:"Environment,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code points at the deployment package.
type Function_Code struct {
	S3Bucket any    `json:"S3Bucket,omitempty"`
	S3Key    any    `json:"S3Key,omitempty"`
	ZipFile  string `json:"ZipFile,omitempty"`
}

// Function_Environment holds environment variables.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Permission is an AWS::Lambda::Permission.
type Permission struct {
	Action       string `json:"Action"`
	FunctionName any    `json:"FunctionName"`
	Principal    string `json:"Principal"`
	SourceArn    any    `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Permission) ResourceType() string { return "AWS::Lambda::Permission" }
