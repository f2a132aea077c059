// Package iam contains IAM resource descriptors.
package iam

// Role is an AWS::IAM::Role.
// Ref returns the role name; the Arn attribute returns the role ARN.
type Role struct {
	RoleName                 any    `json:"RoleName,omitempty"`
	Description              string `json:"Description,omitempty"`
	AssumeRolePolicyDocument any    `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any  `json:"ManagedPolicyArns,omitempty"`
	Tags                     []any  `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Role) ResourceType() string { return "AWS::IAM::Role" }

// Policy is an AWS::IAM::Policy attached to one or more roles.
type Policy struct {
	PolicyName     string `json:"PolicyName"`
	PolicyDocument any    `json:"PolicyDocument"`
	Roles          []any  `json:"Roles,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Policy) ResourceType() string { return "AWS::IAM::Policy" }
