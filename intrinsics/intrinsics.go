// Package intrinsics provides the CloudFormation intrinsic functions used when one
// resource descriptor references another.
//
// The core types come from cloudformation-schema-go:
//
//	Ref{LogicalName: "TGoals"}               → {"Ref": "TGoals"}
//	GetAtt{LogicalName: "TGoals", Attribute: "Arn"}
//	Sub{String: "${AWS::StackName}-build"}  → {"Fn::Sub": "..."}
//	Join{Delimiter: "", Values: []any{...}} → {"Fn::Join": ["", [...]]}
//
// This package adds IAM policy document types and small pointer helpers for
// optional descriptor fields.
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// Pseudo-parameters resolved by CloudFormation for the stack being deployed.
var (
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID
	AWS_PARTITION  = intrinsics.AWS_PARTITION
	AWS_REGION     = intrinsics.AWS_REGION
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME
	AWS_URL_SUFFIX = intrinsics.AWS_URL_SUFFIX
)

// Concat joins values with an empty delimiter, the usual way to assemble ARNs and
// URLs from literals and references.
func Concat(values ...any) Join {
	return Join{Delimiter: "", Values: values}
}

// Bool returns a pointer to b. Descriptor fields that must be able to carry an
// explicit false are typed *bool.
func Bool(b bool) *bool {
	return &b
}
