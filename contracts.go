// Package goalstack declares the serverless "goals" application stack in Go and
// renders it as an AWS CloudFormation template.
//
// Resources are typed descriptors from the resources/<service> packages. They are
// registered with a stack.Catalog, which hands back immutable handles used to
// reference one resource from another:
//
//	table, _ := catalog.AddTable("TGoals", dynamodb.Table{TableName: "goals"})
//	fn, _ := catalog.AddFunction("FunctionListGoals", lambda.Function{
//	    Environment: &lambda.Function_Environment{
//	        Variables: map[string]any{"TABLE_NAME": table.Name()},
//	    },
//	})
//
// The goalstack CLI renders the catalog into CloudFormation JSON or YAML and can
// deploy it.
package goalstack

import (
	"encoding/json"

	"github.com/lex00/goalstack-go/intrinsics"
)

// Resource represents a CloudFormation resource.
// All descriptor types (s3.Bucket, iam.Role, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::S3::Bucket")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["MyRole", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "DomainName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Handle identifies a registered resource. Handles are values; copying one never
// changes the resource it points at.
type Handle struct {
	// LogicalID is the CloudFormation logical ID
	LogicalID string
	// Type is the CloudFormation resource type
	Type string
}

// Ref returns a Ref to the resource. What a Ref resolves to depends on the type:
// a bucket name, a table name, a function name, a REST API ID, and so on.
func (h Handle) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: h.LogicalID}
}

// Attr returns a GetAtt reference to one of the resource's attributes.
func (h Handle) Attr(attribute string) AttrRef {
	return AttrRef{Resource: h.LogicalID, Attribute: attribute}
}

// IsZero reports whether the handle was never assigned.
func (h Handle) IsZero() bool {
	return h.LogicalID == ""
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type        string `json:"Type" yaml:"Type"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default     any    `json:"Default,omitempty" yaml:"Default,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
}

// BuildResult is the JSON output from `goalstack build --format result`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `goalstack validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `goalstack list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// DiffEntry describes one added, removed or modified resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff groups resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
	Outputs  []string    `json:"outputs,omitempty"`
}

// DiffSummary counts the differences.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
