package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any, used for Condition blocks.
type Json = map[string]any

// PolicyVersion is the IAM policy language version written into every document.
const PolicyVersion = "2012-10-17"

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument holding the given statements.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// ServicePrincipal represents a service principal (e.g., lambda.amazonaws.com).
// Serializes to {"Service": ...}.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	return marshalPrincipal("Service", p)
}

// AWSPrincipal represents an account, role or user principal, or "*".
// Serializes to {"AWS": ...}.
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	return marshalPrincipal("AWS", p)
}

// FederatedPrincipal represents a federated identity provider such as
// cognito-identity.amazonaws.com. Serializes to {"Federated": ...}.
type FederatedPrincipal []any

// MarshalJSON serializes to {"Federated": ...} format.
func (p FederatedPrincipal) MarshalJSON() ([]byte, error) {
	return marshalPrincipal("Federated", p)
}

func marshalPrincipal(kind string, values []any) ([]byte, error) {
	if len(values) == 1 {
		return json.Marshal(map[string]any{kind: values[0]})
	}
	return json.Marshal(map[string]any{kind: values})
}

// AllPrincipal represents the wildcard principal "*".
const AllPrincipal = "*"

// IAM condition operators used in trust policies.
const (
	StringEquals          = "StringEquals"
	StringLike            = "StringLike"
	ForAnyValueStringLike = "ForAnyValue:StringLike"
)
