// Package cognito contains Cognito user pool and identity pool descriptors.
package cognito

// UserPool is an AWS::Cognito::UserPool.
// Ref returns the pool ID. Attributes: Arn, ProviderName, ProviderURL.
type UserPool struct {
	UserPoolName                any                                   `json:"UserPoolName,omitempty"`
	AdminCreateUserConfig       *UserPool_AdminCreateUserConfig       `json:"AdminCreateUserConfig,omitempty"`
	UsernameAttributes          []string                              `json:"UsernameAttributes,omitempty"`
	AutoVerifiedAttributes      []string                              `json:"AutoVerifiedAttributes,omitempty"`
	Schema                      []UserPool_SchemaAttribute            `json:"Schema,omitempty"`
	Policies                    *UserPool_Policies                    `json:"Policies,omitempty"`
	EmailVerificationSubject    string                                `json:"EmailVerificationSubject,omitempty"`
	EmailVerificationMessage    string                                `json:"EmailVerificationMessage,omitempty"`
	SmsVerificationMessage      string                                `json:"SmsVerificationMessage,omitempty"`
	VerificationMessageTemplate *UserPool_VerificationMessageTemplate `json:"VerificationMessageTemplate,omitempty"`
	SmsConfiguration            *UserPool_SmsConfiguration            `json:"SmsConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (UserPool) ResourceType() string { return "AWS::Cognito::UserPool" }

// UserPool_AdminCreateUserConfig controls self sign-up.
type UserPool_AdminCreateUserConfig struct {
	AllowAdminCreateUserOnly *bool `json:"AllowAdminCreateUserOnly"`
}

// UserPool_SchemaAttribute declares a standard or custom user attribute.
type UserPool_SchemaAttribute struct {
	Name              string `json:"Name"`
	AttributeDataType string `json:"AttributeDataType,omitempty"`
	Required          *bool  `json:"Required,omitempty"`
	Mutable           *bool  `json:"Mutable,omitempty"`
}

// UserPool_Policies wraps the password policy.
type UserPool_Policies struct {
	PasswordPolicy UserPool_PasswordPolicy `json:"PasswordPolicy"`
}

// UserPool_PasswordPolicy sets password complexity requirements.
type UserPool_PasswordPolicy struct {
	MinimumLength    int   `json:"MinimumLength,omitempty"`
	RequireLowercase *bool `json:"RequireLowercase,omitempty"`
	RequireNumbers   *bool `json:"RequireNumbers,omitempty"`
	RequireSymbols   *bool `json:"RequireSymbols,omitempty"`
	RequireUppercase *bool `json:"RequireUppercase,omitempty"`
}

// ConfirmWithCode makes verification emails carry a code rather than a link.
const ConfirmWithCode = "CONFIRM_WITH_CODE"

// UserPool_VerificationMessageTemplate customises verification messages.
type UserPool_VerificationMessageTemplate struct {
	DefaultEmailOption string `json:"DefaultEmailOption,omitempty"`
	EmailMessage       string `json:"EmailMessage,omitempty"`
	EmailSubject       string `json:"EmailSubject,omitempty"`
	SmsMessage         string `json:"SmsMessage,omitempty"`
}

// UserPool_SmsConfiguration names the role Cognito assumes to send SMS.
type UserPool_SmsConfiguration struct {
	SnsCallerArn any    `json:"SnsCallerArn"`
	ExternalId   string `json:"ExternalId,omitempty"`
}

// UserPoolClient is an AWS::Cognito::UserPoolClient.
// Ref returns the client ID.
type UserPoolClient struct {
	ClientName     any   `json:"ClientName,omitempty"`
	UserPoolId     any   `json:"UserPoolId"`
	GenerateSecret *bool `json:"GenerateSecret,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (UserPoolClient) ResourceType() string { return "AWS::Cognito::UserPoolClient" }

// IdentityPool is an AWS::Cognito::IdentityPool.
// Ref returns the identity pool ID.
type IdentityPool struct {
	IdentityPoolName               any                                    `json:"IdentityPoolName,omitempty"`
	AllowUnauthenticatedIdentities *bool                                  `json:"AllowUnauthenticatedIdentities"`
	CognitoIdentityProviders       []IdentityPool_CognitoIdentityProvider `json:"CognitoIdentityProviders,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (IdentityPool) ResourceType() string { return "AWS::Cognito::IdentityPool" }

// IdentityPool_CognitoIdentityProvider links a user pool client to the identity pool.
type IdentityPool_CognitoIdentityProvider struct {
	ClientId     any `json:"ClientId"`
	ProviderName any `json:"ProviderName"`
}

// IdentityPoolRoleAttachment is an AWS::Cognito::IdentityPoolRoleAttachment.
// Roles maps "authenticated" and "unauthenticated" to role ARNs.
type IdentityPoolRoleAttachment struct {
	IdentityPoolId any            `json:"IdentityPoolId"`
	Roles          map[string]any `json:"Roles"`
}

// ResourceType returns the CloudFormation type.
func (IdentityPoolRoleAttachment) ResourceType() string {
	return "AWS::Cognito::IdentityPoolRoleAttachment"
}
