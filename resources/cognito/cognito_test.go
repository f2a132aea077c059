package cognito

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
		{"UserPool", UserPool{}, "AWS::Cognito::UserPool"},
		{"UserPoolClient", UserPoolClient{}, "AWS::Cognito::UserPoolClient"},
		{"IdentityPool", IdentityPool{}, "AWS::Cognito::IdentityPool"},
		{"IdentityPoolRoleAttachment", IdentityPoolRoleAttachment{}, "AWS::Cognito::IdentityPoolRoleAttachment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestUserPoolSerialization(t *testing.T) {
	on, off := true, false
	pool := UserPool{
		UserPoolName:           "goals-users",
		AdminCreateUserConfig:  &UserPool_AdminCreateUserConfig{AllowAdminCreateUserOnly: &off},
		UsernameAttributes:     []string{"email"},
		AutoVerifiedAttributes: []string{"email"},
		Schema: []UserPool_SchemaAttribute{
			{Name: "email", Required: &on, Mutable: &on},
		},
		Policies: &UserPool_Policies{PasswordPolicy: UserPool_PasswordPolicy{
			MinimumLength:    8,
			RequireLowercase: &on,
			RequireSymbols:   &off,
		}},
		VerificationMessageTemplate: &UserPool_VerificationMessageTemplate{
			DefaultEmailOption: ConfirmWithCode,
			EmailSubject:       "Verify your email",
		},
		SmsConfiguration: &UserPool_SmsConfiguration{SnsCallerArn: "arn:aws:iam::123456789012:role/sms"},
	}

	data, err := json.Marshal(pool)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"AllowAdminCreateUserOnly":false`)
	assert.Contains(t, string(data), `"RequireSymbols":false`)
	assert.NotContains(t, string(data), "ExternalId")

	var back UserPool
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, pool, back)
}

func TestIdentityPool_ExplicitFalse(t *testing.T) {
	off := false
	data, err := json.Marshal(IdentityPool{AllowUnauthenticatedIdentities: &off})
	require.NoError(t, err)

	assert.JSONEq(t, `{"AllowUnauthenticatedIdentities":false}`, string(data))
}
