package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/goalstack-go/internal/naming"
)

func newRole(t *testing.T, c *Catalog, id string) RoleHandle {
	t.Helper()
	role, err := c.Identity().CreateRole(id, ServicePrincipal("lambda.amazonaws.com"))
	require.NoError(t, err)
	return role
}

func TestIdentity_CreateRoleTrustPolicy(t *testing.T) {
	c := NewCatalog(naming.New(1))
	_, err := c.Identity().CreateRole("BuildRole", ServicePrincipal("codebuild.amazonaws.com"),
		RoleName("BuildRole"), RoleDescription("builds things"))
	require.NoError(t, err)

	tmpl, err := c.Template()
	require.NoError(t, err)
	props := tmpl.Resources["BuildRole"].Properties
	assert.Equal(t, "BuildRole", props["RoleName"])
	assert.Equal(t, "builds things", props["Description"])
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "codebuild.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, jsonOf(t, props["AssumeRolePolicyDocument"]))
}

func TestIdentity_CognitoFederatedTrust(t *testing.T) {
	pool := IdentityPoolHandle{}
	pool.LogicalID = "IdentityPool"

	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Federated": "cognito-identity.amazonaws.com"},
			"Action": "sts:AssumeRoleWithWebIdentity",
			"Condition": {
				"StringEquals": {"cognito-identity.amazonaws.com:aud": {"Ref": "IdentityPool"}},
				"ForAnyValue:StringLike": {"cognito-identity.amazonaws.com:amr": "authenticated"}
			}
		}]
	}`, jsonOf(t, CognitoFederated(pool, true).trustPolicy()))

	assert.Contains(t, jsonOf(t, CognitoFederated(pool, false).trustPolicy()), `"unauthenticated"`)
}

func TestIdentity_AttachPolicyOrderIndependent(t *testing.T) {
	a := []Statement{
		Allow([]string{"s3:GetObject", "s3:PutObject"}, "arn:aws:s3:::b/*"),
		Allow([]string{"logs:PutLogEvents"}, "*"),
	}
	b := []Statement{
		Allow([]string{"logs:PutLogEvents"}, "*"),
		Allow([]string{"s3:PutObject", "s3:GetObject", "s3:GetObject"}, "arn:aws:s3:::b/*"),
	}

	render := func(groups ...[]Statement) string {
		c := NewCatalog(naming.New(1))
		role := newRole(t, c, "Role")
		for _, g := range groups {
			for _, s := range g {
				require.NoError(t, c.Identity().AddToRolePolicy(role, s))
			}
		}
		tmpl, err := c.Template()
		require.NoError(t, err)
		return jsonOf(t, tmpl.Resources["RoleDefaultPolicy"])
	}

	assert.Equal(t, render(a), render(b))
	// re-attaching the same statements is a no-op
	assert.Equal(t, render(a), render(a, b))
}

func TestIdentity_AttachPolicyAccumulates(t *testing.T) {
	c := NewCatalog(naming.New(1))
	role := newRole(t, c, "Role")
	id := c.Identity()

	require.NoError(t, id.AttachPolicy(role, "Extra", Allow([]string{"sns:publish"}, "*")))
	require.NoError(t, id.AttachPolicy(role, "Extra", Deny([]string{"s3:DeleteObject"}, "*")))

	stmts := id.Statements("Extra")
	require.Len(t, stmts, 2)
	assert.Equal(t, EffectAllow, stmts[0].Effect)
	assert.Equal(t, EffectDeny, stmts[1].Effect)

	tmpl, err := c.Template()
	require.NoError(t, err)
	policy := tmpl.Resources["Extra"]
	assert.Equal(t, "Extra", policy.Properties["PolicyName"])
	assert.JSONEq(t, `[{"Ref":"Role"}]`, jsonOf(t, policy.Properties["Roles"]))
}

func TestIdentity_AttachPolicyErrors(t *testing.T) {
	c := NewCatalog(naming.New(1))
	role := newRole(t, c, "Role")
	other := newRole(t, c, "Other")
	id := c.Identity()

	assert.Error(t, id.AttachPolicy(RoleHandle{}, "P", Allow([]string{"a:b"}, "*")))
	assert.Error(t, id.AttachPolicy(role, "P", Allow(nil, "*")))
	assert.Error(t, id.AttachPolicy(role, "P", Allow([]string{"a:b"})))
	assert.Nil(t, id.Statements("P"))

	// a policy name that collides with another resource
	assert.ErrorIs(t, id.AttachPolicy(role, "Other", Allow([]string{"a:b"}, "*")), ErrDuplicate)

	require.NoError(t, id.AttachPolicy(role, "P", Allow([]string{"a:b"}, "*")))
	assert.Error(t, id.AttachPolicy(other, "P", Allow([]string{"a:b"}, "*")))
}

func TestIdentity_FailedAttachLeavesPolicyUntouched(t *testing.T) {
	c := NewCatalog(naming.New(1))
	role := newRole(t, c, "Role")
	id := c.Identity()

	require.NoError(t, id.AttachPolicy(role, "P", Allow([]string{"a:b"}, "*")))
	err := id.AttachPolicy(role, "P",
		Allow([]string{"c:d"}, "*"),
		Allow(nil, "*"),
	)
	require.Error(t, err)
	assert.Len(t, id.Statements("P"), 1)
}

func TestStatement_Document(t *testing.T) {
	single, _, err := Allow([]string{"s3:Get*"}, "*").canonical()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Effect":"Allow","Action":"s3:Get*","Resource":"*"}`, jsonOf(t, single.document()))

	multi, _, err := Allow([]string{"b", "a", "a"}, "y", "x").canonical()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Effect":"Allow","Action":["a","b"],"Resource":["x","y"]}`, jsonOf(t, multi.document()))
}
