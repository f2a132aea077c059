package stack

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/intrinsics"
	"github.com/lex00/goalstack-go/resources/iam"
)

// Effect is the outcome of a policy statement.
type Effect string

// Statement effects.
const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Statement grants or denies a set of actions on a set of resources. Order
// within Actions and Resources carries no meaning.
type Statement struct {
	Effect    Effect
	Actions   []string
	Resources []any
}

// Allow returns an Allow statement.
func Allow(actions []string, resources ...any) Statement {
	return Statement{Effect: EffectAllow, Actions: actions, Resources: resources}
}

// Deny returns a Deny statement.
func Deny(actions []string, resources ...any) Statement {
	return Statement{Effect: EffectDeny, Actions: actions, Resources: resources}
}

// canonical returns the statement with sorted, de-duplicated actions and
// resources, plus a key identifying it.
func (s Statement) canonical() (Statement, string, error) {
	actions := slices.Clone(s.Actions)
	sort.Strings(actions)
	actions = slices.Compact(actions)

	type keyed struct {
		key   string
		value any
	}
	var resources []keyed
	seen := make(map[string]bool, len(s.Resources))
	for _, r := range s.Resources {
		data, err := json.Marshal(r)
		if err != nil {
			return Statement{}, "", fmt.Errorf("statement resource: %w", err)
		}
		if seen[string(data)] {
			continue
		}
		seen[string(data)] = true
		resources = append(resources, keyed{string(data), r})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].key < resources[j].key })

	out := Statement{Effect: s.Effect, Actions: actions}
	key := string(s.Effect)
	for _, a := range actions {
		key += "|" + a
	}
	key += "#"
	for _, r := range resources {
		out.Resources = append(out.Resources, r.value)
		key += "|" + r.key
	}
	return out, key, nil
}

func (s Statement) document() intrinsics.PolicyStatement {
	stmt := intrinsics.PolicyStatement{Effect: string(s.Effect)}
	if len(s.Actions) == 1 {
		stmt.Action = s.Actions[0]
	} else {
		stmt.Action = s.Actions
	}
	if len(s.Resources) == 1 {
		stmt.Resource = s.Resources[0]
	} else {
		stmt.Resource = s.Resources
	}
	return stmt
}

// Principal is the entity a role trusts to assume it.
type Principal struct {
	principal  any
	action     string
	conditions intrinsics.Json
}

// ServicePrincipal trusts an AWS service, such as lambda.amazonaws.com.
func ServicePrincipal(service string) Principal {
	return Principal{principal: intrinsics.ServicePrincipal{service}, action: "sts:AssumeRole"}
}

// FederatedPrincipal trusts a federated identity provider under conditions.
func FederatedPrincipal(provider string, conditions intrinsics.Json, assumeAction string) Principal {
	return Principal{
		principal:  intrinsics.FederatedPrincipal{provider},
		action:     assumeAction,
		conditions: conditions,
	}
}

const cognitoIdentity = "cognito-identity.amazonaws.com"

// CognitoFederated trusts identities of pool: authenticated ones when
// authenticated is true, guests otherwise.
func CognitoFederated(pool IdentityPoolHandle, authenticated bool) Principal {
	amr := "unauthenticated"
	if authenticated {
		amr = "authenticated"
	}
	return FederatedPrincipal(cognitoIdentity, intrinsics.Json{
		intrinsics.StringEquals: intrinsics.Json{
			cognitoIdentity + ":aud": pool.ID(),
		},
		intrinsics.ForAnyValueStringLike: intrinsics.Json{
			cognitoIdentity + ":amr": amr,
		},
	}, "sts:AssumeRoleWithWebIdentity")
}

func (p Principal) trustPolicy() intrinsics.PolicyDocument {
	return intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
		Effect:    string(EffectAllow),
		Principal: p.principal,
		Action:    p.action,
		Condition: p.conditions,
	})
}

// RoleOption customises a role created by CreateRole.
type RoleOption func(*iam.Role)

// RoleName fixes the physical role name.
func RoleName(name string) RoleOption {
	return func(r *iam.Role) { r.RoleName = name }
}

// ManagedPolicies attaches managed policies by ARN.
func ManagedPolicies(arns ...any) RoleOption {
	return func(r *iam.Role) { r.ManagedPolicyArns = append(r.ManagedPolicyArns, arns...) }
}

// RoleDescription sets the role description.
func RoleDescription(description string) RoleOption {
	return func(r *iam.Role) { r.Description = description }
}

// RoleHandle identifies an IAM role.
type RoleHandle struct{ goalstack.Handle }

// Name resolves to the role name.
func (h RoleHandle) Name() intrinsics.Ref { return h.Ref() }

// Arn resolves to the role ARN.
func (h RoleHandle) Arn() goalstack.AttrRef { return h.Attr("Arn") }

// DefaultPolicyID is the logical ID of the policy AddToRolePolicy writes to.
func (h RoleHandle) DefaultPolicyID() string { return h.LogicalID + "DefaultPolicy" }

// Identity composes IAM roles and the inline policies attached to them.
// Policies accumulate: every AttachPolicy call for the same policy adds to one
// statement set, and the rendered policy does not depend on call order.
type Identity struct {
	catalog  *Catalog
	policies map[string]*policyEntry
}

type policyEntry struct {
	role       RoleHandle
	name       string
	statements map[string]Statement
}

// CreateRole registers a role that principal may assume.
func (i *Identity) CreateRole(logicalID string, principal Principal, opts ...RoleOption) (RoleHandle, error) {
	role := iam.Role{AssumeRolePolicyDocument: principal.trustPolicy()}
	for _, opt := range opts {
		opt(&role)
	}
	h, err := i.catalog.Add(logicalID, role)
	if err != nil {
		return RoleHandle{}, err
	}
	return RoleHandle{h}, nil
}

// AttachPolicy adds statements to the inline policy named policyName on role.
// The policy is registered under the logical ID policyName; attaching a policy
// of the same name to a different role is an error.
func (i *Identity) AttachPolicy(role RoleHandle, policyName string, statements ...Statement) error {
	if role.IsZero() {
		return fmt.Errorf("policy %s: no role", policyName)
	}

	p, ok := i.policies[policyName]
	if !ok {
		if i.catalog.builder.Has(policyName) {
			return fmt.Errorf("%w: %s", ErrDuplicate, policyName)
		}
		p = &policyEntry{role: role, name: policyName, statements: make(map[string]Statement)}
	} else if p.role.LogicalID != role.LogicalID {
		return fmt.Errorf("policy %s is attached to %s, not %s", policyName, p.role.LogicalID, role.LogicalID)
	}

	added := make(map[string]Statement, len(statements))
	for _, s := range statements {
		if len(s.Actions) == 0 || len(s.Resources) == 0 {
			return fmt.Errorf("policy %s: statement needs actions and resources", policyName)
		}
		if s.Effect == "" {
			s.Effect = EffectAllow
		}
		canon, key, err := s.canonical()
		if err != nil {
			return fmt.Errorf("policy %s: %w", policyName, err)
		}
		added[key] = canon
	}
	for key, s := range added {
		p.statements[key] = s
	}

	i.policies[policyName] = p
	return i.catalog.builder.Put(policyName, p.resource())
}

// AddToRolePolicy adds statements to the role's default policy,
// "<role>DefaultPolicy".
func (i *Identity) AddToRolePolicy(role RoleHandle, statements ...Statement) error {
	return i.AttachPolicy(role, role.DefaultPolicyID(), statements...)
}

// Statements returns the canonical statements of a policy, or nil if no
// policy of that name exists.
func (i *Identity) Statements(policyName string) []Statement {
	p, ok := i.policies[policyName]
	if !ok {
		return nil
	}
	return p.sorted()
}

func (p *policyEntry) sorted() []Statement {
	keys := make([]string, 0, len(p.statements))
	for k := range p.statements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Statement, len(keys))
	for n, k := range keys {
		out[n] = p.statements[k]
	}
	return out
}

func (p *policyEntry) resource() iam.Policy {
	stmts := p.sorted()
	doc := make([]any, len(stmts))
	for n, s := range stmts {
		doc[n] = s.document()
	}
	return iam.Policy{
		PolicyName:     p.name,
		PolicyDocument: intrinsics.NewPolicyDocument(doc...),
		Roles:          []any{p.role.Name()},
	}
}
