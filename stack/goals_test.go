package stack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/config"
	"github.com/lex00/goalstack-go/internal/naming"
	"github.com/lex00/goalstack-go/internal/template"
)

func buildGoals(t *testing.T, cfg config.Config, seed uint64) (*Goals, *goalstack.Template) {
	t.Helper()
	g, err := NewGoals(cfg, naming.New(seed))
	require.NoError(t, err)
	tmpl, err := g.Template()
	require.NoError(t, err)
	return g, tmpl
}

func resourcesOfType(tmpl *goalstack.Template, typ string) []string {
	var ids []string
	for id, r := range tmpl.Resources {
		if r.Type == typ {
			ids = append(ids, id)
		}
	}
	return ids
}

func TestGoals_ProjectNaming(t *testing.T) {
	cfg := config.Default()
	cfg.Project = "Acme"
	_, tmpl := buildGoals(t, cfg, 1)

	assert.Equal(t, "Acme-CdkGoals", tmpl.Resources["TGoals"].Properties["TableName"])
	assert.Equal(t, "Acme", tmpl.Resources["AppApi"].Properties["Name"])
	for _, f := range GoalFunctions {
		fn := tmpl.Resources["Function"+f.Name]
		assert.Equal(t, "Acme-"+f.Name, fn.Properties["FunctionName"])
		assert.Equal(t, f.Name+".handler", fn.Properties["Handler"])
	}
	assert.Equal(t, "Acme-UserPool", tmpl.Resources["UserPool"].Properties["UserPoolName"])
	assert.Equal(t, "Acme-Assets-Pipeline", tmpl.Resources["AssetsCodePipeline"].Properties["Name"])
}

func TestGoals_Table(t *testing.T) {
	_, tmpl := buildGoals(t, config.Default(), 1)

	table := tmpl.Resources["TGoals"]
	assert.Equal(t, "AWS::DynamoDB::Table", table.Type)
	assert.Equal(t, template.PolicyDelete, table.DeletionPolicy)
	assert.Equal(t, template.PolicyDelete, table.UpdateReplacePolicy)
	assert.JSONEq(t, `[
		{"AttributeName":"userId","KeyType":"HASH"},
		{"AttributeName":"goalId","KeyType":"RANGE"}
	]`, jsonOf(t, table.Properties["KeySchema"]))
	assert.JSONEq(t, `{"ReadCapacityUnits":1,"WriteCapacityUnits":1}`, jsonOf(t, table.Properties["ProvisionedThroughput"]))
}

func TestGoals_FunctionsShareTable(t *testing.T) {
	g, tmpl := buildGoals(t, config.Default(), 1)
	require.Len(t, g.Functions, 5)

	for _, f := range GoalFunctions {
		fn := tmpl.Resources["Function"+f.Name]
		assert.JSONEq(t, `{"Variables":{"TABLE_NAME":{"Ref":"TGoals"}}}`, jsonOf(t, fn.Properties["Environment"]), f.Name)
		assert.JSONEq(t, `{"Ref":"FunctionCodeBucket"}`, jsonOf(t, fn.Properties["Code"].(map[string]any)["S3Bucket"]))
	}
}

func TestGoals_FunctionRoles(t *testing.T) {
	g, tmpl := buildGoals(t, config.Default(), 1)

	for name, fn := range g.Functions {
		// a function waits for the policy that grants it the table
		assert.Contains(t, tmpl.Resources["Function"+name].DependsOn, fn.Role().DefaultPolicyID(), name)
		if name == "GetGoal" {
			assert.Equal(t, "FunctionGetGoalServiceRole", fn.Role().LogicalID)
			continue
		}
		assert.Equal(t, "DynamoDbRole", fn.Role().LogicalID, name)
	}

	// every function role can reach the table
	for _, role := range []string{"DynamoDbRole", "FunctionGetGoalServiceRole"} {
		stmts := g.Catalog.Identity().Statements(role + "DefaultPolicy")
		require.Len(t, stmts, 1, role)
		assert.Contains(t, stmts[0].Actions, "dynamodb:GetItem")
		assert.JSONEq(t, `[{"Fn::GetAtt":["TGoals","Arn"]}]`, jsonOf(t, stmts[0].Resources))
	}
	assert.Contains(t, jsonOf(t, tmpl.Resources["GoalsPolicy"]), `"dynamodb:*"`)
}

func TestGoals_Buckets(t *testing.T) {
	g, tmpl := buildGoals(t, config.Default(), 1)

	names := make(map[string]bool)
	for id, name := range g.BucketNames {
		assert.Equal(t, name, tmpl.Resources[id].Properties["BucketName"])
		names[name] = true
	}
	assert.Len(t, names, 3)
	assert.True(t, strings.HasPrefix(g.BucketNames["WebsiteBucket"], WebsiteBucketPrefix+"-"))

	policy := tmpl.Resources["WebsiteBucketPolicy"]
	assert.Contains(t, jsonOf(t, policy.Properties["PolicyDocument"]), `"Action":"s3:Get*"`)

	website := tmpl.Resources["WebsiteBucket"].Properties
	assert.JSONEq(t, `{"IndexDocument":"index.html","ErrorDocument":"index.html"}`, jsonOf(t, website["WebsiteConfiguration"]))
}

func TestGoals_API(t *testing.T) {
	g, tmpl := buildGoals(t, config.Default(), 1)

	methods := resourcesOfType(tmpl, "AWS::ApiGateway::Method")
	assert.ElementsMatch(t, []string{
		"AppApiANY",
		"AppApigoalsGET", "AppApigoalsPOST", "AppApigoalsOPTIONS",
		"AppApigoalsidGET", "AppApigoalsidPUT", "AppApigoalsidDELETE", "AppApigoalsidOPTIONS",
	}, methods)
	assert.ElementsMatch(t, methods, g.API.Methods())

	for _, id := range []string{"AppApigoalsOPTIONS", "AppApigoalsidOPTIONS"} {
		integration := jsonOf(t, tmpl.Resources[id].Properties["Integration"])
		assert.Contains(t, integration, `"StatusCode":"200"`)
		for _, header := range []string{"Headers", "Origin", "Credentials", "Methods"} {
			assert.Contains(t, integration, "Access-Control-Allow-"+header)
		}
	}

	routes := map[string]string{
		"AppApigoalsGET":      "FunctionListGoals",
		"AppApigoalsPOST":     "FunctionCreateGoal",
		"AppApigoalsidGET":    "FunctionGetGoal",
		"AppApigoalsidPUT":    "FunctionUpdateGoal",
		"AppApigoalsidDELETE": "FunctionDeleteGoal",
	}
	for method, fn := range routes {
		props := tmpl.Resources[method].Properties
		assert.Equal(t, "COGNITO_USER_POOLS", props["AuthorizationType"], method)
		assert.Contains(t, jsonOf(t, props["Integration"]), "${"+fn+".Arn}", method)
		assert.Contains(t, tmpl.Resources, method+"Permission")
	}

	assert.Len(t, tmpl.Resources["AppApiDeployment"].DependsOn, len(methods))
}

func TestGoals_Identity(t *testing.T) {
	g, tmpl := buildGoals(t, config.Default(), 1)
	id := g.Catalog.Identity()

	actions := func(policy string) map[string]bool {
		set := make(map[string]bool)
		for _, s := range id.Statements(policy) {
			for _, a := range s.Actions {
				set[a] = true
			}
		}
		return set
	}
	guest := actions("CognitoUnauthorizedPolicy")
	member := actions("CognitoAuthorizedPolicy")
	for a := range guest {
		assert.True(t, member[a], "authenticated identities lack %s", a)
	}
	assert.Greater(t, len(member), len(guest))
	assert.True(t, member["execute-api:Invoke"])

	attachment := tmpl.Resources["DefaultValid"].Properties
	assert.JSONEq(t, `{
		"authenticated": {"Fn::GetAtt":["CognitoAuthorizedRole","Arn"]},
		"unauthenticated": {"Fn::GetAtt":["CognitoUnAuthorizedRole","Arn"]}
	}`, jsonOf(t, attachment["Roles"]))

	pool := tmpl.Resources["UserPool"]
	assert.Equal(t, []string{"CognitoSnsPolicy"}, pool.DependsOn)
	assert.JSONEq(t, `{"SnsCallerArn":{"Fn::GetAtt":["SnsRole","Arn"]}}`, jsonOf(t, pool.Properties["SmsConfiguration"]))

	identityPool := tmpl.Resources["IdentityPool"].Properties
	assert.Equal(t, true, identityPool["AllowUnauthenticatedIdentities"])
}

func TestGoals_Pipeline(t *testing.T) {
	cfg := config.Default()
	_, tmpl := buildGoals(t, cfg, 1)

	pipeline := tmpl.Resources["AssetsCodePipeline"]
	assert.Equal(t, []string{"CodePipelineRoleDefaultPolicy"}, pipeline.DependsOn)

	stages, ok := pipeline.Properties["Stages"].([]any)
	require.True(t, ok)
	require.Len(t, stages, 2)

	source := stages[0].(map[string]any)
	build := stages[1].(map[string]any)
	assert.Equal(t, "Source", source["Name"])
	assert.Equal(t, "Build", build["Name"])

	sourceAction := source["Actions"].([]any)[0].(map[string]any)
	buildAction := build["Actions"].([]any)[0].(map[string]any)
	assert.Equal(t, jsonOf(t, sourceAction["OutputArtifacts"]), jsonOf(t, buildAction["InputArtifacts"]))
	assert.JSONEq(t, `[{"Name":"MyCdkGoals-SourceArtifact"}]`, jsonOf(t, buildAction["InputArtifacts"]))
	assert.Equal(t, cfg.Pipeline.AssetsKey, sourceAction["Configuration"].(map[string]any)["S3ObjectKey"])

	project := tmpl.Resources["CodeBuildProject"].Properties
	env := jsonOf(t, project["Environment"])
	for _, name := range []string{
		"API_GATEWAY_REGION", "API_GATEWAY_URL", "COGNITO_REGION", "COGNITO_USER_POOL_ID",
		"COGNITO_APP_CLIENT_ID", "COGNITO_IDENTITY_POOL_ID", "WEBSITE_BUCKET",
	} {
		assert.Contains(t, env, `"Name":"`+name+`"`)
	}

	policy := jsonOf(t, tmpl.Resources["CodePipelineRoleDefaultPolicy"])
	assert.Contains(t, policy, "codebuild:StartBuild")
	assert.Contains(t, policy, `{"Fn::GetAtt":["CodeBuildProject","Arn"]}`)

	// both roles reach the objects the source and build actions move
	for _, p := range []string{"CodePipelineRoleDefaultPolicy", "CodeBuildRoleDefaultPolicy"} {
		policy := jsonOf(t, tmpl.Resources[p])
		for _, bucket := range []string{"SourceAssetBucket", "PipelineArtifactsBucket", "WebsiteBucket"} {
			assert.Contains(t, policy, `{"Fn::GetAtt":["`+bucket+`","Arn"]}`, p)
			assert.Contains(t, policy, `{"Fn::Join":["",[{"Fn::GetAtt":["`+bucket+`","Arn"]},"/*"]]}`, p)
		}
	}
}

func TestGoals_Outputs(t *testing.T) {
	_, tmpl := buildGoals(t, config.Default(), 1)

	require.Len(t, tmpl.Outputs, 2)
	assert.JSONEq(t, `{"Fn::GetAtt":["WebsiteBucket","WebsiteURL"]}`, jsonOf(t, tmpl.Outputs[OutputWebsiteBucketURL].Value))
	assert.JSONEq(t, `{"Fn::Join":["",["http://",{"Fn::GetAtt":["AssetsCdn","DomainName"]}]]}`, jsonOf(t, tmpl.Outputs[OutputCloudFrontCdnURL].Value))
}

func TestGoals_Deterministic(t *testing.T) {
	render := func(seed uint64) string {
		_, tmpl := buildGoals(t, config.Default(), seed)
		data, err := template.ToJSON(tmpl)
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, render(42), render(42))
	assert.NotEqual(t, render(42), render(43))
}

func TestGoals_OrderedAndAcyclic(t *testing.T) {
	_, tmpl := buildGoals(t, config.Default(), 1)

	order, err := template.Order(tmpl)
	require.NoError(t, err)
	assert.Len(t, order, len(tmpl.Resources))

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["TGoals"], pos["FunctionListGoals"])
	assert.Less(t, pos["UserPool"], pos["ApiAuthorizer"])
	assert.Less(t, pos["CodeBuildProject"], pos["AssetsCodePipeline"])
}

func TestGoals_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Project = ""
	_, err := NewGoals(cfg, naming.New(1))
	assert.ErrorIs(t, err, config.ErrInvalid)
}
