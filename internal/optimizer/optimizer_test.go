package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goalstack "github.com/lex00/goalstack-go"
)

func tmpl(resources map[string]goalstack.ResourceDef) *goalstack.Template {
	return &goalstack.Template{AWSTemplateFormatVersion: "2010-09-09", Resources: resources}
}

func rules(result *Result, resource string) []string {
	var ids []string
	for _, s := range result.Suggestions {
		if s.Resource == resource {
			ids = append(ids, s.Rule)
		}
	}
	return ids
}

func TestOptimize_BareBucket(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"Data": {Type: "AWS::S3::Bucket"},
	}), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"OPT-S3-001", "OPT-S3-002", "OPT-S3-003", "OPT-S3-004"}, rules(result, "Data"))
	assert.Equal(t, Summary{Security: 2, Cost: 1, Reliability: 1, Total: 4}, result.Summary)
	assert.Equal(t, 1, result.ResourceCount)
}

func TestOptimize_HardenedBucket(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"Data": {
			Type: "AWS::S3::Bucket",
			Properties: map[string]any{
				"BucketEncryption": map[string]any{"ServerSideEncryptionConfiguration": []any{}},
				"PublicAccessBlockConfiguration": map[string]any{
					"BlockPublicAcls":       true,
					"BlockPublicPolicy":     true,
					"IgnorePublicAcls":      true,
					"RestrictPublicBuckets": true,
				},
				"VersioningConfiguration": map[string]any{"Status": "Enabled"},
				"LifecycleConfiguration":  map[string]any{"Rules": []any{}},
			},
		},
	}), Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Suggestions)
	assert.NotNil(t, result.Suggestions)
}

func TestOptimize_WebsiteBucketIsLowSeverity(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"Site": {
			Type: "AWS::S3::Bucket",
			Properties: map[string]any{
				"WebsiteConfiguration": map[string]any{"IndexDocument": "index.html"},
				"PublicAccessBlockConfiguration": map[string]any{
					"BlockPublicAcls":   true,
					"BlockPublicPolicy": false,
				},
			},
		},
	}), Options{Category: CategorySecurity})
	require.NoError(t, err)

	var block *Suggestion
	for i, s := range result.Suggestions {
		if s.Rule == "OPT-S3-002" {
			block = &result.Suggestions[i]
		}
	}
	require.NotNil(t, block)
	assert.Equal(t, "low", block.Severity)
	assert.Contains(t, block.Description, "BlockPublicPolicy, IgnorePublicAcls, RestrictPublicBuckets")
}

func TestOptimize_Function(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"Fn": {
			Type: "AWS::Lambda::Function",
			Properties: map[string]any{
				"MemorySize": 256,
				"Timeout":    120,
			},
		},
	}), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"OPT-LAM-002", "OPT-LAM-003", "OPT-LAM-004"}, rules(result, "Fn"))
	for _, s := range result.Suggestions {
		if s.Rule == "OPT-LAM-003" {
			assert.Contains(t, s.Description, "120 seconds")
		}
	}
}

func TestOptimize_PolicyWildcards(t *testing.T) {
	doc := map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{"Effect": "Allow", "Action": "dynamodb:*", "Resource": map[string]any{"Fn::GetAtt": []any{"T", "Arn"}}},
			map[string]any{"Effect": "Allow", "Action": []any{"s3:GetObject"}, "Resource": "*"},
			map[string]any{"Effect": "Deny", "Action": "*", "Resource": "*"},
		},
	}
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"P": {Type: "AWS::IAM::Policy", Properties: map[string]any{"PolicyDocument": doc}},
	}), Options{})
	require.NoError(t, err)

	require.Equal(t, []string{"OPT-IAM-001", "OPT-IAM-002"}, rules(result, "P"))
	assert.Equal(t, "The policy allows dynamodb:*.", result.Suggestions[0].Description)
}

func TestOptimize_Table(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"T": {
			Type:           "AWS::DynamoDB::Table",
			DeletionPolicy: "Delete",
			Properties: map[string]any{
				"ProvisionedThroughput": map[string]any{"ReadCapacityUnits": 1, "WriteCapacityUnits": 1},
			},
		},
		"U": {
			Type: "AWS::DynamoDB::Table",
			Properties: map[string]any{
				"BillingMode":                      "PAY_PER_REQUEST",
				"PointInTimeRecoverySpecification": map[string]any{"PointInTimeRecoveryEnabled": true},
			},
		},
	}), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"OPT-DDB-001", "OPT-DDB-002", "OPT-GEN-001"}, rules(result, "T"))
	assert.Empty(t, rules(result, "U"))
}

func TestOptimize_Distribution(t *testing.T) {
	cdn := func(policy string) goalstack.ResourceDef {
		return goalstack.ResourceDef{
			Type: "AWS::CloudFront::Distribution",
			Properties: map[string]any{
				"DistributionConfig": map[string]any{
					"DefaultCacheBehavior": map[string]any{"ViewerProtocolPolicy": policy},
				},
			},
		}
	}
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"Open":   cdn("allow-all"),
		"Secure": cdn("redirect-to-https"),
	}), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"OPT-CF-001"}, rules(result, "Open"))
	assert.Empty(t, rules(result, "Secure"))
}

func TestOptimize_CategoryFilter(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"Data": {Type: "AWS::S3::Bucket"},
		"Fn":   {Type: "AWS::Lambda::Function"},
	}), Options{Category: CategoryReliability})
	require.NoError(t, err)

	require.NotEmpty(t, result.Suggestions)
	for _, s := range result.Suggestions {
		assert.Equal(t, CategoryReliability, s.Category)
	}
	assert.Equal(t, result.Summary.Reliability, result.Summary.Total)
}

func TestOptimize_Ordered(t *testing.T) {
	result, err := Optimize(tmpl(map[string]goalstack.ResourceDef{
		"B": {Type: "AWS::S3::Bucket"},
		"A": {Type: "AWS::S3::Bucket"},
	}), Options{})
	require.NoError(t, err)
	assert.Equal(t, "A", result.Suggestions[0].Resource)
	assert.Equal(t, "B", result.Suggestions[len(result.Suggestions)-1].Resource)
}

func TestOptimize_InvalidCategory(t *testing.T) {
	_, err := Optimize(tmpl(nil), Options{Category: "speed"})
	assert.ErrorContains(t, err, "invalid category: speed")
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{"", "all", "security", "cost", "performance", "reliability"} {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("speed"))
}
