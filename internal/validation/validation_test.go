package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goalstack "github.com/lex00/goalstack-go"
)

func TestCfnLintResult_TotalIssues(t *testing.T) {
	tests := []struct {
		name     string
		result   CfnLintResult
		expected int
	}{
		{name: "no issues", result: CfnLintResult{}, expected: 0},
		{name: "errors only", result: CfnLintResult{Errors: []string{"a", "b"}}, expected: 2},
		{
			name: "mixed",
			result: CfnLintResult{
				Errors:        []string{"a"},
				Warnings:      []string{"b", "c"},
				Informational: []string{"d"},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.TotalIssues())
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    lint.Match
		expected string
	}{
		{
			name: "simple match",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "E1234"},
				Message: "Something is wrong",
			},
			expected: "E1234: Something is wrong",
		},
		{
			name: "match with path",
			match: lint.Match{
				Rule:     lint.MatchRule{ID: "W5678"},
				Message:  "Warning message",
				Location: lint.MatchLocation{Path: []any{"Resources", "TGoals", 0}},
			},
			expected: "W5678: Warning message (at Resources/TGoals/0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.yaml")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_ValidTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`AWSTemplateFormatVersion: '2010-09-09'
Resources:
  Site:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: goals-site
`), 0o644))

	result, err := RunCfnLint(path)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestStructural(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     *goalstack.Template
		problems int
		contains string
	}{
		{
			name: "clean",
			tmpl: &goalstack.Template{Resources: map[string]goalstack.ResourceDef{
				"A": {Type: "AWS::S3::Bucket"},
				"B": {Type: "AWS::S3::BucketPolicy", Properties: map[string]any{"Bucket": map[string]any{"Ref": "A"}}},
			}},
		},
		{
			name: "two undefined references",
			tmpl: &goalstack.Template{Resources: map[string]goalstack.ResourceDef{
				"A": {Type: "T", Properties: map[string]any{"X": map[string]any{"Ref": "Missing"}}},
				"B": {Type: "T", DependsOn: []string{"Gone"}},
			}},
			problems: 2,
			contains: "undefined reference",
		},
		{
			name: "cycle",
			tmpl: &goalstack.Template{Resources: map[string]goalstack.ResourceDef{
				"A": {Type: "T", DependsOn: []string{"B"}},
				"B": {Type: "T", DependsOn: []string{"A"}},
			}},
			problems: 1,
			contains: "A -> B -> A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Structural(tt.tmpl)
			assert.Len(t, problems, tt.problems)
			if tt.contains != "" {
				assert.Contains(t, problems[0], tt.contains)
			}
		})
	}
}

func TestValidate_StructuralFailureSkipsLint(t *testing.T) {
	tmpl := &goalstack.Template{Resources: map[string]goalstack.ResourceDef{
		"A": {Type: "T", DependsOn: []string{"Missing"}},
	}}

	result, err := Validate(tmpl, Options{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Resources)
	assert.Len(t, result.Errors, 1)
}

func TestValidate_SkipLint(t *testing.T) {
	tmpl := &goalstack.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources:                map[string]goalstack.ResourceDef{"A": {Type: "AWS::S3::Bucket"}},
	}

	result, err := Validate(tmpl, Options{SkipLint: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
}

func TestValidate_SchemaErrors(t *testing.T) {
	tmpl := &goalstack.Template{Resources: map[string]goalstack.ResourceDef{
		"Fn": {Type: "AWS::Lambda::Function", Properties: map[string]any{"Runtime": "nodejs12.x"}},
	}}

	result, err := Validate(tmpl, Options{SkipLint: true})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{
		"Fn.Code: missing required property: Code",
		"Fn.Role: missing required property: Role",
	}, result.Errors)
}

func TestValidate_SchemaWarnings(t *testing.T) {
	tmpl := &goalstack.Template{Resources: map[string]goalstack.ResourceDef{
		"Topic": {Type: "AWS::SNS::Topic"},
	}}

	result, err := Validate(tmpl, Options{SkipLint: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "unknown resource type: AWS::SNS::Topic")

	result, err = Validate(tmpl, Options{SkipLint: true, WarningsAsErrors: true})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 1)
}
