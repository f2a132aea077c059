// Package validation checks rendered templates.
//
// Three layers run in order:
//   - structural checks: every reference resolves and the dependency graph is acyclic
//   - offline schema checks: required properties, property types and allowed values
//   - cfn-lint-go: CloudFormation schema and best-practice rules (library dependency)
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/schema"
	"github.com/lex00/goalstack-go/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Options configures Validate.
type Options struct {
	// SkipLint skips cfn-lint.
	SkipLint bool
	// WarningsAsErrors fails validation on schema and cfn-lint warnings too.
	WarningsAsErrors bool
}

// Validate checks t and reports every problem found. Structural failures
// stop before cfn-lint runs, since the linter would only restate them.
func Validate(t *goalstack.Template, opts Options) (goalstack.ValidateResult, error) {
	result := goalstack.ValidateResult{Resources: len(t.Resources)}

	warn := func(msgs ...string) {
		if opts.WarningsAsErrors {
			result.Errors = append(result.Errors, msgs...)
		} else {
			result.Warnings = append(result.Warnings, msgs...)
		}
	}

	result.Errors = append(result.Errors, Structural(t)...)
	if len(result.Errors) > 0 {
		return result, nil
	}

	schemaResult, err := schema.ValidateTemplate(t, schema.Options{})
	if err != nil {
		return result, err
	}
	for _, e := range schemaResult.Errors {
		result.Errors = append(result.Errors, e.Error())
	}
	for _, w := range schemaResult.Warnings {
		warn(w.Error())
	}

	if !opts.SkipLint {
		lintResult, err := LintTemplate(t)
		if err != nil {
			return result, err
		}
		result.Errors = append(result.Errors, lintResult.Errors...)
		warn(lintResult.Warnings...)
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

// Structural returns a message for every unresolved reference and, when the
// references resolve, for a dependency cycle.
func Structural(t *goalstack.Template) []string {
	var problems []string
	if err := template.CheckReferences(t); err != nil {
		for _, e := range unjoin(err) {
			problems = append(problems, e.Error())
		}
		return problems
	}
	if _, err := template.Order(t); err != nil {
		problems = append(problems, err.Error())
	}
	return problems
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *goalstack.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	dir, err := os.MkdirTemp("", "goalstack-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// RunCfnLint runs cfn-lint-go on the given template file. A missing file or a
// linter failure is reported as a failed result rather than an error.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &CfnLintResult{
				Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
			}, nil
		}
		return nil, err
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}
	for _, match := range matches {
		formatted := formatMatch(match)
		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0
	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	if len(match.Location.Path) == 0 {
		return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
	}
	parts := make([]string, len(match.Location.Path))
	for i, p := range match.Location.Path {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, strings.Join(parts, "/"))
}
