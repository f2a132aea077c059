// Package optimizer reviews a rendered template and suggests security, cost,
// performance and reliability improvements.
//
// Rules inspect resource properties as they appear in the template, so a
// suggestion disappears once the stack sets the property it asks for.
package optimizer

import (
	"encoding/json"
	"fmt"
	"sort"

	goalstack "github.com/lex00/goalstack-go"
)

// Categories.
const (
	CategorySecurity    = "security"
	CategoryCost        = "cost"
	CategoryPerformance = "performance"
	CategoryReliability = "reliability"
)

// Categories lists every category in report order.
var Categories = []string{CategorySecurity, CategoryCost, CategoryPerformance, CategoryReliability}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all" (or empty) or one of Categories.
	Category string
}

// Suggestion is one proposed improvement to a resource.
type Suggestion struct {
	Rule        string `json:"rule"`
	Resource    string `json:"resource"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// Summary counts suggestions per category.
type Summary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Performance int `json:"performance"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions   []Suggestion `json:"suggestions"`
	ResourceCount int          `json:"resource_count"`
	Summary       Summary      `json:"summary"`
}

// ValidCategory reports whether category can be passed in Options.
func ValidCategory(category string) bool {
	if category == "" || category == "all" {
		return true
	}
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Optimize applies every rule to every resource of t. Suggestions are ordered
// by resource name, then rule ID.
func Optimize(t *goalstack.Template, opts Options) (*Result, error) {
	if !ValidCategory(opts.Category) {
		return nil, fmt.Errorf("invalid category: %s", opts.Category)
	}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{ResourceCount: len(names), Suggestions: []Suggestion{}}
	for _, name := range names {
		res, err := newResource(name, t.Resources[name])
		if err != nil {
			return nil, err
		}
		result.Suggestions = append(result.Suggestions, analyzeResource(res, opts.Category)...)
	}

	result.Summary = calculateSummary(result.Suggestions)
	return result, nil
}

// Resource is a template resource with its properties decoded to plain JSON
// values.
type Resource struct {
	Name       string
	Def        goalstack.ResourceDef
	Properties map[string]any
}

func newResource(name string, def goalstack.ResourceDef) (Resource, error) {
	res := Resource{Name: name, Def: def, Properties: map[string]any{}}
	if len(def.Properties) == 0 {
		return res, nil
	}
	data, err := json.Marshal(def.Properties)
	if err != nil {
		return res, fmt.Errorf("resource %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &res.Properties); err != nil {
		return res, fmt.Errorf("resource %s: %w", name, err)
	}
	return res, nil
}

func analyzeResource(res Resource, category string) []Suggestion {
	var suggestions []Suggestion
	for _, rule := range rulesFor(res.Def.Type) {
		if category != "" && category != "all" && rule.Category != category {
			continue
		}
		if s := rule.Check(res); s != nil {
			s.Rule = rule.ID
			s.Resource = res.Name
			s.Category = rule.Category
			if s.Title == "" {
				s.Title = rule.Title
			}
			suggestions = append(suggestions, *s)
		}
	}
	return suggestions
}

func calculateSummary(suggestions []Suggestion) Summary {
	var summary Summary
	for _, s := range suggestions {
		switch s.Category {
		case CategorySecurity:
			summary.Security++
		case CategoryCost:
			summary.Cost++
		case CategoryPerformance:
			summary.Performance++
		case CategoryReliability:
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}
