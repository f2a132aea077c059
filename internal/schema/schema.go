// Package schema checks rendered resources against the CloudFormation
// property schemas of the resource types this stack uses, without calling
// AWS.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	goalstack "github.com/lex00/goalstack-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Error is one schema violation.
type Error struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Error
}

// ValidateTemplate validates every resource of t. Findings are ordered by
// resource and then property.
func ValidateTemplate(t *goalstack.Template, opts Options) (*Result, error) {
	result := &Result{Valid: true}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		props, err := plain(t.Resources[name].Properties)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		errs, warnings := validateResource(name, t.Resources[name].Type, props, opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// plain decodes properties into JSON values, turning typed descriptors and
// intrinsics into maps.
func plain(props map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if len(props) == 0 {
		return out, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateResource(name, resourceType string, props map[string]any, opts Options) (errs, warnings []Error) {
	if !isValidResourceType(resourceType) {
		errs = append(errs, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resourceType),
		})
		return errs, warnings
	}

	schema, ok := resourceSchemas[resourceType]
	if !ok {
		warnings = append(warnings, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resourceType),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if v, exists := props[required]; !exists || v == nil {
			errs = append(errs, Error{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, propName := range keys {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Error{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}
		errs = append(errs, validateProperty(name, propName, props[propName], propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType accepts AWS::Service::Resource and Custom::Name.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return len(resourceType) > len("Custom::")
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return false
	}
	return parts[0] == "AWS"
}

func validateProperty(resource, property string, value any, schema PropertySchema) []Error {
	var errs []Error

	if !isValidType(value, schema.Type) {
		errs = append(errs, Error{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	if s, ok := value.(string); ok && len(schema.AllowedValues) > 0 {
		found := false
		for _, allowed := range schema.AllowedValues {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, Error{
				Resource: resource,
				Property: property,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", s, schema.AllowedValues),
			})
		}
	}

	if n, ok := value.(float64); ok && schema.Max > 0 && (n < schema.Min || n > schema.Max) {
		errs = append(errs, Error{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("value %v out of range [%v, %v]", n, schema.Min, schema.Max),
		})
	}

	return errs
}

// isValidType checks a decoded JSON value against a schema type. Intrinsic
// functions match any type.
func isValidType(value any, expectedType string) bool {
	if m, ok := value.(map[string]any); ok && len(m) == 1 {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeInteger:
		n, ok := value.(float64)
		return ok && n == float64(int64(n))
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeList:
		_, ok := value.([]any)
		return ok
	case TypeMap:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
