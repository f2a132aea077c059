// Package serialize turns typed resource descriptors into CloudFormation
// property maps.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Properties serializes a descriptor struct into CloudFormation properties.
//
// Field names come from the json tag (falling back to the Go field name).
// Nil pointers, empty strings, empty collections and zero numbers are omitted;
// fields that must carry an explicit false are typed *bool. Values that
// implement json.Marshaler (intrinsics, AttrRef, principals) are emitted in
// their marshaled form.
func Properties(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("serialize: expected struct, got %s", val.Kind())
	}

	return structFields(val)
}

func structFields(val reflect.Value) (map[string]any, error) {
	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		fieldVal := val.Field(i)
		if omit(fieldVal) {
			continue
		}

		out, err := value(fieldVal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if out != nil {
			result[name] = out
		}
	}

	return result, nil
}

// fieldName returns the property name for a struct field.
func fieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}
	return name
}

func omit(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
			return zeroer.IsZero()
		}
	}
	return false
}

// Value serializes an arbitrary property value: structs become property maps,
// intrinsics become their CloudFormation form, collections are walked.
func Value(v any) (any, error) {
	return value(reflect.ValueOf(v))
}

func value(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		if m, ok := v.Interface().(json.Marshaler); ok {
			return viaJSON(m)
		}
		return value(v.Elem())
	}

	if m, ok := marshaler(v); ok {
		return viaJSON(m)
	}

	switch v.Kind() {
	case reflect.Struct:
		return structFields(v)

	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			elem, err := value(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			elem, err := value(iter.Value())
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = elem
		}
		return out, nil

	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	}

	return viaJSON(v.Interface())
}

// marshaler reports whether v, or a pointer to a copy of it, implements
// json.Marshaler.
func marshaler(v reflect.Value) (json.Marshaler, bool) {
	if m, ok := v.Interface().(json.Marshaler); ok {
		return m, true
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	m, ok := p.Interface().(json.Marshaler)
	return m, ok
}

// viaJSON round-trips a value through encoding/json so intrinsic functions end
// up as plain maps the template builder can walk.
func viaJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
