// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/template"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    goalstack.TemplateDiff
	Summary goalstack.DiffSummary
}

// Compare compares two templates and returns what changed going from before
// to after. Values are compared in their JSON form, so a freshly built
// template and one loaded from disk compare equal when they render the same.
func Compare(before, after *goalstack.Template, opts Options) (*Result, error) {
	res1, err := normalize(before.Resources)
	if err != nil {
		return nil, fmt.Errorf("normalizing resources: %w", err)
	}
	res2, err := normalize(after.Resources)
	if err != nil {
		return nil, fmt.Errorf("normalizing resources: %w", err)
	}

	result := &Result{}

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, goalstack.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def1 := range res1 {
		def2, exists := res2[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, goalstack.DiffEntry{Resource: name, Type: def1.Type})
			continue
		}
		if changes := compareResources(def1, def2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, goalstack.DiffEntry{
				Resource: name,
				Type:     def1.Type,
				Changes:  changes,
			})
		}
	}

	result.Diff.Outputs, err = compareOutputs(before, after, opts)
	if err != nil {
		return nil, err
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = goalstack.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a JSON or YAML template from a file.
func LoadTemplate(path string) (*goalstack.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return template.Load(data)
}

// normalize round-trips v through JSON so intrinsics, typed slices and
// integer widths all compare the same way.
func normalize[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func compareResources(def1, def2 goalstack.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s -> %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !sameSet(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %q -> %q", def1.DeletionPolicy, def2.DeletionPolicy))
	}
	if def1.UpdateReplacePolicy != def2.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %q -> %q", def1.UpdateReplacePolicy, def2.UpdateReplacePolicy))
	}

	return changes
}

// compareProperties reports changed top-level keys, descending into nested
// property maps so the change names the deepest differing key.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := join(prefix, key)
		val1, exists := props1[key]
		if !exists {
			changes = append(changes, path+" added")
			continue
		}
		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, path+" modified")
		}
	}

	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, join(prefix, key)+" removed")
		}
	}

	sort.Strings(changes)
	return changes
}

func compareOutputs(before, after *goalstack.Template, opts Options) ([]string, error) {
	out1, err := normalize(before.Outputs)
	if err != nil {
		return nil, fmt.Errorf("normalizing outputs: %w", err)
	}
	out2, err := normalize(after.Outputs)
	if err != nil {
		return nil, fmt.Errorf("normalizing outputs: %w", err)
	}

	var changes []string
	for name, o2 := range out2 {
		o1, exists := out1[name]
		switch {
		case !exists:
			changes = append(changes, name+" added")
		case !deepEqual(o1.Value, o2.Value, opts):
			changes = append(changes, name+" modified")
		}
	}
	for name := range out1 {
		if _, exists := out2[name]; !exists {
			changes = append(changes, name+" removed")
		}
	}
	sort.Strings(changes)
	return changes, nil
}

func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeOrder(a)
		b = normalizeOrder(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeOrder sorts every slice in v by the JSON form of its elements.
func normalizeOrder(v any) any {
	switch val := v.(type) {
	case []any:
		type keyed struct {
			key   string
			value any
		}
		items := make([]keyed, len(val))
		for i, item := range val {
			item = normalizeOrder(item)
			data, _ := json.Marshal(item)
			items[i] = keyed{string(data), item}
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })
		result := make([]any, len(items))
		for i, item := range items {
			result[i] = item.value
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			result[k] = normalizeOrder(item)
		}
		return result
	default:
		return v
	}
}

// sameSet reports whether a and b hold the same strings regardless of order.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}

func sortEntries(entries []goalstack.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
