// Package template builds CloudFormation templates from registered resource
// descriptors, in dependency order.
package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/serialize"
)

// FormatVersion is the only template format version CloudFormation accepts.
const FormatVersion = "2010-09-09"

// PolicyDelete removes the physical resource when it leaves the stack.
const PolicyDelete = "Delete"

var (
	// ErrEmptyLogicalID is returned when a resource or output has no name.
	ErrEmptyLogicalID = errors.New("empty logical ID")
	// ErrDuplicate is returned when a logical ID is registered twice.
	ErrDuplicate = errors.New("duplicate logical ID")
	// ErrUndefinedReference is returned when a Ref, GetAtt or Sub names a
	// resource or parameter that does not exist.
	ErrUndefinedReference = errors.New("undefined reference")
	// ErrCycle is returned when resources depend on each other in a loop.
	ErrCycle = errors.New("circular dependency")
)

// Option adjusts how a resource is rendered.
type Option func(*entry)

// DependsOn adds explicit dependencies on top of those implied by references.
func DependsOn(logicalIDs ...string) Option {
	return func(e *entry) {
		e.dependsOn = append(e.dependsOn, logicalIDs...)
	}
}

// DeletionPolicy sets both DeletionPolicy and UpdateReplacePolicy.
func DeletionPolicy(policy string) Option {
	return func(e *entry) {
		e.deletionPolicy = policy
	}
}

type entry struct {
	resource       goalstack.Resource
	dependsOn      []string
	deletionPolicy string
}

// Builder collects resources, parameters and outputs and renders them into a
// template. The zero value is not usable; call NewBuilder.
type Builder struct {
	description string
	resources   map[string]*entry
	order       []string
	parameters  map[string]goalstack.Parameter
	outputs     map[string]outputEntry
}

type outputEntry struct {
	description string
	value       any
}

// NewBuilder creates an empty builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]*entry),
		parameters:  make(map[string]goalstack.Parameter),
		outputs:     make(map[string]outputEntry),
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// Add registers a resource under logicalID.
func (b *Builder) Add(logicalID string, r goalstack.Resource, opts ...Option) error {
	if logicalID == "" {
		return ErrEmptyLogicalID
	}
	if b.exists(logicalID) {
		return fmt.Errorf("%w: %s", ErrDuplicate, logicalID)
	}
	b.put(logicalID, r, opts)
	return nil
}

// Put registers or replaces a resource. It is used for resources whose content
// accumulates while the stack is assembled, such as IAM policies.
func (b *Builder) Put(logicalID string, r goalstack.Resource, opts ...Option) error {
	if logicalID == "" {
		return ErrEmptyLogicalID
	}
	if _, ok := b.parameters[logicalID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, logicalID)
	}
	b.put(logicalID, r, opts)
	return nil
}

func (b *Builder) put(logicalID string, r goalstack.Resource, opts []Option) {
	e := &entry{resource: r}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := b.resources[logicalID]; !ok {
		b.order = append(b.order, logicalID)
	}
	b.resources[logicalID] = e
}

func (b *Builder) exists(logicalID string) bool {
	if _, ok := b.resources[logicalID]; ok {
		return true
	}
	_, ok := b.parameters[logicalID]
	return ok
}

// Has reports whether a resource is registered under logicalID.
func (b *Builder) Has(logicalID string) bool {
	_, ok := b.resources[logicalID]
	return ok
}

// Apply adds options to a resource that is already registered, keeping the
// ones it was registered with.
func (b *Builder) Apply(logicalID string, opts ...Option) error {
	e, ok := b.resources[logicalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndefinedReference, logicalID)
	}
	for _, opt := range opts {
		opt(e)
	}
	return nil
}

// Names returns the registered logical IDs in registration order.
func (b *Builder) Names() []string {
	return append([]string(nil), b.order...)
}

// AddParameter declares a template parameter.
func (b *Builder) AddParameter(name string, p goalstack.Parameter) error {
	if name == "" {
		return ErrEmptyLogicalID
	}
	if b.exists(name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	if p.Type == "" {
		p.Type = "String"
	}
	b.parameters[name] = p
	return nil
}

// AddOutput declares a stack output. The value may be any intrinsic.
func (b *Builder) AddOutput(name, description string, value any) error {
	if name == "" {
		return ErrEmptyLogicalID
	}
	if _, ok := b.outputs[name]; ok {
		return fmt.Errorf("%w: output %s", ErrDuplicate, name)
	}
	b.outputs[name] = outputEntry{description: description, value: value}
	return nil
}

// Build serializes every resource, checks that all references resolve and
// that the dependency graph is acyclic, and returns the template.
func (b *Builder) Build() (*goalstack.Template, error) {
	t := &goalstack.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]goalstack.ResourceDef, len(b.resources)),
	}

	if len(b.parameters) > 0 {
		t.Parameters = make(map[string]goalstack.Parameter, len(b.parameters))
		for name, p := range b.parameters {
			t.Parameters[name] = p
		}
	}

	for _, name := range b.order {
		e := b.resources[name]
		props, err := serialize.Properties(e.resource)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}
		def := goalstack.ResourceDef{
			Type:       e.resource.ResourceType(),
			Properties: props,
		}
		if len(e.dependsOn) > 0 {
			def.DependsOn = dedupe(e.dependsOn)
		}
		if e.deletionPolicy != "" {
			def.DeletionPolicy = e.deletionPolicy
			def.UpdateReplacePolicy = e.deletionPolicy
		}
		t.Resources[name] = def
	}

	if len(b.outputs) > 0 {
		t.Outputs = make(map[string]goalstack.Output, len(b.outputs))
		for name, o := range b.outputs {
			value, err := serialize.Value(o.value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			t.Outputs[name] = goalstack.Output{Description: o.description, Value: value}
		}
	}

	if err := CheckReferences(t); err != nil {
		return nil, err
	}
	if _, err := Order(t); err != nil {
		return nil, err
	}
	return t, nil
}

// CheckReferences reports every reference in t that does not resolve to a
// resource or parameter, joined into one error.
func CheckReferences(t *goalstack.Template) error {
	var errs []error
	check := func(owner string, value any) {
		for _, ref := range References(value) {
			if _, ok := t.Resources[ref]; ok {
				continue
			}
			if _, ok := t.Parameters[ref]; ok {
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %s references %s", ErrUndefinedReference, owner, ref))
		}
	}

	for _, name := range sortedKeys(t.Resources) {
		def := t.Resources[name]
		check(name, def.Properties)
		for _, dep := range def.DependsOn {
			if _, ok := t.Resources[dep]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s depends on %s", ErrUndefinedReference, name, dep))
			}
		}
	}
	for _, name := range sortedKeys(t.Outputs) {
		check("output "+name, t.Outputs[name].Value)
	}

	return errors.Join(errs...)
}

// References returns the logical IDs a property value refers to through Ref,
// Fn::GetAtt and Fn::Sub. Pseudo parameters (AWS::*) are skipped. The result
// is sorted and free of duplicates.
func References(value any) []string {
	seen := make(map[string]bool)
	collect(value, seen)
	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func collect(value any, seen map[string]bool) {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v["Ref"].(string); ok && len(v) == 1 {
			addRef(ref, seen)
			return
		}
		if getAtt, ok := v["Fn::GetAtt"]; ok && len(v) == 1 {
			switch args := getAtt.(type) {
			case []any:
				if len(args) > 0 {
					if name, ok := args[0].(string); ok {
						addRef(name, seen)
					}
				}
			case []string:
				if len(args) > 0 {
					addRef(args[0], seen)
				}
			case string:
				name, _, _ := strings.Cut(args, ".")
				addRef(name, seen)
			}
			return
		}
		if sub, ok := v["Fn::Sub"]; ok && len(v) == 1 {
			collectSub(sub, seen)
			return
		}
		for _, item := range v {
			collect(item, seen)
		}
	case map[string][]string:
		if args, ok := v["Fn::GetAtt"]; ok && len(args) > 0 {
			addRef(args[0], seen)
		}
	case []any:
		for _, item := range v {
			collect(item, seen)
		}
	}
}

func collectSub(sub any, seen map[string]bool) {
	var (
		text   string
		locals map[string]any
	)
	switch s := sub.(type) {
	case string:
		text = s
	case []any:
		if len(s) > 0 {
			text, _ = s[0].(string)
		}
		if len(s) > 1 {
			locals, _ = s[1].(map[string]any)
			for _, item := range locals {
				collect(item, seen)
			}
		}
	}

	for _, name := range SubVariables(text) {
		if _, local := locals[name]; local {
			continue
		}
		addRef(name, seen)
	}
}

// SubVariables extracts the resource or parameter names used as ${Name} or
// ${Name.Attribute} in an Fn::Sub string. ${!Literal} escapes are ignored.
func SubVariables(s string) []string {
	var names []string
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			return names
		}
		s = s[start+2:]
		end := strings.Index(s, "}")
		if end < 0 {
			return names
		}
		variable := s[:end]
		s = s[end+1:]
		if variable == "" || strings.HasPrefix(variable, "!") {
			continue
		}
		name, _, _ := strings.Cut(variable, ".")
		names = append(names, name)
	}
}

func addRef(name string, seen map[string]bool) {
	if name == "" || strings.HasPrefix(name, "AWS::") {
		return
	}
	seen[name] = true
}

// Dependencies returns, for every resource in t, the sorted resources it
// depends on, either through references or an explicit DependsOn. Parameters
// are not included.
func Dependencies(t *goalstack.Template) map[string][]string {
	deps := make(map[string][]string, len(t.Resources))
	for name, def := range t.Resources {
		set := make(map[string]bool)
		for _, ref := range References(def.Properties) {
			if _, ok := t.Resources[ref]; ok && ref != name {
				set[ref] = true
			}
		}
		for _, dep := range def.DependsOn {
			if _, ok := t.Resources[dep]; ok {
				set[dep] = true
			}
		}
		list := make([]string, 0, len(set))
		for dep := range set {
			list = append(list, dep)
		}
		sort.Strings(list)
		deps[name] = list
	}
	return deps
}

// Order returns the resources of t in dependency order. Among resources that
// are ready at the same time the order is alphabetical, so the result is
// deterministic. A cycle yields ErrCycle naming its members.
func Order(t *goalstack.Template) ([]string, error) {
	deps := Dependencies(t)

	dependents := make(map[string][]string, len(deps))
	inDegree := make(map[string]int, len(deps))
	for name, list := range deps {
		inDegree[name] = len(list)
		for _, dep := range list {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(deps))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, next := range dependents[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
				sort.Strings(queue)
			}
		}
	}

	if len(order) != len(deps) {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(findCycle(deps), " -> "))
	}
	return order, nil
}

// findCycle walks deps depth-first and returns the first cycle found, with the
// starting resource repeated at the end.
func findCycle(deps map[string][]string) []string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(deps))
	var path []string
	var cycle []string

	var visit func(string) bool
	visit = func(node string) bool {
		state[node] = onPath
		path = append(path, node)
		for _, dep := range deps[node] {
			switch state[dep] {
			case onPath:
				for i, p := range path {
					if p == dep {
						cycle = append(append([]string(nil), path[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		state[node] = done
		return false
	}

	for _, name := range sortedKeys(deps) {
		if state[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return nil
}

// ToJSON serializes the template to indented JSON.
func ToJSON(t *goalstack.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML using long-form intrinsics.
func ToYAML(t *goalstack.Template) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load parses a JSON or YAML template.
func Load(data []byte) (*goalstack.Template, error) {
	var t goalstack.Template
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return nil, fmt.Errorf("parsing JSON template: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &t); err != nil {
			return nil, fmt.Errorf("parsing YAML template: %w", err)
		}
	}
	if t.Resources == nil {
		t.Resources = make(map[string]goalstack.ResourceDef)
	}
	return &t, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
