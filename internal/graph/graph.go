// Package graph renders the resource dependency graph of a template as DOT or
// Mermaid.
package graph

import (
	"io"
	"slices"
	"strings"

	"github.com/emicklei/dot"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator renders dependency graphs.
type Generator struct {
	// IncludeParameters adds a node for every referenced template parameter.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate writes the dependency graph of t to w. An edge points from a
// resource to what it depends on; edges that exist only through DependsOn
// are dashed.
func (g *Generator) Generate(t *goalstack.Template, w io.Writer) error {
	graph := g.buildGraph(t)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString returns the graph as a string.
func (g *Generator) GenerateString(t *goalstack.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(t *goalstack.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(t.Resources)
	if g.ClusterByType {
		g.addClusteredNodes(graph, t, names)
	} else {
		for _, name := range names {
			label(graph.Node(name), name, t.Resources[name].Type)
		}
	}

	deps := template.Dependencies(t)
	for _, name := range names {
		def := t.Resources[name]
		referenced := template.References(def.Properties)

		for _, dep := range deps[name] {
			e := graph.Edge(graph.Node(name), graph.Node(dep))
			if !slices.Contains(referenced, dep) {
				e.Attr("style", "dashed")
			}
		}

		if !g.IncludeParameters {
			continue
		}
		for _, ref := range referenced {
			if _, ok := t.Parameters[ref]; !ok {
				continue
			}
			p := graph.Node(ref)
			p.Attr("shape", "ellipse")
			p.Attr("style", "dashed")
			p.Label(ref)
			graph.Edge(graph.Node(name), p)
		}
	}

	return graph
}

// addClusteredNodes groups resources of services with more than one resource
// into a cluster per service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, t *goalstack.Template, names []string) {
	byService := make(map[string][]string)
	var services []string
	for _, name := range names {
		service := Service(t.Resources[name].Type)
		if _, ok := byService[service]; !ok {
			services = append(services, service)
		}
		byService[service] = append(byService[service], name)
	}
	slices.Sort(services)

	for _, service := range services {
		members := byService[service]
		parent := graph
		if len(members) > 1 {
			parent = graph.Subgraph("cluster_"+service, dot.ClusterOption{})
			parent.Attr("label", service)
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}
		for _, name := range members {
			label(parent.Node(name), name, t.Resources[name].Type)
		}
	}
}

func label(n dot.Node, name, resourceType string) {
	n.Label(name + "\\n[" + resourceType + "]")
}

// Service extracts the service from a resource type.
// e.g., "AWS::S3::Bucket" -> "S3"
func Service(resourceType string) string {
	parts := strings.Split(resourceType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames(m map[string]goalstack.ResourceDef) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
