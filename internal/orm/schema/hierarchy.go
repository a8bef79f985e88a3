package schema

import (
	"fmt"
	"sort"
	"strings"
)

// HierarchyGraph is the supertype graph between declared types.
// Edges run from a subtype to its supertype.
type HierarchyGraph struct {
	nodes map[string]*EntitySchema
	edges map[string][]string
}

// NewHierarchyGraph creates a new hierarchy graph
func NewHierarchyGraph(schemas map[string]*EntitySchema) *HierarchyGraph {
	graph := &HierarchyGraph{
		nodes: schemas,
		edges: make(map[string][]string),
	}

	for name, schema := range schemas {
		if schema.Supertype != "" {
			graph.edges[name] = append(graph.edges[name], schema.Supertype)
		}
	}

	return graph
}

// DetectCycles detects types that (transitively) extend themselves
func (g *HierarchyGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string) bool
	dfs = func(node string, path []string) bool {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				if dfs(neighbor, path) {
					return true
				}
			} else if recursionStack[neighbor] {
				cycleStart := -1
				for i, n := range path {
					if n == neighbor {
						cycleStart = i
						break
					}
				}
				if cycleStart >= 0 {
					cycle := make([]string, len(path)-cycleStart)
					copy(cycle, path[cycleStart:])
					cycles = append(cycles, cycle)
				}
				return true
			}
		}

		recursionStack[node] = false
		return false
	}

	for _, node := range g.sortedNodes() {
		if !visited[node] {
			dfs(node, []string{})
		}
	}

	return cycles
}

// TopologicalSort returns type names with every supertype ahead of its subtypes.
// Ties are broken by name so the order is stable.
func (g *HierarchyGraph) TopologicalSort() ([]string, error) {
	outDegree := make(map[string]int)
	for node := range g.nodes {
		outDegree[node] = 0
		for _, target := range g.edges[node] {
			if _, known := g.nodes[target]; known {
				outDegree[node]++
			}
		}
	}

	reverseEdges := make(map[string][]string)
	for source, targets := range g.edges {
		for _, target := range targets {
			reverseEdges[target] = append(reverseEdges[target], source)
		}
	}
	for _, sources := range reverseEdges {
		sort.Strings(sources)
	}

	queue := []string{}
	for _, node := range g.sortedNodes() {
		if outDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := []string{}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range reverseEdges[node] {
			outDegree[dependent]--
			if outDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		cycles := g.DetectCycles()
		if len(cycles) > 0 {
			return nil, fmt.Errorf("circular inheritance detected: %s", formatCycles(cycles))
		}
		return nil, fmt.Errorf("circular inheritance detected")
	}

	return result, nil
}

// GetSupertype returns the direct supertype name of a type, or ""
func (g *HierarchyGraph) GetSupertype(name string) string {
	if deps := g.edges[name]; len(deps) > 0 {
		return deps[0]
	}
	return ""
}

// GetSubtypes returns the sorted names of the direct subtypes of a type
func (g *HierarchyGraph) GetSubtypes(name string) []string {
	subtypes := []string{}
	for node, deps := range g.edges {
		for _, dep := range deps {
			if dep == name {
				subtypes = append(subtypes, node)
				break
			}
		}
	}
	sort.Strings(subtypes)
	return subtypes
}

// Roots returns the sorted names of types that extend nothing
func (g *HierarchyGraph) Roots() []string {
	roots := []string{}
	for _, node := range g.sortedNodes() {
		if len(g.edges[node]) == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

func (g *HierarchyGraph) sortedNodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("  Cycle %d: %s -> %s",
			i+1,
			strings.Join(cycle, " -> "),
			cycle[0]))
	}
	return b.String()
}

// HierarchyReport summarises the inheritance structure of a set of schemas
type HierarchyReport struct {
	TotalTypes int
	Roots      []string
	Subtypes   map[string][]string
	Strategies map[string]InheritanceStrategy
	Cycles     [][]string
	HasCycles  bool
	Order      []string
}

// AnalyzeHierarchy builds a HierarchyReport for the given schemas
func AnalyzeHierarchy(schemas map[string]*EntitySchema) *HierarchyReport {
	graph := NewHierarchyGraph(schemas)
	report := &HierarchyReport{
		TotalTypes: len(schemas),
		Roots:      graph.Roots(),
		Subtypes:   make(map[string][]string),
		Strategies: make(map[string]InheritanceStrategy),
		Cycles:     make([][]string, 0),
	}

	for name := range schemas {
		if subs := graph.GetSubtypes(name); len(subs) > 0 {
			report.Subtypes[name] = subs
		}
	}
	for _, root := range report.Roots {
		report.Strategies[root] = schemas[root].Strategy
	}

	if cycles := graph.DetectCycles(); len(cycles) > 0 {
		report.Cycles = cycles
		report.HasCycles = true
	}

	if order, err := graph.TopologicalSort(); err == nil {
		report.Order = order
	}

	return report
}

// String formats the hierarchy report
func (r *HierarchyReport) String() string {
	var b strings.Builder

	b.WriteString("Hierarchy Report\n")
	b.WriteString(fmt.Sprintf("Total Types: %d\n\n", r.TotalTypes))

	if r.HasCycles {
		b.WriteString("ERRORS:\n")
		b.WriteString("Circular inheritance detected:\n")
		b.WriteString(formatCycles(r.Cycles))
		b.WriteString("\n\n")
	}

	var write func(name string, depth int)
	write = func(name string, depth int) {
		b.WriteString(strings.Repeat("  ", depth+1))
		b.WriteString(name)
		if depth == 0 {
			if subs := r.Subtypes[name]; len(subs) > 0 {
				b.WriteString(fmt.Sprintf(" (%s)", r.Strategies[name]))
			}
		}
		b.WriteString("\n")
		for _, sub := range r.Subtypes[name] {
			write(sub, depth+1)
		}
	}

	if !r.HasCycles {
		b.WriteString("Hierarchies:\n")
		for _, root := range r.Roots {
			write(root, 0)
		}
	}

	return b.String()
}
