package schema

import (
	"strings"
	"testing"
)

func schemaMap(schemas ...*EntitySchema) map[string]*EntitySchema {
	result := make(map[string]*EntitySchema, len(schemas))
	for _, s := range schemas {
		result[s.Name] = s
	}
	return result
}

func TestHierarchyGraph_TopologicalSort(t *testing.T) {
	graph := NewHierarchyGraph(schemaMap(catalogSchemas()...))

	order, err := graph.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 10 {
		t.Fatalf("expected 10 types, got %d", len(order))
	}

	position := make(map[string]int)
	for i, name := range order {
		position[name] = i
	}
	pairs := [][2]string{
		{"Thing", "ThingWithQuantity"},
		{"Thing", "LabelledThing"},
		{"Vehicle", "Car"},
		{"Car", "SportsCar"},
	}
	for _, pair := range pairs {
		if position[pair[0]] > position[pair[1]] {
			t.Errorf("%s should come before %s in %v", pair[0], pair[1], order)
		}
	}

	again, _ := graph.TopologicalSort()
	if strings.Join(order, ",") != strings.Join(again, ",") {
		t.Errorf("order should be stable: %v vs %v", order, again)
	}
}

func TestHierarchyGraph_DetectCycles(t *testing.T) {
	t.Run("no cycles", func(t *testing.T) {
		graph := NewHierarchyGraph(schemaMap(catalogSchemas()...))
		if cycles := graph.DetectCycles(); len(cycles) != 0 {
			t.Errorf("expected no cycles, got %v", cycles)
		}
	})

	t.Run("two-type cycle", func(t *testing.T) {
		graph := NewHierarchyGraph(schemaMap(
			NewEntitySchema("A").Extends("B"),
			NewEntitySchema("B").Extends("A"),
		))

		cycles := graph.DetectCycles()
		if len(cycles) != 1 {
			t.Fatalf("expected 1 cycle, got %v", cycles)
		}
		if len(cycles[0]) != 2 {
			t.Errorf("expected cycle of 2, got %v", cycles[0])
		}

		if _, err := graph.TopologicalSort(); err == nil {
			t.Error("expected error from TopologicalSort")
		}
	})

	t.Run("self extension", func(t *testing.T) {
		graph := NewHierarchyGraph(schemaMap(NewEntitySchema("Loop").Extends("Loop")))
		cycles := graph.DetectCycles()
		if len(cycles) != 1 || cycles[0][0] != "Loop" {
			t.Errorf("expected self cycle, got %v", cycles)
		}
	})
}

func TestHierarchyGraph_Navigation(t *testing.T) {
	graph := NewHierarchyGraph(schemaMap(catalogSchemas()...))

	if graph.GetSupertype("SportsCar") != "Car" {
		t.Errorf("expected Car, got %q", graph.GetSupertype("SportsCar"))
	}
	if graph.GetSupertype("Vehicle") != "" {
		t.Errorf("root should have no supertype")
	}

	subs := graph.GetSubtypes("Thing")
	if strings.Join(subs, ",") != "LabelledThing,ThingWithQuantity" {
		t.Errorf("unexpected subtypes %v", subs)
	}

	roots := graph.Roots()
	want := "Money,Product,Standalone,Supplier,Thing,Vehicle"
	if strings.Join(roots, ",") != want {
		t.Errorf("expected roots %s, got %v", want, roots)
	}
}

func TestAnalyzeHierarchy(t *testing.T) {
	report := NewRegistry().MustRegister(catalogSchemas()...).AnalyzeHierarchy()

	if report.TotalTypes != 10 {
		t.Errorf("expected 10 types, got %d", report.TotalTypes)
	}
	if report.HasCycles {
		t.Error("expected no cycles")
	}
	if report.Strategies["Vehicle"] != StrategyJoined {
		t.Errorf("expected joined, got %s", report.Strategies["Vehicle"])
	}

	out := report.String()
	for _, want := range []string{
		"Hierarchy Report\nTotal Types: 10\n\n",
		"Hierarchies:\n",
		"  Thing (single_table)\n    LabelledThing\n    ThingWithQuantity\n",
		"  Vehicle (joined)\n    Car\n      SportsCar\n",
		"  Standalone\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeHierarchy_Cycles(t *testing.T) {
	report := AnalyzeHierarchy(schemaMap(
		NewEntitySchema("A").Extends("B"),
		NewEntitySchema("B").Extends("A"),
	))

	if !report.HasCycles {
		t.Fatal("expected cycles")
	}
	if report.Order != nil {
		t.Errorf("expected no order, got %v", report.Order)
	}

	out := report.String()
	if !strings.Contains(out, "Circular inheritance detected") || strings.Contains(out, "Hierarchies:") {
		t.Errorf("unexpected report:\n%s", out)
	}
}
