package resolve

import (
	"errors"
	"testing"
)

func TestGraph_TopologicalSort_KeepsDeclarationOrderForIndependents(t *testing.T) {
	graph := NewGraph()
	for _, id := range []string{"z", "m", "a"} {
		if err := graph.Add(variableReq(t, id)); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort() error = %v", err)
	}

	want := []string{"z", "m", "a"}
	for i, req := range order {
		if req.Identity().String() != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, req.Identity(), want[i])
		}
	}
}

func TestGraph_TopologicalSort_DependenciesFirst(t *testing.T) {
	graph := NewGraph()
	reqs := []struct {
		id   string
		deps []string
	}{
		{id: "app", deps: []string{"db", "cache"}},
		{id: "db"},
		{id: "cache", deps: []string{"db"}},
	}
	for _, r := range reqs {
		if err := graph.Add(variableReq(t, r.id, r.deps...)); err != nil {
			t.Fatalf("Add(%s) error = %v", r.id, err)
		}
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort() error = %v", err)
	}

	position := map[string]int{}
	for i, req := range order {
		position[req.Identity().String()] = i
	}
	if position["db"] > position["cache"] || position["cache"] > position["app"] {
		t.Errorf("dependency order violated: %v", position)
	}
}

func TestGraph_TopologicalSort_ReportsCycleMembers(t *testing.T) {
	graph := NewGraph()
	graph.Add(variableReq(t, "a", "b"))
	graph.Add(variableReq(t, "b", "c"))
	graph.Add(variableReq(t, "c", "a"))
	graph.Add(variableReq(t, "free"))

	_, err := graph.TopologicalSort()
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("error = %v, want ErrCyclicDependency", err)
	}
}

func TestGraph_Add_RejectsDuplicates(t *testing.T) {
	graph := NewGraph()
	if err := graph.Add(variableReq(t, "a")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := graph.Add(variableReq(t, "a")); !errors.Is(err, ErrDuplicateRequirement) {
		t.Fatalf("error = %v, want ErrDuplicateRequirement", err)
	}
}

func TestGraph_Validate_RejectsUndeclaredDependency(t *testing.T) {
	graph := NewGraph()
	graph.Add(variableReq(t, "a", "ghost"))

	if err := graph.Validate(); !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("Validate() error = %v, want ErrMissingDependency", err)
	}
}

func TestGraph_Depths(t *testing.T) {
	graph := NewGraph()
	graph.Add(variableReq(t, "root"))
	graph.Add(variableReq(t, "mid", "root"))
	graph.Add(variableReq(t, "leaf", "mid"))
	graph.Add(variableReq(t, "other"))

	depths := graph.Depths()
	want := map[string]int{"root": 0, "mid": 1, "leaf": 2, "other": 0}
	for id, d := range want {
		if depths[id] != d {
			t.Errorf("depth[%s] = %d, want %d", id, depths[id], d)
		}
	}
}

func TestGraph_Dependents(t *testing.T) {
	graph := NewGraph()
	graph.Add(variableReq(t, "db"))
	graph.Add(variableReq(t, "app", "db"))
	graph.Add(variableReq(t, "worker", "db"))

	dependents := graph.Dependents("db")
	if len(dependents) != 2 {
		t.Fatalf("Dependents(db) = %v, want 2 entries", dependents)
	}
}
