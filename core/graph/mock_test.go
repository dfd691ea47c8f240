package graph

import (
	"math"
	"testing"
)

func TestMockProviderShortestPath(t *testing.T) {
	g := NewMockProvider()
	g.AddEdge(1, 2, 10)
	g.AddEdge(2, 3, 10)
	g.AddEdge(1, 3, 50)

	if d := g.PathLength(1, 3); d != 20 {
		t.Fatalf("expected 20 got %v", d)
	}
	path, err := g.Path(1, 3)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if len(path) != 2 || path[0] != 2 || path[1] != 3 {
		t.Fatalf("unexpected path %v", path)
	}
}

func TestMockProviderSameNode(t *testing.T) {
	g := NewMockProvider()
	g.AddEdge(1, 2, 5)
	path, err := g.Path(1, 1)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if len(path) != 0 {
		t.Fatalf("expected empty path got %v", path)
	}
	if d := g.PathLength(1, 1); d != 0 {
		t.Fatalf("expected 0 got %v", d)
	}
}

func TestMockProviderUnreachable(t *testing.T) {
	g := NewMockProvider()
	g.AddEdge(1, 2, 5)
	g.AddNode(9)

	if !math.IsInf(g.PathLength(1, 9), 1) {
		t.Fatalf("expected +Inf distance")
	}
	if _, err := g.Path(1, 9); err != ErrNoPath {
		t.Fatalf("expected ErrNoPath got %v", err)
	}
	if g.Reachable(1, 9) {
		t.Fatalf("expected unreachable")
	}
}

func TestMockProviderEdgeWeight(t *testing.T) {
	g := NewMockProvider()
	g.AddEdge(1, 2, 5)
	w, err := g.EdgeWeight(2, 1)
	if err != nil || w != 5 {
		t.Fatalf("expected 5 got %v err %v", w, err)
	}
	if _, err := g.EdgeWeight(1, 3); err != ErrNoEdge {
		t.Fatalf("expected ErrNoEdge got %v", err)
	}
}
