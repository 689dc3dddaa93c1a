package mapf

import "testing"

func pairIs(c *Conflict, a1, a2 int) bool {
	return (c.Agent1 == a1 && c.Agent2 == a2) || (c.Agent1 == a2 && c.Agent2 == a1)
}

func TestDetectVertexConflictOverlap(t *testing.T) {
	// agent 0 parks at vertex 2 from t=2, agent 1 dwells there [1.5,3)
	pathsV := [][]TimedVertex{
		{{0, 1}, {2, 2}},
		{{1.5, 2}, {4, 3}},
	}
	pathsE := [][]TimedEdge{
		{{1, Edge{1, 2}}},
		{{3, Edge{2, 3}}},
	}
	c := DetectVertexConflict(pathsV, pathsE, 0)
	if c == nil {
		t.Fatal("expected a vertex conflict at vertex 2")
	}
	if c.Vertex != 2 || !pairIs(c, 0, 1) {
		t.Fatalf("wrong conflict: %+v", c)
	}
}

func TestDetectVertexConflictFinalVertexHeldForever(t *testing.T) {
	// agent 0 never leaves vertex 2; agent 1 passes through much later
	pathsV := [][]TimedVertex{
		{{0, 1}, {2, 2}},
		{{10, 2}, {12, 3}},
	}
	pathsE := [][]TimedEdge{
		{{1, Edge{1, 2}}},
		{{11, Edge{2, 3}}},
	}
	c := DetectVertexConflict(pathsV, pathsE, 0)
	if c == nil || c.Vertex != 2 {
		t.Fatalf("parked agent must block its target vertex, got %+v", c)
	}
}

func TestDetectVertexConflictTouchingIntervals(t *testing.T) {
	// agent 1 leaves vertex 2 exactly when agent 0 enters it
	pathsV := [][]TimedVertex{
		{{0, 1}, {2, 2}},
		{{0, 2}, {3, 3}},
	}
	pathsE := [][]TimedEdge{
		{{1, Edge{1, 2}}},
		{{2, Edge{2, 3}}},
	}
	if c := DetectVertexConflict(pathsV, pathsE, 0); c != nil {
		t.Fatalf("touching intervals are not a conflict, got %+v", c)
	}
}

func TestDetectEdgeConflict(t *testing.T) {
	pathsV := [][]TimedVertex{
		{{0, 1}, {2, 2}},
		{{0.5, 1}, {2.5, 2}},
	}
	pathsE := [][]TimedEdge{
		{{1, Edge{1, 2}}},
		{{1.5, Edge{1, 2}}},
	}
	c := DetectEdgeConflict(pathsV, pathsE, true, 0)
	if c == nil {
		t.Fatal("expected an edge conflict on (1,2)")
	}
	if c.Swap {
		t.Fatal("same-direction overlap must not be flagged as swap")
	}
	if (c.E != Edge{1, 2}) {
		t.Fatalf("wrong edge: %+v", c.E)
	}
}

func TestDetectSwapConflict(t *testing.T) {
	pathsV := [][]TimedVertex{
		{{0, 1}, {2, 2}},
		{{0, 2}, {2.5, 1}},
	}
	pathsE := [][]TimedEdge{
		{{1, Edge{1, 2}}},
		{{1.5, Edge{2, 1}}},
	}
	c := DetectEdgeConflict(pathsV, pathsE, true, 0)
	if c == nil || !c.Swap {
		t.Fatalf("expected a swap conflict, got %+v", c)
	}
	// E carries Agent1's travel direction
	var want Edge
	if c.Agent1 == 0 {
		want = Edge{1, 2}
	} else {
		want = Edge{2, 1}
	}
	if c.E != want {
		t.Fatalf("swap edge %+v does not match agent %d's direction", c.E, c.Agent1)
	}
	if got := DetectEdgeConflict(pathsV, pathsE, false, 0); got != nil {
		t.Fatalf("with swap detection off the anti-parallel pair is fine, got %+v", got)
	}
}

func TestDetectNoConflictOnDisjointPaths(t *testing.T) {
	pathsV := [][]TimedVertex{
		{{0, 1}, {2, 2}},
		{{0, 3}, {2, 4}},
	}
	pathsE := [][]TimedEdge{
		{{1, Edge{1, 2}}},
		{{1, Edge{3, 4}}},
	}
	if c := DetectVertexConflict(pathsV, pathsE, 0); c != nil {
		t.Fatalf("unexpected vertex conflict: %+v", c)
	}
	if c := DetectEdgeConflict(pathsV, pathsE, true, 0); c != nil {
		t.Fatalf("unexpected edge conflict: %+v", c)
	}
}
