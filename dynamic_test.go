package mapf

import "testing"

func TestParallelPathTimes(t *testing.T) {
	net, _ := NewNetwork(3, []Edge{{1, 2}, {2, 3}}, true)
	cfg := NewConfig(net, []int{1}, []int{3})
	cfg.VertexWait = UniformVertexParam(3, 1)
	cfg.EdgeWait = UniformEdgeParam(net, 2)
	cfg.Departures = []float64{0.5}

	e12, _ := net.EdgeIndex(1, 2)
	e23, _ := net.EdgeIndex(2, 3)
	pathsV, pathsE := ParallelPathTimes(cfg, [][]int{{1, 2, 3}}, [][]int{{e12, e23}})

	wantV := []TimedVertex{{0.5, 1}, {3.5, 2}, {6.5, 3}}
	wantE := []TimedEdge{{1.5, Edge{1, 2}}, {4.5, Edge{2, 3}}}
	for k, tv := range pathsV[0] {
		if tv != wantV[k] {
			t.Fatalf("vertex %d: got %+v, want %+v", k, tv, wantV[k])
		}
	}
	for k, te := range pathsE[0] {
		if te != wantE[k] {
			t.Fatalf("edge %d: got %+v, want %+v", k, te, wantE[k])
		}
	}

	if ok, msg := CheckSolutionValidity(cfg, &MAPFSolution{PathsVertices: pathsV, PathsEdges: pathsE}, false); !ok {
		t.Fatalf("priced path must satisfy its own timing: %s", msg)
	}
}

func TestOrderingCutsSurviveReroutes(t *testing.T) {
	net, _ := NewNetwork(6, []Edge{{1, 2}, {6, 2}, {2, 3}, {2, 4}, {2, 5}, {5, 4}}, true)
	cfg := NewConfig(net, []int{1, 6}, []int{3, 4})
	layout := newContinuousLayout(cfg, true, CONFLICTS_LAZY)
	m := &MAPFModel{Cfg: cfg, modelLayout: *layout, BigM: 50, addedCuts: make(map[string]bool)}

	e23, _ := net.EdgeIndex(2, 3)
	e24, _ := net.EdgeIndex(2, 4)
	e25, _ := net.EdgeIndex(2, 5)
	solA := make([]float64, layout.VarCount)
	solA[m.XIdx(0, e23)] = 1
	solA[m.XIdx(1, e24)] = 1

	c := &Conflict{Vertex: 2, Agent1: 0, Agent2: 1}
	rows, err := m.buildVertexOrderingCut(c, solA, 0.01)
	if err != nil || len(rows) != 2 {
		t.Fatalf("first cut: %d rows, err %v", len(rows), err)
	}

	// agent 1 reroutes over (2,5); the same clash at vertex 2 must yield
	// fresh rows against the new leave edge
	solA[m.XIdx(1, e24)] = 0
	solA[m.XIdx(1, e25)] = 1
	rows, err = m.buildVertexOrderingCut(c, solA, 0.01)
	if err != nil || len(rows) != 2 {
		t.Fatalf("cut after reroute: %d rows, err %v", len(rows), err)
	}
	found := false
	for _, ind := range rows[0].ind {
		if ind == int32(m.TEIdx(1, e25)) {
			found = true
		}
	}
	if !found {
		t.Fatal("reissued cut does not order against the new leave edge")
	}

	ec := &Conflict{E: Edge{2, 3}, Agent1: 0, Agent2: 1}
	if _, err := m.buildEdgeOrderingCut(ec, solA, 0.01); err != nil {
		t.Fatal(err)
	}
	if rows, err := m.buildEdgeOrderingCut(ec, solA, 0.01); err != nil || len(rows) != 2 {
		t.Fatalf("repeated edge clash must stay buildable: %d rows, err %v", len(rows), err)
	}
}

func TestSelectionsOverlap(t *testing.T) {
	if selectionsOverlap([][]int{{1, 2}, {3, 4}}, [][]int{{0}, {1}}) {
		t.Fatal("disjoint selections flagged")
	}
	if !selectionsOverlap([][]int{{1, 2}, {2, 3}}, [][]int{{0}, {1}}) {
		t.Fatal("shared vertex 2 not flagged")
	}
	if !selectionsOverlap([][]int{{1, 2}, {3, 4}}, [][]int{{0}, {0}}) {
		t.Fatal("shared edge 0 not flagged")
	}
}
