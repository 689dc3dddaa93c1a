package mapf

import "testing"

func TestNetworkDirected(t *testing.T) {
	net, err := NewNetwork(3, []Edge{{1, 2}, {2, 3}}, true)
	if err != nil {
		t.Fatal(err)
	}
	if net.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", net.EdgeCount())
	}
	if len(net.OutEdges(2)) != 1 || len(net.InEdges(2)) != 1 {
		t.Fatalf("vertex 2 should have one in and one out edge")
	}
	if _, ok := net.EdgeIndex(2, 1); ok {
		t.Fatal("directed graph must not contain the reversed edge")
	}
	if e, _ := net.EdgeIndex(1, 2); net.ReverseEdge(e) != -1 {
		t.Fatal("edge (1,2) has no reverse")
	}
}

func TestNetworkUndirectedCanonicalization(t *testing.T) {
	net, err := NewNetwork(3, []Edge{{1, 2}, {2, 3}}, false)
	if err != nil {
		t.Fatal(err)
	}
	if net.EdgeCount() != 4 {
		t.Fatalf("undirected input must be duplicated, got %d edges", net.EdgeCount())
	}
	e12, ok := net.EdgeIndex(1, 2)
	if !ok {
		t.Fatal("missing edge (1,2)")
	}
	e21, ok := net.EdgeIndex(2, 1)
	if !ok {
		t.Fatal("missing edge (2,1)")
	}
	if net.ReverseEdge(e12) != e21 || net.ReverseEdge(e21) != e12 {
		t.Fatal("reverse pairing broken")
	}
	pairs := net.SwapPairs()
	if len(pairs) != 2 {
		t.Fatalf("expected 2 swap pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		fwd := net.Edges[p[0]]
		if fwd.U >= fwd.V {
			t.Fatalf("swap pair not canonical: (%d,%d) first", fwd.U, fwd.V)
		}
	}
}

func TestNetworkRejectsBadEdges(t *testing.T) {
	if _, err := NewNetwork(2, []Edge{{1, 3}}, true); err == nil {
		t.Fatal("edge endpoint outside the vertex range must fail")
	}
	if _, err := NewNetwork(0, nil, true); err == nil {
		t.Fatal("empty vertex set must fail")
	}
}

func TestNetworkIgnoresDuplicateEdges(t *testing.T) {
	net, err := NewNetwork(2, []Edge{{1, 2}, {1, 2}}, true)
	if err != nil {
		t.Fatal(err)
	}
	if net.EdgeCount() != 1 {
		t.Fatalf("duplicate edge must be ignored, got %d edges", net.EdgeCount())
	}
}
